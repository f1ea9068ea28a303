// Package handler contains the HTTP handlers of the map API.
package handler

import (
	"log/slog"
	"net/http"

	"wander/config"
	"wander/internal/delivery/http/response"
	"wander/internal/domain/entity"
	domainerrors "wander/internal/domain/errors"
	"wander/internal/tile"
	"wander/internal/usecase"
	"wander/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	tileKindCities = "cities"
	tileKindUsers  = "users"
)

// MapHandlerParams holds dependencies for MapHandler, injected by Fx.
type MapHandlerParams struct {
	fx.In

	Config *config.Config
	MapUC  usecase.MapUsecase
	Logger *slog.Logger
}

// MapHandler serves the aggregated tile snapshots and the viewer state.
type MapHandler struct {
	cfg    *config.Config
	mapUC  usecase.MapUsecase
	logger *slog.Logger
}

// NewMapHandler is the constructor for MapHandler
func NewMapHandler(params MapHandlerParams) *MapHandler {
	return &MapHandler{
		cfg:    params.Config,
		mapUC:  params.MapUC,
		logger: params.Logger,
	}
}

// TileResponse is one rendered tile. A tile with a single item renders that
// item's own icon; a tile with more renders a badge showing BadgeCount,
// which excludes the viewer's own marker.
type TileResponse struct {
	Center         entity.GeoPoint `json:"center"`
	Count          int             `json:"count"`
	BadgeCount     int             `json:"badge_count"`
	ContainsViewer bool            `json:"contains_viewer"`
	Cities         []CityResponse  `json:"cities,omitempty"`
	Users          []UserResponse  `json:"users,omitempty"`
}

// CityResponse is the wire shape of one city marker.
type CityResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Population  int64    `json:"population"`
	FoundedYear *int     `json:"founded_year,omitempty"`
	Landmarks   []string `json:"landmarks,omitempty"`
}

// UserResponse is the wire shape of one live user marker.
type UserResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Status     string   `json:"status"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	BudgetTier *int     `json:"budget_tier,omitempty"`
	Age        *int     `json:"age,omitempty"`
	Gender     *string  `json:"gender,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Cuisines   []string `json:"cuisines,omitempty"`
	AvatarURL  *string  `json:"avatar_url,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
}

// TilesResponse is the payload of GET /map/tiles.
type TilesResponse struct {
	Kind     string                  `json:"kind"`
	ViewerID string                  `json:"viewer_id,omitempty"`
	Tiles    map[string]TileResponse `json:"tiles"`
}

// GetTiles handles GET /map/tiles?kind=cities|users
func (h *MapHandler) GetTiles(c echo.Context) error {
	kind := c.QueryParam("kind")
	if kind == "" {
		kind = tileKindCities
	}

	var tiles map[string]*entity.Tile
	switch kind {
	case tileKindCities:
		tiles = h.mapUC.CityTiles()
	case tileKindUsers:
		tiles = h.mapUC.UserTiles()
	default:
		return domainerrors.ErrUnknownTileKind.WithDetails(kind)
	}

	payload := TilesResponse{
		Kind:     kind,
		ViewerID: h.mapUC.ViewerID(),
		Tiles:    make(map[string]TileResponse, len(tiles)),
	}

	resolution := h.resolution()
	for id, bucket := range tiles {
		center, err := tile.Center(id, resolution)
		if err != nil {
			// Tile ids are produced by the aggregation pass, so this is a
			// programmer error; skip the tile rather than fail the request.
			h.logger.Error("Skipping tile with malformed id",
				slog.String("tileID", id),
				slog.Any("error", err),
			)

			continue
		}

		payload.Tiles[id] = TileResponse{
			Center:         entity.FromPoint(center),
			Count:          bucket.Count(),
			BadgeCount:     bucket.BadgeCount(),
			ContainsViewer: bucket.ContainsViewer,
			Cities:         citiesResponse(bucket.Cities),
			Users:          usersResponse(bucket.Users),
		}
	}

	return response.Success(c, http.StatusOK, payload, "Tiles retrieved successfully")
}

// UpdateViewerRequest represents the request body for updating the viewer.
// Omitting the coordinates means the position is unknown: the radius filter
// goes inert and per-user distances are dropped.
type UpdateViewerRequest struct {
	ID        string   `json:"id" validate:"required"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

// UpdateViewer handles PUT /map/viewer
func (h *MapHandler) UpdateViewer(c echo.Context) error {
	var req UpdateViewerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid viewer input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	var position *entity.GeoPoint
	if req.Latitude != nil && req.Longitude != nil {
		position = &entity.GeoPoint{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		}
	}

	h.mapUC.SetViewer(req.ID, position)

	return response.Success(c, http.StatusOK, nil, "Viewer updated successfully")
}

func (h *MapHandler) resolution() float64 {
	if h.cfg.Map != nil && h.cfg.Map.TileResolutionDeg > 0 {
		return h.cfg.Map.TileResolutionDeg
	}

	return impl.DefaultTileResolutionDeg
}

func citiesResponse(cities []*entity.City) []CityResponse {
	if len(cities) == 0 {
		return nil
	}

	out := make([]CityResponse, 0, len(cities))
	for _, city := range cities {
		out = append(out, CityResponse{
			ID:          city.ID,
			Name:        city.Name,
			Country:     city.Country,
			Latitude:    city.Location.Latitude,
			Longitude:   city.Location.Longitude,
			Population:  city.Population,
			FoundedYear: city.FoundedYear,
			Landmarks:   city.Landmarks,
		})
	}

	return out
}

func usersResponse(users []*entity.EnrichedUser) []UserResponse {
	if len(users) == 0 {
		return nil
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, UserResponse{
			ID:         user.ID,
			Name:       user.DisplayName,
			Latitude:   user.Location.Latitude,
			Longitude:  user.Location.Longitude,
			Status:     string(user.Status),
			DistanceKm: user.DistanceFromViewerKm,
			BudgetTier: user.BudgetTier,
			Age:        user.EffectiveAge(),
			Gender:     user.Profile.Gender,
			Languages:  user.Profile.Languages,
			Cuisines:   user.Profile.Cuisines,
			AvatarURL:  user.Profile.AvatarURL,
			Bio:        user.Bio,
		})
	}

	return out
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
