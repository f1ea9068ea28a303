package impl

import (
	"log/slog"

	"wander/internal/domain/entity"
	"wander/internal/tile"
	"wander/internal/usecase"
)

// aggregationService implements the AggregateUsecase interface.
type aggregationService struct {
	logger *slog.Logger
}

// NewAggregationService is the constructor for aggregationService.
func NewAggregationService(logger *slog.Logger) usecase.AggregateUsecase {
	return &aggregationService{
		logger: logger,
	}
}

// AggregateCities buckets cities into tiles. A city with invalid coordinates
// is skipped with a warning; one bad entity never aborts the pass.
func (srv *aggregationService) AggregateCities(cities []*entity.City, resolutionDeg float64) map[string]*entity.Tile {
	tiles := make(map[string]*entity.Tile)

	for _, city := range cities {
		if city == nil {
			continue
		}
		if !city.Location.Valid() {
			srv.logger.Warn("Skipping city with invalid coordinates",
				slog.Int64("cityID", city.ID),
				slog.Float64("latitude", city.Location.Latitude),
				slog.Float64("longitude", city.Location.Longitude),
			)

			continue
		}

		id := tile.ID(city.Location.Point(), resolutionDeg)
		bucket, ok := tiles[id]
		if !ok {
			bucket = &entity.Tile{}
			tiles[id] = bucket
		}
		bucket.Cities = append(bucket.Cities, city)
	}

	return tiles
}

// AggregateUsers buckets enriched users into tiles and marks the tile
// holding the viewer's own entity, so badge counts can exclude it.
func (srv *aggregationService) AggregateUsers(users []*entity.EnrichedUser, viewerID string, resolutionDeg float64) map[string]*entity.Tile {
	tiles := make(map[string]*entity.Tile)

	for _, user := range users {
		if user == nil {
			continue
		}
		if !user.Location.Valid() {
			srv.logger.Warn("Skipping user with invalid coordinates",
				slog.String("userID", user.ID),
				slog.Float64("latitude", user.Location.Latitude),
				slog.Float64("longitude", user.Location.Longitude),
			)

			continue
		}

		id := tile.ID(user.Location.Point(), resolutionDeg)
		bucket, ok := tiles[id]
		if !ok {
			bucket = &entity.Tile{}
			tiles[id] = bucket
		}
		bucket.Users = append(bucket.Users, user)

		if viewerID != "" && user.ID == viewerID {
			bucket.ContainsViewer = true
		}
	}

	return tiles
}
