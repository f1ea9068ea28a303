package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wander/config"
	"wander/internal/delivery/http/validator"
	"wander/internal/domain/entity"
	"wander/internal/tile"
	"wander/internal/usecase"
	"wander/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMapUsecase struct {
	cityTiles map[string]*entity.Tile
	userTiles map[string]*entity.Tile
	viewerID  string
	viewerPos *entity.GeoPoint
}

func (f *fakeMapUsecase) Start(ctx context.Context) error { return nil }

func (f *fakeMapUsecase) SetViewer(id string, position *entity.GeoPoint) {
	f.viewerID = id
	f.viewerPos = position
}

func (f *fakeMapUsecase) CityTiles() map[string]*entity.Tile { return f.cityTiles }
func (f *fakeMapUsecase) UserTiles() map[string]*entity.Tile { return f.userTiles }
func (f *fakeMapUsecase) ViewerID() string                   { return f.viewerID }
func (f *fakeMapUsecase) Close() error                       { return nil }

func newTestContext(t *testing.T, method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = validator.New()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func testMapHandler(mapUC usecase.MapUsecase) *MapHandler {
	return &MapHandler{
		cfg:    &config.Config{Map: &config.MapConfig{TileResolutionDeg: 0.1}},
		mapUC:  mapUC,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMapHandler_GetTiles_Cities(t *testing.T) {
	hanoi := &entity.City{
		ID: 1, Name: "Hanoi", Country: "Vietnam", Population: 8_000_000,
		Location: entity.GeoPoint{Latitude: 21.0285, Longitude: 105.8542},
	}
	tileID := tile.ID(orb.Point{105.8542, 21.0285}, 0.1)
	mapUC := &fakeMapUsecase{
		cityTiles: map[string]*entity.Tile{
			tileID: {Cities: []*entity.City{hanoi}},
		},
	}
	h := testMapHandler(mapUC)

	c, rec := newTestContext(t, http.MethodGet, "/map/tiles?kind=cities", "")
	require.NoError(t, h.GetTiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool          `json:"success"`
		Data    TilesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "cities", envelope.Data.Kind)
	require.Contains(t, envelope.Data.Tiles, tileID)

	got := envelope.Data.Tiles[tileID]
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, got.BadgeCount)
	require.Len(t, got.Cities, 1)
	assert.Equal(t, "Hanoi", got.Cities[0].Name)
	// Tile center is the middle of the containing 0.1 degree cell.
	assert.InDelta(t, 21.05, got.Center.Latitude, 1e-9)
	assert.InDelta(t, 105.85, got.Center.Longitude, 1e-9)
}

func TestMapHandler_GetTiles_DefaultsToCities(t *testing.T) {
	mapUC := &fakeMapUsecase{cityTiles: map[string]*entity.Tile{}}
	h := testMapHandler(mapUC)

	c, rec := newTestContext(t, http.MethodGet, "/map/tiles", "")
	require.NoError(t, h.GetTiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"cities"`)
}

func TestMapHandler_GetTiles_Users(t *testing.T) {
	user := &entity.EnrichedUser{
		LiveUser: entity.LiveUser{ID: "u1", DisplayName: "An",
			Location: entity.GeoPoint{Latitude: 21.0285, Longitude: 105.8542}},
		Status: entity.TravelStatusLocal,
	}
	tileID := tile.ID(orb.Point{105.8542, 21.0285}, 0.1)
	mapUC := &fakeMapUsecase{
		viewerID: "viewer",
		userTiles: map[string]*entity.Tile{
			tileID: {Users: []*entity.EnrichedUser{user}},
		},
	}
	h := testMapHandler(mapUC)

	c, rec := newTestContext(t, http.MethodGet, "/map/tiles?kind=users", "")
	require.NoError(t, h.GetTiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data TilesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "viewer", envelope.Data.ViewerID)
	require.Contains(t, envelope.Data.Tiles, tileID)
	require.Len(t, envelope.Data.Tiles[tileID].Users, 1)
	assert.Equal(t, "local", envelope.Data.Tiles[tileID].Users[0].Status)
}

func TestMapHandler_GetTiles_UnknownKind(t *testing.T) {
	h := testMapHandler(&fakeMapUsecase{})

	c, _ := newTestContext(t, http.MethodGet, "/map/tiles?kind=planets", "")
	err := h.GetTiles(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tile kind")
}

func TestMapHandler_UpdateViewer(t *testing.T) {
	mapUC := &fakeMapUsecase{}
	h := testMapHandler(mapUC)

	body := `{"id":"viewer","latitude":21.0285,"longitude":105.8542}`
	c, rec := newTestContext(t, http.MethodPut, "/map/viewer", body)
	require.NoError(t, h.UpdateViewer(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "viewer", mapUC.viewerID)
	require.NotNil(t, mapUC.viewerPos)
	assert.InDelta(t, 21.0285, mapUC.viewerPos.Latitude, 1e-9)
}

func TestMapHandler_UpdateViewer_WithoutPosition(t *testing.T) {
	mapUC := &fakeMapUsecase{}
	h := testMapHandler(mapUC)

	c, rec := newTestContext(t, http.MethodPut, "/map/viewer", `{"id":"viewer"}`)
	require.NoError(t, h.UpdateViewer(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "viewer", mapUC.viewerID)
	assert.Nil(t, mapUC.viewerPos)
}

func TestMapHandler_UpdateViewer_Validation(t *testing.T) {
	h := testMapHandler(&fakeMapUsecase{})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing id", body: `{"latitude":1,"longitude":1}`},
		{name: "latitude out of range", body: `{"id":"v","latitude":95,"longitude":1}`},
		{name: "longitude out of range", body: `{"id":"v","latitude":1,"longitude":181}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPut, "/map/viewer", tt.body)
			require.NoError(t, h.UpdateViewer(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func newFilterHandlerFixture(t *testing.T) (*FilterHandler, usecase.FilterUsecase, chan entity.FilterState) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	filterUC := impl.NewFilterService(20*time.Millisecond, logger)
	t.Cleanup(filterUC.Close)

	applied := make(chan entity.FilterState, 16)
	filterUC.Subscribe(func(state entity.FilterState) { applied <- state })

	return &FilterHandler{filterUC: filterUC, logger: logger}, filterUC, applied
}

func waitState(t *testing.T, ch <-chan entity.FilterState) entity.FilterState {
	t.Helper()

	select {
	case state := <-ch:
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("filter state never applied")

		return entity.FilterState{}
	}
}

func TestFilterHandler_UpdateFilters(t *testing.T) {
	h, _, applied := newFilterHandlerFixture(t)

	body := `{"country":"Vietnam","genders":["female"],"age_min":20,"age_max":30,"languages":["vi","en"]}`
	c, rec := newTestContext(t, http.MethodPut, "/map/filters", body)
	require.NoError(t, h.UpdateFilters(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	state := waitState(t, applied)
	require.NotNil(t, state.Country)
	assert.Equal(t, "Vietnam", *state.Country)
	assert.Equal(t, []string{"female"}, state.Gender)
	assert.Equal(t, entity.AgeRange{Min: 20, Max: 30}, state.AgeRange)
	assert.Equal(t, []string{"vi", "en"}, state.Languages)
}

func TestFilterHandler_UpdateFilters_RadiusClearsCountry(t *testing.T) {
	h, _, applied := newFilterHandlerFixture(t)

	c, _ := newTestContext(t, http.MethodPut, "/map/filters", `{"country":"Vietnam"}`)
	require.NoError(t, h.UpdateFilters(c))
	waitState(t, applied)

	c, _ = newTestContext(t, http.MethodPut, "/map/filters", `{"radius_km":25}`)
	require.NoError(t, h.UpdateFilters(c))

	state := waitState(t, applied)
	assert.Nil(t, state.Country)
	require.NotNil(t, state.RadiusKm)
	assert.Equal(t, 25.0, *state.RadiusKm)
}

func TestFilterHandler_UpdateFilters_ClearFlags(t *testing.T) {
	h, _, applied := newFilterHandlerFixture(t)

	c, _ := newTestContext(t, http.MethodPut, "/map/filters", `{"search_term":"han"}`)
	require.NoError(t, h.UpdateFilters(c))
	waitState(t, applied)

	c, _ = newTestContext(t, http.MethodPut, "/map/filters", `{"clear_search":true}`)
	require.NoError(t, h.UpdateFilters(c))

	state := waitState(t, applied)
	assert.Nil(t, state.SearchTerm)
}

func TestFilterHandler_UpdateFilters_Validation(t *testing.T) {
	h, _, _ := newFilterHandlerFixture(t)

	c, rec := newTestContext(t, http.MethodPut, "/map/filters", `{"radius_km":-5}`)
	require.NoError(t, h.UpdateFilters(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterHandler_ResetFilters(t *testing.T) {
	h, filterUC, applied := newFilterHandlerFixture(t)

	filterUC.SetGender([]string{"female"})
	waitState(t, applied)

	c, rec := newTestContext(t, http.MethodPost, "/map/filters/reset", "")
	require.NoError(t, h.ResetFilters(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.DefaultFilterState(), filterUC.State())
}

func TestFilterHandler_GetFilters(t *testing.T) {
	h, filterUC, applied := newFilterHandlerFixture(t)

	filterUC.SetCountry(func(s string) *string { return &s }("Vietnam"))
	waitState(t, applied)

	c, rec := newTestContext(t, http.MethodGet, "/map/filters", "")
	require.NoError(t, h.GetFilters(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vietnam")
}
