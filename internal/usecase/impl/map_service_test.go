package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"wander/config"
	"wander/internal/domain/entity"
	"wander/internal/domain/service"
	"wander/internal/errors"
	"wander/internal/tile"
	"wander/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCityRepo struct {
	cities []*entity.City
	err    error
}

func (r *fakeCityRepo) ListCities(ctx context.Context) ([]*entity.City, error) {
	return r.cities, r.err
}

func (r *fakeCityRepo) FindCityByID(ctx context.Context, id int64) (*entity.City, error) {
	for _, city := range r.cities {
		if city.ID == id {
			return city, nil
		}
	}

	return nil, errors.New("city not found")
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entity.ProfileAttributes
	err      error
	started  chan struct{}
	release  chan struct{}
	calls    [][]string
}

func (r *fakeProfileRepo) FindProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]*entity.ProfileAttributes, error) {
	r.mu.Lock()
	r.calls = append(r.calls, userIDs)
	started := r.started
	release := r.release
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	if r.err != nil {
		return nil, r.err
	}

	out := make(map[string]*entity.ProfileAttributes, len(userIDs))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range userIDs {
		if profile, ok := r.profiles[id]; ok {
			out[id] = profile
		}
	}

	return out, nil
}

type fakeFeed struct {
	mu           sync.Mutex
	handler      service.FeedHandler
	unsubscribed int
}

func (f *fakeFeed) Subscribe(ctx context.Context, handler service.FeedHandler) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handler = handler

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed++
	}, nil
}

func (f *fakeFeed) push(event service.FeedEvent) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()

	handler(event)
}

type mapServiceFixture struct {
	service  usecase.MapUsecase
	filter   usecase.FilterUsecase
	cityRepo *fakeCityRepo
	repo     *fakeProfileRepo
	feed     *fakeFeed
}

func newMapServiceFixture(t *testing.T, cities []*entity.City, profiles map[string]*entity.ProfileAttributes) *mapServiceFixture {
	t.Helper()

	logger := testLogger()
	cityRepo := &fakeCityRepo{cities: cities}
	profileRepo := &fakeProfileRepo{profiles: profiles}
	feed := &fakeFeed{}
	filter := NewFilterService(testWindow, logger)
	t.Cleanup(filter.Close)

	cfg := &config.Config{Map: &config.MapConfig{TileResolutionDeg: 0.1}}
	srv := NewMapService(
		cfg,
		logger,
		cityRepo,
		profileRepo,
		feed,
		NewEnricherService(DefaultLocalThresholdKm, logger),
		filter,
		NewAggregationService(logger),
	)
	t.Cleanup(func() { _ = srv.Close() })

	return &mapServiceFixture{
		service:  srv,
		filter:   filter,
		cityRepo: cityRepo,
		repo:     profileRepo,
		feed:     feed,
	}
}

// waitForUserTiles polls until the user snapshot holds exactly want users.
// Profile merges land on a background goroutine, so assertions on their
// effects need to poll.
func (f *mapServiceFixture) waitForUserTiles(t *testing.T, want int) map[string]*entity.Tile {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		tiles := f.service.UserTiles()
		total := 0
		for _, bucket := range tiles {
			total += len(bucket.Users)
		}
		if total == want {
			return tiles
		}
		if time.Now().After(deadline) {
			t.Fatalf("user tiles hold %d users, want %d", total, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func findUser(tiles map[string]*entity.Tile, id string) *entity.EnrichedUser {
	for _, bucket := range tiles {
		for _, user := range bucket.Users {
			if user.ID == id {
				return user
			}
		}
	}

	return nil
}

func TestMapService_Start_LoadsCatalog(t *testing.T) {
	cities := []*entity.City{
		{ID: 1, Name: "Hanoi", Country: "Vietnam", Location: entity.GeoPoint{Latitude: 21.0285, Longitude: 105.8542}},
		{ID: 2, Name: "Paris", Country: "France", Location: entity.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}},
	}
	fixture := newMapServiceFixture(t, cities, nil)

	require.NoError(t, fixture.service.Start(context.Background()))

	tiles := fixture.service.CityTiles()
	require.Len(t, tiles, 2)
	hanoiTile := tiles[tile.ID(cities[0].Location.Point(), 0.1)]
	require.NotNil(t, hanoiTile)
	assert.Equal(t, []*entity.City{cities[0]}, hanoiTile.Cities)
}

func TestMapService_Start_CatalogFailure(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	fixture.cityRepo.err = errors.New("connection refused")

	err := fixture.service.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city catalog")
}

func TestMapService_FeedLifecycle(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type: service.FeedEventSnapshot,
		Users: []service.FeedUser{
			{ID: "u1", Latitude: 21.0285, Longitude: 105.8542, Name: "An"},
			{ID: "u2", Latitude: 21.0285, Longitude: 105.8542, Name: "Binh"},
		},
	})
	fixture.waitForUserTiles(t, 2)

	// Upsert moves u2 and adds u3.
	fixture.feed.push(service.FeedEvent{
		Type: service.FeedEventUpsert,
		Users: []service.FeedUser{
			{ID: "u2", Latitude: 48.8566, Longitude: 2.3522, Name: "Binh"},
			{ID: "u3", Latitude: 21.0285, Longitude: 105.8542, Name: "Chi"},
		},
	})
	tiles := fixture.waitForUserTiles(t, 3)
	moved := findUser(tiles, "u2")
	require.NotNil(t, moved)
	assert.InDelta(t, 48.8566, moved.Location.Latitude, 1e-9)

	fixture.feed.push(service.FeedEvent{
		Type:  service.FeedEventLeave,
		Users: []service.FeedUser{{ID: "u1"}, {ID: "u3"}},
	})
	tiles = fixture.waitForUserTiles(t, 1)
	assert.Nil(t, findUser(tiles, "u1"))
	assert.NotNil(t, findUser(tiles, "u2"))

	// A later snapshot replaces the whole set.
	fixture.feed.push(service.FeedEvent{
		Type:  service.FeedEventSnapshot,
		Users: []service.FeedUser{{ID: "u9", Latitude: 1, Longitude: 1, Name: "New"}},
	})
	tiles = fixture.waitForUserTiles(t, 1)
	assert.NotNil(t, findUser(tiles, "u9"))
}

func TestMapService_FeedDropsInvalidCoordinates(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type: service.FeedEventSnapshot,
		Users: []service.FeedUser{
			{ID: "good", Latitude: 10, Longitude: 10},
			{ID: "bad", Latitude: 400, Longitude: 10},
		},
	})

	tiles := fixture.waitForUserTiles(t, 1)
	assert.NotNil(t, findUser(tiles, "good"))
}

func TestMapService_ProfileEnrichment(t *testing.T) {
	home := entity.GeoPoint{Latitude: 21.0285, Longitude: 105.8542}
	profiles := map[string]*entity.ProfileAttributes{
		"u1": {UserID: "u1", Home: &home, Languages: []string{"vi"}},
	}
	fixture := newMapServiceFixture(t, nil, profiles)
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type:  service.FeedEventSnapshot,
		Users: []service.FeedUser{{ID: "u1", Latitude: 21.03, Longitude: 105.85, Name: "An"}},
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		user := findUser(fixture.service.UserTiles(), "u1")
		if user != nil && user.Status == entity.TravelStatusLocal {
			assert.Equal(t, []string{"vi"}, user.Profile.Languages)

			break
		}
		if time.Now().After(deadline) {
			t.Fatal("profile never merged into the user snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMapService_ProfileFetchFailureKeepsLastKnownGood(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	fixture.repo.err = errors.New("profile backend down")
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type:  service.FeedEventSnapshot,
		Users: []service.FeedUser{{ID: "u1", Latitude: 10, Longitude: 10, Name: "An"}},
	})

	// The user still renders, with default attributes.
	tiles := fixture.waitForUserTiles(t, 1)
	user := findUser(tiles, "u1")
	require.NotNil(t, user)
	assert.Equal(t, entity.TravelStatusTraveller, user.Status)
}

func TestMapService_StaleProfileBatchRejected(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	require.NoError(t, fixture.service.Start(context.Background()))

	srv, ok := fixture.service.(*mapService)
	require.True(t, ok)

	oldBio := "old"
	newBio := "new"

	// First fetch dispatches, then stalls inside the repository.
	fixture.repo.mu.Lock()
	fixture.repo.profiles = map[string]*entity.ProfileAttributes{
		"u1": {UserID: "u1", AvatarURL: &oldBio},
	}
	fixture.repo.started = make(chan struct{}, 1)
	fixture.repo.release = make(chan struct{})
	fixture.repo.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.fetchProfiles(context.Background(), []string{"u1"})
	}()
	<-fixture.repo.started

	// Second fetch completes first and merges the fresh attributes.
	fixture.repo.mu.Lock()
	fixture.repo.profiles = map[string]*entity.ProfileAttributes{
		"u1": {UserID: "u1", AvatarURL: &newBio},
	}
	fixture.repo.started = nil
	release := fixture.repo.release
	fixture.repo.release = nil
	fixture.repo.mu.Unlock()
	srv.fetchProfiles(context.Background(), []string{"u1"})

	// Releasing the stalled fetch must not roll the cache back.
	fixture.repo.mu.Lock()
	fixture.repo.profiles = map[string]*entity.ProfileAttributes{
		"u1": {UserID: "u1", AvatarURL: &oldBio},
	}
	fixture.repo.mu.Unlock()
	close(release)
	wg.Wait()

	srv.mu.Lock()
	profile := srv.profiles["u1"]
	srv.mu.Unlock()
	require.NotNil(t, profile)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, newBio, *profile.AvatarURL)
}

func TestMapService_SetViewer(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type: service.FeedEventSnapshot,
		Users: []service.FeedUser{
			{ID: "viewer", Latitude: 21.0285, Longitude: 105.8542},
			{ID: "other", Latitude: 21.0285, Longitude: 105.8542},
		},
	})
	fixture.waitForUserTiles(t, 2)

	fixture.service.SetViewer("viewer", &entity.GeoPoint{Latitude: 21.0285, Longitude: 105.8542})
	assert.Equal(t, "viewer", fixture.service.ViewerID())

	tiles := fixture.waitForUserTiles(t, 2)
	require.Len(t, tiles, 1)
	for _, bucket := range tiles {
		assert.True(t, bucket.ContainsViewer)
		assert.Equal(t, 1, bucket.BadgeCount())
	}

	user := findUser(tiles, "other")
	require.NotNil(t, user)
	require.NotNil(t, user.DistanceFromViewerKm)
	assert.InDelta(t, 0, *user.DistanceFromViewerKm, 1e-6)

	// An invalid position is treated as unknown.
	fixture.service.SetViewer("viewer", &entity.GeoPoint{Latitude: 400, Longitude: 0})
	tiles = fixture.waitForUserTiles(t, 2)
	user = findUser(tiles, "other")
	require.NotNil(t, user)
	assert.Nil(t, user.DistanceFromViewerKm)
}

func TestMapService_FilterChangeRecomputes(t *testing.T) {
	gender := "female"
	profiles := map[string]*entity.ProfileAttributes{
		"u1": {UserID: "u1", Gender: &gender},
	}
	fixture := newMapServiceFixture(t, nil, profiles)
	require.NoError(t, fixture.service.Start(context.Background()))

	fixture.feed.push(service.FeedEvent{
		Type: service.FeedEventSnapshot,
		Users: []service.FeedUser{
			{ID: "u1", Latitude: 10, Longitude: 10},
			{ID: "u2", Latitude: 10, Longitude: 10},
		},
	})
	fixture.waitForUserTiles(t, 2)

	fixture.filter.SetGender([]string{"female"})
	tiles := fixture.waitForUserTiles(t, 1)
	assert.NotNil(t, findUser(tiles, "u1"))

	fixture.filter.Reset()
	fixture.waitForUserTiles(t, 2)
}

func TestMapService_CloseIsIdempotent(t *testing.T) {
	fixture := newMapServiceFixture(t, nil, nil)
	require.NoError(t, fixture.service.Start(context.Background()))

	require.NoError(t, fixture.service.Close())
	require.NoError(t, fixture.service.Close())

	fixture.feed.mu.Lock()
	defer fixture.feed.mu.Unlock()
	assert.Equal(t, 1, fixture.feed.unsubscribed)
}
