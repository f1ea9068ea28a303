package impl

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"wander/config"
	"wander/internal/domain/entity"
	"wander/internal/domain/repository"
	"wander/internal/domain/service"
	"wander/internal/errors"
	"wander/internal/usecase"
)

const (
	// DefaultTileResolutionDeg is the angular tile size used when none is
	// configured.
	DefaultTileResolutionDeg = 0.1

	profileFetchTimeout = 10 * time.Second
)

// mapService owns the whole pipeline state: city catalog, live user set,
// profile cache, viewer identity, and the aggregated tile snapshots. The
// state is guarded by one mutex and mutated only through the MapUsecase
// operations; recomputation rebuilds the tile maps from scratch on every
// input change.
type mapService struct {
	cfg         *config.MapConfig
	logger      *slog.Logger
	cityRepo    repository.CityRepository
	profileRepo repository.ProfileRepository
	feed        service.FeedSource
	enricher    usecase.EnrichUsecase
	filter      usecase.FilterUsecase
	aggregator  usecase.AggregateUsecase

	fetchSeq atomic.Uint64

	mu              sync.Mutex
	cities          []*entity.City
	users           map[string]*entity.LiveUser
	profiles        map[string]*entity.ProfileAttributes
	profileVersions map[string]uint64
	viewerID        string
	viewerPos       *orb.Point
	cityTiles       map[string]*entity.Tile
	userTiles       map[string]*entity.Tile
	fetchCtx        context.Context
	unsubscribe     func()
	closed          bool
}

// NewMapService is the constructor for mapService.
func NewMapService(
	cfg *config.Config,
	logger *slog.Logger,
	cityRepo repository.CityRepository,
	profileRepo repository.ProfileRepository,
	feed service.FeedSource,
	enricher usecase.EnrichUsecase,
	filter usecase.FilterUsecase,
	aggregator usecase.AggregateUsecase,
) usecase.MapUsecase {
	mapCfg := cfg.Map
	if mapCfg == nil {
		mapCfg = &config.MapConfig{}
	}

	srv := &mapService{
		cfg:             mapCfg,
		logger:          logger,
		cityRepo:        cityRepo,
		profileRepo:     profileRepo,
		feed:            feed,
		enricher:        enricher,
		filter:          filter,
		aggregator:      aggregator,
		users:           make(map[string]*entity.LiveUser),
		profiles:        make(map[string]*entity.ProfileAttributes),
		profileVersions: make(map[string]uint64),
		cityTiles:       make(map[string]*entity.Tile),
		userTiles:       make(map[string]*entity.Tile),
		fetchCtx:        context.Background(),
	}

	// One recomputation per applied filter state, debounced upstream.
	filter.Subscribe(func(entity.FilterState) {
		srv.recompute()
	})

	return srv
}

// Start loads the city catalog and subscribes to the live feed.
func (srv *mapService) Start(ctx context.Context) error {
	cities, err := srv.cityRepo.ListCities(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load city catalog")
	}

	srv.mu.Lock()
	srv.cities = cities
	srv.fetchCtx = context.WithoutCancel(ctx)
	srv.mu.Unlock()

	srv.logger.Info("Loaded city catalog", slog.Int("cities", len(cities)))

	unsubscribe, err := srv.feed.Subscribe(ctx, srv.handleFeedEvent)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to live feed")
	}

	srv.mu.Lock()
	srv.unsubscribe = unsubscribe
	srv.mu.Unlock()

	srv.recompute()

	return nil
}

// SetViewer updates the viewer identity and position. An invalid position is
// treated as unknown: the radius filter goes inert and distances stay nil.
func (srv *mapService) SetViewer(id string, position *entity.GeoPoint) {
	var pos *orb.Point
	if position != nil {
		if position.Valid() {
			p := position.Point()
			pos = &p
		} else {
			srv.logger.Warn("Ignoring invalid viewer position",
				slog.Float64("latitude", position.Latitude),
				slog.Float64("longitude", position.Longitude),
			)
		}
	}

	srv.mu.Lock()
	srv.viewerID = id
	srv.viewerPos = pos
	srv.mu.Unlock()

	srv.recompute()
}

func (srv *mapService) ViewerID() string {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.viewerID
}

// CityTiles returns the current city snapshot. The map is replaced wholesale
// on every recomputation and never mutated afterwards, so callers may read
// it without holding any lock.
func (srv *mapService) CityTiles() map[string]*entity.Tile {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.cityTiles
}

// UserTiles returns the current live-user snapshot.
func (srv *mapService) UserTiles() map[string]*entity.Tile {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.userTiles
}

// Close tears down the feed subscription. Idempotent: a second call is a
// no-op.
func (srv *mapService) Close() error {
	srv.mu.Lock()
	if srv.closed {
		srv.mu.Unlock()

		return nil
	}
	srv.closed = true
	unsubscribe := srv.unsubscribe
	srv.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	return nil
}

// handleFeedEvent folds one feed push into the live set. Feed input is
// untrusted: entries with invalid coordinates are dropped with a warning and
// the rest of the batch proceeds.
func (srv *mapService) handleFeedEvent(event service.FeedEvent) {
	srv.mu.Lock()

	if event.Type == service.FeedEventSnapshot {
		srv.users = make(map[string]*entity.LiveUser, len(event.Users))
	}

	var unknownIDs []string
	for i := range event.Users {
		feedUser := event.Users[i]

		if event.Type == service.FeedEventLeave {
			delete(srv.users, feedUser.ID)

			continue
		}

		user := liveUserFromFeed(feedUser)
		if !user.Location.Valid() {
			srv.logger.Warn("Dropping feed entry with invalid coordinates",
				slog.String("userID", feedUser.ID),
				slog.Float64("latitude", feedUser.Latitude),
				slog.Float64("longitude", feedUser.Longitude),
			)

			continue
		}

		srv.users[user.ID] = user
		if _, ok := srv.profiles[user.ID]; !ok {
			unknownIDs = append(unknownIDs, user.ID)
		}
	}

	fetchCtx := srv.fetchCtx
	srv.mu.Unlock()

	srv.recompute()

	if len(unknownIDs) > 0 {
		go srv.fetchProfiles(fetchCtx, unknownIDs)
	}
}

// fetchProfiles batch-loads profile attributes for the given ids. Each
// dispatch carries a monotonic sequence number; a response merging with a
// lower number than an id's last merge is stale and rejected, so
// out-of-order completions cannot overwrite fresher data. A failed fetch
// keeps the last-known-good cache.
func (srv *mapService) fetchProfiles(ctx context.Context, userIDs []string) {
	seq := srv.fetchSeq.Add(1)

	fetchCtx, cancel := context.WithTimeout(ctx, profileFetchTimeout)
	defer cancel()

	profiles, err := srv.profileRepo.FindProfilesByUserIDs(fetchCtx, userIDs)
	if err != nil {
		srv.logger.Warn("Profile fetch failed, keeping last-known-good attributes",
			slog.Int("requested", len(userIDs)),
			slog.Any("error", err),
		)

		return
	}

	srv.mu.Lock()
	merged := 0
	for id, profile := range profiles {
		if profile == nil {
			continue
		}
		if srv.profileVersions[id] > seq {
			// A newer fetch already merged this user.
			continue
		}
		srv.profiles[id] = profile
		srv.profileVersions[id] = seq
		merged++
	}
	srv.mu.Unlock()

	srv.logger.Debug("Merged profile batch",
		slog.Int("requested", len(userIDs)),
		slog.Int("merged", merged),
	)

	if merged > 0 {
		srv.recompute()
	}
}

// recompute rebuilds both tile snapshots from scratch: enrich, filter,
// aggregate. Rebuilding every pass trades CPU for correctness simplicity;
// entity counts per viewport are bounded.
func (srv *mapService) recompute() {
	srv.mu.Lock()
	cities := srv.cities
	users := make([]*entity.LiveUser, 0, len(srv.users))
	for _, user := range srv.users {
		users = append(users, user)
	}
	profiles := make(map[string]*entity.ProfileAttributes, len(srv.profiles))
	for id, profile := range srv.profiles {
		profiles[id] = profile
	}
	viewerID := srv.viewerID
	viewer := srv.viewerPos
	srv.mu.Unlock()

	resolution := srv.resolution()

	enriched := srv.enricher.Enrich(users, profiles, viewer)
	filteredUsers := srv.filter.FilterUsers(enriched, viewer)
	filteredCities := srv.filter.FilterCities(cities, viewer)

	cityTiles := srv.aggregator.AggregateCities(filteredCities, resolution)
	userTiles := srv.aggregator.AggregateUsers(filteredUsers, viewerID, resolution)

	srv.mu.Lock()
	srv.cityTiles = cityTiles
	srv.userTiles = userTiles
	srv.mu.Unlock()
}

func (srv *mapService) resolution() float64 {
	if srv.cfg.TileResolutionDeg > 0 {
		return srv.cfg.TileResolutionDeg
	}

	return DefaultTileResolutionDeg
}

func liveUserFromFeed(feedUser service.FeedUser) *entity.LiveUser {
	return &entity.LiveUser{
		ID:          feedUser.ID,
		DisplayName: feedUser.Name,
		Location: entity.GeoPoint{
			Latitude:  feedUser.Latitude,
			Longitude: feedUser.Longitude,
		},
		BudgetTier: feedUser.Budget,
		Bio:        feedUser.Bio,
		Age:        feedUser.Age,
	}
}
