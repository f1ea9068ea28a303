package usecase

import (
	"context"

	"wander/internal/domain/entity"
)

// MapUsecase is the pipeline owner: it holds the city catalog, the live user
// set, the profile attribute cache, and the viewer identity, and exposes the
// aggregated tile snapshots the render side consumes. All state is owned
// exclusively by the implementation and mutated only through these
// operations.
type MapUsecase interface {
	// Start loads the city catalog and subscribes to the live feed.
	Start(ctx context.Context) error

	// SetViewer updates the viewer identity and position. position may be
	// nil: the radius filter becomes inert and viewer distances stay nil.
	SetViewer(id string, position *entity.GeoPoint)

	// CityTiles returns the filtered, aggregated city snapshot.
	CityTiles() map[string]*entity.Tile

	// UserTiles returns the filtered, aggregated live-user snapshot.
	UserTiles() map[string]*entity.Tile

	// ViewerID returns the current viewer identity.
	ViewerID() string

	// Close tears down the feed subscription. Synchronous and idempotent.
	Close() error
}
