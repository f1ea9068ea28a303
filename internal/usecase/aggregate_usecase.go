package usecase

import "wander/internal/domain/entity"

// AggregateUsecase buckets filtered entities into tiles for cluster-style
// rendering. The tile map is rebuilt from scratch on every call; entity
// counts are bounded by the viewport, so correctness simplicity wins over
// incremental diffing.
type AggregateUsecase interface {
	// AggregateCities buckets cities at the given angular resolution.
	// Entities with invalid coordinates are skipped with a warning.
	AggregateCities(cities []*entity.City, resolutionDeg float64) map[string]*entity.Tile

	// AggregateUsers buckets enriched users and marks the tile containing
	// the viewer's own entity.
	AggregateUsers(users []*entity.EnrichedUser, viewerID string, resolutionDeg float64) map[string]*entity.Tile
}
