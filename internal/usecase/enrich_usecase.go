// Package usecase declares the application-level interfaces implemented
// under impl and consumed by the delivery layer.
package usecase

import (
	"github.com/paulmach/orb"

	"wander/internal/domain/entity"
)

// EnrichUsecase merges the live-location feed with separately fetched
// profile attributes and derives per-user status and viewer distance.
type EnrichUsecase interface {
	// Enrich is a pure transform: every LiveUser yields exactly one
	// EnrichedUser, missing or partial profile data never errors. viewer may
	// be nil, in which case DistanceFromViewerKm stays nil for all users.
	Enrich(users []*entity.LiveUser, profiles map[string]*entity.ProfileAttributes, viewer *orb.Point) []*entity.EnrichedUser
}
