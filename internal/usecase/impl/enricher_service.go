// Package impl contains the application-specific business rules implementations.
package impl

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb"

	"wander/internal/domain/entity"
	"wander/internal/geo"
	"wander/internal/usecase"
)

// DefaultLocalThresholdKm is the distance from home below which a user
// counts as Local.
const DefaultLocalThresholdKm = 50.0

// enricherService implements the EnrichUsecase interface.
type enricherService struct {
	localThresholdKm float64
	logger           *slog.Logger
}

// NewEnricherService is the constructor for enricherService. A
// non-positive threshold falls back to the default.
func NewEnricherService(localThresholdKm float64, logger *slog.Logger) usecase.EnrichUsecase {
	if localThresholdKm <= 0 {
		localThresholdKm = DefaultLocalThresholdKm
	}

	return &enricherService{
		localThresholdKm: localThresholdKm,
		logger:           logger,
	}
}

// Enrich merges users with their profile attributes and derives travel
// status and viewer distance. Pure transform: no input is mutated, every
// user produces exactly one result, partial data never errors.
func (srv *enricherService) Enrich(
	users []*entity.LiveUser,
	profiles map[string]*entity.ProfileAttributes,
	viewer *orb.Point,
) []*entity.EnrichedUser {
	enriched := make([]*entity.EnrichedUser, 0, len(users))

	for _, user := range users {
		if user == nil {
			continue
		}

		out := &entity.EnrichedUser{
			LiveUser: *user,
			Status:   entity.TravelStatusTraveller,
		}

		if profile, ok := profiles[user.ID]; ok && profile != nil {
			out.Profile = *profile
		}
		out.Profile.UserID = user.ID

		out.Status = srv.deriveStatus(user, out.Profile.Home)
		out.DistanceFromViewerKm = srv.distanceFromViewer(user, viewer)

		enriched = append(enriched, out)
	}

	return enriched
}

// deriveStatus is Local when the current position is within the threshold of
// a known home, Traveller otherwise. An unknown home defaults to Traveller.
func (srv *enricherService) deriveStatus(user *entity.LiveUser, home *entity.GeoPoint) entity.TravelStatus {
	if home == nil || !home.Valid() || !user.Location.Valid() {
		return entity.TravelStatusTraveller
	}

	if geo.IsWithinRadius(home.Point(), user.Location.Point(), srv.localThresholdKm) {
		return entity.TravelStatusLocal
	}

	return entity.TravelStatusTraveller
}

func (srv *enricherService) distanceFromViewer(user *entity.LiveUser, viewer *orb.Point) *float64 {
	if viewer == nil || !user.Location.Valid() {
		return nil
	}

	d := geo.HaversineKm(*viewer, user.Location.Point())
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return nil
	}

	return &d
}
