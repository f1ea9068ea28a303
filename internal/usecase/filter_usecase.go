package usecase

import (
	"github.com/paulmach/orb"

	"wander/internal/domain/entity"
)

// FilterUsecase owns the composite filter state. Mutations are debounced
// with trailing-edge semantics: calls within the window collapse into one
// applied state and one change notification. Reset is the only operation
// that bypasses the debounce.
//
// Category filters (country, population, search) and the radius filter are
// mutually exclusive: narrowing one side clears the other. User-attribute
// filters compose freely with everything.
type FilterUsecase interface {
	SetCountry(country *string)
	SetPopulationRange(minPop, maxPop *int64)
	SetSearch(term *string)
	SetRadius(radiusKm *float64)

	SetLocalStatus(statuses []entity.TravelStatus)
	SetBudget(tiers []int)
	SetGender(genders []string)
	SetAgeRange(minAge, maxAge int)
	SetLanguages(languages []string)
	SetCuisines(cuisines []string)

	// Reset cancels any pending mutation and restores the defaults
	// immediately.
	Reset()

	// State returns the currently applied snapshot, ignoring pending
	// mutations still inside the debounce window.
	State() entity.FilterState

	// Subscribe registers the single listener notified once per applied
	// state change. A later call replaces the previous listener.
	Subscribe(fn func(entity.FilterState))

	// FilterCities applies the active criteria to the city catalog. The
	// radius criterion is inert when viewer is nil.
	FilterCities(cities []*entity.City, viewer *orb.Point) []*entity.City

	// FilterUsers applies the active criteria to enriched users. Population
	// is ignored for users; requested language and cuisine tags must all be
	// present (AND across tags).
	FilterUsers(users []*entity.EnrichedUser, viewer *orb.Point) []*entity.EnrichedUser

	// Close stops any pending debounce timer.
	Close()
}
