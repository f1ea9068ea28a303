package impl

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"wander/internal/domain/entity"
	"wander/internal/geo"
	"wander/internal/usecase"
)

// DefaultDebounceWindow is the trailing delay applied to filter mutations.
const DefaultDebounceWindow = 300 * time.Millisecond

// filterService implements the FilterUsecase interface as an explicit
// "pending mutations, cancellable timer, trailing-edge application" state
// machine. Mutators queue a change and restart the timer; when the window
// elapses without further mutations the pending changes are applied in
// arrival order to one new snapshot, and the subscriber is notified exactly
// once.
type filterService struct {
	mu      sync.Mutex
	applied entity.FilterState
	pending []func(*entity.FilterState)
	timer   *time.Timer
	window  time.Duration
	notify  func(entity.FilterState)
	closed  bool
	logger  *slog.Logger
}

// NewFilterService is the constructor for filterService. A non-positive
// window falls back to the default.
func NewFilterService(window time.Duration, logger *slog.Logger) usecase.FilterUsecase {
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	return &filterService{
		applied: entity.DefaultFilterState(),
		window:  window,
		logger:  logger,
	}
}

// SetCountry narrows the category group. Selecting a country cancels the
// radius filter; clearing the country leaves the radius alone.
func (srv *filterService) SetCountry(country *string) {
	srv.mutate(func(st *entity.FilterState) {
		st.Country = country
		if country != nil {
			st.RadiusKm = nil
		}
	})
}

// SetPopulationRange narrows the category group. Min > Max is accepted as-is
// and yields an empty city set rather than an error.
func (srv *filterService) SetPopulationRange(minPop, maxPop *int64) {
	srv.mutate(func(st *entity.FilterState) {
		st.Population = entity.PopulationRange{Min: minPop, Max: maxPop}
		if !st.Population.Unbounded() {
			st.RadiusKm = nil
		}
	})
}

// SetSearch narrows the category group with a case-insensitive substring
// term.
func (srv *filterService) SetSearch(term *string) {
	srv.mutate(func(st *entity.FilterState) {
		st.SearchTerm = term
		if term != nil && *term != "" {
			st.RadiusKm = nil
		}
	})
}

// SetRadius selects the radius filter, which is mutually exclusive with the
// category group: the country is cleared and the population range reset to
// unbounded.
func (srv *filterService) SetRadius(radiusKm *float64) {
	srv.mutate(func(st *entity.FilterState) {
		st.RadiusKm = radiusKm
		if radiusKm != nil {
			st.Country = nil
			st.Population = entity.PopulationRange{}
		}
	})
}

func (srv *filterService) SetLocalStatus(statuses []entity.TravelStatus) {
	srv.mutate(func(st *entity.FilterState) { st.LocalStatus = statuses })
}

func (srv *filterService) SetBudget(tiers []int) {
	srv.mutate(func(st *entity.FilterState) { st.Budget = tiers })
}

func (srv *filterService) SetGender(genders []string) {
	srv.mutate(func(st *entity.FilterState) { st.Gender = genders })
}

func (srv *filterService) SetAgeRange(minAge, maxAge int) {
	srv.mutate(func(st *entity.FilterState) {
		st.AgeRange = entity.AgeRange{Min: minAge, Max: maxAge}
	})
}

func (srv *filterService) SetLanguages(languages []string) {
	srv.mutate(func(st *entity.FilterState) { st.Languages = languages })
}

func (srv *filterService) SetCuisines(cuisines []string) {
	srv.mutate(func(st *entity.FilterState) { st.Cuisines = cuisines })
}

// Reset bypasses the debounce entirely: any pending timer is cancelled, the
// pending queue dropped, and the defaults applied immediately. A full reset
// must be perceived as instantaneous.
func (srv *filterService) Reset() {
	srv.mu.Lock()
	srv.stopTimerLocked()
	srv.pending = nil
	srv.applied = entity.DefaultFilterState()
	notify := srv.notify
	state := srv.applied
	srv.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

func (srv *filterService) State() entity.FilterState {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.applied
}

func (srv *filterService) Subscribe(fn func(entity.FilterState)) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.notify = fn
}

// Close stops the pending timer; queued mutations are discarded.
func (srv *filterService) Close() {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.closed = true
	srv.stopTimerLocked()
	srv.pending = nil
}

// mutate queues one change and restarts the trailing timer. Within one
// window the last mutation's values win for any field it touches; untouched
// fields keep their pre-window values.
func (srv *filterService) mutate(change func(*entity.FilterState)) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.closed {
		return
	}

	srv.pending = append(srv.pending, change)
	srv.stopTimerLocked()
	srv.timer = time.AfterFunc(srv.window, srv.apply)
}

func (srv *filterService) stopTimerLocked() {
	if srv.timer != nil {
		srv.timer.Stop()
		srv.timer = nil
	}
}

// apply runs on the timer goroutine once the window elapses quietly.
func (srv *filterService) apply() {
	srv.mu.Lock()
	if srv.closed || len(srv.pending) == 0 {
		srv.mu.Unlock()

		return
	}

	next := srv.applied
	for _, change := range srv.pending {
		change(&next)
	}
	srv.pending = nil
	srv.timer = nil
	srv.applied = next
	notify := srv.notify
	srv.mu.Unlock()

	srv.logger.Debug("Applied filter state", slog.Any("state", next))

	if notify != nil {
		notify(next)
	}
}

// FilterCities applies all active criteria with AND semantics. The radius
// criterion is a no-op when the viewer position is unknown, never an
// exclude-all.
func (srv *filterService) FilterCities(cities []*entity.City, viewer *orb.Point) []*entity.City {
	state := srv.State()

	out := make([]*entity.City, 0, len(cities))
	for _, city := range cities {
		if city == nil || !srv.cityPasses(&state, city, viewer) {
			continue
		}
		out = append(out, city)
	}

	return out
}

func (srv *filterService) cityPasses(state *entity.FilterState, city *entity.City, viewer *orb.Point) bool {
	if state.Country != nil && !strings.EqualFold(city.Country, *state.Country) {
		return false
	}

	if state.Population.Min != nil && city.Population < *state.Population.Min {
		return false
	}
	if state.Population.Max != nil && city.Population > *state.Population.Max {
		return false
	}

	if !matchesSearch(state.SearchTerm, city.Name, city.Country) {
		return false
	}

	return passesRadius(state, city.Location, viewer)
}

// FilterUsers applies the user-attribute criteria on top of the shared ones.
// Population is ignored for users. Every requested language and cuisine tag
// must be present: AND across tags, not OR.
func (srv *filterService) FilterUsers(users []*entity.EnrichedUser, viewer *orb.Point) []*entity.EnrichedUser {
	state := srv.State()

	out := make([]*entity.EnrichedUser, 0, len(users))
	for _, user := range users {
		if user == nil || !srv.userPasses(&state, user, viewer) {
			continue
		}
		out = append(out, user)
	}

	return out
}

func (srv *filterService) userPasses(state *entity.FilterState, user *entity.EnrichedUser, viewer *orb.Point) bool {
	if !matchesSearch(state.SearchTerm, user.DisplayName) {
		return false
	}

	if !passesRadius(state, user.Location, viewer) {
		return false
	}

	if len(state.LocalStatus) > 0 && !containsStatus(state.LocalStatus, user.Status) {
		return false
	}

	if len(state.Budget) > 0 {
		if user.BudgetTier == nil || !containsInt(state.Budget, *user.BudgetTier) {
			return false
		}
	}

	if len(state.Gender) > 0 {
		if user.Profile.Gender == nil || !containsFold(state.Gender, *user.Profile.Gender) {
			return false
		}
	}

	if !state.AgeRange.IsDefault() {
		age := user.EffectiveAge()
		if age == nil || *age < state.AgeRange.Min || *age > state.AgeRange.Max {
			return false
		}
	}

	if !containsAllFold(user.Profile.Languages, state.Languages) {
		return false
	}

	return containsAllFold(user.Profile.Cuisines, state.Cuisines)
}

// passesRadius is inert when no radius is set or the viewer position is
// unknown. A NaN distance (bad coordinates) excludes the entity.
func passesRadius(state *entity.FilterState, location entity.GeoPoint, viewer *orb.Point) bool {
	if state.RadiusKm == nil || viewer == nil {
		return true
	}
	if !location.Valid() {
		return false
	}

	return geo.IsWithinRadius(*viewer, location.Point(), *state.RadiusKm)
}

func matchesSearch(term *string, candidates ...string) bool {
	if term == nil || *term == "" {
		return true
	}

	needle := strings.ToLower(*term)
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), needle) {
			return true
		}
	}

	return false
}

func containsStatus(haystack []entity.TravelStatus, needle entity.TravelStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}

	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}

	return false
}

// containsAllFold reports whether every requested tag is present in the
// entity's set. An empty request never filters.
func containsAllFold(haystack []string, requested []string) bool {
	for _, want := range requested {
		if !containsFold(haystack, want) {
			return false
		}
	}

	return true
}
