package entity

const (
	// DefaultAgeMin and DefaultAgeMax describe the untouched age range. While
	// the range equals the default it does not exclude users of unknown age.
	DefaultAgeMin = 18
	DefaultAgeMax = 99
)

// PopulationRange bounds the city population filter. A nil bound is
// unbounded. Min > Max is accepted as-is and simply matches nothing.
type PopulationRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// Unbounded reports whether neither bound is set.
func (r PopulationRange) Unbounded() bool {
	return r.Min == nil && r.Max == nil
}

// AgeRange bounds the user age filter. Min > Max matches nothing.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// IsDefault reports whether the range has never been narrowed.
func (r AgeRange) IsDefault() bool {
	return r.Min == DefaultAgeMin && r.Max == DefaultAgeMax
}

// FilterState is an immutable snapshot of the composite map filters. All
// active criteria combine with AND semantics. The radius filter and the
// category group (country, population, search) are mutually exclusive:
// setting one side clears the other. Nil pointers and nil slices mean "not
// filtering on this".
type FilterState struct {
	Country     *string         `json:"country,omitempty"`
	Population  PopulationRange `json:"population"`
	SearchTerm  *string         `json:"search_term,omitempty"`
	RadiusKm    *float64        `json:"radius_km,omitempty"`
	LocalStatus []TravelStatus  `json:"local_status,omitempty"`
	Budget      []int           `json:"budget,omitempty"`
	Gender      []string        `json:"gender,omitempty"`
	AgeRange    AgeRange        `json:"age_range"`
	Languages   []string        `json:"languages,omitempty"`
	Cuisines    []string        `json:"cuisines,omitempty"`
}

// DefaultFilterState returns the state every session starts from and that
// Reset restores: unbounded population, age 18-99, everything else unset.
func DefaultFilterState() FilterState {
	return FilterState{
		AgeRange: AgeRange{Min: DefaultAgeMin, Max: DefaultAgeMax},
	}
}
