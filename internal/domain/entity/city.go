package entity

// City is immutable reference data describing a world city. The catalog is
// loaded once at startup and never mutated or removed during a session.
type City struct {
	ID          int64    // Unique catalog identifier.
	Name        string   // City name as rendered on the map.
	Country     string   // Country name used by the country filter.
	Location    GeoPoint // City center coordinate.
	Population  int64    // Non-negative resident count.
	FoundedYear *int     // Optional founding year.
	Landmarks   []string // Optional list of notable landmarks.
}
