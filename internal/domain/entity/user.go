package entity

// TravelStatus classifies a live user by how far their current position is
// from their registered home location.
type TravelStatus string

const (
	// TravelStatusLocal means the user is within the local threshold of home.
	TravelStatusLocal TravelStatus = "local"
	// TravelStatusTraveller means the user is far from home, or has no known
	// home location.
	TravelStatusTraveller TravelStatus = "traveller"
)

// LiveUser is a user currently visible on the map. The ID is stable for a
// session; the location mutates on every feed update. The entry disappears
// when the feed stops reporting it.
type LiveUser struct {
	ID          string   // Session-stable identifier from the live feed.
	DisplayName string   // Name rendered next to the marker.
	Location    GeoPoint // Last reported position.
	BudgetTier  *int     // Optional budget tier, 1 (shoestring) to 3 (comfort).
	Bio         *string  // Optional free-text bio.
	Age         *int     // Optional age as reported by the feed.
}

// ProfileAttributes are the separately fetched profile fields for a live
// user. Every field is optional; the absence of a whole record is valid and
// the user still renders with defaults.
type ProfileAttributes struct {
	UserID    string
	Gender    *string
	Languages []string  // Spoken languages; ordering is irrelevant.
	Cuisines  []string  // Preferred cuisines; ordering is irrelevant.
	Home      *GeoPoint // Registered home location.
	Age       *int
	AvatarURL *string
}

// EnrichedUser is a LiveUser combined with its profile attributes and the
// fields derived from them. Derived fields are recomputed whenever either
// the user's or the viewer's coordinates change; they are never persisted.
type EnrichedUser struct {
	LiveUser

	Profile ProfileAttributes

	// Status is derived from the distance between the current position and
	// the home location.
	Status TravelStatus

	// DistanceFromViewerKm is nil when the viewer has no known position.
	DistanceFromViewerKm *float64
}

// EffectiveAge prefers the profile age over the feed-reported one.
func (u *EnrichedUser) EffectiveAge() *int {
	if u.Profile.Age != nil {
		return u.Profile.Age
	}

	return u.Age
}
