package entity

// Tile is one geographic bucket produced by an aggregation pass. A pass
// buckets either cities or enriched users, never both, so at most one of the
// item slices is populated. Tiles are rebuilt from scratch on every pass;
// there is no incremental patching across passes.
type Tile struct {
	Cities []*City         `json:"cities,omitempty"`
	Users  []*EnrichedUser `json:"users,omitempty"`

	// ContainsViewer is true when the viewer's own entity landed in this
	// tile.
	ContainsViewer bool `json:"contains_viewer"`
}

// Count is the number of entities bucketed into the tile.
func (t *Tile) Count() int {
	return len(t.Cities) + len(t.Users)
}

// BadgeCount is the number shown on an aggregate marker badge. The viewer's
// own marker is excluded so the badge reads "N other things here".
func (t *Tile) BadgeCount() int {
	n := t.Count()
	if t.ContainsViewer && n > 0 {
		n--
	}

	return n
}
