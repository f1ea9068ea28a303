package tile

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wander/internal/errors"
)

func TestID_Deterministic(t *testing.T) {
	p := orb.Point{105.8542, 21.0285}
	assert.Equal(t, ID(p, 0.1), ID(p, 0.1))
}

func TestID_DistinctBucketsDistinctIDs(t *testing.T) {
	res := 0.1
	seen := map[string]orb.Point{}
	for lat := -2.0; lat <= 2.0; lat += 0.1 {
		for lon := -2.0; lon <= 2.0; lon += 0.1 {
			p := orb.Point{lon + 0.05, lat + 0.05}
			id := ID(p, res)
			if prev, ok := seen[id]; ok {
				t.Fatalf("collision: %v and %v share id %s", prev, p, id)
			}
			seen[id] = p
		}
	}
}

func TestID_NegativeCoordinates(t *testing.T) {
	// floor division, not truncation: -0.05 and +0.05 must land in
	// different cells.
	assert.NotEqual(t, ID(orb.Point{-0.05, 0.05}, 0.1), ID(orb.Point{0.05, 0.05}, 0.1))
}

func TestCenter_RoundTrip(t *testing.T) {
	res := 0.1
	points := []orb.Point{
		{105.8542, 21.0285}, // Hanoi
		{2.3522, 48.8566},   // Paris
		{-0.1278, 51.5074},  // London
		{-58.3816, -34.6037},
		{0, 0},
	}

	for _, p := range points {
		id := ID(p, res)
		center, err := Center(id, res)
		require.NoError(t, err)

		// Center lies within half a resolution of the bucket edge, so no
		// further than one resolution from the input on either axis.
		assert.LessOrEqual(t, math.Abs(center.Lat()-p.Lat()), res)
		assert.LessOrEqual(t, math.Abs(center.Lon()-p.Lon()), res)

		// And it maps back to the same bucket.
		assert.Equal(t, id, ID(center, res))
	}
}

func TestCenter_InvalidID(t *testing.T) {
	for _, id := range []string{"", "12", "a:3", "3:b", "1.5:2", "::"} {
		_, err := Center(id, 0.1)
		require.Error(t, err, "id %q", id)
		assert.True(t, errors.Is(err, ErrInvalidTileID))
	}
}
