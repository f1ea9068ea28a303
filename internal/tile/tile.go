// Package tile implements the deterministic bucketing scheme that groups
// nearby entities for cluster-style rendering. A tile is addressed by the
// floor-divided cell of its coordinates at a fixed angular resolution.
package tile

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"wander/internal/errors"
)

// ErrInvalidTileID marks a malformed tile id. Valid ids only come from ID,
// so hitting this is a programmer error.
var ErrInvalidTileID = errors.New("invalid tile id")

// ID returns the bucket key for a point at the given resolution in degrees.
// The key is stable and collision-free across distinct buckets.
func ID(p orb.Point, resolutionDeg float64) string {
	latCell := int64(math.Floor(p.Lat() / resolutionDeg))
	lonCell := int64(math.Floor(p.Lon() / resolutionDeg))

	return strconv.FormatInt(latCell, 10) + ":" + strconv.FormatInt(lonCell, 10)
}

// Center returns the representative center of a tile: the bucket's lower-left
// corner plus half the resolution on each axis. The round-trip property holds:
// Center(ID(p)) lies in the same bucket as p.
func Center(id string, resolutionDeg float64) (orb.Point, error) {
	latCell, lonCell, err := parse(id)
	if err != nil {
		return orb.Point{}, err
	}

	lat := (float64(latCell) + 0.5) * resolutionDeg
	lon := (float64(lonCell) + 0.5) * resolutionDeg

	return orb.Point{lon, lat}, nil
}

func parse(id string) (latCell, lonCell int64, err error) {
	latPart, lonPart, ok := strings.Cut(id, ":")
	if !ok {
		return 0, 0, errors.Wrapf(ErrInvalidTileID, "missing separator in %q", id)
	}

	latCell, err = strconv.ParseInt(latPart, 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidTileID, "latitude cell %q", latPart)
	}

	lonCell, err = strconv.ParseInt(lonPart, 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidTileID, "longitude cell %q", lonPart)
	}

	return latCell, lonCell, nil
}
