package common

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const feetPerMeter = 3.280839895

// Distance returns the great-circle distance between two points in meters.
// Identical points yield 0, and the order of arguments doesn't matter.
func Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// Elapsed returns the signed duration from t1 to t2.
// Callers who don't care about direction take the absolute value.
func Elapsed(t1, t2 time.Time) time.Duration {
	return t2.Sub(t1)
}

// AltitudeDelta returns a2 - a1 and true, unless either reading equals
// the sentinel, in which case the delta is unavailable and must not be
// coerced to zero by the caller. Sign is preserved; descents are negative.
func AltitudeDelta(a1, a2, sentinel float64) (float64, bool) {
	if a1 == sentinel || a2 == sentinel {
		return 0, false
	}
	return a2 - a1, true
}

// FeetToMeters converts feet to meters.
func FeetToMeters(ft float64) float64 {
	return ft / feetPerMeter
}

// BoundForRadius returns a bounding box around center which conservatively
// contains every point within radius meters. A cheap precheck before the
// exact haversine; the box over-approximates, never under.
func BoundForRadius(center orb.Point, radiusMeters float64) orb.Bound {
	latDelta := radiusMeters / 110574.0
	cos := math.Cos(center.Lat() * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01 // polar degenerate; box gets wide, stays correct
	}
	lonDelta := radiusMeters / (111320.0 * cos)
	return orb.Bound{
		Min: orb.Point{center.Lon() - lonDelta, center.Lat() - latDelta},
		Max: orb.Point{center.Lon() + lonDelta, center.Lat() + latDelta},
	}
}
