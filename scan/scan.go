// Package scan holds the sequential per-activity scanners. Each consumes
// one activity's trackpoint stream and produces one number or bool.
// They are pure accumulators: no shared state, so per-user results built
// from them merge by plain sums and counts in any order.
package scan

import (
	"context"
	"time"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/types/track"
)

// DistanceMeters sums the great-circle distance over consecutive
// trackpoint pairs. Activities with 0 or 1 points contribute 0.
func DistanceMeters(ctx context.Context, in <-chan track.Trackpoint) float64 {
	sum := 0.0
	first := true
	var last track.Trackpoint
	for tp := range in {
		select {
		case <-ctx.Done():
			return sum
		default:
		}
		if first {
			first = false
			last = tp
			continue
		}
		sum += common.Distance(last.Point(), tp.Point())
		last = tp
	}
	return sum
}

// AltitudeGain sums positive altitude deltas over consecutive valid
// readings, in the source unit. A sentinel reading does not break the
// chain: the next valid reading is compared against the last valid
// reading before the gap, never silently treated as zero delta.
func AltitudeGain(ctx context.Context, sentinel float64, in <-chan track.Trackpoint) float64 {
	gain := 0.0
	haveLast := false
	lastValid := 0.0
	for tp := range in {
		select {
		case <-ctx.Done():
			return gain
		default:
		}
		if tp.Altitude == sentinel {
			continue
		}
		if haveLast {
			if delta, ok := common.AltitudeDelta(lastValid, tp.Altitude, sentinel); ok && delta > 0 {
				gain += delta
			}
		}
		lastValid = tp.Altitude
		haveLast = true
	}
	return gain
}

// HasInvalidGap reports whether any two consecutive trackpoints are at
// least threshold apart in time. Boundary inclusive: a gap of exactly
// the threshold flags the activity.
func HasInvalidGap(ctx context.Context, threshold time.Duration, in <-chan track.Trackpoint) bool {
	invalid := false
	first := true
	var last time.Time
	for tp := range in {
		select {
		case <-ctx.Done():
			return invalid
		default:
		}
		if first {
			first = false
			last = tp.Time
			continue
		}
		elapsed := common.Elapsed(last, tp.Time)
		if elapsed < 0 {
			elapsed = -elapsed
		}
		if elapsed >= threshold {
			invalid = true
			// Keep draining; the producer owns the channel.
		}
		last = tp.Time
	}
	return invalid
}
