package scan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/track"
)

const sentinel = -777

func pts(points ...track.Trackpoint) []track.Trackpoint {
	return points
}

func at(lat, lon, alt float64, ts string) track.Trackpoint {
	return track.Trackpoint{
		Lat: lat, Lon: lon, Altitude: alt,
		Time: track.MustParseTime(ts),
	}
}

func TestDistanceMetersWalkScenario(t *testing.T) {
	// Two ~111m legs along the equator total ~222m.
	ctx := context.Background()
	in := stream.Slice(ctx, pts(
		at(0, 0, 100, "2008-08-24 15:38:00"),
		at(0, 0.001, 100, "2008-08-24 15:39:00"),
		at(0, 0.002, 100, "2008-08-24 15:40:00"),
	))
	meters := DistanceMeters(ctx, in)
	if km := meters / 1000; math.Abs(km-0.222) > 0.01 {
		t.Errorf("expected ~0.222 km, got %f km", km)
	}
}

func TestDistanceMetersDegenerate(t *testing.T) {
	ctx := context.Background()
	if d := DistanceMeters(ctx, stream.Slice(ctx, pts())); d != 0 {
		t.Errorf("empty activity: got %f, want 0", d)
	}
	one := pts(at(39.9, 116.3, 100, "2008-08-24 15:38:00"))
	if d := DistanceMeters(ctx, stream.Slice(ctx, one)); d != 0 {
		t.Errorf("single-point activity: got %f, want 0", d)
	}
}

func TestAltitudeGainGainsOnly(t *testing.T) {
	ctx := context.Background()
	in := stream.Slice(ctx, pts(
		at(0, 0, 100, "2008-08-24 15:38:00"),
		at(0, 0, 150, "2008-08-24 15:38:05"), // +50
		at(0, 0, 120, "2008-08-24 15:38:10"), // descent, ignored
		at(0, 0, 180, "2008-08-24 15:38:15"), // +60
	))
	if gain := AltitudeGain(ctx, sentinel, in); gain != 110 {
		t.Errorf("expected gain 110, got %f", gain)
	}
}

func TestAltitudeGainChainContinuity(t *testing.T) {
	// Gain over a sequence with sentinels interleaved must equal gain
	// over the same sequence with the sentinel entries removed.
	ctx := context.Background()
	withSentinels := pts(
		at(0, 0, 100, "2008-08-24 15:38:00"),
		at(0, 0, sentinel, "2008-08-24 15:38:05"),
		at(0, 0, sentinel, "2008-08-24 15:38:10"),
		at(0, 0, 130, "2008-08-24 15:38:15"), // +30 vs last valid (100)
		at(0, 0, sentinel, "2008-08-24 15:38:20"),
		at(0, 0, 120, "2008-08-24 15:38:25"), // descent vs 130
		at(0, 0, 140, "2008-08-24 15:38:30"), // +20
	)
	stripped := make([]track.Trackpoint, 0, len(withSentinels))
	for _, tp := range withSentinels {
		if tp.Altitude != sentinel {
			stripped = append(stripped, tp)
		}
	}

	a := AltitudeGain(ctx, sentinel, stream.Slice(ctx, withSentinels))
	b := AltitudeGain(ctx, sentinel, stream.Slice(ctx, stripped))
	if a != b {
		t.Errorf("chain continuity violated: with sentinels %f, stripped %f", a, b)
	}
	if a != 50 {
		t.Errorf("expected gain 50, got %f", a)
	}
}

func TestAltitudeGainAllSentinels(t *testing.T) {
	ctx := context.Background()
	in := stream.Slice(ctx, pts(
		at(0, 0, sentinel, "2008-08-24 15:38:00"),
		at(0, 0, sentinel, "2008-08-24 15:38:05"),
	))
	if gain := AltitudeGain(ctx, sentinel, in); gain != 0 {
		t.Errorf("expected 0 gain from sentinel-only activity, got %f", gain)
	}
}

func TestHasInvalidGapBoundary(t *testing.T) {
	ctx := context.Background()
	threshold := 5 * time.Minute

	exactly := pts(
		at(0, 0, 100, "2008-08-24 15:00:00"),
		at(0, 0, 100, "2008-08-24 15:05:00"),
	)
	if !HasInvalidGap(ctx, threshold, stream.Slice(ctx, exactly)) {
		t.Error("a gap of exactly 5 minutes must flag the activity (boundary inclusive)")
	}

	justUnder := pts(
		at(0, 0, 100, "2008-08-24 15:00:00"),
		at(0, 0, 100, "2008-08-24 15:04:59"),
	)
	if HasInvalidGap(ctx, threshold, stream.Slice(ctx, justUnder)) {
		t.Error("a gap of 4m59s must not flag the activity")
	}
}

func TestHasInvalidGapDegenerate(t *testing.T) {
	ctx := context.Background()
	threshold := 5 * time.Minute
	if HasInvalidGap(ctx, threshold, stream.Slice(ctx, pts())) {
		t.Error("empty activity cannot be invalid")
	}
	one := pts(at(0, 0, 100, "2008-08-24 15:00:00"))
	if HasInvalidGap(ctx, threshold, stream.Slice(ctx, one)) {
		t.Error("single-point activity cannot be invalid")
	}
}
