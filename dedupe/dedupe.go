// Package dedupe finds activities registered multiple times.
//
// Naive pairwise comparison across all activities is O(n^2), so the
// detector buckets by exact (start, end) timestamp first; only buckets
// holding more than one activity get the fuller footprint comparison.
// Zero matches is a perfectly good answer, not a failure.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/paulmach/orb"
	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/store"
)

// Ref names one activity.
type Ref struct {
	UserID     conceptual.UserID `json:"user_id"`
	ActivityID int64             `json:"activity_id"`
}

// Pair is a duplicate finding; A orders before B.
type Pair struct {
	A Ref `json:"a"`
	B Ref `json:"b"`
}

type Detector struct {
	Store store.Store

	// ToleranceM is the footprint tolerance in meters.
	// Zero means coordinates must match exactly (at ~0.1m quantization).
	ToleranceM float64

	logger     *slog.Logger
	footprints *lru.Cache
}

func NewDetector(s store.Store, toleranceM float64) *Detector {
	return &Detector{
		Store:      s,
		ToleranceM: toleranceM,
		logger:     slog.With("detector", "dedupe"),
		footprints: lru.New(1024),
	}
}

type footprint struct {
	hash   uint64
	points []orb.Point
}

type bucketKey struct {
	start, end int64
}

// Detect scans every user's activities and returns duplicate pairs.
// Duplicates may span users or, degenerately, belong to the same user.
// Cancellation is checked between users and between buckets.
func (d *Detector) Detect(ctx context.Context) ([]Pair, error) {
	if d.ToleranceM < 0 {
		return nil, fmt.Errorf("negative spatial tolerance: %f", d.ToleranceM)
	}

	buckets := map[bucketKey][]Ref{}
	for u := range d.Store.StreamUsers(ctx) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for a := range d.Store.StreamActivities(ctx, u.ID) {
			key := bucketKey{start: a.Start.Unix(), end: a.End.Unix()}
			buckets[key] = append(buckets[key], Ref{UserID: u.ID, ActivityID: a.ID})
		}
	}

	pairs := []Pair{}
	for key, refs := range buckets {
		if len(refs) < 2 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		d.logger.Debug("Comparing footprints in bucket",
			"start", key.start, "end", key.end, "size", len(refs))
		for i := 0; i < len(refs); i++ {
			for j := i + 1; j < len(refs); j++ {
				same, err := d.sameFootprint(ctx, refs[i], refs[j])
				if err != nil {
					return nil, err
				}
				if same {
					pairs = append(pairs, orderPair(refs[i], refs[j]))
				}
			}
		}
	}

	slices.SortFunc(pairs, comparePairs)
	return pairs, nil
}

func (d *Detector) sameFootprint(ctx context.Context, a, b Ref) (bool, error) {
	fpA, err := d.footprint(ctx, a)
	if err != nil {
		return false, err
	}
	fpB, err := d.footprint(ctx, b)
	if err != nil {
		return false, err
	}
	if len(fpA.points) != len(fpB.points) {
		return false, nil
	}
	if d.ToleranceM == 0 {
		return fpA.hash == fpB.hash, nil
	}
	for i := range fpA.points {
		if common.Distance(fpA.points[i], fpB.points[i]) > d.ToleranceM {
			return false, nil
		}
	}
	return true, nil
}

// footprint loads (or recalls) an activity's point sequence and its
// quantized-coordinate hash. The LRU keeps hot activities around while
// their bucket is being compared.
func (d *Detector) footprint(ctx context.Context, ref Ref) (*footprint, error) {
	if v, ok := d.footprints.Get(ref); ok {
		return v.(*footprint), nil
	}

	fp := &footprint{}
	quantized := make([][2]int64, 0, 64)
	for tp := range d.Store.StreamTrackpoints(ctx, ref.ActivityID) {
		fp.points = append(fp.points, tp.Point())
		quantized = append(quantized, [2]int64{quantize(tp.Lat), quantize(tp.Lon)})
	}
	hash, err := hashstructure.Hash(quantized, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, fmt.Errorf("footprint hash: %w", err)
	}
	fp.hash = hash

	d.footprints.Add(ref, fp)
	return fp, nil
}

// quantize rounds degrees to 1e-6, roughly 0.1m: fine enough that
// identical recordings hash identically, coarse enough to absorb
// float formatting noise.
func quantize(deg float64) int64 {
	return int64(math.Round(deg * 1e6))
}

func orderPair(a, b Ref) Pair {
	if compareRefs(a, b) <= 0 {
		return Pair{A: a, B: b}
	}
	return Pair{A: b, B: a}
}

func compareRefs(a, b Ref) int {
	if a.UserID != b.UserID {
		if a.UserID < b.UserID {
			return -1
		}
		return 1
	}
	switch {
	case a.ActivityID < b.ActivityID:
		return -1
	case a.ActivityID > b.ActivityID:
		return 1
	}
	return 0
}

func comparePairs(a, b Pair) int {
	if c := compareRefs(a.A, b.A); c != 0 {
		return c
	}
	return compareRefs(a.B, b.B)
}
