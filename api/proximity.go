package api

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/dedupe"
	"github.com/tracklife/trajd/geoidx"
	"github.com/tracklife/trajd/params"
)

// NearbyUsers answers: who had a trackpoint within the configured
// radius and time window of the reference point and instant? Served
// from the cell index when one is attached, otherwise by a full stream
// scan. Either path returns the same set, ascending by id.
func (a *Analyzer) NearbyUsers(ctx context.Context, center orb.Point, at time.Time, config *params.ProximityConfig) ([]conceptual.UserID, error) {
	if a.Indexer != nil {
		return a.Indexer.Query(ctx, center, at, config)
	}
	return geoidx.StreamScan(ctx, a.Store, center, at, config)
}

// NearbyUserCount is NearbyUsers reduced to its headline number.
func (a *Analyzer) NearbyUserCount(ctx context.Context, center orb.Point, at time.Time, config *params.ProximityConfig) (int, error) {
	users, err := a.NearbyUsers(ctx, center, at, config)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// DuplicateActivities finds pairs of activities sharing an exact
// (start, end) window and a matching trackpoint footprint, under the
// configured spatial tolerance. Pairs come back in deterministic order.
func (a *Analyzer) DuplicateActivities(ctx context.Context) ([]dedupe.Pair, error) {
	return dedupe.NewDetector(a.Store, a.Config.SpatialToleranceM).Detect(ctx)
}
