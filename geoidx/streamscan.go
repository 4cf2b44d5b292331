package geoidx

import (
	"context"
	"slices"
	"time"

	"github.com/paulmach/orb"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/store"
)

// StreamScan answers a proximity query with one pass over the store,
// for when no index has been built. Same answer as Query, more work:
// still cheap per point, because the activity time window prunes whole
// activities before any trackpoint is read, and the bounding box prunes
// points before any trigonometry. Cancellation is checked at user and
// activity boundaries.
func StreamScan(ctx context.Context, s store.Store, center orb.Point, at time.Time, config *params.ProximityConfig) ([]conceptual.UserID, error) {
	if config == nil {
		config = params.DefaultProximityConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	lo, hi := at.Add(-config.Window), at.Add(config.Window)
	bound := common.BoundForRadius(center, config.RadiusMeters)

	hits := map[conceptual.UserID]struct{}{}
	for u := range s.StreamUsers(ctx) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for a := range s.StreamActivities(ctx, u.ID) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			// Temporal prefilter at the activity level.
			if a.End.Before(lo) || a.Start.After(hi) {
				continue
			}
			for tp := range s.StreamTrackpoints(ctx, a.ID) {
				if tp.Time.Before(lo) || tp.Time.After(hi) {
					continue
				}
				pt := tp.Point()
				if !bound.Contains(pt) {
					continue
				}
				if common.Distance(center, pt) > config.RadiusMeters {
					continue
				}
				hits[u.ID] = struct{}{}
			}
		}
	}

	users := make([]conceptual.UserID, 0, len(hits))
	for id := range hits {
		users = append(users, id)
	}
	slices.Sort(users)
	return users, nil
}
