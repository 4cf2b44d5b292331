package api

import (
	"context"
	"slices"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/rank"
	"github.com/tracklife/trajd/scan"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/user"
)

// DistanceWalked returns the total kilometers one user covered in a
// year, restricted to a transportation mode. Empty mode means no
// restriction; mode match is case-sensitive exact. An unknown user or
// a year with no matching activities yields 0, never an error.
func (a *Analyzer) DistanceWalked(ctx context.Context, year int, userID conceptual.UserID, mode activity.Mode) (float64, error) {
	meters := 0.0
	for act := range a.Store.StreamActivities(ctx, userID) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		if !act.StartedIn(year) {
			continue
		}
		if mode != "" && act.Mode != mode {
			continue
		}
		meters += scan.DistanceMeters(ctx, a.Store.StreamTrackpoints(ctx, act.ID))
	}
	return meters / 1000, nil
}

// TopAltitudeGainers ranks users by total altitude meters gained,
// descending, ties broken by ascending id. Sentinel readings never
// contribute; source altitudes in feet are converted.
func (a *Analyzer) TopAltitudeGainers(ctx context.Context, k int) ([]rank.Entry, error) {
	type gain struct {
		id     conceptual.UserID
		meters float64
	}
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (gain, error) {
		total := 0.0
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			select {
			case <-ctx.Done():
				return gain{}, ctx.Err()
			default:
			}
			total += scan.AltitudeGain(ctx, a.Config.AltitudeSentinel,
				a.Store.StreamTrackpoints(ctx, act.ID))
		}
		if a.Config.AltitudeInFeet {
			total = common.FeetToMeters(total)
		}
		return gain{id: u.ID, meters: total}, nil
	})
	if err != nil {
		return nil, err
	}

	board := rank.NewLeaderboard(k)
	for _, p := range partials {
		board.Add(p.id, p.meters)
	}
	return board.Top(), nil
}

// UserCount pairs a user with a count.
type UserCount struct {
	ID    conceptual.UserID `json:"user_id"`
	Count int               `json:"count"`
}

// InvalidActivityCounts returns, per user, how many of their activities
// contain a consecutive-trackpoint gap at or above the configured
// threshold. Users with zero invalid activities are omitted; the rest
// come back in ascending id order.
func (a *Analyzer) InvalidActivityCounts(ctx context.Context) ([]UserCount, error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (UserCount, error) {
		count := 0
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			select {
			case <-ctx.Done():
				return UserCount{}, ctx.Err()
			default:
			}
			if scan.HasInvalidGap(ctx, a.Config.GapThreshold,
				a.Store.StreamTrackpoints(ctx, act.ID)) {
				count++
			}
		}
		return UserCount{ID: u.ID, Count: count}, nil
	})
	if err != nil {
		return nil, err
	}

	counts := partials[:0]
	for _, p := range partials {
		if p.Count > 0 {
			counts = append(counts, p)
		}
	}
	slices.SortFunc(counts, func(x, y UserCount) int {
		if x.ID < y.ID {
			return -1
		} else if x.ID > y.ID {
			return 1
		}
		return 0
	})
	return counts, nil
}

// DayCrossingUsers returns the users owning at least one activity that
// ends on a different calendar date than it starts, ascending by id.
func (a *Analyzer) DayCrossingUsers(ctx context.Context) ([]conceptual.UserID, error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (conceptual.UserID, error) {
		crossed := false
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			if act.CrossesMidnight() {
				crossed = true
			}
		}
		if crossed {
			return u.ID, nil
		}
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	users := []conceptual.UserID{}
	for _, id := range partials {
		if !id.Empty() {
			users = append(users, id)
		}
	}
	slices.Sort(users)
	return users, nil
}

// DayCrossingUserCount is the headline number: how many users ever let
// an activity run past midnight.
func (a *Analyzer) DayCrossingUserCount(ctx context.Context) (int, error) {
	users, err := a.DayCrossingUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
