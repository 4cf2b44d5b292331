package api

import (
	"context"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/rank"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/user"
)

// DatasetSummary is the "how big is this thing" answer.
type DatasetSummary struct {
	Users       int   `json:"users"`
	Activities  int   `json:"activities"`
	Trackpoints int64 `json:"trackpoints"`
}

// Summarize counts users, activities, and trackpoints in one parallel
// pass. Partial sums merge in any order.
func (a *Analyzer) Summarize(ctx context.Context) (DatasetSummary, error) {
	type partial struct {
		activities  int
		trackpoints int64
	}
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (partial, error) {
		p := partial{}
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			select {
			case <-ctx.Done():
				return p, ctx.Err()
			default:
			}
			p.activities++
			for range a.Store.StreamTrackpoints(ctx, act.ID) {
				p.trackpoints++
			}
		}
		return p, nil
	})
	if err != nil {
		return DatasetSummary{}, err
	}
	summary := DatasetSummary{Users: len(partials)}
	for _, p := range partials {
		summary.Activities += p.activities
		summary.Trackpoints += p.trackpoints
	}
	return summary, nil
}

// ActivityStats describes activities-per-user across the dataset.
type ActivityStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ActivitiesPerUser computes average, minimum, and maximum activities
// per user. Empty dataset returns zeroes.
func (a *Analyzer) ActivitiesPerUser(ctx context.Context) (ActivityStats, error) {
	counts, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (float64, error) {
		n := 0.0
		for range a.Store.StreamActivities(ctx, u.ID) {
			n++
		}
		return n, nil
	})
	if err != nil {
		return ActivityStats{}, err
	}
	if len(counts) == 0 {
		return ActivityStats{}, nil
	}
	out := ActivityStats{}
	if out.Average, err = stats.Mean(counts); err != nil {
		return out, err
	}
	if out.Min, err = stats.Min(counts); err != nil {
		return out, err
	}
	if out.Max, err = stats.Max(counts); err != nil {
		return out, err
	}
	return out, nil
}

// MostActiveUsers ranks users by activity count.
func (a *Analyzer) MostActiveUsers(ctx context.Context, k int) ([]rank.Entry, error) {
	type pair struct {
		id conceptual.UserID
		n  float64
	}
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (pair, error) {
		p := pair{id: u.ID}
		for range a.Store.StreamActivities(ctx, u.ID) {
			p.n++
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	board := rank.NewLeaderboard(k)
	for _, p := range partials {
		board.Add(p.id, p.n)
	}
	return board.Top(), nil
}

// UsersNeverUsingMode returns users with no activity in the given mode,
// ascending. The classic instance: who never took a taxi.
func (a *Analyzer) UsersNeverUsingMode(ctx context.Context, mode activity.Mode) ([]conceptual.UserID, error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (conceptual.UserID, error) {
		used := false
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			if act.Mode == mode {
				used = true
			}
		}
		if used {
			return "", nil
		}
		return u.ID, nil
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

// ModeCount pairs a transportation mode with a distinct-user count.
type ModeCount struct {
	Mode  activity.Mode `json:"transportation_mode"`
	Users int           `json:"users"`
}

// DistinctUsersPerMode counts, per labeled transportation mode, how
// many distinct users ever used it. NULL rows don't count. Ascending
// by mode name.
func (a *Analyzer) DistinctUsersPerMode(ctx context.Context) ([]ModeCount, error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (map[activity.Mode]bool, error) {
		modes := map[activity.Mode]bool{}
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			if act.Mode.IsLabeled() {
				modes[act.Mode] = true
			}
		}
		return modes, nil
	})
	if err != nil {
		return nil, err
	}
	totals := map[activity.Mode]int{}
	for _, modes := range partials {
		for m := range modes {
			totals[m]++
		}
	}
	out := make([]ModeCount, 0, len(totals))
	for m, n := range totals {
		out = append(out, ModeCount{Mode: m, Users: n})
	}
	slices.SortFunc(out, func(x, y ModeCount) int {
		if x.Mode < y.Mode {
			return -1
		} else if x.Mode > y.Mode {
			return 1
		}
		return 0
	})
	return out, nil
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// BusiestMonth finds the calendar month with the most activity starts.
// Ties go to the earlier month, deterministically. ok is false on an
// empty dataset.
func (a *Analyzer) BusiestMonth(ctx context.Context) (ym YearMonth, ok bool, err error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (map[YearMonth]int, error) {
		months := map[YearMonth]int{}
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			key := YearMonth{Year: act.Start.Year(), Month: int(act.Start.Month())}
			months[key]++
		}
		return months, nil
	})
	if err != nil {
		return YearMonth{}, false, err
	}
	totals := map[YearMonth]int{}
	for _, months := range partials {
		for key, n := range months {
			totals[key] += n
		}
	}
	best, bestN := YearMonth{}, 0
	for key, n := range totals {
		if n > bestN || (n == bestN && n > 0 && beforeYM(key, best)) {
			best, bestN = key, n
		}
	}
	return best, bestN > 0, nil
}

func beforeYM(a, b YearMonth) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// UserMonthActivity is one row of the busiest-month leaderboard:
// activity count plus recorded hours, hours rounded to one decimal.
type UserMonthActivity struct {
	ID    conceptual.UserID `json:"user_id"`
	Count int               `json:"count"`
	Hours float64           `json:"hours"`
}

// MostActiveInMonth ranks users by activity count within one calendar
// month and reports their recorded hours; n rows, count descending,
// id ascending on ties.
func (a *Analyzer) MostActiveInMonth(ctx context.Context, ym YearMonth, n int) ([]UserMonthActivity, error) {
	partials, err := mapUsers(ctx, a, func(ctx context.Context, u user.User) (UserMonthActivity, error) {
		row := UserMonthActivity{ID: u.ID}
		hours := 0.0
		for act := range a.Store.StreamActivities(ctx, u.ID) {
			if act.Start.Year() != ym.Year || int(act.Start.Month()) != ym.Month {
				continue
			}
			row.Count++
			hours += act.Duration().Hours()
		}
		row.Hours = common.RoundPlaces(hours, 1)
		return row, nil
	})
	if err != nil {
		return nil, err
	}
	rows := partials[:0]
	for _, row := range partials {
		if row.Count > 0 {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(x, y UserMonthActivity) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		if x.ID < y.ID {
			return -1
		} else if x.ID > y.ID {
			return 1
		}
		return 0
	})
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows, nil
}
