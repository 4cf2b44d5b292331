// Package rank is the reusable top-K primitive behind every ranked
// analytic: descending score, ascending user id on ties, truncated to K.
package rank

import (
	"slices"

	"github.com/tracklife/trajd/conceptual"
)

type Entry struct {
	ID    conceptual.UserID `json:"user_id"`
	Score float64           `json:"score"`
}

// Compare orders entries descending by score, ascending by id on ties.
func Compare(a, b Entry) int {
	if a.Score > b.Score {
		return -1
	}
	if a.Score < b.Score {
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

// Top ranks a score mapping and truncates to k. A k larger than the map
// returns everything sorted; no padding, no error.
func Top(k int, scores map[conceptual.UserID]float64) []Entry {
	entries := make([]Entry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, Entry{ID: id, Score: score})
	}
	slices.SortFunc(entries, Compare)
	if k >= 0 && k < len(entries) {
		entries = entries[:k]
	}
	return entries
}

// Leaderboard accumulates per-user scores and yields the top K.
// Partial leaderboards built over disjoint user batches merge
// associatively and commutatively, so parallel workers can each
// hold one and combine at the end.
type Leaderboard struct {
	K      int
	scores map[conceptual.UserID]float64
}

func NewLeaderboard(k int) *Leaderboard {
	return &Leaderboard{
		K:      k,
		scores: make(map[conceptual.UserID]float64),
	}
}

// Add accumulates score onto the user's running total.
func (l *Leaderboard) Add(id conceptual.UserID, score float64) {
	l.scores[id] += score
}

// Merge folds another leaderboard into this one, summing shared users.
func (l *Leaderboard) Merge(other *Leaderboard) {
	if other == nil {
		return
	}
	for id, score := range other.scores {
		l.scores[id] += score
	}
}

// Len reports how many users hold scores.
func (l *Leaderboard) Len() int {
	return len(l.scores)
}

// Top returns the current top-K entries.
func (l *Leaderboard) Top() []Entry {
	return Top(l.K, l.scores)
}
