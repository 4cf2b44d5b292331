package rank

import (
	"testing"

	"github.com/tracklife/trajd/conceptual"
)

func TestTopOrdering(t *testing.T) {
	scores := map[conceptual.UserID]float64{
		"003": 10,
		"001": 30,
		"002": 30,
		"004": 5,
	}
	got := Top(3, scores)
	want := []Entry{{"001", 30}, {"002", 30}, {"003", 10}}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTopKLargerThanInput(t *testing.T) {
	scores := map[conceptual.UserID]float64{"001": 1, "002": 2}
	got := Top(20, scores)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (no padding)", len(got))
	}
	if got[0].ID != "002" || got[1].ID != "001" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestTopEmpty(t *testing.T) {
	if got := Top(10, nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestLeaderboardMergeEquivalence(t *testing.T) {
	// Partitioning users into disjoint batches and merging partial
	// leaderboards must equal a single sequential pass.
	whole := NewLeaderboard(3)
	a, b := NewLeaderboard(3), NewLeaderboard(3)

	adds := []struct {
		id    conceptual.UserID
		score float64
	}{
		{"001", 5}, {"002", 7}, {"001", 2}, {"003", 7}, {"004", 1},
	}
	for i, add := range adds {
		whole.Add(add.id, add.score)
		if i%2 == 0 {
			a.Add(add.id, add.score)
		} else {
			b.Add(add.id, add.score)
		}
	}
	a.Merge(b)

	wantTop, gotTop := whole.Top(), a.Top()
	if len(wantTop) != len(gotTop) {
		t.Fatalf("merged top has %d entries, want %d", len(gotTop), len(wantTop))
	}
	for i := range wantTop {
		if wantTop[i] != gotTop[i] {
			t.Errorf("entry %d: merged %v, sequential %v", i, gotTop[i], wantTop[i])
		}
	}
}
