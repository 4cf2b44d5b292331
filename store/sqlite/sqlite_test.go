package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tracklife/trajd/testing/testdata"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
)

func openBeijing(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beijing.db")
	if err := testdata.WriteSQLite(path, testdata.Beijing()); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStreamUsers(t *testing.T) {
	s := openBeijing(t)
	ids := []string{}
	for u := range s.StreamUsers(context.Background()) {
		ids = append(ids, u.ID.String())
	}
	want := []string{"112", "128", "153"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v (ascending)", ids, want)
		}
	}
}

func TestStreamActivitiesNullMode(t *testing.T) {
	s := openBeijing(t)
	ctx := context.Background()

	// 153's activity has a SQL NULL mode; it must surface as the
	// NULL sentinel, not break the stream.
	n := 0
	for a := range s.StreamActivities(ctx, "153") {
		n++
		if a.Mode != activity.ModeNull {
			t.Errorf("got mode %q, want %q", a.Mode, activity.ModeNull)
		}
	}
	if n != 1 {
		t.Errorf("got %d activities for 153, want 1", n)
	}
}

func TestStreamTrackpoints(t *testing.T) {
	s := openBeijing(t)
	ctx := context.Background()

	var walkID int64
	for a := range s.StreamActivities(ctx, "112") {
		if a.Mode == "walk" {
			walkID = a.ID
		}
	}
	if walkID == 0 {
		t.Fatal("no walk activity found")
	}

	points := []track.Trackpoint{}
	for tp := range s.StreamTrackpoints(ctx, walkID) {
		points = append(points, tp)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			t.Errorf("points out of order: %v before %v", points[i].Time, points[i-1].Time)
		}
	}
	if points[0].UserID != "112" || points[0].ActivityID != walkID {
		t.Errorf("points not stamped with owners: %+v", points[0])
	}
}

func TestStreamRestartable(t *testing.T) {
	s := openBeijing(t)
	ctx := context.Background()

	// Two full passes over the same stream call must agree.
	count := func() int {
		n := 0
		for range s.StreamActivities(ctx, "112") {
			n++
		}
		return n
	}
	if a, b := count(), count(); a != b || a != 2 {
		t.Errorf("restarted stream disagrees: %d vs %d", a, b)
	}
}
