package ndjson

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tracklife/trajd/testing/testdata"
	"github.com/tracklife/trajd/types/track"
)

func openBeijing(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beijing.ndjson")
	if err := testdata.WriteNDJSON(path, testdata.Beijing()); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStreamUsers(t *testing.T) {
	s := openBeijing(t)
	ctx := context.Background()

	ids := []string{}
	for u := range s.StreamUsers(ctx) {
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

func TestStreamActivities(t *testing.T) {
	s := openBeijing(t)
	ctx := context.Background()

	n := 0
	for a := range s.StreamActivities(ctx, "112") {
		n++
		if a.UserID != "112" {
			t.Errorf("wrong owner: %+v", a)
		}
		if a.End.Before(a.Start) {
			t.Errorf("window inverted: %+v", a)
		}
	}
	if n != 2 {
		t.Errorf("got %d activities for 112, want 2", n)
	}

	// Unknown user: empty stream, no error.
	for range s.StreamActivities(ctx, "999") {
		t.Error("unexpected activity for unknown user")
	}
}

func TestStreamTrackpointsLazy(t *testing.T) {
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
	if points[1].Lat != 39.97548 {
		t.Errorf("point order or values off: %+v", points[1])
	}
	if points[0].UserID != "112" || points[0].ActivityID != walkID {
		t.Errorf("points not stamped with owners: %+v", points[0])
	}
}

func TestSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirty.ndjson")
	if err := testdata.WriteNDJSON(path, testdata.Beijing()); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("this is not json\n{\"user_id\":\"\"}\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped() != 2 {
		t.Errorf("skipped: got %d, want 2", s.Skipped())
	}

	// The good records still stream.
	n := 0
	for range s.StreamUsers(context.Background()) {
		n++
	}
	if n != 3 {
		t.Errorf("got %d users, want 3", n)
	}
}

func TestStreamTrackpointsCancel(t *testing.T) {
	s := openBeijing(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	for range s.StreamTrackpoints(ctx, 1) {
		n++
	}
	if n > 1 {
		t.Errorf("canceled stream delivered %d points", n)
	}
}
