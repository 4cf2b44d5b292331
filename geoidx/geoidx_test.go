package geoidx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/track"
)

// The pandemic-tracking scenario: an infected person at this point and
// time; who was within 100m and 60s?
var (
	refPoint = orb.Point{116.33031, 39.97548}
	refTime  = track.MustParseTime("2008-08-24 15:38:00")
)

func tp(uid string, lat, lon float64, ts string) track.Trackpoint {
	return track.Trackpoint{
		UserID:   conceptual.UserID(uid),
		Lat:      lat,
		Lon:      lon,
		Altitude: 100,
		Time:     track.MustParseTime(ts),
	}
}

func newTestIndexer(t *testing.T, points []track.Trackpoint) *CellIndexer {
	t.Helper()
	config := params.DefaultIndexConfig()
	config.BatchSize = 4 // several batches even in small tests
	ci, err := NewCellIndexer(filepath.Join(t.TempDir(), params.IndexDBName), config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ci.Close() })

	ctx := context.Background()
	if err := ci.Index(ctx, stream.Slice(ctx, points)); err != nil {
		t.Fatal(err)
	}
	return ci
}

func TestQueryScenario(t *testing.T) {
	ci := newTestIndexer(t, []track.Trackpoint{
		// Same coordinates, 30s later: in.
		tp("020", 39.97548, 116.33031, "2008-08-24 15:38:30"),
		// Same coordinates, 61s later: out of the window.
		tp("021", 39.97548, 116.33031, "2008-08-24 15:39:01"),
		// ~150m north, in the window: out of the radius.
		tp("022", 39.97683, 116.33031, "2008-08-24 15:38:10"),
		// ~50m north, 59s earlier: in.
		tp("023", 39.97593, 116.33031, "2008-08-24 15:37:01"),
		// Noise a continent away.
		tp("024", 46.92928, -114.08775, "2008-08-24 15:38:00"),
	})

	users, err := ci.Query(context.Background(), refPoint, refTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []conceptual.UserID{"020", "023"}
	if len(users) != len(want) {
		t.Fatalf("got %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Fatalf("got %v, want %v", users, want)
		}
	}
}

func TestQueryDedupesUsers(t *testing.T) {
	// One user, many qualifying points: counted once.
	ci := newTestIndexer(t, []track.Trackpoint{
		tp("020", 39.97548, 116.33031, "2008-08-24 15:38:10"),
		tp("020", 39.97549, 116.33032, "2008-08-24 15:38:20"),
		tp("020", 39.97550, 116.33033, "2008-08-24 15:38:30"),
	})
	users, err := ci.Query(context.Background(), refPoint, refTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0] != "020" {
		t.Errorf("got %v, want exactly [020]", users)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	ci := newTestIndexer(t, nil)
	users, err := ci.Query(context.Background(), refPoint, refTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 0 {
		t.Errorf("expected no users, got %v", users)
	}
}

func TestQueryRejectsBadConfig(t *testing.T) {
	ci := newTestIndexer(t, nil)
	bad := &params.ProximityConfig{RadiusMeters: -1, Window: time.Minute}
	if _, err := ci.Query(context.Background(), refPoint, refTime, bad); err == nil {
		t.Error("expected eager rejection of negative radius")
	}
	bad = &params.ProximityConfig{RadiusMeters: 100, Window: -time.Minute}
	if _, err := ci.Query(context.Background(), refPoint, refTime, bad); err == nil {
		t.Error("expected eager rejection of negative window")
	}
}

func TestQueryCacheConsistentAfterReindex(t *testing.T) {
	ci := newTestIndexer(t, []track.Trackpoint{
		tp("020", 39.97548, 116.33031, "2008-08-24 15:38:30"),
	})
	ctx := context.Background()

	// Warm the cache.
	if _, err := ci.Query(ctx, refPoint, refTime, nil); err != nil {
		t.Fatal(err)
	}

	// More points land in the same minute; the cached slab is stale.
	more := []track.Trackpoint{
		tp("025", 39.97548, 116.33031, "2008-08-24 15:38:40"),
	}
	if err := ci.Index(ctx, stream.Slice(ctx, more)); err != nil {
		t.Fatal(err)
	}

	users, err := ci.Query(ctx, refPoint, refTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("expected both users after reindex, got %v", users)
	}
}

func TestIndexFeed(t *testing.T) {
	config := params.DefaultIndexConfig()
	config.BatchSize = 2
	ci, err := NewCellIndexer(filepath.Join(t.TempDir(), params.IndexDBName), config)
	if err != nil {
		t.Fatal(err)
	}
	defer ci.Close()

	got := make(chan []IndexedPoint, 8)
	sub := ci.FeedOfIndexedBatches().Subscribe(got)
	defer sub.Unsubscribe()

	ctx := context.Background()
	points := []track.Trackpoint{
		tp("020", 39.97548, 116.33031, "2008-08-24 15:38:30"),
		tp("021", 39.97549, 116.33032, "2008-08-24 15:38:31"),
		tp("022", 39.97550, 116.33033, "2008-08-24 15:38:32"),
	}
	if err := ci.Index(ctx, stream.Slice(ctx, points)); err != nil {
		t.Fatal(err)
	}

	total := 0
	for total < len(points) {
		select {
		case batch := <-got:
			total += len(batch)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for feed; got %d of %d points", total, len(points))
		}
	}
}
