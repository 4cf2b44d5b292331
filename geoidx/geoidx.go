/*
Package geoidx indexes trackpoints for spatiotemporal range queries:
"which users have a point within radius R and window T of here-and-then".

The index is two-dimensional in the cheap-to-prune sense: points are
grouped into minute buckets (timestamps sort and group for free), and
within a minute keyed by S2 cell of the spatial grid. A query touches
only the minute buckets overlapping its time window and, inside each,
only the cells covering its search cap; over a multi-million-point
dataset that is a tiny fraction of the data.

Storage is a bbolt file: one bucket per minute, keys laid out
cellID|unixtime|userID so a cursor prefix-seek walks one cell's points.
A small LRU in front of the db keeps hot (minute, cell) slabs decoded,
since real query workloads hammer the same place and hour.
*/
package geoidx

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/geo/s2"
	lru "github.com/hashicorp/golang-lru/v2"
	bbolt "go.etcd.io/bbolt"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/track"
)

// IndexedPoint is the datum stored per trackpoint. Enough to answer the
// exact distance/time check without going back to the store.
type IndexedPoint struct {
	UserID conceptual.UserID `json:"user_id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Unix   int64             `json:"unix"`
}

type CellIndexer struct {
	Config *params.IndexConfig
	DB     *bbolt.DB

	logger    *slog.Logger
	cache     *lru.Cache[string, []IndexedPoint]
	batchFeed event.FeedOf[[]IndexedPoint]
}

func NewCellIndexer(path string, config *params.IndexConfig) (*CellIndexer, error) {
	if config == nil {
		config = params.DefaultIndexConfig()
	}
	if config.CellLevel < 0 || config.CellLevel > 30 {
		return nil, fmt.Errorf("bad cell level: %d", config.CellLevel)
	}
	db, err := bbolt.Open(path, 0660, nil)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, []IndexedPoint](config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &CellIndexer{
		Config: config,
		DB:     db,
		cache:  cache,
		logger: slog.With("indexer", "geoidx"),
	}, nil
}

func (ci *CellIndexer) Close() error {
	return ci.DB.Close()
}

// FeedOfIndexedBatches lets a subscriber watch batches land.
func (ci *CellIndexer) FeedOfIndexedBatches() *event.FeedOf[[]IndexedPoint] {
	return &ci.batchFeed
}

// Index consumes the trackpoint stream into the index, batching to
// minimize disk txes. It blocks until in closes or ctx cancels.
func (ci *CellIndexer) Index(ctx context.Context, in <-chan track.Trackpoint) error {
	batches := stream.BatchSize(ctx, ci.Config.BatchSize, in)
	for batch := range batches {
		if err := ci.index(batch); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (ci *CellIndexer) index(batch []track.Trackpoint) error {
	start := time.Now()
	defer func() {
		ci.logger.Debug("Indexed batch", "size", len(batch),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}()

	byMinute := map[int64][]IndexedPoint{}
	keys := map[int64][][]byte{}
	for _, tp := range batch {
		p := IndexedPoint{
			UserID: tp.UserID,
			Lat:    tp.Lat,
			Lon:    tp.Lon,
			Unix:   tp.Time.Unix(),
		}
		minute := p.Unix / 60
		byMinute[minute] = append(byMinute[minute], p)
		keys[minute] = append(keys[minute], pointKey(ci.cellOf(tp.Lat, tp.Lon), p.Unix, p.UserID))
	}

	indexed := make([]IndexedPoint, 0, len(batch))
	err := ci.DB.Update(func(tx *bbolt.Tx) error {
		for minute, points := range byMinute {
			b, err := tx.CreateBucketIfNotExists(minuteKey(minute))
			if err != nil {
				return err
			}
			for i, p := range points {
				encoded, err := json.Marshal(p)
				if err != nil {
					return err
				}
				if err := b.Put(keys[minute][i], encoded); err != nil {
					return err
				}
				indexed = append(indexed, p)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Cached slabs for touched minutes are stale now.
	for _, key := range ci.cache.Keys() {
		minute, err := minuteOfCacheKey(key)
		if err != nil {
			continue
		}
		if _, ok := byMinute[minute]; ok {
			ci.cache.Remove(key)
		}
	}

	ci.batchFeed.Send(indexed)
	return nil
}

func (ci *CellIndexer) cellOf(lat, lon float64) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(ci.Config.CellLevel)
}

func minuteKey(minute int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(minute))
	return k
}

// pointKey is cellID|unix|userID; big-endian so one cell's points are
// a contiguous, time-ordered key range.
func pointKey(cell s2.CellID, unix int64, userID conceptual.UserID) []byte {
	k := make([]byte, 16, 16+len(userID))
	binary.BigEndian.PutUint64(k[:8], uint64(cell))
	binary.BigEndian.PutUint64(k[8:16], uint64(unix))
	return append(k, userID...)
}

func cellPrefix(cell s2.CellID) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(cell))
	return k
}

func cacheKey(minute int64, cell s2.CellID) string {
	return fmt.Sprintf("%d/%s", minute, cell.ToToken())
}

func minuteOfCacheKey(key string) (int64, error) {
	var minute int64
	var token string
	if _, err := fmt.Sscanf(key, "%d/%s", &minute, &token); err != nil {
		return 0, err
	}
	return minute, nil
}
