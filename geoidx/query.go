package geoidx

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	bbolt "go.etcd.io/bbolt"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/params"
)

const earthRadiusMeters = 6371008.8

// Query returns the distinct users owning at least one indexed point
// within config.RadiusMeters and config.Window of (center, at).
// Result is sorted ascending; empty is a fine answer.
func (ci *CellIndexer) Query(ctx context.Context, center orb.Point, at time.Time, config *params.ProximityConfig) ([]conceptual.UserID, error) {
	if config == nil {
		config = params.DefaultProximityConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	window := int64(config.Window / time.Second)
	lo, hi := at.Unix()-window, at.Unix()+window
	covering := ci.covering(center, config.RadiusMeters)
	bound := common.BoundForRadius(center, config.RadiusMeters)

	hits := map[conceptual.UserID]struct{}{}
	for minute := lo / 60; minute <= hi/60; minute++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for _, cell := range covering {
			points, err := ci.cellSlab(minute, cell)
			if err != nil {
				return nil, err
			}
			for _, p := range points {
				if p.Unix < lo || p.Unix > hi {
					continue
				}
				pt := orb.Point{p.Lon, p.Lat}
				// Cheap box first, trigonometry second.
				if !bound.Contains(pt) {
					continue
				}
				if common.Distance(center, pt) > config.RadiusMeters {
					continue
				}
				hits[p.UserID] = struct{}{}
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

// covering returns the grid cells overlapping the search cap. The cap
// is padded a hair so the covering stays a conservative
// over-approximation; the exact haversine filter does the real work.
func (ci *CellIndexer) covering(center orb.Point, radiusMeters float64) []s2.CellID {
	angle := s1.Angle((radiusMeters*1.05 + 10) / earthRadiusMeters)
	searchCap := s2.CapFromCenterAngle(
		s2.PointFromLatLng(s2.LatLngFromDegrees(center.Lat(), center.Lon())), angle)
	rc := &s2.RegionCoverer{
		MinLevel: ci.Config.CellLevel,
		MaxLevel: ci.Config.CellLevel,
		MaxCells: 64,
	}
	return rc.Covering(searchCap)
}

// cellSlab returns one (minute, cell)'s decoded points, via the LRU.
func (ci *CellIndexer) cellSlab(minute int64, cell s2.CellID) ([]IndexedPoint, error) {
	key := cacheKey(minute, cell)
	if points, ok := ci.cache.Get(key); ok {
		return points, nil
	}

	var points []IndexedPoint
	err := ci.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(minuteKey(minute))
		if b == nil {
			return nil
		}
		prefix := cellPrefix(cell)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			p := IndexedPoint{}
			if err := json.Unmarshal(v, &p); err != nil {
				ci.logger.Warn("Skipping undecodable index entry", "minute", minute, "error", err)
				continue
			}
			points = append(points, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ci.cache.Add(key, points)
	return points, nil
}
