package params

import (
	"fmt"
	"runtime"
	"time"
)

// AnalyzerConfig tunes the scan-based analytics.
// The dataset constants (sentinel, unit) are Geolife-flavored defaults
// and belong here rather than hard-coded in the scanners.
type AnalyzerConfig struct {
	// GapThreshold is the consecutive-trackpoint time gap at or above
	// which an activity is considered invalid. Boundary inclusive.
	GapThreshold time.Duration

	// AltitudeSentinel is the reserved altitude value meaning "no reading".
	AltitudeSentinel float64

	// AltitudeInFeet indicates source altitudes are feet, to be reported
	// in meters.
	AltitudeInFeet bool

	// SpatialToleranceM is the footprint tolerance for the duplicate
	// activity detector, in meters. Zero means exact coordinates.
	SpatialToleranceM float64

	// Workers bounds per-user scan parallelism.
	Workers int

	// TopK is the default leaderboard size for ranked queries.
	TopK int
}

func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		GapThreshold:      5 * time.Minute,
		AltitudeSentinel:  -777,
		AltitudeInFeet:    true,
		SpatialToleranceM: 0,
		Workers:           runtime.NumCPU(),
		TopK:              10,
	}
}

func (c *AnalyzerConfig) Validate() error {
	if c.GapThreshold < 0 {
		return fmt.Errorf("negative gap threshold: %v", c.GapThreshold)
	}
	if c.SpatialToleranceM < 0 {
		return fmt.Errorf("negative spatial tolerance: %f", c.SpatialToleranceM)
	}
	if c.Workers < 1 {
		return fmt.Errorf("need at least one worker, got %d", c.Workers)
	}
	return nil
}

// IndexConfig tunes the spatiotemporal index.
type IndexConfig struct {
	// CellLevel is the S2 cell level of the spatial grid.
	// Level 16 cells are ~150m across at mid latitudes; fine enough
	// for a 100m-radius query without touching many cells.
	CellLevel int

	// BatchSize bounds how many points accumulate before a db flush.
	BatchSize int

	// CacheSize bounds the query-side minute-bucket LRU.
	CacheSize int
}

func DefaultIndexConfig() *IndexConfig {
	return &IndexConfig{
		CellLevel: 16,
		BatchSize: DefaultBatchSize,
		CacheSize: 256,
	}
}

// ProximityConfig is a spatiotemporal range query's parameters.
type ProximityConfig struct {
	RadiusMeters float64
	Window       time.Duration
}

func DefaultProximityConfig() *ProximityConfig {
	return &ProximityConfig{
		RadiusMeters: 100,
		Window:       60 * time.Second,
	}
}

func (c *ProximityConfig) Validate() error {
	if c.RadiusMeters < 0 {
		return fmt.Errorf("negative radius: %f", c.RadiusMeters)
	}
	if c.Window < 0 {
		return fmt.Errorf("negative window: %v", c.Window)
	}
	return nil
}

type WebDaemonConfig struct {
	NetAddr  string
	NetPort  int
	CacheTTL time.Duration
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		NetAddr:  "localhost",
		NetPort:  3334,
		CacheTTL: 5 * time.Minute,
	}
}
