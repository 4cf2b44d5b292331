// Package track defines the Trackpoint, a single timestamped GPS reading.
package track

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/tracklife/trajd/conceptual"
)

// TimeLayout is the dataset's timestamp format, at 1-second granularity.
// Trackpoint times never carry sub-second precision; when two trackpoints
// in one activity share a timestamp, that's data to flag, not to fix.
const TimeLayout = "2006-01-02 15:04:05"

// Trackpoint is a single timestamped (lat, lon, altitude) reading.
// Altitude is in the source unit (feet for Geolife) and may hold the
// configured sentinel, meaning no reading.
type Trackpoint struct {
	UserID     conceptual.UserID `json:"user_id"`
	ActivityID int64             `json:"activity_id"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Altitude   float64           `json:"altitude"`
	Time       time.Time         `json:"time"`
}

// Point returns the reading's position, x/y :: lon/lat.
func (tp *Trackpoint) Point() orb.Point {
	return orb.Point{tp.Lon, tp.Lat}
}

// Validate checks coordinate ranges and the timestamp.
// It returns the first error it encounters.
func (tp *Trackpoint) Validate() error {
	if tp.Lat < -90 || tp.Lat > 90 {
		return fmt.Errorf("invalid coordinate: lat=%.14f", tp.Lat)
	}
	if tp.Lon < -180 || tp.Lon > 180 {
		return fmt.Errorf("invalid coordinate: lon=%.14f", tp.Lon)
	}
	if tp.Time.IsZero() {
		return fmt.Errorf("zero time")
	}
	return nil
}

// ParseTime parses a dataset timestamp string.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("zero time")
	}
	return t, nil
}

// MustParseTime parses a dataset timestamp or panics. Fixture use.
func MustParseTime(s string) time.Time {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// SlicesSortFunc orders trackpoints chronologically, then by user id
// for a stable order at equal seconds.
// > cmp(a, b) should return a negative number when a < b,
// > a positive number when a > b, and zero when a == b
func SlicesSortFunc(a, b Trackpoint) int {
	if a.Time.Before(b.Time) {
		return -1
	}
	if a.Time.After(b.Time) {
		return 1
	}
	if a.UserID < b.UserID {
		return -1
	}
	if a.UserID > b.UserID {
		return 1
	}
	return 0
}
