// Package activity defines the Activity, a contiguous mode-tagged trip.
package activity

import (
	"fmt"
	"time"

	"github.com/tracklife/trajd/conceptual"
)

// Mode is a transportation mode label. The dataset uses a closed set of
// lowercase strings plus a "NULL" sentinel for unlabeled activities.
// Matching is case-sensitive exact; the set is data, not code, so anything
// else that shows up is carried through rather than rejected.
type Mode string

const ModeNull Mode = "NULL"

var KnownModes = []Mode{
	"walk", "bike", "bus", "car", "taxi",
	"subway", "train", "airplane", "boat", "run", "motorcycle",
}

// IsLabeled returns whether the mode carries information.
func (m Mode) IsLabeled() bool {
	return m != "" && m != ModeNull
}

func (m Mode) String() string {
	return string(m)
}

// Activity is one trip: an owner, a mode, and a start/end window bounding
// its ordered trackpoint sequence.
type Activity struct {
	ID     int64             `json:"id"`
	UserID conceptual.UserID `json:"user_id"`
	Mode   Mode              `json:"transportation_mode"`
	Start  time.Time         `json:"start_date_time"`
	End    time.Time         `json:"end_date_time"`
}

func (a *Activity) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// CrossesMidnight reports whether the activity starts and ends on
// different calendar dates. Naive comparison; no timezone conversion.
func (a *Activity) CrossesMidnight() bool {
	y1, m1, d1 := a.Start.Date()
	y2, m2, d2 := a.End.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// StartedIn reports whether the activity's start falls in the given year.
func (a *Activity) StartedIn(year int) bool {
	return a.Start.Year() == year
}

// Validate checks the activity's time window.
func (a *Activity) Validate() error {
	if a.UserID.Empty() {
		return fmt.Errorf("empty user id")
	}
	if a.Start.IsZero() || a.End.IsZero() {
		return fmt.Errorf("zero start or end time")
	}
	if a.End.Before(a.Start) {
		return fmt.Errorf("end before start: %v < %v", a.End, a.Start)
	}
	return nil
}
