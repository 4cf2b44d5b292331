// Package testdata builds small deterministic trajectory datasets for
// tests: an in-memory store, an NDJSON export of the same records, or
// a SQLite database, all carrying identical content.
package testdata

import (
	"fmt"
	"os"
	"strings"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/store"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
	"github.com/tracklife/trajd/types/user"
)

// Point is one trackpoint fixture. Times use the dataset layout,
// eg. "2008-08-24 15:38:00".
type Point struct {
	Lat, Lon, Altitude float64
	Time               string
}

// Trip is one activity fixture with its points.
type Trip struct {
	UserID     string
	Mode       activity.Mode
	Start, End string
	Points     []Point
}

// Beijing is the canonical fixture: three users around the reference
// point at 116.33031, 39.97548 on 2008-08-24.
//
//	112: a labeled walker near the reference point, plus a
//	     midnight-crossing bus trip.
//	128: a taxi rider out of radius, with a gappy (invalid) recording.
//	153: an unlabeled user far away.
func Beijing() []Trip {
	return []Trip{
		{
			UserID: "112", Mode: "walk",
			Start: "2008-08-24 15:35:00", End: "2008-08-24 15:40:00",
			Points: []Point{
				{39.97540, 116.33020, 492, "2008-08-24 15:35:00"},
				{39.97548, 116.33031, 495, "2008-08-24 15:37:30"},
				{39.97555, 116.33040, 499, "2008-08-24 15:40:00"},
			},
		},
		{
			UserID: "112", Mode: "bus",
			Start: "2008-08-24 23:50:00", End: "2008-08-25 00:20:00",
			Points: []Point{
				{39.98001, 116.32001, 480, "2008-08-24 23:50:00"},
				{39.99012, 116.31510, 481, "2008-08-25 00:20:00"},
			},
		},
		{
			UserID: "128", Mode: "taxi",
			Start: "2008-08-24 15:00:00", End: "2008-08-24 16:00:00",
			Points: []Point{
				{39.99890, 116.30112, 470, "2008-08-24 15:00:00"},
				// 20 minute gap: invalid recording.
				{40.00915, 116.29518, -777, "2008-08-24 15:20:00"},
				{40.01233, 116.29101, 473, "2008-08-24 15:21:00"},
			},
		},
		{
			UserID: "153", Mode: activity.ModeNull,
			Start: "2008-08-24 08:00:00", End: "2008-08-24 08:30:00",
			Points: []Point{
				{39.90012, 116.40210, 120, "2008-08-24 08:00:00"},
				{39.90125, 116.40333, 122, "2008-08-24 08:30:00"},
			},
		},
	}
}

// Memory loads trips into an in-memory store.
func Memory(trips []Trip) *store.Memory {
	m := store.NewMemory()
	for _, trip := range trips {
		uid := conceptual.UserID(trip.UserID)
		m.AddUser(user.User{ID: uid, HasLabels: trip.Mode.IsLabeled()})
		points := make([]track.Trackpoint, len(trip.Points))
		for i, p := range trip.Points {
			points[i] = track.Trackpoint{
				UserID:   uid,
				Lat:      p.Lat,
				Lon:      p.Lon,
				Altitude: p.Altitude,
				Time:     track.MustParseTime(p.Time),
			}
		}
		m.AddActivity(activity.Activity{
			UserID: uid,
			Mode:   trip.Mode,
			Start:  track.MustParseTime(trip.Start),
			End:    track.MustParseTime(trip.End),
		}, points)
	}
	return m
}

// WriteNDJSON serializes trips in the ndjson store's line format.
// Activity ids are assigned 1..n in order.
func WriteNDJSON(path string, trips []Trip) error {
	b := strings.Builder{}
	for i, trip := range trips {
		b.WriteString(fmt.Sprintf(`{"user_id":%q,"has_labels":%t,"activity":{"id":%d,"transportation_mode":%q,"start_date_time":%q,"end_date_time":%q},"trackpoints":[`,
			trip.UserID, trip.Mode.IsLabeled(), i+1, trip.Mode, trip.Start, trip.End))
		for j, p := range trip.Points {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(fmt.Sprintf(`{"lat":%f,"lon":%f,"altitude":%f,"date_time":%q}`,
				p.Lat, p.Lon, p.Altitude, p.Time))
		}
		b.WriteString("]}\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
