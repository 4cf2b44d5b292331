package testdata

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tracklife/trajd/types/activity"
)

// WriteSQLite creates a Geolife-style database at path holding trips.
// Activity ids are assigned 1..n in order, matching WriteNDJSON.
func WriteSQLite(path string, trips []Trip) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(`
		CREATE TABLE User (id TEXT PRIMARY KEY, has_labels BOOLEAN);
		CREATE TABLE Activity (id INTEGER PRIMARY KEY, user_id TEXT,
			transportation_mode TEXT, start_date_time TEXT, end_date_time TEXT);
		CREATE TABLE TrackPoint (id INTEGER PRIMARY KEY AUTOINCREMENT,
			activity_id INTEGER, lat REAL, lon REAL, altitude REAL, date_time TEXT);
	`); err != nil {
		return err
	}

	seen := map[string]bool{}
	for i, trip := range trips {
		if !seen[trip.UserID] {
			seen[trip.UserID] = true
			if _, err := db.Exec(`INSERT INTO User (id, has_labels) VALUES (?, ?)`,
				trip.UserID, trip.Mode.IsLabeled()); err != nil {
				return err
			}
		}
		// Unlabeled activities store a SQL NULL, like the real loader.
		var mode any
		if trip.Mode != activity.ModeNull {
			mode = trip.Mode.String()
		}
		if _, err := db.Exec(`
			INSERT INTO Activity (id, user_id, transportation_mode, start_date_time, end_date_time)
			VALUES (?, ?, ?, ?, ?)`,
			i+1, trip.UserID, mode, trip.Start, trip.End); err != nil {
			return err
		}
		for _, p := range trip.Points {
			if _, err := db.Exec(`
				INSERT INTO TrackPoint (activity_id, lat, lon, altitude, date_time)
				VALUES (?, ?, ?, ?, ?)`,
				i+1, p.Lat, p.Lon, p.Altitude, p.Time); err != nil {
				return err
			}
		}
	}
	return nil
}
