// Package sqlite adapts a Geolife-style SQLite database to the store
// contract. The loader that fills the database is someone else's problem;
// this adapter only reads.
//
// Expected schema:
//
//	User(id TEXT PRIMARY KEY, has_labels BOOLEAN)
//	Activity(id INTEGER PRIMARY KEY, user_id TEXT,
//	         transportation_mode TEXT, start_date_time, end_date_time)
//	TrackPoint(id INTEGER PRIMARY KEY, activity_id INTEGER,
//	           lat REAL, lon REAL, altitude REAL, date_time)
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
	"github.com/tracklife/trajd/types/user"
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// skipped counts malformed rows dropped from streams.
	skipped atomic.Int64
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: slog.With("store", "sqlite", "path", path),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Skipped reports how many malformed rows streams have dropped so far.
func (s *Store) Skipped() int64 {
	return s.skipped.Load()
}

func (s *Store) StreamUsers(ctx context.Context) <-chan user.User {
	out := make(chan user.User)
	go func() {
		defer close(out)
		rows, err := s.db.QueryContext(ctx, `SELECT id, has_labels FROM User ORDER BY id`)
		if err != nil {
			s.logger.Error("Failed to query users", "error", err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var u user.User
			if err := rows.Scan(&u.ID, &u.HasLabels); err != nil {
				s.skip("user", err)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- u:
			}
		}
		if err := rows.Err(); err != nil {
			s.logger.Error("User row iteration failed", "error", err)
		}
	}()
	return out
}

func (s *Store) StreamActivities(ctx context.Context, userID conceptual.UserID) <-chan activity.Activity {
	out := make(chan activity.Activity)
	go func() {
		defer close(out)
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, user_id, COALESCE(transportation_mode, 'NULL'),
			       start_date_time, end_date_time
			FROM Activity WHERE user_id = ? ORDER BY id`, userID.String())
		if err != nil {
			s.logger.Error("Failed to query activities", "user", userID, "error", err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var a activity.Activity
			var start, end string
			if err := rows.Scan(&a.ID, &a.UserID, &a.Mode, &start, &end); err != nil {
				s.skip("activity", err)
				continue
			}
			if a.Start, err = track.ParseTime(start); err != nil {
				s.skip("activity", err)
				continue
			}
			if a.End, err = track.ParseTime(end); err != nil {
				s.skip("activity", err)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- a:
			}
		}
		if err := rows.Err(); err != nil {
			s.logger.Error("Activity row iteration failed", "user", userID, "error", err)
		}
	}()
	return out
}

func (s *Store) StreamTrackpoints(ctx context.Context, activityID int64) <-chan track.Trackpoint {
	out := make(chan track.Trackpoint)
	go func() {
		defer close(out)
		rows, err := s.db.QueryContext(ctx, `
			SELECT a.user_id, t.activity_id, t.lat, t.lon, t.altitude, t.date_time
			FROM TrackPoint t JOIN Activity a ON a.id = t.activity_id
			WHERE t.activity_id = ? ORDER BY t.id`, activityID)
		if err != nil {
			s.logger.Error("Failed to query trackpoints", "activity", activityID, "error", err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var tp track.Trackpoint
			var ts string
			if err := rows.Scan(&tp.UserID, &tp.ActivityID, &tp.Lat, &tp.Lon, &tp.Altitude, &ts); err != nil {
				s.skip("trackpoint", err)
				continue
			}
			if tp.Time, err = track.ParseTime(ts); err != nil {
				s.skip("trackpoint", err)
				continue
			}
			if err := tp.Validate(); err != nil {
				s.skip("trackpoint", err)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- tp:
			}
		}
		if err := rows.Err(); err != nil {
			s.logger.Error("Trackpoint row iteration failed", "activity", activityID, "error", err)
		}
	}()
	return out
}

func (s *Store) skip(kind string, err error) {
	s.skipped.Add(1)
	s.logger.Warn("Skipping malformed record", "kind", kind, "error", err)
}
