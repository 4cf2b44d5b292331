// Package ndjson adapts a newline-delimited JSON export to the store
// contract. One line per activity:
//
//	{"user_id":"112","has_labels":true,
//	 "activity":{"id":7,"transportation_mode":"walk",
//	             "start_date_time":"2008-08-24 15:38:00",
//	             "end_date_time":"2008-08-24 15:40:00"},
//	 "trackpoints":[{"lat":39.9,"lon":116.3,"altitude":492,
//	                 "date_time":"2008-08-24 15:38:00"},...]}
//
// Activity metadata is small and parsed once at Open. Trackpoint arrays
// can be enormous, so the file is indexed by byte offset and each
// activity's points are decoded lazily, per stream call.
package ndjson

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
	"github.com/tracklife/trajd/types/user"
)

// Scanned lines can hold hours of 1Hz trackpoints; 64MB of headroom.
const maxLineBytes = 64 * 1024 * 1024

type Store struct {
	path       string
	logger     *slog.Logger
	users      []user.User
	activities map[conceptual.UserID][]activity.Activity
	offsets    map[int64]int64 // activity id -> line byte offset
	skipped    int64
}

func Open(path string) (*Store, error) {
	s := &Store{
		path:       path,
		logger:     slog.With("store", "ndjson", "path", path),
		activities: make(map[conceptual.UserID][]activity.Activity),
		offsets:    make(map[int64]int64),
	}
	if err := s.buildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Skipped reports how many malformed lines the index pass dropped.
func (s *Store) Skipped() int64 {
	return s.skipped
}

func (s *Store) buildIndex() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	seen := map[conceptual.UserID]bool{}
	offset := int64(0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		lineLen := int64(len(line)) + 1 // trailing newline
		a, hasLabels, err := parseActivityLine(line)
		if err != nil {
			s.skipped++
			s.logger.Warn("Skipping malformed line", "offset", offset, "error", err)
			offset += lineLen
			continue
		}
		if !seen[a.UserID] {
			seen[a.UserID] = true
			s.users = append(s.users, user.User{ID: a.UserID, HasLabels: hasLabels})
		}
		s.activities[a.UserID] = append(s.activities[a.UserID], a)
		s.offsets[a.ID] = offset
		offset += lineLen
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	slices.SortFunc(s.users, func(a, b user.User) int {
		if a.ID < b.ID {
			return -1
		} else if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return nil
}

func parseActivityLine(line []byte) (activity.Activity, bool, error) {
	a := activity.Activity{}
	uid := gjson.GetBytes(line, "user_id")
	if !uid.Exists() || uid.String() == "" {
		return a, false, fmt.Errorf("missing user_id")
	}
	a.UserID = conceptual.UserID(uid.String())

	act := gjson.GetBytes(line, "activity")
	if !act.Exists() {
		return a, false, fmt.Errorf("missing activity")
	}
	a.ID = act.Get("id").Int()
	if a.ID == 0 {
		return a, false, fmt.Errorf("missing activity id")
	}
	a.Mode = activity.Mode(act.Get("transportation_mode").String())
	if a.Mode == "" {
		a.Mode = activity.ModeNull
	}

	var err error
	if a.Start, err = track.ParseTime(act.Get("start_date_time").String()); err != nil {
		return a, false, fmt.Errorf("bad start: %w", err)
	}
	if a.End, err = track.ParseTime(act.Get("end_date_time").String()); err != nil {
		return a, false, fmt.Errorf("bad end: %w", err)
	}
	return a, gjson.GetBytes(line, "has_labels").Bool(), nil
}

func (s *Store) StreamUsers(ctx context.Context) <-chan user.User {
	return stream.Slice(ctx, slices.Clone(s.users))
}

func (s *Store) StreamActivities(ctx context.Context, userID conceptual.UserID) <-chan activity.Activity {
	return stream.Slice(ctx, slices.Clone(s.activities[userID]))
}

func (s *Store) StreamTrackpoints(ctx context.Context, activityID int64) <-chan track.Trackpoint {
	out := make(chan track.Trackpoint)
	go func() {
		defer close(out)
		offset, ok := s.offsets[activityID]
		if !ok {
			return
		}
		line, err := s.readLineAt(offset)
		if err != nil {
			s.logger.Error("Failed to re-read activity line", "activity", activityID, "error", err)
			return
		}
		var uid conceptual.UserID
		if v := gjson.GetBytes(line, "user_id"); v.Exists() {
			uid = conceptual.UserID(v.String())
		}
		gjson.GetBytes(line, "trackpoints").ForEach(func(_, v gjson.Result) bool {
			tp := track.Trackpoint{
				UserID:     uid,
				ActivityID: activityID,
				Lat:        v.Get("lat").Float(),
				Lon:        v.Get("lon").Float(),
				Altitude:   v.Get("altitude").Float(),
			}
			var err error
			if tp.Time, err = track.ParseTime(v.Get("date_time").String()); err != nil {
				s.logger.Warn("Skipping malformed trackpoint", "activity", activityID, "error", err)
				return true
			}
			if err := tp.Validate(); err != nil {
				s.logger.Warn("Skipping malformed trackpoint", "activity", activityID, "error", err)
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case out <- tp:
				return true
			}
		})
	}()
	return out
}

func (s *Store) readLineAt(offset int64) ([]byte, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	r := bufio.NewReaderSize(f, 64*1024)
	line, err := r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return line, nil
}
