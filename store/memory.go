package store

import (
	"context"
	"slices"
	"sync"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
	"github.com/tracklife/trajd/types/user"
)

// Memory is an in-memory Store. It exists for tests and for small
// datasets piped in whole; the engine treats it like any other store.
type Memory struct {
	mu         sync.RWMutex
	users      []user.User
	activities map[conceptual.UserID][]activity.Activity
	points     map[int64][]track.Trackpoint
	nextID     int64
}

func NewMemory() *Memory {
	return &Memory{
		activities: make(map[conceptual.UserID][]activity.Activity),
		points:     make(map[int64][]track.Trackpoint),
		nextID:     1,
	}
}

// AddUser registers a user. Idempotent on id.
func (m *Memory) AddUser(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.users {
		if have.ID == u.ID {
			return
		}
	}
	m.users = append(m.users, u)
	slices.SortFunc(m.users, func(a, b user.User) int {
		if a.ID < b.ID {
			return -1
		} else if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

// AddActivity stores an activity and its trackpoints, assigning an id
// if the activity doesn't carry one. Points keep their given order.
func (m *Memory) AddActivity(a activity.Activity, points []track.Trackpoint) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.nextID
		m.nextID++
	} else if a.ID >= m.nextID {
		m.nextID = a.ID + 1
	}
	for i := range points {
		points[i].ActivityID = a.ID
		points[i].UserID = a.UserID
	}
	m.activities[a.UserID] = append(m.activities[a.UserID], a)
	m.points[a.ID] = points
	return a.ID
}

func (m *Memory) StreamUsers(ctx context.Context) <-chan user.User {
	m.mu.RLock()
	users := slices.Clone(m.users)
	m.mu.RUnlock()
	return stream.Slice(ctx, users)
}

func (m *Memory) StreamActivities(ctx context.Context, userID conceptual.UserID) <-chan activity.Activity {
	m.mu.RLock()
	acts := slices.Clone(m.activities[userID])
	m.mu.RUnlock()
	return stream.Slice(ctx, acts)
}

func (m *Memory) StreamTrackpoints(ctx context.Context, activityID int64) <-chan track.Trackpoint {
	m.mu.RLock()
	points := slices.Clone(m.points[activityID])
	m.mu.RUnlock()
	return stream.Slice(ctx, points)
}
