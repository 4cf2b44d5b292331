// Package store defines read-only, restartable, streaming access to a
// trajectory dataset: users owning activities owning trackpoints.
// Persistence and ingestion live behind this contract; the analytics
// engine only ever iterates.
package store

import (
	"context"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
	"github.com/tracklife/trajd/types/user"
)

// Store streams dataset records. Every stream is finite, restartable
// (each call starts a fresh iteration), honors context cancellation,
// and never requires the full backing collection in memory.
// Malformed rows are skipped and logged by the adapter, not surfaced
// as stream errors; a single bad record degrades only itself.
type Store interface {
	// StreamUsers emits users in ascending id order.
	StreamUsers(ctx context.Context) <-chan user.User

	// StreamActivities emits one user's activities.
	StreamActivities(ctx context.Context, userID conceptual.UserID) <-chan activity.Activity

	// StreamTrackpoints emits one activity's trackpoints in recorded
	// (time-ascending) order.
	StreamTrackpoints(ctx context.Context, activityID int64) <-chan track.Trackpoint
}
