package planner

import (
	"context"

	"optiday/internal/model"
)

// Storage keys, shared with the original browser local storage layout.
const (
	KeyTasks       = "optiday_tasks"
	KeyPreferences = "optiday_prefs"
	KeyTheme       = "optiday_theme"
)

// Store is durable key/value storage scoped to one session.
type Store interface {
	// Get returns ok=false when the key was never written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Scheduler builds a day plan from pending tasks. Implementations must return
// a validated schedule or an error.
type Scheduler interface {
	GenerateSchedule(ctx context.Context, tasks []model.Task, prefs model.UserPreferences) (*model.Schedule, error)
}
