package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"optiday/internal/model"
)

const (
	MsgNoPendingTasks = "Please add or uncheck some tasks first."
	MsgGenericFailure = "Failed to generate schedule. Please try again."
	MsgTimeout        = "Schedule generation timed out. Please try again."
)

var (
	ErrNoPendingTasks = errors.New("no pending tasks to schedule")
	// ErrSuperseded is returned when the task set changed while a schedule
	// was being generated; the result was dropped.
	ErrSuperseded = errors.New("task set changed during generation")
)

// State is the lifecycle position of the session's schedule.
type State int

const (
	StateAbsent State = iota
	StateGenerating
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StatePresent:
		return "present"
	default:
		return "absent"
	}
}

// View is a read-only snapshot of a Manager.
type View struct {
	Tasks       []model.Task
	Preferences model.UserPreferences
	Schedule    *model.Schedule
	State       State
	Error       string
	Theme       model.Theme
}

// Manager is the task and schedule state of one session.
type Manager struct {
	store     Store
	scheduler Scheduler
	flight    singleflight.Group

	mu       sync.Mutex
	tasks    []model.Task
	prefs    model.UserPreferences
	theme    model.Theme
	schedule *model.Schedule
	busy     bool
	errMsg   string
	// revision counts task-set changes; a generation started at an older
	// revision must not publish its result.
	revision uint64
}

// Open restores tasks, preferences and theme from store. Values that are
// missing or cannot be decoded fall back to defaults.
func Open(ctx context.Context, store Store, scheduler Scheduler, defaultTheme model.Theme) (*Manager, error) {
	if !defaultTheme.Valid() {
		defaultTheme = model.ThemeLight
	}
	m := &Manager{
		store:     store,
		scheduler: scheduler,
		tasks:     []model.Task{},
		prefs:     model.DefaultPreferences(),
		theme:     defaultTheme,
	}

	if raw, ok, err := store.Get(ctx, KeyTasks); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	} else if ok {
		var tasks []model.Task
		if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
			log.Printf("decode tasks, starting empty: %v", err)
		} else if tasks != nil {
			m.tasks = tasks
		}
	}

	if raw, ok, err := store.Get(ctx, KeyPreferences); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	} else if ok {
		var prefs model.UserPreferences
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			log.Printf("decode preferences, using defaults: %v", err)
		} else {
			m.prefs = prefs
		}
	}

	if raw, ok, err := store.Get(ctx, KeyTheme); err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	} else if ok && model.Theme(raw).Valid() {
		m.theme = model.Theme(raw)
	}

	return m, nil
}

// AddTask appends task and discards the current schedule.
func (m *Manager) AddTask(ctx context.Context, task model.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = append(m.tasks, task)
	m.invalidateLocked()
	m.persistTasksLocked(ctx)
}

// ToggleTask flips completion of the task with id. Unknown ids are ignored.
// The schedule is kept.
func (m *Manager) ToggleTask(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return false
	}
	m.tasks[idx].IsCompleted = !m.tasks[idx].IsCompleted
	m.persistTasksLocked(ctx)
	return true
}

// DeleteTask removes the task with id and discards the current schedule.
func (m *Manager) DeleteTask(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	m.invalidateLocked()
	if idx < 0 {
		return false
	}
	m.tasks = slices.Delete(m.tasks, idx, idx+1)
	m.persistTasksLocked(ctx)
	return true
}

// UpdatePreferences replaces the preferences wholesale. The schedule is kept
// until it is regenerated.
func (m *Manager) UpdatePreferences(ctx context.Context, prefs model.UserPreferences) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs = prefs
	m.persistLocked(ctx, KeyPreferences, prefs)
}

// ToggleTheme switches between light and dark and returns the new theme.
func (m *Manager) ToggleTheme(ctx context.Context) model.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.theme = m.theme.Toggle()
	if err := m.store.Set(ctx, KeyTheme, string(m.theme)); err != nil {
		log.Printf("persist %s: %v", KeyTheme, err)
	}
	return m.theme
}

// ClearError dismisses the last error without retrying anything.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

// GenerateSchedule asks the scheduler for a plan of the pending tasks.
// Concurrent calls share one scheduler request and its outcome. Failures are
// also recorded as a user-facing message, see Err.
func (m *Manager) GenerateSchedule(ctx context.Context) (*model.Schedule, error) {
	// Checked before joining: a caller without pending tasks must not wait
	// on, or receive, a generation started for an older task set.
	m.mu.Lock()
	if len(model.PendingTasks(m.tasks)) == 0 {
		m.errMsg = MsgNoPendingTasks
		m.mu.Unlock()
		return nil, ErrNoPendingTasks
	}
	m.mu.Unlock()

	v, err, shared := m.flight.Do("generate", func() (interface{}, error) {
		return m.generate(ctx)
	})
	if shared {
		log.Printf("[info] joined in-flight schedule generation")
	}
	schedule, _ := v.(*model.Schedule)
	return schedule, err
}

func (m *Manager) generate(ctx context.Context) (*model.Schedule, error) {
	m.mu.Lock()
	m.errMsg = ""
	pending := model.PendingTasks(m.tasks)
	if len(pending) == 0 {
		m.errMsg = MsgNoPendingTasks
		m.mu.Unlock()
		return nil, ErrNoPendingTasks
	}
	m.busy = true
	revision := m.revision
	prefs := m.prefs
	m.mu.Unlock()

	log.Printf("[info] generate schedule pending=%d", len(pending))
	schedule, err := m.scheduler.GenerateSchedule(ctx, pending, prefs)
	if err == nil {
		err = schedule.Validate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false

	if err != nil {
		m.schedule = nil
		m.errMsg = userMessage(err)
		return nil, fmt.Errorf("generate schedule: %w", err)
	}
	if m.revision != revision {
		log.Printf("[info] drop schedule: tasks changed since request")
		return nil, ErrSuperseded
	}
	m.schedule = schedule
	return schedule, nil
}

func (m *Manager) Tasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tasks)
}

func (m *Manager) PendingTasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.PendingTasks(m.tasks)
}

func (m *Manager) Preferences() model.UserPreferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// Schedule returns the last generated schedule, or nil. During regeneration
// the previous schedule is still returned.
func (m *Manager) Schedule() *model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule
}

func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Err returns the message of the last failure, or "".
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Manager) Theme() model.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// View returns a consistent snapshot of the whole session.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return View{
		Tasks:       slices.Clone(m.tasks),
		Preferences: m.prefs,
		Schedule:    m.schedule,
		State:       m.stateLocked(),
		Error:       m.errMsg,
		Theme:       m.theme,
	}
}

func (m *Manager) stateLocked() State {
	switch {
	case m.busy:
		return StateGenerating
	case m.schedule != nil:
		return StatePresent
	default:
		return StateAbsent
	}
}

func (m *Manager) indexLocked(id string) int {
	return slices.IndexFunc(m.tasks, func(t model.Task) bool { return t.ID == id })
}

func (m *Manager) invalidateLocked() {
	m.revision++
	if m.schedule != nil {
		log.Printf("[info] schedule invalidated by task change")
		m.schedule = nil
	}
}

func (m *Manager) persistTasksLocked(ctx context.Context) {
	m.persistLocked(ctx, KeyTasks, m.tasks)
}

// persistLocked writes the full value; failures are logged and not surfaced.
func (m *Manager) persistLocked(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("encode %s: %v", key, err)
		return
	}
	if err := m.store.Set(ctx, key, string(raw)); err != nil {
		log.Printf("persist %s: %v", key, err)
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case err.Error() == "":
		return MsgGenericFailure
	default:
		return err.Error()
	}
}
