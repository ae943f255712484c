package planner

import (
	"context"
	"errors"
	"sync"

	"optiday/internal/model"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	calls    int
	received [][]model.Task
	result   *model.Schedule
	err      error
	// started, when set, receives once per call before waiting on release.
	started chan struct{}
	release chan struct{}
}

func (f *fakeScheduler) GenerateSchedule(_ context.Context, tasks []model.Task, _ model.UserPreferences) (*model.Schedule, error) {
	f.mu.Lock()
	f.calls++
	f.received = append(f.received, tasks)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

func (f *fakeScheduler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errBoom = errors.New("model unavailable")

func sampleSchedule() *model.Schedule {
	return &model.Schedule{
		DailySummary: "Focus early, rest later.",
		Items: []model.ScheduleItem{
			{StartTime: "09:00", EndTime: "10:00", Activity: "Write report", Type: model.ItemTask, Reason: "Peak focus", DurationMinutes: 60},
			{StartTime: "10:00", EndTime: "10:10", Activity: "Break", Type: model.ItemBreak, Reason: "Recharge", DurationMinutes: 10},
		},
	}
}
