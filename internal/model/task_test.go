package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  DurationUnit
		want  int
	}{
		{"hours", 2, UnitHours, 120},
		{"days", 1, UnitDays, 1440},
		{"minutes", 45, UnitMinutes, 45},
		{"half hour", 0.5, UnitHours, 30},
		{"rounds up", 0.01, UnitHours, 1},
		{"rounds down", 10.4, UnitMinutes, 10},
		{"empty unit means minutes", 15, "", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinutes(tt.value, tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinutes_UnknownUnit(t *testing.T) {
	_, err := ToMinutes(1, "weeks")
	assert.Error(t, err)
}

func TestToMinutes_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  DurationUnit
	}{
		{"huge days", 99999999999999999999, UnitDays},
		{"infinite", math.Inf(1), UnitHours},
		{"negative infinite", math.Inf(-1), UnitMinutes},
		{"nan", math.NaN(), UnitMinutes},
		{"just over a year", 366, UnitDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToMinutes(tt.value, tt.unit)
			assert.ErrorIs(t, err, ErrInvalidDuration)
		})
	}

	got, err := ToMinutes(365, UnitDays)
	require.NoError(t, err)
	assert.Equal(t, MaxDurationMinutes, got)
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(TaskInput{Title: "  Write report ", DurationValue: 1, DurationUnit: UnitHours, Priority: PriorityHigh})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, 60, task.Duration)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.False(t, task.IsCompleted)
}

func TestNewTask_DefaultsToMediumPriority(t *testing.T) {
	task, err := NewTask(TaskInput{Title: "Email", DurationValue: 10})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestNewTask_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input TaskInput
		want  error
	}{
		{"blank title", TaskInput{Title: "   ", DurationValue: 10}, ErrEmptyTitle},
		{"zero duration", TaskInput{Title: "x", DurationValue: 0}, ErrInvalidDuration},
		{"rounds to zero", TaskInput{Title: "x", DurationValue: 0.2}, ErrInvalidDuration},
		{"negative", TaskInput{Title: "x", DurationValue: -1, DurationUnit: UnitHours}, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewTask(TaskInput{Title: "x", DurationValue: 5, Priority: "Urgent"})
	assert.Error(t, err)
}

func TestNewTask_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		task, err := NewTask(TaskInput{Title: "t", DurationValue: 5})
		require.NoError(t, err)
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("low")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, p)

	_, err = ParsePriority("critical")
	assert.Error(t, err)
}

func TestPendingTasks(t *testing.T) {
	tasks := []Task{
		{ID: "a", IsCompleted: false},
		{ID: "b", IsCompleted: true},
		{ID: "c", IsCompleted: false},
	}
	pending := PendingTasks(tasks)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}
