package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Priority ranks a task for the scheduler.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts any casing of High, Medium or Low.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// DurationUnit is the unit a duration was entered in.
type DurationUnit string

const (
	UnitMinutes DurationUnit = "minutes"
	UnitHours   DurationUnit = "hours"
	UnitDays    DurationUnit = "days"
)

// MaxDurationMinutes bounds a single task to one year.
const MaxDurationMinutes = 365 * 24 * 60

// ToMinutes converts an entered value to whole minutes, rounding to the nearest minute.
func ToMinutes(value float64, unit DurationUnit) (int, error) {
	minutes := value
	switch unit {
	case UnitMinutes, "":
	case UnitHours:
		minutes = value * 60
	case UnitDays:
		minutes = value * 24 * 60
	default:
		return 0, fmt.Errorf("unknown duration unit %q", unit)
	}
	if math.IsNaN(minutes) || math.Abs(minutes) > MaxDurationMinutes {
		return 0, fmt.Errorf("%w: %v %s is out of range", ErrInvalidDuration, value, unit)
	}
	return int(math.Round(minutes)), nil
}

// Task represents a single item in the planner.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	Duration    int      `json:"duration"` // minutes
	IsCompleted bool     `json:"isCompleted"`
	Notes       string   `json:"notes,omitempty"`
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title         string
	DurationValue float64
	DurationUnit  DurationUnit
	Priority      Priority
	Notes         string
}

var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
)

// NewTask validates input and builds a pending task with a fresh id.
func NewTask(input TaskInput) (Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}

	minutes, err := ToMinutes(input.DurationValue, input.DurationUnit)
	if err != nil {
		return Task{}, err
	}
	if minutes <= 0 {
		return Task{}, ErrInvalidDuration
	}

	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if _, err := ParsePriority(string(priority)); err != nil {
		return Task{}, err
	}

	return Task{
		ID:       uuid.New().String(),
		Title:    title,
		Priority: priority,
		Duration: minutes,
		Notes:    strings.TrimSpace(input.Notes),
	}, nil
}

// PendingTasks returns the tasks that are not completed, keeping their order.
func PendingTasks(tasks []Task) []Task {
	pending := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.IsCompleted {
			pending = append(pending, task)
		}
	}
	return pending
}
