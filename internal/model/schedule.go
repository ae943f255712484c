package model

import (
	"errors"
	"fmt"
)

// ItemType classifies a slot of the day plan.
type ItemType string

const (
	ItemTask    ItemType = "task"
	ItemBreak   ItemType = "break"
	ItemRoutine ItemType = "routine"
)

// ScheduleItem is one timed slot of a plan.
type ScheduleItem struct {
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Activity        string   `json:"activity"`
	Type            ItemType `json:"type"`
	Reason          string   `json:"reason"`
	DurationMinutes float64  `json:"durationMinutes"`
}

// Schedule is a plan produced by the scheduling service. It is never edited locally.
type Schedule struct {
	Items        []ScheduleItem `json:"schedule"`
	DailySummary string         `json:"dailySummary"`
}

var ErrIncompleteSchedule = errors.New("incomplete schedule")

// Validate rejects schedules with missing or out-of-range fields.
func (s *Schedule) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: empty response", ErrIncompleteSchedule)
	}
	if s.Items == nil {
		return fmt.Errorf("%w: missing schedule", ErrIncompleteSchedule)
	}
	if s.DailySummary == "" {
		return fmt.Errorf("%w: missing dailySummary", ErrIncompleteSchedule)
	}
	for i, item := range s.Items {
		if err := item.validate(); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrIncompleteSchedule, i, err)
		}
	}
	return nil
}

func (i ScheduleItem) validate() error {
	switch {
	case i.StartTime == "":
		return errors.New("missing startTime")
	case i.EndTime == "":
		return errors.New("missing endTime")
	case i.Activity == "":
		return errors.New("missing activity")
	case i.Reason == "":
		return errors.New("missing reason")
	case i.DurationMinutes <= 0:
		return errors.New("durationMinutes must be positive")
	}
	switch i.Type {
	case ItemTask, ItemBreak, ItemRoutine:
		return nil
	default:
		return fmt.Errorf("unknown type %q", i.Type)
	}
}
