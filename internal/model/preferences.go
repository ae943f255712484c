package model

import (
	"fmt"
	"strings"
	"time"
)

// FocusPreference is the part of the day with the most energy.
type FocusPreference string

const (
	FocusMorning   FocusPreference = "Morning"
	FocusAfternoon FocusPreference = "Afternoon"
	FocusEvening   FocusPreference = "Evening"
)

// ParseFocus accepts any casing of Morning, Afternoon or Evening.
func ParseFocus(raw string) (FocusPreference, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "morning":
		return FocusMorning, nil
	case "afternoon":
		return FocusAfternoon, nil
	case "evening":
		return FocusEvening, nil
	default:
		return "", fmt.Errorf("unknown focus preference %q", raw)
	}
}

// UserPreferences shape the working day handed to the scheduler.
// Start and end are not cross-checked; they are passed through as entered.
type UserPreferences struct {
	StartOfDay      string          `json:"startOfDay"` // "09:00"
	EndOfDay        string          `json:"endOfDay"`   // "17:00"
	IncludeBreaks   bool            `json:"includeBreaks"`
	FocusPreference FocusPreference `json:"focusPreference"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		StartOfDay:      "09:00",
		EndOfDay:        "17:00",
		IncludeBreaks:   true,
		FocusPreference: FocusMorning,
	}
}

// ParseClock validates an HH:MM 24-hour time and returns it zero-padded.
func ParseClock(raw string) (string, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return parsed.Format("15:04"), nil
}
