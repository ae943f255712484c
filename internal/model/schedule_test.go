package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validItem() ScheduleItem {
	return ScheduleItem{
		StartTime:       "09:00",
		EndTime:         "10:00",
		Activity:        "Write report",
		Type:            ItemTask,
		Reason:          "Peak focus",
		DurationMinutes: 60,
	}
}

func TestScheduleValidate(t *testing.T) {
	ok := &Schedule{DailySummary: "Good day", Items: []ScheduleItem{validItem()}}
	assert.NoError(t, ok.Validate())

	empty := &Schedule{DailySummary: "Nothing fits", Items: []ScheduleItem{}}
	assert.NoError(t, empty.Validate())

	tests := []struct {
		name   string
		mutate func(*Schedule)
	}{
		{"missing items", func(s *Schedule) { s.Items = nil }},
		{"missing summary", func(s *Schedule) { s.DailySummary = "" }},
		{"missing start", func(s *Schedule) { s.Items[0].StartTime = "" }},
		{"missing end", func(s *Schedule) { s.Items[0].EndTime = "" }},
		{"missing activity", func(s *Schedule) { s.Items[0].Activity = "" }},
		{"missing reason", func(s *Schedule) { s.Items[0].Reason = "" }},
		{"zero duration", func(s *Schedule) { s.Items[0].DurationMinutes = 0 }},
		{"bad type", func(s *Schedule) { s.Items[0].Type = "meeting" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{DailySummary: "Good day", Items: []ScheduleItem{validItem()}}
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrIncompleteSchedule)
		})
	}

	var missing *Schedule
	assert.ErrorIs(t, missing.Validate(), ErrIncompleteSchedule)
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("8:30")
	assert.NoError(t, err)
	assert.Equal(t, "08:30", got)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("noon")
	assert.Error(t, err)
}

func TestParseFocus(t *testing.T) {
	f, err := ParseFocus("evening")
	assert.NoError(t, err)
	assert.Equal(t, FocusEvening, f)

	_, err = ParseFocus("night")
	assert.Error(t, err)
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme("sepia").Valid())
}
