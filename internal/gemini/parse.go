package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"optiday/internal/model"
)

var ErrMalformedResponse = errors.New("malformed schedule response")

// ParseSchedule decodes and validates the JSON body returned by the model.
// A fenced ```json block is accepted.
func ParseSchedule(text string) (*model.Schedule, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var schedule model.Schedule
	if err := json.Unmarshal([]byte(body), &schedule); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &schedule, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
