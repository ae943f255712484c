package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"optiday/internal/model"
)

const chatInstruction = "You are a friendly productivity assistant. Help the user plan their day, " +
	"prioritize work and answer questions briefly."

func schedulePrompt(pending []model.Task, prefs model.UserPreferences) (string, error) {
	tasksJSON, err := json.Marshal(pending)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are an expert productivity assistant.\n")
	sb.WriteString("Create an optimal daily schedule based on the following tasks and user preferences.\n\n")
	sb.WriteString("User Preferences:\n")
	fmt.Fprintf(&sb, "- Start Day: %s\n", prefs.StartOfDay)
	fmt.Fprintf(&sb, "- End Day: %s\n", prefs.EndOfDay)
	fmt.Fprintf(&sb, "- Wants Breaks: %t\n", prefs.IncludeBreaks)
	fmt.Fprintf(&sb, "- Focus Energy High: %s\n\n", prefs.FocusPreference)
	sb.WriteString("Pending Tasks:\n")
	sb.Write(tasksJSON)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("1. Prioritize HIGH priority tasks during the user's focus preference time if possible.\n")
	sb.WriteString("2. Group similar tasks if efficient.\n")
	sb.WriteString("3. Include short breaks (5-15 mins) if \"Wants Breaks\" is true, especially after long tasks.\n")
	sb.WriteString("4. Ensure the schedule fits within the Start and End times. If not all tasks fit, " +
		"prioritize High/Medium tasks and explain why in the summary.\n")
	sb.WriteString("5. The \"reason\" field should explain WHY this task was placed here " +
		"(e.g., \"Scheduled during peak focus time\" or \"Quick win to start the day\").\n")
	return sb.String(), nil
}

func scheduleSchema() *genai.Schema {
	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"startTime":       {Type: genai.TypeString, Description: "HH:MM 24hr format"},
			"endTime":         {Type: genai.TypeString, Description: "HH:MM 24hr format"},
			"activity":        {Type: genai.TypeString, Description: "Name of task or break"},
			"type":            {Type: genai.TypeString, Enum: []string{"task", "break", "routine"}},
			"reason":          {Type: genai.TypeString, Description: "Why this time?"},
			"durationMinutes": {Type: genai.TypeNumber},
		},
		Required: []string{"startTime", "endTime", "activity", "type", "reason", "durationMinutes"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"schedule": {Type: genai.TypeArray, Items: item},
			"dailySummary": {
				Type:        genai.TypeString,
				Description: "A motivational summary of the day's plan and strategy.",
			},
		},
		Required: []string{"schedule", "dailySummary"},
	}
}
