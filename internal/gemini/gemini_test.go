package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"optiday/internal/model"
	"optiday/internal/planner"
)

const validScheduleJSON = `{
  "schedule": [
    {"startTime": "09:00", "endTime": "10:00", "activity": "Write report", "type": "task", "reason": "Peak focus time", "durationMinutes": 60},
    {"startTime": "10:00", "endTime": "10:15", "activity": "Coffee", "type": "break", "reason": "Recharge", "durationMinutes": 15}
  ],
  "dailySummary": "A focused morning."
}`

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule(validScheduleJSON)
	require.NoError(t, err)
	assert.Equal(t, "A focused morning.", schedule.DailySummary)
	require.Len(t, schedule.Items, 2)
	assert.Equal(t, model.ItemBreak, schedule.Items[1].Type)
	assert.Equal(t, float64(15), schedule.Items[1].DurationMinutes)
}

func TestParseSchedule_Fenced(t *testing.T) {
	schedule, err := ParseSchedule("```json\n" + validScheduleJSON + "\n```")
	require.NoError(t, err)
	assert.Len(t, schedule.Items, 2)
}

func TestParseSchedule_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty", "  ", ErrEmptyResponse},
		{"not json", "Here is your plan!", ErrMalformedResponse},
		{"missing summary", `{"schedule": []}`, ErrMalformedResponse},
		{"missing schedule", `{"dailySummary": "hi"}`, ErrMalformedResponse},
		{"item missing reason", `{"dailySummary": "hi", "schedule": [{"startTime": "09:00", "endTime": "10:00", "activity": "a", "type": "task", "durationMinutes": 60}]}`, model.ErrIncompleteSchedule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.body)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSchedulePrompt(t *testing.T) {
	pending := []model.Task{{ID: "1", Title: "Write report", Priority: model.PriorityHigh, Duration: 60}}
	prompt, err := schedulePrompt(pending, model.DefaultPreferences())
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Start Day: 09:00")
	assert.Contains(t, prompt, "- End Day: 17:00")
	assert.Contains(t, prompt, "- Wants Breaks: true")
	assert.Contains(t, prompt, "- Focus Energy High: Morning")
	assert.Contains(t, prompt, `"title":"Write report"`)
}

func TestScheduleSchemaRequiresAllFields(t *testing.T) {
	schema := scheduleSchema()
	assert.ElementsMatch(t, []string{"schedule", "dailySummary"}, schema.Required)
	items := schema.Properties["schedule"].Items
	require.NotNil(t, items)
	assert.Len(t, items.Required, 6)
}

type capturedRequest struct {
	path   string
	apiKey string
	body   map[string]any
}

func newFakeAPI(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func candidateReply(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	require.NoError(t, err)
	return string(raw)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Config{
		APIKey:     "test-key",
		Model:      "test-model",
		Endpoint:   srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestClient_GenerateSchedule(t *testing.T) {
	srv, captured := newFakeAPI(t, http.StatusOK, candidateReply(t, validScheduleJSON))
	client := newTestClient(t, srv)

	tasks := []model.Task{
		{ID: "1", Title: "Write report", Priority: model.PriorityHigh, Duration: 60},
		{ID: "2", Title: "Already done", Priority: model.PriorityLow, Duration: 5, IsCompleted: true},
	}
	schedule, err := client.GenerateSchedule(context.Background(), tasks, model.DefaultPreferences())
	require.NoError(t, err)
	assert.Len(t, schedule.Items, 2)

	assert.True(t, strings.HasSuffix(captured.path, "models/test-model:generateContent"), captured.path)
	assert.Equal(t, "test-key", captured.apiKey)
	raw, err := json.Marshal(captured.body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Write report")
	assert.NotContains(t, string(raw), "Already done")
	assert.Contains(t, string(raw), "application/json")
}

func TestClient_GenerateSchedule_NoPending(t *testing.T) {
	srv, captured := newFakeAPI(t, http.StatusOK, candidateReply(t, validScheduleJSON))
	client := newTestClient(t, srv)

	_, err := client.GenerateSchedule(context.Background(), []model.Task{{ID: "1", IsCompleted: true}}, model.DefaultPreferences())
	assert.ErrorIs(t, err, planner.ErrNoPendingTasks)
	assert.Empty(t, captured.path)
}

func TestClient_GenerateSchedule_Failures(t *testing.T) {
	tasks := []model.Task{{ID: "1", Title: "Write report", Priority: model.PriorityHigh, Duration: 60}}

	t.Run("server error", func(t *testing.T) {
		srv, _ := newFakeAPI(t, http.StatusInternalServerError, `{"error":{"code":500,"message":"backend down"}}`)
		_, err := newTestClient(t, srv).GenerateSchedule(context.Background(), tasks, model.DefaultPreferences())
		assert.Error(t, err)
	})

	t.Run("no candidates", func(t *testing.T) {
		srv, _ := newFakeAPI(t, http.StatusOK, `{"candidates":[]}`)
		_, err := newTestClient(t, srv).GenerateSchedule(context.Background(), tasks, model.DefaultPreferences())
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("unparseable text", func(t *testing.T) {
		srv, _ := newFakeAPI(t, http.StatusOK, candidateReply(t, "Sure! Here is a plan."))
		_, err := newTestClient(t, srv).GenerateSchedule(context.Background(), tasks, model.DefaultPreferences())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestClient_Chat(t *testing.T) {
	srv, captured := newFakeAPI(t, http.StatusOK, candidateReply(t, "Start with the report."))
	client := newTestClient(t, srv)

	history := []model.ChatMessage{
		{Role: model.RoleUser, Text: "Hi"},
		{Role: model.RoleModel, Text: "Hello! How can I help?"},
	}
	answer, err := client.Chat(context.Background(), history, "What should I do first?")
	require.NoError(t, err)
	assert.Equal(t, "Start with the report.", answer)

	contents, ok := captured.body["contents"].([]any)
	require.True(t, ok)
	assert.Len(t, contents, 3)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Model: "test-model"})
	assert.Error(t, err)
}

func TestResponseText_SkipsThoughts(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `{"a":`},
				{Text: `1}`},
			}},
		}},
	}
	assert.Equal(t, `{"a":1}`, responseText(resp))
}
