package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"optiday/internal/model"
	"optiday/internal/planner"
)

const DefaultModel = "gemini-3-flash-preview"

var ErrEmptyResponse = errors.New("no response from AI")

// Config selects the model and how to reach the API.
type Config struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL.
	Endpoint   string
	HTTPClient *http.Client
}

// Client talks to the Gemini generateContent API.
type Client struct {
	models *genai.Models
	model  string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Client{models: client.Models, model: name}, nil
}

// GenerateSchedule asks the model for a day plan of the pending tasks.
func (c *Client) GenerateSchedule(ctx context.Context, tasks []model.Task, prefs model.UserPreferences) (*model.Schedule, error) {
	pending := model.PendingTasks(tasks)
	if len(pending) == 0 {
		return nil, planner.ErrNoPendingTasks
	}

	prompt, err := schedulePrompt(pending, prefs)
	if err != nil {
		return nil, err
	}

	text, err := c.generate(ctx, []*genai.Content{userContent(prompt)}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   scheduleSchema(),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[info] gemini schedule response bytes=%d", len(text))
	return ParseSchedule(text)
}

// Chat answers a free-form question given the earlier turns of a conversation.
func (c *Client) Chat(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		contents = append(contents, &genai.Content{
			Role:  string(msg.Role),
			Parts: []*genai.Part{{Text: msg.Text}},
		})
	}
	contents = append(contents, userContent(message))

	return c.generate(ctx, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: chatInstruction}},
		},
	})
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func userContent(text string) *genai.Content {
	return &genai.Content{
		Role:  string(model.RoleUser),
		Parts: []*genai.Part{{Text: text}},
	}
}
