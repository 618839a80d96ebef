// Package nlp turns free-text task descriptions into structured drafts
// using a local Ollama text-generation endpoint. Output is best-effort;
// callers must treat it as untrusted.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TaskDraft is the interpreter's best-effort mapping of free text onto
// task fields. Zero values mean "use defaults".
type TaskDraft struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Category    string
	Tags        []string
}

// Client talks to an Ollama-compatible /api/generate endpoint.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
}

func NewClient(host, model string) *Client {
	return &Client{
		host:  strings.TrimRight(host, "/"),
		model: model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// draftWire is the JSON shape the model is asked to produce.
type draftWire struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

const promptTemplate = `Parse the following task description into structured data:
%q

Return a JSON object with these keys (omit any that do not apply):
- title: short task title
- description: extra details
- due_date: ISO 8601 timestamp or date
- priority: one of low, medium, high
- category: a single word label
- tags: list of short strings`

// ParseTask asks the model to structure the given text. It returns an
// error when the endpoint is unreachable or produces no usable JSON.
func (c *Client) ParseTask(ctx context.Context, text string) (TaskDraft, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: fmt.Sprintf(promptTemplate, text),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return TaskDraft{}, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return TaskDraft{}, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TaskDraft{}, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TaskDraft{}, fmt.Errorf("read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TaskDraft{}, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return TaskDraft{}, fmt.Errorf("decode model response: %w", err)
	}

	wire, err := extractDraft(gen.Response)
	if err != nil {
		return TaskDraft{}, err
	}

	draft := TaskDraft{
		Title:       strings.TrimSpace(wire.Title),
		Description: strings.TrimSpace(wire.Description),
		Priority:    strings.ToLower(strings.TrimSpace(wire.Priority)),
		Category:    strings.TrimSpace(wire.Category),
		Tags:        wire.Tags,
	}
	if ts := parseDueDate(wire.DueDate); ts != nil {
		draft.DueDate = ts
	}
	return draft, nil
}

// extractDraft pulls the first JSON object out of the model output.
// Models often wrap the object in prose or code fences.
func extractDraft(raw string) (draftWire, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return draftWire{}, fmt.Errorf("no JSON object in model output")
	}
	var wire draftWire
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return draftWire{}, fmt.Errorf("decode model output: %w", err)
	}
	return wire, nil
}

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
