// Package jira is a thin HTTP client for the Jira Cloud REST API.
// Credentials travel with every call; nothing is stored server-side.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized means Jira rejected the supplied email/token pair.
var ErrUnauthorized = errors.New("jira rejected the credentials")

// Credentials identify a Jira Cloud instance and an API token holder.
type Credentials struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client performs authenticated calls against a Jira instance.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NormalizeBaseURL adds an https scheme when missing and strips trailing
// slashes, so "acme.atlassian.net/" becomes "https://acme.atlassian.net".
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// Myself is the authenticated user as reported by Jira.
type Myself struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Verify checks the credentials against the instance's /myself endpoint
// and returns the authenticated user on success.
func (c *Client) Verify(ctx context.Context, creds Credentials) (*Myself, error) {
	var me Myself
	if err := c.do(ctx, creds, http.MethodGet, "/rest/api/3/myself", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// CreateIssueInput carries the fields for a new Jira issue.
type CreateIssueInput struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
}

// CreatedIssue is Jira's response to a successful issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// CreateIssue creates an issue via the v3 API. The description is wrapped
// in the Atlassian document format the endpoint requires.
func (c *Client) CreateIssue(ctx context.Context, creds Credentials, input CreateIssueInput) (*CreatedIssue, error) {
	issueType := input.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	fields := map[string]any{
		"project":   map[string]string{"key": input.ProjectKey},
		"summary":   input.Summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if input.Description != "" {
		fields["description"] = adfParagraph(input.Description)
	}

	var created CreatedIssue
	body := map[string]any{"fields": fields}
	if err := c.do(ctx, creds, http.MethodPost, "/rest/api/3/issue", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Issue is a search result in the compact shape the UI needs.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the subset of issue fields requested by searches.
type IssueFields struct {
	Summary string `json:"summary"`
	Status  Status `json:"status"`
	Created string `json:"created"`
}

// Status is the workflow state of an issue.
type Status struct {
	Name string `json:"name"`
}

// SearchResponse is the paged result of a JQL search.
type SearchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// SearchIssues runs a JQL query via the v3 search endpoint.
func (c *Client) SearchIssues(ctx context.Context, creds Credentials, jql string, maxResults int) (*SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	body := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     []string{"summary", "status", "created"},
	}
	var result SearchResponse
	if err := c.do(ctx, creds, http.MethodPost, "/rest/api/3/search", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do builds the request, applies basic auth and decodes the JSON reply.
func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body, result any) error {
	base := NormalizeBaseURL(creds.BaseURL)
	if base == "" {
		return fmt.Errorf("jira instance URL is required")
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(creds.Email, creds.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call jira %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read jira response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("jira returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode jira response: %w", err)
	}
	return nil
}

// adfParagraph wraps plain text in a minimal Atlassian document.
func adfParagraph(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
