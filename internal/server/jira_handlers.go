package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"smart-todo/internal/jira"
)

// jiraCredentials rides along in every bridge request. Credentials are
// verified per call and never stored server-side.
type jiraCredentials struct {
	Instance string `json:"jira_instance"`
	Email    string `json:"email"`
	APIToken string `json:"api_token"`
}

func (c jiraCredentials) toClient() jira.Credentials {
	return jira.Credentials{
		BaseURL:  c.Instance,
		Email:    c.Email,
		APIToken: c.APIToken,
	}
}

func (c jiraCredentials) validate() string {
	if c.Instance == "" || c.Email == "" || c.APIToken == "" {
		return "jira_instance, email and api_token must be provided"
	}
	return ""
}

func (s *Server) jiraError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, jira.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "jira rejected the credentials")
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) jiraVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var input jiraCredentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := input.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	me, err := s.jira.Verify(r.Context(), input.toClient())
	if err != nil {
		s.jiraError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"display_name": me.DisplayName,
	})
}

func (s *Server) jiraCreateIssueHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		jiraCredentials
		ProjectKey  string `json:"project_key"`
		Summary     string `json:"summary"`
		Description string `json:"description"`
		IssueType   string `json:"issue_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := input.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if input.ProjectKey == "" || input.Summary == "" {
		writeError(w, http.StatusBadRequest, "project_key and summary must be provided")
		return
	}

	created, err := s.jira.CreateIssue(r.Context(), input.toClient(), jira.CreateIssueInput{
		ProjectKey:  input.ProjectKey,
		Summary:     input.Summary,
		Description: input.Description,
		IssueType:   input.IssueType,
	})
	if err != nil {
		s.jiraError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) jiraSearchHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		jiraCredentials
		JQL        string `json:"jql"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := input.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if input.JQL == "" {
		writeError(w, http.StatusBadRequest, "jql must be provided")
		return
	}

	result, err := s.jira.SearchIssues(r.Context(), input.toClient(), input.JQL, input.MaxResults)
	if err != nil {
		s.jiraError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
