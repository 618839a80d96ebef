package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smart-todo/internal/config"
	"smart-todo/internal/jira"
	"smart-todo/internal/model"
	"smart-todo/internal/nlp"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Config{
		Env:                "test",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Minute,
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	}

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	tasks := service.NewTaskService(taskRepo, offlineParser{})
	auth := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	srv := httptest.NewServer(New(cfg, zap.NewNop(), tasks, auth, jira.NewClient()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// offlineParser stands in for the NL interpreter; failing forces the
// raw-text fallback path.
type offlineParser struct{}

func (offlineParser) ParseTask(ctx context.Context, text string) (nlp.TaskDraft, error) {
	return nlp.TaskDraft{}, fmt.Errorf("offline")
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	raw := make(map[string]json.RawMessage)
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	return resp, raw
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "password1"}
	resp, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(body["access_token"], &token))
	require.NotEmpty(t, token)
	return token
}

func TestServer_TaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/tasks", token, map[string]any{
		"title":    "Buy milk",
		"priority": "high",
		"tags":     []string{"errand", "food"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Task
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &created))
	require.Equal(t, 10, created.Points)
	require.False(t, created.Completed)

	resp, _ = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/tasks/"+created.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var tasks []model.Task
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&tasks))
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].Completed)
	require.Equal(t, model.TagList{"errand", "food"}, tasks[0].Tags)

	resp, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StatusMapping(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	t.Run("validation failure is 400", func(t *testing.T) {
		resp, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/tasks", token, map[string]any{"title": ""})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate username is 409", func(t *testing.T) {
		creds := map[string]string{"username": "alice", "password": "password1"}
		resp, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/register", "", creds)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("bad credentials is 401", func(t *testing.T) {
		creds := map[string]string{"username": "alice", "password": "wrong-password"}
		resp, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("update with only disallowed keys is 404", func(t *testing.T) {
		resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/tasks", token, map[string]any{"title": "t"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var id string
		require.NoError(t, json.Unmarshal(body["id"], &id))

		resp, _ = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/tasks/"+id, token, map[string]any{"user_id": "x"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "garbage"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks", nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestServer_UserIsolation(t *testing.T) {
	srv := newTestServer(t)
	aliceToken := registerAndLogin(t, srv, "alice")
	bobToken := registerAndLogin(t, srv, "bob")

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/tasks", aliceToken, map[string]any{"title": "private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var id string
	require.NoError(t, json.Unmarshal(body["id"], &id))

	// Bob cannot see, complete, or delete Alice's task.
	resp, _ = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/tasks/"+id+"/complete", bobToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/tasks/"+id, bobToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	listResp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var tasks []model.Task
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&tasks))
	require.Empty(t, tasks)
}

func TestServer_ParseFallback(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/tasks/parse", token, map[string]string{
		"text": "Water the plants",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var title string
	require.NoError(t, json.Unmarshal(body["title"], &title))
	require.Equal(t, "Water the plants", title)
}
