package server

import (
	"net/http"

	"go.uber.org/zap"

	"smart-todo/internal/config"
	"smart-todo/internal/jira"
	"smart-todo/internal/service"
)

// Server wires the HTTP boundary to the services. It owns no state of
// its own beyond configuration and dependencies.
type Server struct {
	cfg    config.Config
	logger *zap.Logger
	tasks  *service.TaskService
	auth   *service.AuthService
	jira   *jira.Client
}

func New(cfg config.Config, logger *zap.Logger, tasks *service.TaskService, auth *service.AuthService, jiraClient *jira.Client) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		tasks:  tasks,
		auth:   auth,
		jira:   jiraClient,
	}
}

// Handler assembles the route table and outer middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)

	mux.HandleFunc("POST /api/register", s.registerHandler)
	mux.HandleFunc("POST /api/login", s.loginHandler)

	mux.HandleFunc("GET /api/tasks", s.requireAuth(s.listTasksHandler))
	mux.HandleFunc("POST /api/tasks", s.requireAuth(s.createTaskHandler))
	mux.HandleFunc("POST /api/tasks/parse", s.requireAuth(s.parseTaskHandler))
	mux.HandleFunc("PUT /api/tasks/{id}", s.requireAuth(s.updateTaskHandler))
	mux.HandleFunc("PUT /api/tasks/{id}/complete", s.requireAuth(s.completeTaskHandler))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireAuth(s.deleteTaskHandler))

	mux.HandleFunc("POST /api/jira/verify", s.requireAuth(s.jiraVerifyHandler))
	mux.HandleFunc("POST /api/jira/issues", s.requireAuth(s.jiraCreateIssueHandler))
	mux.HandleFunc("POST /api/jira/search", s.requireAuth(s.jiraSearchHandler))

	return s.rateLimit(s.enableCORS(mux))
}
