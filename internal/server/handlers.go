package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

const version = "1.0.0"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	writeJSON(w, status, map[string]string{"error": msg})
}

// serviceError translates typed service/repository failures into status
// codes. Anything unexpected is logged and reported as a 500.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": validationErr.Fields})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "available",
		"environment": s.cfg.Env,
		"version":     version,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var input credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.auth.Register(r.Context(), input.Username, input.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := s.auth.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	token, err := s.auth.IssueToken(userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListForUser(r.Context(), userIDFromRequest(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	Tags         []string   `json:"tags"`
	Category     string     `json:"category"`
	Recurrence   string     `json:"recurrence"`
	ParentTaskID *string    `json:"parent_task_id"`
	Points       *int       `json:"points"`
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.tasks.Create(r.Context(), userIDFromRequest(r), service.TaskInput{
		Title:        input.Title,
		Description:  input.Description,
		Priority:     model.Priority(input.Priority),
		DueDate:      input.DueDate,
		Tags:         input.Tags,
		Category:     input.Category,
		Recurrence:   model.Recurrence(input.Recurrence),
		ParentTaskID: input.ParentTaskID,
		Points:       input.Points,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) parseTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Text == "" {
		writeError(w, http.StatusBadRequest, "text must be provided")
		return
	}

	task, err := s.tasks.CreateFromText(r.Context(), userIDFromRequest(r), input.Text)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *[]string  `json:"tags"`
	Category    *string    `json:"category"`
	Recurrence  *string    `json:"recurrence"`
	Points      *int       `json:"points"`
}

// columns builds the partial-update map from the fields actually present
// in the request. Unknown JSON keys are dropped by the decoder, so a body
// with only foreign keys yields an empty map and a 404 downstream.
func (u updateTaskRequest) columns() map[string]any {
	updates := make(map[string]any)
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.DueDate != nil {
		updates["due_date"] = *u.DueDate
	}
	if u.Tags != nil {
		updates["tags"] = *u.Tags
	}
	if u.Category != nil {
		updates["category"] = *u.Category
	}
	if u.Recurrence != nil {
		updates["recurrence"] = *u.Recurrence
	}
	if u.Points != nil {
		updates["points"] = *u.Points
	}
	return updates
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.tasks.Update(r.Context(), r.PathValue("id"), userIDFromRequest(r), input.columns())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) completeTaskHandler(w http.ResponseWriter, r *http.Request) {
	ok, err := s.tasks.Complete(r.Context(), r.PathValue("id"), userIDFromRequest(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	ok, err := s.tasks.Delete(r.Context(), r.PathValue("id"), userIDFromRequest(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
