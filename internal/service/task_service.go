package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"smart-todo/internal/model"
	"smart-todo/internal/nlp"
	"smart-todo/internal/repository"
)

// TaskParser derives structured task fields from free text. Its output is
// best-effort and treated as untrusted.
type TaskParser interface {
	ParseTask(ctx context.Context, text string) (nlp.TaskDraft, error)
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title        string
	Description  string
	Priority     model.Priority
	DueDate      *time.Time
	Tags         []string
	Category     string
	Recurrence   model.Recurrence
	ParentTaskID *string

	// Points overrides the priority-derived default when set.
	Points *int
}

// TaskService wraps task-related business logic on top of the repository.
type TaskService struct {
	taskRepo *repository.TaskRepository
	parser   TaskParser
}

func NewTaskService(taskRepo *repository.TaskRepository, parser TaskParser) *TaskService {
	return &TaskService{taskRepo: taskRepo, parser: parser}
}

// Create builds a task from the input, filling in generated id, creation
// time and the priority-derived point value, and persists it.
func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	v := newValidator()
	v.check(strings.TrimSpace(input.Title) != "", "title", "must be provided")
	if input.Points != nil {
		v.check(*input.Points >= 0, "points", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceNone
	}

	points := priority.Points()
	if input.Points != nil {
		points = *input.Points
	}

	task := &model.Task{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		Priority:     priority,
		DueDate:      input.DueDate,
		CreatedAt:    time.Now().UTC(),
		Tags:         model.TagList(input.Tags),
		Category:     input.Category,
		Completed:    false,
		UserID:       userID,
		Recurrence:   recurrence,
		ParentTaskID: input.ParentTaskID,
		Points:       points,
	}
	if task.Tags == nil {
		task.Tags = model.TagList{}
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateFromText interprets free text into task fields and persists the
// result. Interpretation failures degrade to a plain task titled with the
// raw text, so capture still works when the interpreter is down.
func (s *TaskService) CreateFromText(ctx context.Context, userID, text string) (*model.Task, error) {
	draft, err := s.parser.ParseTask(ctx, text)
	if err != nil {
		draft = nlp.TaskDraft{Title: text}
	}
	if strings.TrimSpace(draft.Title) == "" {
		draft.Title = text
	}

	input := TaskInput{
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Tags:        draft.Tags,
		Category:    draft.Category,
	}
	if p := model.Priority(strings.ToLower(draft.Priority)); p.Valid() {
		input.Priority = p
	}

	return s.Create(ctx, userID, input)
}

// ListForUser returns all tasks owned by the user.
func (s *TaskService) ListForUser(ctx context.Context, userID string) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}

// Complete marks a task as done. It reports false when no owned task
// matched; completion is one-way at this layer.
func (s *TaskService) Complete(ctx context.Context, taskID, userID string) (bool, error) {
	return s.taskRepo.MarkCompleted(ctx, taskID, userID)
}

// Update applies a partial field update and returns the updated task.
// A title, when present in the update set, must stay non-empty.
func (s *TaskService) Update(ctx context.Context, taskID, userID string, updates map[string]any) (*model.Task, error) {
	if raw, exists := updates["title"]; exists {
		title, ok := raw.(string)
		if !ok || strings.TrimSpace(title) == "" {
			return nil, &ValidationError{Fields: map[string]string{"title": "must be provided"}}
		}
	}
	return s.taskRepo.UpdateFields(ctx, taskID, userID, updates)
}

// Delete removes a task together with its direct subtasks. It reports
// false when no owned task matched.
func (s *TaskService) Delete(ctx context.Context, taskID, userID string) (bool, error) {
	return s.taskRepo.Delete(ctx, taskID, userID)
}
