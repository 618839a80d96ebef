package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

// allowedUpdateColumns is the set of task columns a partial update may
// touch. Everything else, notably id, user_id, completed and created_at,
// is immutable through UpdateFields.
var allowedUpdateColumns = map[string]bool{
	"title":       true,
	"description": true,
	"priority":    true,
	"due_date":    true,
	"tags":        true,
	"category":    true,
	"recurrence":  true,
	"points":      true,
}

// TaskRepository handles CRUD for tasks. Every operation is scoped by the
// owning user; a task owned by someone else is indistinguishable from a
// missing one.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task record. Inserting a duplicate id reports
// ErrConflict.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns every task owned by userID. No particular order is
// guaranteed. A user with no tasks gets an empty slice, not an error.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID fetches a single task scoped by owner.
func (r *TaskRepository) FindByID(ctx context.Context, taskID, userID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// UpdateFields applies a partial update restricted to the mutable column
// allow-list. An empty update set, a set with only disallowed keys, or a
// non-matching id/owner pair all report ErrNotFound without touching the
// record. The updated task is returned on success.
func (r *TaskRepository) UpdateFields(ctx context.Context, taskID, userID string, updates map[string]any) (*model.Task, error) {
	filtered := make(map[string]any, len(updates))
	for key, value := range updates {
		if !allowedUpdateColumns[key] {
			continue
		}
		// Route tag slices through the TagList serializer.
		if key == "tags" {
			switch v := value.(type) {
			case []string:
				value = model.TagList(v)
			case model.TagList:
			case nil:
				value = model.TagList{}
			}
		}
		filtered[key] = value
	}
	if len(filtered) == 0 {
		return nil, ErrNotFound
	}

	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(filtered)
	if res.Error != nil {
		return nil, fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, taskID, userID)
}

// MarkCompleted flips the completed flag for the scoped task and reports
// whether a record was affected.
func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Update("completed", true)
	if res.Error != nil {
		return false, fmt.Errorf("complete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the task and any direct subtasks referencing it as
// parent, all owned by userID. The cascade is one level deep and runs in
// a single transaction: either both deletes commit or neither does.
// It reports whether the primary record was removed.
func (r *TaskRepository) Delete(ctx context.Context, taskID, userID string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_task_id = ? AND user_id = ?", taskID, userID).
			Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete subtasks: %w", err)
		}
		res := tx.Where("id = ? AND user_id = ?", taskID, userID).Delete(&model.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListRecurringCompleted returns completed tasks with a recurrence other
// than none, across all users. Used by the recurrence roller.
func (r *TaskRepository) ListRecurringCompleted(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Where("completed = ? AND recurrence <> ?", true, model.RecurrenceNone).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}
	return tasks, nil
}

// Reopen clears the completed flag for a recurring task and stamps a new
// due date. Not exposed through the API; only the roller calls it.
func (r *TaskRepository) Reopen(ctx context.Context, taskID string, updates map[string]any) error {
	if err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("reopen task: %w", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
