package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

// RecurrenceService re-opens completed repeating tasks once their
// recurrence period has elapsed. It is driven by the scheduler, not by
// any API operation; through the API completion stays one-way.
type RecurrenceService struct {
	taskRepo *repository.TaskRepository
	logger   *zap.Logger
}

func NewRecurrenceService(taskRepo *repository.TaskRepository, logger *zap.Logger) *RecurrenceService {
	return &RecurrenceService{taskRepo: taskRepo, logger: logger}
}

// RollDue scans completed recurring tasks and re-opens those whose next
// occurrence is due at or before now. It returns how many tasks were
// re-opened.
func (s *RecurrenceService) RollDue(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.taskRepo.ListRecurringCompleted(ctx)
	if err != nil {
		return 0, err
	}

	reopened := 0
	for _, task := range tasks {
		next, due := nextOccurrence(task, now)
		if !due {
			continue
		}

		updates := map[string]any{"completed": false}
		if task.DueDate != nil {
			updates["due_date"] = next
		}
		if err := s.taskRepo.Reopen(ctx, task.ID, updates); err != nil {
			s.logger.Warn("reopen recurring task failed",
				zap.String("task_id", task.ID),
				zap.Error(err))
			continue
		}
		reopened++
	}

	return reopened, nil
}

// nextOccurrence computes the first occurrence after the task's anchor
// (its due date when set, its creation time otherwise) that has already
// passed. due is false when the period has not elapsed yet.
func nextOccurrence(task model.Task, now time.Time) (time.Time, bool) {
	period := task.Recurrence.Period()
	if period == 0 {
		return time.Time{}, false
	}

	anchor := task.CreatedAt
	if task.DueDate != nil {
		anchor = *task.DueDate
	}

	next := anchor.Add(period)
	if next.After(now) {
		return time.Time{}, false
	}
	// Catch up when more than one period passed unattended.
	for !next.Add(period).After(now) {
		next = next.Add(period)
	}
	return next, true
}
