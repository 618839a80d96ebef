package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

func TestRecurrenceService_RollDue(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	users := repository.NewUserRepository(db)
	svc := NewRecurrenceService(taskRepo, zap.NewNop())
	tasks := NewTaskService(taskRepo, stubParser{})
	ctx := context.Background()

	userID := registerTestUser(t, users, "alice")
	now := time.Now().UTC()

	mkTask := func(title string, recurrence model.Recurrence, created time.Time, completed bool) string {
		task := &model.Task{
			ID:         uuid.NewString(),
			Title:      title,
			Priority:   model.PriorityMedium,
			CreatedAt:  created,
			Tags:       model.TagList{},
			Completed:  completed,
			UserID:     userID,
			Recurrence: recurrence,
			Points:     5,
		}
		require.NoError(t, taskRepo.Create(ctx, task))
		return task.ID
	}

	dueID := mkTask("water plants", model.RecurrenceDaily, now.Add(-48*time.Hour), true)
	notDueID := mkTask("weekly review", model.RecurrenceWeekly, now.Add(-24*time.Hour), true)
	oneOffID := mkTask("one off", model.RecurrenceNone, now.Add(-48*time.Hour), true)
	openID := mkTask("still open", model.RecurrenceDaily, now.Add(-48*time.Hour), false)

	reopened, err := svc.RollDue(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, reopened)

	byID := make(map[string]model.Task)
	listed, err := tasks.ListForUser(ctx, userID)
	require.NoError(t, err)
	for _, task := range listed {
		byID[task.ID] = task
	}

	require.False(t, byID[dueID].Completed)
	require.True(t, byID[notDueID].Completed)
	require.True(t, byID[oneOffID].Completed)
	require.False(t, byID[openID].Completed)
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("anchors on due date and catches up", func(t *testing.T) {
		due := now.Add(-50 * time.Hour)
		task := model.Task{
			Recurrence: model.RecurrenceDaily,
			CreatedAt:  now.Add(-10 * 24 * time.Hour),
			DueDate:    &due,
		}
		next, ok := nextOccurrence(task, now)
		require.True(t, ok)
		require.Equal(t, now.Add(-2*time.Hour), next)
	})

	t.Run("not due yet", func(t *testing.T) {
		task := model.Task{
			Recurrence: model.RecurrenceWeekly,
			CreatedAt:  now.Add(-24 * time.Hour),
		}
		_, ok := nextOccurrence(task, now)
		require.False(t, ok)
	})

	t.Run("non-recurring never rolls", func(t *testing.T) {
		task := model.Task{
			Recurrence: model.RecurrenceNone,
			CreatedAt:  now.Add(-365 * 24 * time.Hour),
		}
		_, ok := nextOccurrence(task, now)
		require.False(t, ok)
	})
}
