package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"smart-todo/internal/model"
)

func TestUserRepository_CreateConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &model.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: []byte("x"),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, first))

	dup := &model.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: []byte("y"),
		CreatedAt:    time.Now().UTC(),
	}
	require.ErrorIs(t, repo.Create(ctx, dup), ErrConflict)
}

func TestUserRepository_Find(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser(t, db, "alice")

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	_, err = repo.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
