package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

// setupTestDB opens a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDB(DriverSQLite, ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user, created, err := NewUserRepository(db).UpsertFromTelegram(context.Background(), telegramID, "Ada", "Lovelace", "ada")
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func createTask(t *testing.T, db *gorm.DB, userID uint, title string, spec recurrence.Spec, completed bool) *model.Task {
	t.Helper()
	task := &model.Task{UserID: userID, Title: title}
	task.SetRecurrence(spec)
	require.NoError(t, NewTaskRepository(db).Create(context.Background(), task))
	if completed {
		require.NoError(t, NewTaskRepository(db).UpdateCompletion(context.Background(), task.ID, true))
		task.Completed = true
	}
	return task
}
