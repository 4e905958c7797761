package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestDB opens a migrated in-memory SQLite store.
func setupTestDB(t *testing.T) (*gorm.DB, *repository.Store) {
	t.Helper()

	db, err := repository.NewDB(repository.DriverSQLite, ":memory:", discard)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, repository.NewStore(db)
}

// createProfiledUser inserts a user and profile without seeding watermarks.
func createProfiledUser(t *testing.T, store *repository.Store, telegramID int64, zone string) uint {
	t.Helper()
	ctx := context.Background()

	user, _, err := store.Users.UpsertFromTelegram(ctx, telegramID, "Test", "User", "test")
	require.NoError(t, err)
	require.NoError(t, store.Profiles.Create(ctx, &model.Profile{UserID: user.ID, TimeZone: zone}))
	return user.ID
}

func createTask(t *testing.T, store *repository.Store, userID uint, title string, spec recurrence.Spec, completed bool) *model.Task {
	t.Helper()
	ctx := context.Background()

	task := &model.Task{UserID: userID, Title: title, Description: title + " notes"}
	task.SetRecurrence(spec)
	require.NoError(t, store.Tasks.Create(ctx, task))
	if completed {
		require.NoError(t, store.Tasks.UpdateCompletion(ctx, task.ID, true))
		task.Completed = true
	}
	return task
}

func setWatermark(t *testing.T, store *repository.Store, userID uint, kind recurrence.Kind, raw string) {
	t.Helper()
	require.NoError(t, store.Watermarks.Advance(context.Background(), userID, kind, mustDate(t, raw)))
}

func watermark(t *testing.T, store *repository.Store, userID uint, kind recurrence.Kind) string {
	t.Helper()
	d, ok, err := store.Watermarks.Get(context.Background(), userID, kind)
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return d.String()
}

func history(t *testing.T, store *repository.Store, userID uint, kind recurrence.Kind) []model.TaskHistory {
	t.Helper()
	rows, err := store.History.List(context.Background(), repository.HistoryFilter{UserID: userID, Kind: kind})
	require.NoError(t, err)
	return rows
}

func mustDate(t *testing.T, raw string) recurrence.Date {
	t.Helper()
	d, err := recurrence.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func mustTime(t *testing.T, raw string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, raw)
	require.NoError(t, err)
	return ts
}

func at(h, m int) recurrence.TimeOfDay {
	return recurrence.TimeOfDay{Hour: h, Minute: m}
}
