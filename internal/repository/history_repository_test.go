package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

func TestHistoryRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, 1)
	other := createUser(t, db, 2)
	repo := NewHistoryRepository(db)

	daily := createTask(t, db, user.ID, "stretch", recurrence.Daily{Time: at(7, 0)}, true)
	weekly := createTask(t, db, user.ID, "review", recurrence.Weekly{Time: at(9, 0), Day: time.Monday}, false)
	foreign := createTask(t, db, other.ID, "other", recurrence.Daily{Time: at(7, 0)}, false)

	rows := []model.TaskHistory{
		model.SnapshotOf(*daily, mustDate(t, "2024-03-03")),
		model.SnapshotOf(*daily, mustDate(t, "2024-03-02")),
		model.SnapshotOf(*weekly, mustDate(t, "2024-03-04")),
		model.SnapshotOf(*daily, mustDate(t, "2024-03-04")),
		model.SnapshotOf(*foreign, mustDate(t, "2024-03-02")),
	}
	require.NoError(t, repo.AppendBatch(ctx, rows))
	require.NoError(t, repo.AppendBatch(ctx, nil))

	all, err := repo.List(ctx, HistoryFilter{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-03-02", all[0].Date)
	assert.Equal(t, "2024-03-04", all[3].Date)

	dailyOnly, err := repo.List(ctx, HistoryFilter{
		UserID: user.ID,
		Kind:   recurrence.KindDaily,
		From:   mustDate(t, "2024-03-03"),
		To:     mustDate(t, "2024-03-04"),
	})
	require.NoError(t, err)
	require.Len(t, dailyOnly, 2)
	for _, row := range dailyOnly {
		assert.Equal(t, "stretch", row.Title)
		assert.True(t, row.Completed)
		assert.Nil(t, row.DayOfWeek)
	}

	limited, err := repo.List(ctx, HistoryFilter{UserID: user.ID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryRepository_SnapshotCopiesSchedule(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, 1)
	repo := NewHistoryRepository(db)

	task := createTask(t, db, user.ID, "rent", recurrence.Monthly{Time: at(10, 0), Day: 28}, false)
	row := model.SnapshotOf(*task, mustDate(t, "2024-04-01"))
	require.NoError(t, repo.Append(ctx, &row))
	assert.NotZero(t, row.ID)

	rows, err := repo.List(ctx, HistoryFilter{UserID: user.ID, Kind: recurrence.KindMonthly})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, task.ID, rows[0].TaskID)
	assert.Equal(t, "10:00", rows[0].TimeOfDay)
	require.NotNil(t, rows[0].DayOfMonth)
	assert.Equal(t, 28, *rows[0].DayOfMonth)
	assert.False(t, rows[0].Completed)
}
