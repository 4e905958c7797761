package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

func TestHistoryService_ReadsArchive(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()
	engine := NewResetEngine(store, 0, discard)
	histories := NewHistoryService(store.History)

	userID := createProfiledUser(t, store, 1, "UTC")
	createTask(t, store, userID, "daily", recurrence.Daily{Time: at(7, 0)}, true)
	setWatermark(t, store, userID, recurrence.KindDaily, "2024-03-01")
	_, err := engine.Process(ctx, userID, recurrence.KindDaily, mustTime(t, "2024-03-05T00:00:00Z"))
	require.NoError(t, err)

	rows, err := histories.List(ctx, repository.HistoryFilter{
		UserID: userID,
		From:   mustDate(t, "2024-03-03"),
		To:     mustDate(t, "2024-03-04"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-03", rows[0].Date)

	recent, err := histories.Recent(ctx, repository.HistoryFilter{UserID: userID}, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-04", recent[0].Date)
	assert.Equal(t, "2024-03-05", recent[1].Date)
}

func TestHistoryService_RejectsBadFilters(t *testing.T) {
	_, store := setupTestDB(t)
	histories := NewHistoryService(store.History)

	_, err := histories.List(context.Background(), repository.HistoryFilter{Kind: recurrence.Kind("hourly")})
	assert.Error(t, err)

	_, err = histories.List(context.Background(), repository.HistoryFilter{
		From: mustDate(t, "2024-03-05"),
		To:   mustDate(t, "2024-03-01"),
	})
	assert.Error(t, err)
}
