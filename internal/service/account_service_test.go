package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/recurrence"
)

func TestAccountService_RegisterProvisions(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountService(store, "America/New_York", discard)

	// Wednesday 2024-03-13, 01:00 in New York.
	now := mustTime(t, "2024-03-13T05:00:00Z")
	user, profile, err := accounts.Register(ctx, Account{TelegramID: 42, FirstName: "Grace"}, now)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", profile.TimeZone)
	assert.Equal(t, user.ID, profile.UserID)

	assert.Equal(t, "2024-03-13", watermark(t, store, user.ID, recurrence.KindDaily))
	assert.Equal(t, "2024-03-11", watermark(t, store, user.ID, recurrence.KindWeekly))
	assert.Equal(t, "2024-03-01", watermark(t, store, user.ID, recurrence.KindMonthly))

	again, profileAgain, err := accounts.Register(ctx, Account{TelegramID: 42, FirstName: "Grace", Username: "hopper"}, now.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, profile.ID, profileAgain.ID)
	assert.Equal(t, "2024-03-13", watermark(t, store, user.ID, recurrence.KindDaily), "existing watermarks stay")

	found, err := accounts.Lookup(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "hopper", found.Username)
}

func TestAccountService_FreshAccountStartsNextPeriod(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountService(store, "", discard)
	engine := NewResetEngine(store, 0, discard)

	now := mustTime(t, "2024-03-13T10:00:00Z")
	user, profile, err := accounts.Register(ctx, Account{TelegramID: 7}, now)
	require.NoError(t, err)
	assert.Equal(t, "UTC", profile.TimeZone)
	createTask(t, store, user.ID, "water plants", recurrence.Daily{Time: at(9, 0)}, true)

	n, err := engine.Process(ctx, user.ID, recurrence.KindDaily, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = engine.Process(ctx, user.ID, recurrence.KindDaily, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAccountService_BadDefaultZone(t *testing.T) {
	_, store := setupTestDB(t)
	accounts := NewAccountService(store, "Atlantis/Capital", discard)

	_, _, err := accounts.Register(context.Background(), Account{TelegramID: 1}, mustTime(t, "2024-03-13T10:00:00Z"))
	assert.ErrorIs(t, err, ErrInvalidTimeZone)
}
