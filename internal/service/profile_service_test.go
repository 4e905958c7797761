package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_SetTimeZone(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()
	profiles := NewProfileService(store.Profiles)
	userID := createProfiledUser(t, store, 1, "UTC")

	loc, err := profiles.SetTimeZone(ctx, userID, " Asia/Tokyo ")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	got, err := profiles.Location(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", got.String())

	for _, bad := range []string{"", "Local", "Not/AZone"} {
		_, err := profiles.SetTimeZone(ctx, userID, bad)
		assert.ErrorIs(t, err, ErrInvalidTimeZone, bad)
	}

	profile, err := profiles.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", profile.TimeZone)
}

func TestProfileService_Missing(t *testing.T) {
	_, store := setupTestDB(t)
	profiles := NewProfileService(store.Profiles)

	_, err := profiles.SetTimeZone(context.Background(), 99, "UTC")
	assert.ErrorIs(t, err, ErrProfileMissing)
	_, err = profiles.Location(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProfileMissing)
}
