package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLockRepository_AcquireRelease(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewJobLockRepository(db)

	ok, err := repo.Acquire(ctx, "reset", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Acquire(ctx, "reset", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by a")

	require.NoError(t, repo.Release(ctx, "reset", "b"))
	ok, err = repo.Acquire(ctx, "reset", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "release by a non-owner is ignored")

	require.NoError(t, repo.Release(ctx, "reset", "a"))
	ok, err = repo.Acquire(ctx, "reset", "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobLockRepository_ExpiredLockIsTakenOver(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewJobLockRepository(db)

	ok, err := repo.Acquire(ctx, "reset", "crashed", -time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Acquire(ctx, "reset", "fresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
