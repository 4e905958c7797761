package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/lease"
	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

type staticProfiles []model.Profile

func (p staticProfiles) ListAll(context.Context) ([]model.Profile, error) {
	return p, nil
}

type pair struct {
	user uint
	kind recurrence.Kind
}

// recordingProcessor counts calls and fails the configured pairs.
type recordingProcessor struct {
	mu    sync.Mutex
	calls []pair
	fail  map[pair]error
}

func (p *recordingProcessor) Process(_ context.Context, userID uint, kind recurrence.Kind, _ time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := pair{user: userID, kind: kind}
	p.calls = append(p.calls, key)
	if err := p.fail[key]; err != nil {
		return 0, err
	}
	return 1, nil
}

type brokenLease struct{ err error }

func (b brokenLease) TryAcquire(context.Context) (func(), bool, error) {
	return nil, false, b.err
}

func TestResetDriver_FailureIsIsolated(t *testing.T) {
	boom := errors.New("transient")
	proc := &recordingProcessor{fail: map[pair]error{{user: 2, kind: recurrence.KindDaily}: boom}}
	profiles := staticProfiles{{UserID: 1}, {UserID: 2}, {UserID: 3}}
	driver := NewResetDriver(lease.NewLocal(), profiles, proc, 2, discard)

	report, err := driver.Tick(context.Background(), time.Now())
	require.NoError(t, err)

	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Users)
	assert.Len(t, proc.calls, 9)
	assert.Equal(t, 8, report.Boundaries)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, uint(2), report.Failures[0].UserID)
	assert.Equal(t, recurrence.KindDaily, report.Failures[0].Kind)
	assert.ErrorIs(t, report.Failures[0], boom)
}

func TestResetDriver_SkipsWhileLeaseHeld(t *testing.T) {
	l := lease.NewLocal()
	release, ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	proc := &recordingProcessor{}
	driver := NewResetDriver(l, staticProfiles{{UserID: 1}}, proc, 1, discard)

	report, err := driver.Tick(context.Background(), time.Now())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, proc.calls)
}

func TestResetDriver_LeaseFailure(t *testing.T) {
	boom := errors.New("storage outage")
	driver := NewResetDriver(brokenLease{err: boom}, staticProfiles{{UserID: 1}}, &recordingProcessor{}, 1, discard)

	_, err := driver.Tick(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestResetDriver_SelectedKinds(t *testing.T) {
	proc := &recordingProcessor{}
	driver := NewResetDriver(lease.NewLocal(), staticProfiles{{UserID: 1}, {UserID: 2}}, proc, 4, discard)

	report, err := driver.Tick(context.Background(), time.Now(), recurrence.KindWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Boundaries)
	assert.ElementsMatch(t, []pair{{1, recurrence.KindWeekly}, {2, recurrence.KindWeekly}}, proc.calls)
}

func TestResetDriver_CancelledContext(t *testing.T) {
	proc := &recordingProcessor{}
	driver := NewResetDriver(lease.NewLocal(), staticProfiles{{UserID: 1}}, proc, 1, discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := driver.Tick(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, proc.calls)
	assert.Len(t, report.Failures, 3)
	assert.ErrorIs(t, report.Failures[0], context.Canceled)
}

func TestResetDriver_WithEngine(t *testing.T) {
	db, store := setupTestDB(t)
	ctx := context.Background()

	good := createProfiledUser(t, store, 1, "UTC")
	bad := createProfiledUser(t, store, 2, "UTC")
	require.NoError(t, db.Model(&model.Profile{}).Where("user_id = ?", bad).Update("time_zone", "Nowhere/City").Error)
	createTask(t, store, good, "daily", recurrence.Daily{Time: at(7, 0)}, true)
	createTask(t, store, bad, "daily", recurrence.Daily{Time: at(7, 0)}, true)
	setWatermark(t, store, good, recurrence.KindDaily, "2024-03-03")
	setWatermark(t, store, good, recurrence.KindWeekly, "2024-03-04")
	setWatermark(t, store, good, recurrence.KindMonthly, "2024-03-01")

	engine := NewResetEngine(store, 0, discard)
	locks := lease.NewDatabase(store.Locks, "reset", time.Minute, discard)
	driver := NewResetDriver(locks, store.Profiles, engine, 4, discard)

	report, err := driver.Tick(ctx, mustTime(t, "2024-03-04T06:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Boundaries)
	require.Len(t, report.Failures, 3)
	for _, f := range report.Failures {
		assert.Equal(t, bad, f.UserID)
		assert.ErrorIs(t, f, ErrInvalidTimeZone)
	}
	assert.Len(t, history(t, store, good, recurrence.KindDaily), 1)

	// The lease was released, so the next tick runs and finds nothing new.
	report, err = driver.Tick(ctx, mustTime(t, "2024-03-04T06:01:00Z"))
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Zero(t, report.Boundaries)
}
