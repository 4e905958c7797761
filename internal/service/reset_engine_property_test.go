package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

var propertyZones = []string{"UTC", "America/New_York", "Asia/Kolkata", "Pacific/Chatham", "Pacific/Kiritimati"}

// Any catch-up processes exactly the enumerated boundaries once, writes one
// row per task per boundary, and leaves nothing for a repeated call.
func TestResetEngine_IdempotentCatchUpProperty(t *testing.T) {
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(rt *rapid.T) {
		db, err := repository.NewDB(repository.DriverSQLite, ":memory:", discard)
		require.NoError(rt, err)
		sqlDB, err := db.DB()
		require.NoError(rt, err)
		defer sqlDB.Close()

		store := repository.NewStore(db)
		engine := NewResetEngine(store, 0, discard)
		ctx := context.Background()

		zone := rapid.SampledFrom(propertyZones).Draw(rt, "zone")
		kind := rapid.SampledFrom(recurrence.Kinds()).Draw(rt, "kind")
		now := base.Add(time.Duration(rapid.IntRange(0, 400*24).Draw(rt, "hours")) * time.Hour)
		loc, err := time.LoadLocation(zone)
		require.NoError(rt, err)
		today := recurrence.DateOf(now.In(loc))
		mark := today.AddDays(-rapid.IntRange(0, 120).Draw(rt, "behind"))

		user, _, err := store.Users.UpsertFromTelegram(ctx, 1, "P", "T", "pt")
		require.NoError(rt, err)
		require.NoError(rt, store.Profiles.Create(ctx, &model.Profile{UserID: user.ID, TimeZone: zone}))
		require.NoError(rt, store.Watermarks.Advance(ctx, user.ID, kind, mark))

		tasks := rapid.IntRange(0, 3).Draw(rt, "tasks")
		for i := 0; i < tasks; i++ {
			task := &model.Task{UserID: user.ID, Title: "t"}
			switch kind {
			case recurrence.KindWeekly:
				task.SetRecurrence(recurrence.Weekly{Time: at(9, 0), Day: time.Wednesday})
			case recurrence.KindMonthly:
				task.SetRecurrence(recurrence.Monthly{Time: at(9, 0), Day: 15})
			default:
				task.SetRecurrence(recurrence.Daily{Time: at(9, 0)})
			}
			task.Completed = rapid.Bool().Draw(rt, "completed")
			require.NoError(rt, store.Tasks.Create(ctx, task))
		}

		want := recurrence.Boundaries(kind, mark, true, today, 0)

		n, err := engine.Process(ctx, user.ID, kind, now)
		require.NoError(rt, err)
		require.Equal(rt, len(want), n)

		again, err := engine.Process(ctx, user.ID, kind, now)
		require.NoError(rt, err)
		require.Zero(rt, again)

		rows, err := store.History.List(ctx, repository.HistoryFilter{UserID: user.ID})
		require.NoError(rt, err)
		require.Len(rt, rows, len(want)*tasks)

		got, ok, err := store.Watermarks.Get(ctx, user.ID, kind)
		require.NoError(rt, err)
		require.True(rt, ok)
		if len(want) > 0 {
			require.Equal(rt, want[len(want)-1], got)
		} else {
			require.Equal(rt, mark, got)
		}
	})
}
