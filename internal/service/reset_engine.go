package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

// DefaultMaxCatchUp bounds how many boundaries one Process call handles.
const DefaultMaxCatchUp = 366

// ResetEngine archives and resets a user's tasks once per crossed boundary.
type ResetEngine struct {
	store      *repository.Store
	maxCatchUp int
	log        *slog.Logger
}

func NewResetEngine(store *repository.Store, maxCatchUp int, log *slog.Logger) *ResetEngine {
	if maxCatchUp <= 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	return &ResetEngine{store: store, maxCatchUp: maxCatchUp, log: log}
}

// Process handles every boundary of kind crossed since the stored watermark,
// oldest first, and returns how many were handled. Each boundary is archived,
// reset and recorded in its own transaction, so a failure leaves the
// watermark on the last boundary that fully committed.
func (e *ResetEngine) Process(ctx context.Context, userID uint, kind recurrence.Kind, now time.Time) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown recurrence kind %q", kind)
	}

	profile, err := e.store.Profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("user %d: %w", userID, ErrProfileMissing)
	}
	if err != nil {
		return 0, err
	}
	loc, err := loadZone(profile.TimeZone)
	if err != nil {
		return 0, err
	}
	today := recurrence.DateOf(now.In(loc))

	watermark, ok, err := e.store.Watermarks.Get(ctx, userID, kind)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, boundary := range recurrence.Boundaries(kind, watermark, ok, today, e.maxCatchUp) {
		var archived int
		err := e.store.Atomic(ctx, func(tx *repository.Store) error {
			var err error
			archived, err = e.resetBoundary(ctx, tx, userID, kind, boundary)
			return err
		})
		if errors.Is(err, repository.ErrWatermarkConflict) {
			// Another run got here first.
			e.log.Debug("boundary already processed", "user", userID, "kind", kind, "boundary", boundary)
			return processed, nil
		}
		if err != nil {
			return processed, fmt.Errorf("reset %s boundary %s: %w", kind, boundary, err)
		}
		processed++
		e.log.Info("boundary processed", "user", userID, "kind", kind, "boundary", boundary, "archived", archived)
	}
	return processed, nil
}

// resetBoundary claims the boundary by moving the watermark, then snapshots
// every task of the kind and clears the completed ones.
func (e *ResetEngine) resetBoundary(ctx context.Context, tx *repository.Store, userID uint, kind recurrence.Kind, boundary recurrence.Date) (int, error) {
	if err := tx.Watermarks.Advance(ctx, userID, kind, boundary); err != nil {
		return 0, err
	}

	tasks, err := tx.Tasks.ListActive(ctx, userID, kind)
	if err != nil {
		return 0, err
	}
	rows := make([]model.TaskHistory, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, model.SnapshotOf(task, boundary))
	}
	if err := tx.History.AppendBatch(ctx, rows); err != nil {
		return 0, err
	}

	if _, err := tx.Tasks.ResetCompleted(ctx, userID, kind); err != nil {
		return 0, err
	}
	return len(rows), nil
}
