package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskmaster/internal/lease"
	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

// Processor runs the reset for one user and kind.
type Processor interface {
	Process(ctx context.Context, userID uint, kind recurrence.Kind, now time.Time) (int, error)
}

// ProfileLister lists the users the driver iterates over.
type ProfileLister interface {
	ListAll(ctx context.Context) ([]model.Profile, error)
}

// TickReport summarises one driver tick.
type TickReport struct {
	At         time.Time
	Skipped    bool
	Users      int
	Boundaries int
	Failures   []*PairError
}

// ResetDriver fans a tick out over every profiled user and kind.
type ResetDriver struct {
	lease    lease.Lease
	profiles ProfileLister
	engine   Processor
	workers  int
	log      *slog.Logger
}

func NewResetDriver(l lease.Lease, profiles ProfileLister, engine Processor, workers int, log *slog.Logger) *ResetDriver {
	if workers < 1 {
		workers = 1
	}
	return &ResetDriver{lease: l, profiles: profiles, engine: engine, workers: workers, log: log}
}

// Tick processes the given kinds, or all of them, for every user. It returns
// an error only when the lease or the profile listing fails; per-pair failures
// are collected in the report and retried on the next tick.
func (d *ResetDriver) Tick(ctx context.Context, now time.Time, kinds ...recurrence.Kind) (TickReport, error) {
	report := TickReport{At: now}
	if len(kinds) == 0 {
		kinds = recurrence.Kinds()
	}

	release, ok, err := d.lease.TryAcquire(ctx)
	if err != nil {
		return report, fmt.Errorf("acquire reset lease: %w", err)
	}
	if !ok {
		report.Skipped = true
		d.log.Info("reset tick skipped, previous tick still running")
		return report, nil
	}
	defer release()

	profiles, err := d.profiles.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list profiles: %w", err)
	}
	report.Users = len(profiles)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.workers)
	for _, profile := range profiles {
		userID := profile.UserID
		g.Go(func() error {
			// Kinds of one user run sequentially.
			for _, kind := range kinds {
				var (
					n   int
					err = ctx.Err()
				)
				if err == nil {
					n, err = d.engine.Process(ctx, userID, kind, now)
				}

				mu.Lock()
				report.Boundaries += n
				if err != nil {
					report.Failures = append(report.Failures, &PairError{UserID: userID, Kind: kind, Err: err})
				}
				mu.Unlock()

				if err != nil {
					d.log.Error("reset failed", "user", userID, "kind", kind, "err", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		a, b := report.Failures[i], report.Failures[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.Kind < b.Kind
	})

	d.log.Debug("reset tick done", "users", report.Users, "boundaries", report.Boundaries, "failures", len(report.Failures))
	return report, nil
}
