package lease

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Locker stores expiring named locks, typically in the application database.
type Locker interface {
	Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, lockID, owner string) error
}

// Database is a lease shared by every process using the same database. A
// holder that dies keeps the lease only until ttl passes.
type Database struct {
	locker Locker
	name   string
	ttl    time.Duration
	log    *slog.Logger
}

func NewDatabase(locker Locker, name string, ttl time.Duration, log *slog.Logger) *Database {
	return &Database{locker: locker, name: name, ttl: ttl, log: log}
}

func (d *Database) TryAcquire(ctx context.Context) (func(), bool, error) {
	owner := uuid.NewString()
	ok, err := d.locker.Acquire(ctx, d.name, owner, d.ttl)
	if err != nil || !ok {
		return nil, false, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := d.locker.Release(ctx, d.name, owner); err != nil {
				d.log.Warn("release lease", "lease", d.name, "err", err)
			}
		})
	}
	return release, true, nil
}
