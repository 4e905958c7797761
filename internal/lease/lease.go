// Package lease keeps scheduler ticks from overlapping. A lease is taken
// without waiting: when it is held elsewhere the caller skips its work.
package lease

import (
	"context"
	"sync"
	"time"
)

// Lease is a non-blocking mutual exclusion primitive. ok is false when
// another holder has it; err is set only when the lease backend itself
// failed. release must be called once after a successful acquire.
type Lease interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// releaseTimeout bounds the cleanup call made by release functions.
const releaseTimeout = 5 * time.Second

// Local guards against overlap within one process.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryAcquire(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, true, nil
}
