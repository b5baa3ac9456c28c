// Package limiter bounds how many units of work run at once.
package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is used when a non-positive capacity is requested.
const DefaultConcurrency = 2

// Limiter is a counting admission gate. Waiters are admitted in FIFO order
// as permits free up.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// New creates a limiter with n permits.
func New(n int) *Limiter {
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: n,
	}
}

// Do blocks until a permit is free, runs task, and returns the permit
// whether task succeeds, fails or panics. A panic is re-raised after the
// permit is returned. If ctx ends while waiting, task is not run and the
// context error is returned.
func (l *Limiter) Do(ctx context.Context, task func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.inFlight.Add(1)
	defer func() {
		l.inFlight.Add(-1)
		l.sem.Release(1)
	}()
	return task(ctx)
}

// Run is the value-returning form of Do.
func Run[T any](ctx context.Context, l *Limiter, task func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = task(ctx)
		return err
	})
	return out, err
}

// Available returns the number of free permits at this instant. It is for
// observability only; callers must not use it to decide whether to call Do.
func (l *Limiter) Available() int {
	return l.capacity - int(l.inFlight.Load())
}

// InFlight returns the number of tasks currently running.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Capacity returns the configured number of permits.
func (l *Limiter) Capacity() int {
	return l.capacity
}
