package limiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, DefaultConcurrency, New(0).Capacity())
	assert.Equal(t, DefaultConcurrency, New(-3).Capacity())
	assert.Equal(t, 5, New(5).Capacity())
	assert.Equal(t, 5, New(5).Available())
}

func TestNeverExceedsCapacity(t *testing.T) {
	const (
		capacity = 3
		tasks    = 10
		sleep    = 50 * time.Millisecond
	)
	l := New(capacity)

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(sleep)
				current.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	assert.LessOrEqual(t, peak.Load(), int64(capacity))
	assert.Equal(t, int64(capacity), peak.Load())

	// ceil(10/3) = 4 rounds of 50ms
	assert.GreaterOrEqual(t, elapsed, 4*sleep)
	assert.Less(t, elapsed, 4*sleep+500*time.Millisecond)
	assert.Equal(t, capacity, l.Available())
}

func TestFailingTasksReleasePermits(t *testing.T) {
	const capacity = 2
	l := New(capacity)
	boom := errors.New("boom")

	for i := 0; i < capacity; i++ {
		err := l.Do(context.Background(), func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ran := false
	err := l.Do(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran, "task after failures must still run")
	assert.Equal(t, capacity, l.Available())
}

func TestPanickingTaskReleasesPermit(t *testing.T) {
	l := New(1)

	assert.Panics(t, func() {
		_ = l.Do(context.Background(), func(context.Context) error { panic("kaboom") })
	})
	assert.Equal(t, 1, l.Available())

	err := l.Do(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestRunReturnsValue(t *testing.T) {
	l := New(1)

	n, err := Run(context.Background(), l, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	boom := errors.New("boom")
	s, err := Run(context.Background(), l, func(context.Context) (string, error) { return "partial", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", s)
}

func TestCancelledWhileWaiting(t *testing.T) {
	l := New(1)
	hold := make(chan struct{})
	started := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Do(context.Background(), func(context.Context) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started
	assert.Equal(t, 0, l.Available())
	assert.Equal(t, 1, l.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := l.Do(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)

	close(hold)
	<-done
	assert.Equal(t, 1, l.Available())
}
