package geo

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstCallDoesNotBlock(t *testing.T) {
	limiter := NewLimiter(time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx))
}

func TestLimiter_ConcurrentCallersAreSpaced(t *testing.T) {
	const (
		callers  = 8
		interval = 20 * time.Millisecond
	)

	limiter := NewLimiter(interval, nil)

	var (
		mu    sync.Mutex
		times []time.Time
		errs  []error
		wg    sync.WaitGroup
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Wait(context.Background())
			mu.Lock()
			errs = append(errs, err)
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, times, callers)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// Successive releases must be separated by at least the configured
	// interval; allow a small tolerance for timestamping after release.
	tolerance := 2 * time.Millisecond
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap+tolerance, interval,
			"call %d released %v after call %d, want >= %v", i, gap, i-1, interval)
	}
}

func TestLimiter_CancelledContextReturnsError(t *testing.T) {
	limiter := NewLimiter(time.Hour, nil)

	// First call consumes the slot.
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- limiter.Wait(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}
