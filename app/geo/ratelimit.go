package geo

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter enforces a minimum interval between calls to a shared external
// service, process-wide. Callers block in Wait until the interval since the
// previous call has elapsed. The mutex is held across the sleep so that
// concurrent callers are serialized and each observes the full spacing.
type Limiter struct {
	minInterval time.Duration
	clock       clockwork.Clock

	mu   sync.Mutex
	last time.Time
}

func NewLimiter(minInterval time.Duration, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{
		minInterval: minInterval,
		clock:       clock,
	}
}

// Wait blocks until at least minInterval has passed since the previous
// caller was released, then records the current time as the new last-call
// timestamp. Returns early with the context error on cancellation, without
// consuming a slot.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if wait := l.minInterval - l.clock.Since(l.last); wait > 0 {
			select {
			case <-l.clock.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.last = l.clock.Now()
	return nil
}
