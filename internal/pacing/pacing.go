// Package pacing implements the rate governor that spaces out an adapter's
// network-bound operations. Delays are uniformly random within a configured
// bound; randomized pacing is the only anti-blocking measure, there is no
// retry logic anywhere in the pipeline.
package pacing

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

// Governor suspends callers for a bounded random duration between requests.
// The clock is injectable so tests run without real sleeps.
type Governor struct {
	clock clockwork.Clock
	randn func(n int64) int64
}

// New creates a Governor. A nil clock means real time.
func New(clock clockwork.Clock) *Governor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Governor{clock: clock, randn: rand.Int63n}
}

// Pace blocks for a uniformly-random duration in [min, max], or until the
// context is cancelled, in which case the context's error is returned.
func (g *Governor) Pace(ctx context.Context, min, max time.Duration) error {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}

	d := min
	if span := max - min; span > 0 {
		d += time.Duration(g.randn(int64(span) + 1))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := g.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
