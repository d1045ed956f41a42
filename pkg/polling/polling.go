// Package polling implements the bounded eventual-consistency read loop that
// external clients use to observe pipeline completion. The poller reads until
// a result appears or the attempt budget is exhausted; transient read failures
// are ignored and exhaustion is silent rather than surfaced as an error.
package polling

import (
	"context"
	"time"
)

// Observed client cadence: 15 seconds between reads, 20 attempts total.
const (
	DefaultInterval    = 15 * time.Second
	DefaultMaxAttempts = 20
)

// Fetch reads external state once. A nil result means the value is not yet
// visible; an error is treated as a transient read failure and ignored.
type Fetch func(ctx context.Context) (*string, error)

// Poller repeatedly invokes a Fetch until a non-nil result appears.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// New returns a Poller with the observed default cadence.
func New() Poller {
	return Poller{
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Wait polls until the fetch returns a value, the attempt budget is exhausted,
// or the context is cancelled. The first attempt happens immediately; each
// subsequent attempt waits Interval. On exhaustion or cancellation it returns
// ("", false) with no error: the caller is left in a pending state.
func (p Poller) Wait(ctx context.Context, fetch Fetch) (string, bool) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", false
			case <-time.After(p.Interval):
			}
		}

		value, err := fetch(ctx)
		if err != nil {
			continue
		}
		if value != nil {
			return *value, true
		}
	}

	return "", false
}
