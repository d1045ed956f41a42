// Package retry provides a bounded exponential-backoff retry policy.
// A Policy is a plain value passed into every activity invocation so retry
// behavior is explicit and independently testable rather than supplied
// implicitly by a host runtime.
package retry

import (
	"fmt"
	"math"
	"time"
)

// Policy describes a bounded exponential backoff.
// Attempt 1 is the initial invocation; retries continue until MaxAttempts
// invocations have been made.
type Policy struct {
	MaxAttempts   int           `json:"max_attempts"`
	BaseDelay     time.Duration `json:"base_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	MaxDelay      time.Duration `json:"max_delay"`
}

// Default returns the conservative default policy: 5 attempts,
// 2s base delay doubling per attempt, capped at 1m.
func Default() Policy {
	return Policy{
		MaxAttempts:   5,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      time.Minute,
	}
}

// Delay returns how long to wait after the given failed attempt (1-indexed):
// BaseDelay * BackoffFactor^(attempt-1), capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Exhausted reports whether the given attempt count has consumed the budget.
func (p Policy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// Validate checks the policy for usable values.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1: %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base_delay must not be negative: %v", p.BaseDelay)
	}
	if p.BackoffFactor < 1 {
		return fmt.Errorf("backoff_factor must be at least 1: %v", p.BackoffFactor)
	}
	return nil
}
