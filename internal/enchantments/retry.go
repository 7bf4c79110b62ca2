package enchantments

import (
	"time"

	"enchantment-resolver/internal/common/errors"
)

// maxBackoffShift caps the exponent so the delay cannot overflow
const maxBackoffShift = 20

// RetryPolicy decides whether a failed fetch is attempted again and after how long
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
}

// ShouldRetry is true for recoverable errors while attempts remain
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	return errors.IsRecoverable(err) && attempt < p.MaxRetries
}

// Backoff returns 2^attempt * Base
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return p.Base << uint(attempt)
}

// Delay is the backoff for attempt, stretched to outlast a running cooldown
func (p RetryPolicy) Delay(attempt int, cooldownRemaining time.Duration) time.Duration {
	delay := p.Backoff(attempt)
	if cooldownRemaining > delay {
		return cooldownRemaining
	}
	return delay
}
