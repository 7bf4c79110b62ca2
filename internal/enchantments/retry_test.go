package enchantments

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"enchantment-resolver/internal/common/errors"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Base: time.Second}

	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, time.Second, p.Backoff(-1))
	assert.Equal(t, p.Backoff(maxBackoffShift), p.Backoff(maxBackoffShift+10))
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Base: time.Second}

	assert.Equal(t, 2*time.Second, p.Delay(1, 0))
	assert.Equal(t, 45*time.Second, p.Delay(1, 45*time.Second))
	assert.Equal(t, 4*time.Second, p.Delay(2, time.Second))
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Base: time.Second}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    bool
	}{
		{"connection error", 0, errors.ConnectionError("refused", nil), true},
		{"timeout", 2, errors.TimeoutError("fetch", nil), true},
		{"rate limit", 1, errors.RateLimitError("source"), true},
		{"attempts used up", 3, errors.ConnectionError("refused", nil), false},
		{"internal error", 0, errors.InternalError("bug", nil), false},
		{"plain error", 0, stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldRetry(tt.attempt, tt.err))
		})
	}

	assert.False(t, RetryPolicy{MaxRetries: 0}.ShouldRetry(0, errors.ConnectionError("x", nil)))
}
