package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		attemptCount int
		maxRetries   int
		want         bool
	}{
		{"nil error retries", nil, 0, 3, true},
		{"budget exhausted never retries", errors.New("timeout"), 3, 3, false},
		{"retryable substring", errors.New("upstream rate limit hit"), 0, 3, true},
		{"non-retryable substring", errors.New("invalid argument: missing field"), 0, 3, false},
		{"unknown error defaults to retryable", errors.New("something odd happened"), 0, 3, true},
		{"tagged domain error respects Retryable flag", domain.NewError(domain.CodeConflict, "x", 409).WithRetry(0), 0, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetryable(tc.err, tc.attemptCount, tc.maxRetries))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := config.Config{RetryInitialDelay: time.Second, RetryMaxDelay: 10 * time.Second, RetryMultiplier: 2, RetryJitter: false}

	require.Equal(t, time.Second, BackoffDelay(cfg, 0))
	require.Equal(t, 2*time.Second, BackoffDelay(cfg, 1))
	require.Equal(t, 4*time.Second, BackoffDelay(cfg, 2))
	// attempt 10 would be far beyond MaxDelay without the cap.
	require.Equal(t, 10*time.Second, BackoffDelay(cfg, 10))
}

func TestBackoffDelay_Jitter(t *testing.T) {
	cfg := config.Config{RetryInitialDelay: time.Second, RetryMaxDelay: time.Minute, RetryMultiplier: 2, RetryJitter: true}

	delay := BackoffDelay(cfg, 0)
	require.GreaterOrEqual(t, delay, time.Second)
	require.LessOrEqual(t, delay, time.Second+100*time.Millisecond)
}
