package queue

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
)

// nonRetryableSubstrings mirrors the job-level classification: errors whose
// message contains one of these are never retried regardless of attempt
// count, because retrying cannot change the outcome.
var nonRetryableSubstrings = []string{
	"invalid argument",
	"not found",
	"conflict",
	"schema invalid",
	"authentication failed",
	"authorization failed",
	"quota exceeded",
}

// retryableSubstrings are treated as transient and always eligible for retry
// even before falling back to the "retry unknown errors" default.
var retryableSubstrings = []string{
	"context deadline exceeded",
	"connection refused",
	"timeout",
	"temporary failure",
	"rate limited",
	"upstream timeout",
	"upstream rate limit",
}

// IsRetryable decides whether an attempt's error should trigger another
// attempt, given the job has not yet exhausted maxRetries.
func IsRetryable(err error, attemptCount, maxRetries int) bool {
	if attemptCount >= maxRetries {
		return false
	}
	if err == nil {
		return true
	}
	if domain.IsRetryable(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	for _, s := range nonRetryableSubstrings {
		if strings.Contains(msg, s) {
			return false
		}
	}
	return true
}

// BackoffDelay computes the exponential-backoff-with-jitter delay before
// retry attempt number attempt (0-indexed), capped at cfg.RetryMaxDelay.
func BackoffDelay(cfg config.Config, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.RetryInitialDelay) * math.Pow(cfg.RetryMultiplier, float64(attempt)))
	if delay > cfg.RetryMaxDelay {
		delay = cfg.RetryMaxDelay
	}
	if cfg.RetryJitter {
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
		delay += jitter
	}
	return delay
}
