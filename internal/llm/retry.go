package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

// RetryPolicy controls how providers respond to transient failures.
// The zero value is normalized to the defaults.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the standard policy: three attempts with
// exponential backoff from 500ms, capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	return p
}

// Backoff returns the delay before the given zero-based retry attempt,
// doubling each time and clamped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 0 {
		return 0
	}
	if attempt > 30 {
		return p.MaxDelay
	}
	d := p.BaseDelay * time.Duration(1<<attempt)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// ShouldRetry reports whether an error is worth retrying: rate limits,
// server-side failures, and network timeouts. Context cancellation is
// never retried.
func (p RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// APIError is a non-2xx response from a provider API, normalized across
// backends.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "llm: api error <nil>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("llm: %s: api error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("llm: %s: api error (status %d): %s", e.Provider, e.StatusCode, msg)
}

// Retryable reports whether the status code indicates a transient
// condition.
func (e *APIError) Retryable() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500 && e.StatusCode <= 599
}

// completeWithRetry runs fn under the policy, sleeping between retryable
// failures.
func completeWithRetry(ctx context.Context, policy RetryPolicy, fn func() (*Response, error)) (*Response, error) {
	policy = policy.normalized()
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !policy.ShouldRetry(err) || attempt == policy.MaxAttempts-1 {
			return nil, err
		}
		if err := sleepWithContext(ctx, policy.Backoff(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
