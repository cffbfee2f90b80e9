package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_BackoffDoublesAndClamps(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 400 * time.Millisecond}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 0},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{40, 400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Fatalf("Backoff(%d): got %v want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryPolicy_ZeroValueNormalizes(t *testing.T) {
	var p RetryPolicy
	if got := p.Backoff(0); got != 500*time.Millisecond {
		t.Fatalf("Backoff(0): got %v want %v", got, 500*time.Millisecond)
	}
	if got := p.Backoff(10); got != 8*time.Second {
		t.Fatalf("Backoff(10): got %v want %v", got, 8*time.Second)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := DefaultRetryPolicy()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate_limited", &APIError{Provider: "claude", StatusCode: 429}, true},
		{"server_error", &APIError{Provider: "openai", StatusCode: 503}, true},
		{"bad_request", &APIError{Provider: "claude", StatusCode: 400}, false},
		{"unauthorized", &APIError{Provider: "claude", StatusCode: 401}, false},
		{"net_timeout", timeoutErr{}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := p.ShouldRetry(tc.err); got != tc.want {
			t.Fatalf("ShouldRetry(%s): got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Provider: "claude", StatusCode: 429, Message: "slow down"}
	want := "llm: claude: api error (status 429): slow down"
	if got := err.Error(); got != want {
		t.Fatalf("Error: got %q want %q", got, want)
	}

	bare := &APIError{Provider: "openai", StatusCode: 500}
	if got := bare.Error(); got != "llm: openai: api error (status 500)" {
		t.Fatalf("Error: got %q", got)
	}
}

func TestCompleteWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	resp, err := completeWithRetry(context.Background(), policy, func() (*Response, error) {
		calls++
		if calls < 3 {
			return nil, &APIError{Provider: "claude", StatusCode: 529}
		}
		return &Response{Text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("completeWithRetry: %v", err)
	}
	if resp.Text != "ok" {
		t.Fatalf("Text: got %q", resp.Text)
	}
	if calls != 3 {
		t.Fatalf("calls: got %d want %d", calls, 3)
	}
}

func TestCompleteWithRetry_StopsOnPermanentError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	_, err := completeWithRetry(context.Background(), policy, func() (*Response, error) {
		calls++
		return nil, &APIError{Provider: "claude", StatusCode: 400, Message: "bad request"}
	})
	if err == nil {
		t.Fatalf("completeWithRetry: expected error")
	}
	if calls != 1 {
		t.Fatalf("calls: got %d want %d", calls, 1)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Fatalf("error: got %v", err)
	}
}

func TestCompleteWithRetry_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	_, err := completeWithRetry(context.Background(), policy, func() (*Response, error) {
		calls++
		return nil, &APIError{Provider: "openai", StatusCode: 503}
	})
	if err == nil {
		t.Fatalf("completeWithRetry: expected error")
	}
	if calls != 3 {
		t.Fatalf("calls: got %d want %d", calls, 3)
	}
}

func TestCompleteWithRetry_CanceledContextStopsSleep(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := completeWithRetry(ctx, policy, func() (*Response, error) {
		calls++
		return nil, &APIError{Provider: "claude", StatusCode: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls: got %d want %d", calls, 1)
	}
}

func TestSleepWithContext_ZeroDuration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, 0); err != nil {
		t.Fatalf("sleepWithContext: %v", err)
	}
}
