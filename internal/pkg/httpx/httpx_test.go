package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableHTTPStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 400: false, 401: false, 404: false, 409: false,
		408: true, 429: true, 500: true, 503: true,
	} {
		if got := IsRetryableHTTPStatus(code); got != want {
			t.Fatalf("status %d: got %v want %v", code, got, want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatal("nil is not retryable")
	}
	if IsRetryableError(context.Canceled) {
		t.Fatal("cancelled context must not be retried")
	}
	if !IsRetryableError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Fatal("deadline should be retryable")
	}
	if !IsRetryableError(fmt.Errorf("call: %w", statusErr(503))) {
		t.Fatal("503 should be retryable")
	}
	if IsRetryableError(statusErr(404)) || IsRetryableError(errors.New("boom")) {
		t.Fatal("unexpected retryable error")
	}
}

func TestIdempotentMethod(t *testing.T) {
	if !IdempotentMethod("get") || IdempotentMethod(http.MethodPost) {
		t.Fatal("unexpected idempotency classification")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := RetryAfterDuration(resp, time.Second, 0); got != time.Second {
		t.Fatalf("fallback: got %v", got)
	}
	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, time.Second, 5*time.Second); got != 5*time.Second {
		t.Fatalf("capped: got %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("nil response: got %v", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := JitterSleep(time.Second)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", got)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatal("zero base should not sleep")
	}
}
