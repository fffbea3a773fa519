package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestDo_SuccessFirstTry(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Options{InitialDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Fatalf("result = %d, want 42", result)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesOn429(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Options{InitialDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: http.StatusTooManyRequests}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("result = %q, want ok", result)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Options{InitialDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusNotFound}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_NoRetryOnPlainError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Options{InitialDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("parse failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Options{MaxRetries: 3, InitialDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusInternalServerError}
	})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 status error", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4 (initial + 3 retries)", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, Options{InitialDelay: time.Hour}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusServiceUnavailable}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryable_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("fetch token pairs: %w", &StatusError{StatusCode: http.StatusBadGateway})
	if !Retryable(wrapped) {
		t.Fatal("wrapped 502 should be retryable")
	}
	plain := fmt.Errorf("fetch token pairs: %w", &StatusError{StatusCode: http.StatusBadRequest})
	if Retryable(plain) {
		t.Fatal("wrapped 400 should not be retryable")
	}
}
