package queuestore

import (
	"context"
	"errors"
	"testing"
)

func TestRetryCallSucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{BaseInterval: 0, MaxAttempts: 3}

	attempts := 0
	got, err := RetryCall(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryCall: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q, want %q", got, "ok")
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want 3", attempts)
	}
}

func TestRetryCallExhaustsAndSurfacesError(t *testing.T) {
	cfg := RetryConfig{BaseInterval: 0, MaxAttempts: 2}
	wantErr := errors.New("persistent failure")

	attempts := 0
	_, err := RetryCall(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		return "", wantErr
	})
	if err == nil {
		t.Fatal("expected an error on exhaustion")
	}
	if attempts != 2 {
		t.Fatalf("got %d attempts, want 2 (MaxAttempts)", attempts)
	}
}
