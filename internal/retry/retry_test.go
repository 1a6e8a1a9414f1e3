package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randomtoy/chess-academy-backend/internal/retry"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, Backoff: time.Millisecond}

	calls := 0
	err := retry.Do(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 2, Backoff: time.Millisecond}
	boom := errors.New("boom")

	calls := 0
	err := retry.Do(context.Background(), policy, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want the last error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{}, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.Policy{MaxAttempts: 100, Backoff: 10 * time.Millisecond}

	calls := 0
	err := retry.Do(ctx, policy, func(context.Context) error {
		calls++
		cancel()
		return errors.New("keep going")
	})
	if err == nil {
		t.Fatal("want an error after cancellation")
	}
	if calls > 2 {
		t.Fatalf("cancellation must stop retries, got %d calls", calls)
	}
}
