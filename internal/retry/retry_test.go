package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoWithRetryEventuallySucceeds(t *testing.T) {
	var seen []int
	err := DoWithRetry(context.Background(), 3, time.Millisecond, func(attempt int) error {
		seen = append(seen, attempt)
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(seen) != 3 || seen[2] != 2 {
		t.Fatalf("unexpected attempts %v", seen)
	}
}

func TestDoWithRetryStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("duplicate")
	calls := 0
	err := DoWithRetry(context.Background(), 5, time.Millisecond, func(int) error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Fatalf("expected one call returning sentinel, got %d calls, err %v", calls, err)
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		t.Fatal("permanent wrapper should be removed")
	}
}

func TestDoWithRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := DoWithRetry(context.Background(), 3, time.Millisecond, func(int) error {
		calls++
		return errors.New("still down")
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 failed calls, got %d, err %v", calls, err)
	}
}

func TestDoWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DoWithRetry(ctx, 3, time.Millisecond, func(int) error {
		t.Fatal("fn must not run after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
