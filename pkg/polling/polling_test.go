package polling_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/precislabs/precis/pkg/polling"
)

func TestWaitStopsOnFirstSuccess(t *testing.T) {
	p := polling.Poller{Interval: time.Millisecond, MaxAttempts: 20}

	calls := 0
	value := "This program helps..."
	got, ok := p.Wait(context.Background(), func(ctx context.Context) (*string, error) {
		calls++
		if calls == 3 {
			return &value, nil
		}
		return nil, nil
	})

	if !ok {
		t.Fatal("expected success")
	}
	if got != value {
		t.Errorf("got %q, want %q", got, value)
	}
	if calls != 3 {
		t.Errorf("fetch calls = %d, want 3", calls)
	}
}

func TestWaitExhaustsSilently(t *testing.T) {
	p := polling.Poller{Interval: time.Millisecond, MaxAttempts: 20}

	calls := 0
	got, ok := p.Wait(context.Background(), func(ctx context.Context) (*string, error) {
		calls++
		return nil, nil
	})

	if ok {
		t.Fatal("expected exhaustion, got success")
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if calls != 20 {
		t.Errorf("fetch calls = %d, want 20", calls)
	}
}

func TestWaitIgnoresTransientFailures(t *testing.T) {
	p := polling.Poller{Interval: time.Millisecond, MaxAttempts: 10}

	calls := 0
	value := "summary"
	got, ok := p.Wait(context.Background(), func(ctx context.Context) (*string, error) {
		calls++
		if calls < 4 {
			return nil, errors.New("connection refused")
		}
		return &value, nil
	})

	if !ok || got != value {
		t.Fatalf("Wait = (%q, %v), want (%q, true)", got, ok, value)
	}
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	p := polling.Poller{Interval: time.Hour, MaxAttempts: 5}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	var ok bool
	go func() {
		_, ok = p.Wait(ctx, func(ctx context.Context) (*string, error) {
			return nil, nil
		})
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}

	if ok {
		t.Error("cancelled wait should not report success")
	}
}
