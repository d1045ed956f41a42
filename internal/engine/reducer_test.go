package engine_test

import (
	"context"
	"testing"

	"github.com/precislabs/precis/internal/engine"
	"github.com/precislabs/precis/internal/history"
)

type namedActivity struct {
	name string
	fn   func(ctx context.Context, input string) (string, error)
}

func (a *namedActivity) Name() string { return a.name }

func (a *namedActivity) Execute(ctx context.Context, input string) (string, error) {
	return a.fn(ctx, input)
}

func stages() []engine.Stage {
	noop := func(_ context.Context, input string) (string, error) { return input, nil }
	return []engine.Stage{
		{Activity: &namedActivity{name: "extract", fn: noop}, State: history.StateExtracting},
		{Activity: &namedActivity{name: "summarize", fn: noop}, State: history.StateSummarizing},
		{Activity: &namedActivity{name: "deliver", fn: noop}, State: history.StateDelivering},
	}
}

func TestReduceEmptyHistory(t *testing.T) {
	p := engine.Reduce(stages(), nil)

	if p.State != history.StateScheduled {
		t.Errorf("expected scheduled state, got %s", p.State)
	}
	if p.NextIndex != 0 || p.Attempts != 0 {
		t.Errorf("expected zero progress, got index %d attempts %d", p.NextIndex, p.Attempts)
	}
}

func TestReduceAdvancesThroughStages(t *testing.T) {
	events := []history.Event{
		{Seq: 1, Type: history.EventInstanceScheduled, Input: "doc"},
		{Seq: 2, Type: history.EventActivityCompleted, Activity: "extract", Attempt: 1, Result: "text"},
	}

	p := engine.Reduce(stages(), events)

	if p.State != history.StateSummarizing {
		t.Errorf("expected summarizing state, got %s", p.State)
	}
	if p.NextIndex != 1 {
		t.Errorf("expected next index 1, got %d", p.NextIndex)
	}
	if p.NextInput != "text" {
		t.Errorf("expected recorded result as next input, got %q", p.NextInput)
	}
	if p.Attempts != 0 {
		t.Errorf("expected attempts reset after success, got %d", p.Attempts)
	}
}

func TestReduceCountsFailedAttempts(t *testing.T) {
	events := []history.Event{
		{Seq: 1, Type: history.EventInstanceScheduled, Input: "doc"},
		{Seq: 2, Type: history.EventActivityFailed, Activity: "extract", Attempt: 1, ErrorKind: history.KindTransient},
		{Seq: 3, Type: history.EventActivityFailed, Activity: "extract", Attempt: 2, ErrorKind: history.KindTransient},
	}

	p := engine.Reduce(stages(), events)

	if p.State != history.StateExtracting {
		t.Errorf("expected extracting state, got %s", p.State)
	}
	if p.NextIndex != 0 {
		t.Errorf("expected next index 0, got %d", p.NextIndex)
	}
	if p.Attempts != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", p.Attempts)
	}
	if p.NextInput != "doc" {
		t.Errorf("expected original input retained, got %q", p.NextInput)
	}
}

func TestReduceTerminalStates(t *testing.T) {
	tests := []struct {
		name     string
		event    history.EventType
		expected history.State
	}{
		{"completed", history.EventInstanceCompleted, history.StateCompleted},
		{"failed", history.EventInstanceFailed, history.StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []history.Event{
				{Seq: 1, Type: history.EventInstanceScheduled, Input: "doc"},
				{Seq: 2, Type: tt.event},
			}

			p := engine.Reduce(stages(), events)
			if p.State != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, p.State)
			}
			if !p.Terminal() {
				t.Error("expected terminal progress")
			}
		})
	}
}

func TestReduceIsDeterministic(t *testing.T) {
	events := []history.Event{
		{Seq: 1, Type: history.EventInstanceScheduled, Input: "doc"},
		{Seq: 2, Type: history.EventActivityFailed, Activity: "extract", Attempt: 1, ErrorKind: history.KindTransient},
		{Seq: 3, Type: history.EventActivityCompleted, Activity: "extract", Attempt: 2, Result: "text"},
		{Seq: 4, Type: history.EventActivityCompleted, Activity: "summarize", Attempt: 1, Result: "summary"},
	}

	first := engine.Reduce(stages(), events)
	for i := 0; i < 10; i++ {
		again := engine.Reduce(stages(), events)
		if again.State != first.State || again.NextIndex != first.NextIndex ||
			again.NextInput != first.NextInput || again.Attempts != first.Attempts {
			t.Fatalf("replay %d diverged: %+v vs %+v", i, again, first)
		}
	}

	if first.NextIndex != 2 || first.NextInput != "summary" {
		t.Errorf("unexpected progress: %+v", first)
	}
}
