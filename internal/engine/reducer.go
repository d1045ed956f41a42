package engine

import "github.com/precislabs/precis/internal/history"

// Progress is the reconstructed position of an instance within its pipeline.
// It is derived purely from recorded history: re-reducing the same events
// always yields the same Progress.
type Progress struct {
	// State is the instance state implied by the history.
	State history.State
	// NextIndex is the index of the next stage to execute. Equal to the
	// stage count when every activity has a recorded success.
	NextIndex int
	// NextInput is the input for the next stage: the instance input for the
	// first stage, otherwise the previous stage's recorded result.
	NextInput string
	// Attempts is the number of failed attempts already recorded for the
	// next stage. Attempts survive restarts and count against the budget.
	Attempts int
	// Results holds the recorded results of completed stages, in order.
	Results []string
}

// Terminal reports whether the instance has reached a terminal state.
func (p Progress) Terminal() bool {
	return p.State.Terminal()
}

// Reduce folds an instance's history into its current Progress. It is a pure
// function: no clocks, no randomness, no I/O. stages is the ordered list of
// stage definitions the instance executes.
func Reduce(stages []Stage, events []history.Event) Progress {
	p := Progress{
		State:   history.StateScheduled,
		Results: make([]string, 0, len(stages)),
	}

	for _, e := range events {
		switch e.Type {
		case history.EventInstanceScheduled:
			p.NextInput = e.Input
			if len(stages) > 0 {
				p.State = stages[0].State
			}
		case history.EventActivityCompleted:
			p.Results = append(p.Results, e.Result)
			p.NextIndex++
			p.NextInput = e.Result
			p.Attempts = 0
			if p.NextIndex < len(stages) {
				p.State = stages[p.NextIndex].State
			}
		case history.EventActivityFailed:
			p.Attempts++
		case history.EventInstanceCompleted:
			p.State = history.StateCompleted
		case history.EventInstanceFailed:
			p.State = history.StateFailed
		}
	}

	return p
}
