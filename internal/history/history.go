// Package history implements the durable, append-only event log that records
// workflow instance progress. An instance's history is the single source of
// truth: replaying it from empty deterministically reproduces the instance's
// state, which is what allows the hosting process to be restarted mid-pipeline
// and resume without re-running recorded work.
package history

import "time"

// State is the lifecycle state of a workflow instance.
type State string

// Instance states. Completed and Failed are terminal.
const (
	StateScheduled   State = "scheduled"
	StateExtracting  State = "extracting"
	StateSummarizing State = "summarizing"
	StateDelivering  State = "delivering"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// EventType identifies what a history event records.
type EventType string

// Event types. Activity events carry the activity name and attempt number;
// instance events mark scheduling and terminal transitions.
const (
	EventInstanceScheduled EventType = "instance_scheduled"
	EventActivityCompleted EventType = "activity_completed"
	EventActivityFailed    EventType = "activity_failed"
	EventInstanceCompleted EventType = "instance_completed"
	EventInstanceFailed    EventType = "instance_failed"
)

// ErrorKind classifies a recorded failure.
type ErrorKind string

// Failure classifications. Transient failures are retried within the policy
// budget; permanent failures terminate the instance immediately.
const (
	KindTransient       ErrorKind = "transient"
	KindPermanentInput  ErrorKind = "permanent_input"
	KindPermanentTarget ErrorKind = "permanent_target"
)

// Permanent reports whether the kind terminates the instance without retry.
func (k ErrorKind) Permanent() bool {
	return k == KindPermanentInput || k == KindPermanentTarget
}

// Event is a single immutable history record. Seq is assigned by the store on
// append and is strictly increasing per instance. Once written an event is
// never modified.
type Event struct {
	Seq        int       `json:"seq"`
	Type       EventType `json:"type"`
	Activity   string    `json:"activity,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	Input      string    `json:"input,omitempty"`
	Result     string    `json:"result,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Instance is a single execution of the pipeline for one business entity.
// CorrelationKey is the business identifier (the program id); at most one
// non-terminal instance may exist per correlation key at any time.
type Instance struct {
	ID             string    `json:"id"`
	CorrelationKey string    `json:"correlation_key"`
	State          State     `json:"state"`
	Input          string    `json:"input"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
