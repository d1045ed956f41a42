package engine

import (
	"errors"
	"fmt"

	"github.com/precislabs/precis/internal/history"
)

// ClassifiedError attaches a failure classification to an activity error.
// Activities wrap their failures with Transient, PermanentInput, or
// PermanentTarget; unwrapped errors default to transient.
type ClassifiedError struct {
	Kind history.ErrorKind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Transient marks an error as retryable infrastructure failure.
func Transient(err error) error {
	return &ClassifiedError{Kind: history.KindTransient, Err: err}
}

// PermanentInput marks an error as an unrecoverable input problem.
func PermanentInput(err error) error {
	return &ClassifiedError{Kind: history.KindPermanentInput, Err: err}
}

// PermanentTarget marks an error as an unrecoverable delivery-target rejection.
func PermanentTarget(err error) error {
	return &ClassifiedError{Kind: history.KindPermanentTarget, Err: err}
}

// Classify returns the failure kind for an error. Unclassified errors are
// treated as transient: timeouts, throttling, and network failures reach the
// engine unwrapped and must stay retryable.
func Classify(err error) history.ErrorKind {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return history.KindTransient
}
