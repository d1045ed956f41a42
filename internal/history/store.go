package history

import (
	"context"
	"errors"
	"net/http"
)

// Store errors.
var (
	// ErrNotFound indicates the requested instance does not exist.
	ErrNotFound = errors.New("workflow instance not found")
	// ErrInstanceExists indicates an instance with the same id was already
	// created (terminal or not). Redelivered upload events map to the same
	// deterministic id and land here.
	ErrInstanceExists = errors.New("workflow instance already exists")
	// ErrActiveInstance indicates another non-terminal instance already
	// exists for the same correlation key.
	ErrActiveInstance = errors.New("active workflow instance exists for correlation key")
)

// Store persists workflow instances and their append-only histories.
// Implementations must provide read-after-write consistency per instance:
// a Load following an Append on the same instance observes that event.
// Cross-instance consistency is not required.
type Store interface {
	// CreateInstance registers a new instance in Scheduled state.
	// Returns ErrInstanceExists if the id is taken, ErrActiveInstance if a
	// non-terminal instance exists for the same correlation key.
	CreateInstance(ctx context.Context, inst Instance) error

	// Instance returns a single instance by id. Returns ErrNotFound.
	Instance(ctx context.Context, id string) (*Instance, error)

	// ActiveInstances returns all non-terminal instances, for resume-on-start.
	ActiveInstances(ctx context.Context) ([]Instance, error)

	// SetState updates the denormalized instance state.
	SetState(ctx context.Context, id string, state State) error

	// Append persists an event at the next sequence number and returns it.
	// Returns ErrNotFound if the instance does not exist.
	Append(ctx context.Context, instanceID string, e Event) (int, error)

	// Load returns the instance's full history ordered by sequence number.
	Load(ctx context.Context, instanceID string) ([]Event, error)
}

// MapHTTPStatus maps history errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInstanceExists) || errors.Is(err, ErrActiveInstance) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
