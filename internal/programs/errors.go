package programs

import (
	"errors"
	"net/http"
)

// Domain errors for program operations.
var (
	ErrNotFound       = errors.New("program not found")
	ErrDuplicate      = errors.New("program already exists")
	ErrInvalidSummary = errors.New("summary is empty or exceeds the maximum length")
)

// MapHTTPStatus maps program domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidSummary) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
