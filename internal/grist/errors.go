package grist

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a filter query matches no records.
var ErrNotFound = errors.New("record not found")

// APIError reports a non-success response from the Grist records API.
// Body is truncated, it exists for server-side logging only and must never
// be forwarded to clients.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grist api error: status %d", e.StatusCode)
}
