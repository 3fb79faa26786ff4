package api

import (
	"fmt"
	"net/http"

	"github.com/renvo/client-core/internal/core/domain"
)

// APIError is a response the server answered with a non-2xx status. Message
// is the server-provided {"error": "..."} text when present, else the status
// text. Transport failures (DNS, timeout, connection reset) are plain
// wrapped errors, never APIErrors, so callers can tell "server rejected"
// from "server unreachable".
type APIError struct {
	Status  int
	Message string
}

func newAPIError(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// UserMessage returns the text suitable for direct display.
func (e *APIError) UserMessage() string { return e.Message }

// Unwrap maps well-known statuses onto domain sentinels so core code can use
// errors.Is without importing this package.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusConflict:
		return domain.ErrUserExists
	default:
		return nil
	}
}
