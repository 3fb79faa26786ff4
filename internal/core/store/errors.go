package store

import "errors"

// fallbackErrorMessage is shown when an error carries no message suitable for
// end users (transport failures, unexpected server errors).
const fallbackErrorMessage = "something went wrong, please try again"

// UserMessage normalizes an error for display: the carried user-facing
// message when the error (or any error it wraps) provides one, the fixed
// fallback otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallbackErrorMessage
}

// userFacingError is an error whose text is safe to show verbatim, such as
// input validation failures.
type userFacingError struct {
	msg string
}

func (e *userFacingError) Error() string       { return e.msg }
func (e *userFacingError) UserMessage() string { return e.msg }
