package domain

import "errors"

// SessionState represents the lifecycle state of the client session.
type SessionState string

const (
	SessionUninitialized   SessionState = "uninitialized"
	SessionRestoring       SessionState = "restoring"
	SessionAuthenticated   SessionState = "authenticated"
	SessionUnauthenticated SessionState = "unauthenticated"
)

// validSessionTransitions defines the allowed state machine transitions.
// Login straight from uninitialized is allowed so callers are not forced to
// run a restore pass first.
var validSessionTransitions = map[SessionState][]SessionState{
	SessionUninitialized:   {SessionRestoring, SessionAuthenticated, SessionUnauthenticated},
	SessionRestoring:       {SessionAuthenticated, SessionUnauthenticated},
	SessionUnauthenticated: {SessionAuthenticated},
	SessionAuthenticated:   {SessionUnauthenticated},
}

var ErrInvalidTransition = errors.New("invalid state transition")
var ErrUnauthorized = errors.New("unauthorized")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrNoCredentials = errors.New("no stored credentials")
var ErrUserExists = errors.New("user already exists")

// CanTransitionTo reports whether a transition from the current state to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is a point-in-time snapshot of the session store.
// Authenticated is true iff both User and Token are present and the token was
// last confirmed valid or freshly issued.
type Session struct {
	User          *User  `json:"user,omitempty"`
	Token         string `json:"token,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Loading       bool   `json:"loading"`
}
