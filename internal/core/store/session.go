package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
	"github.com/renvo/client-core/internal/metrics"
)

// SessionStore owns the client's belief about who is logged in. It is the
// only writer of the user record and the bearer token; UI layers read
// snapshots and trigger actions.
//
// The mutex guards state only. Network and credential-store calls are made
// outside the lock, so concurrent actions may interleave; the last completed
// action wins, matching the single-owner, no-cancellation model of the
// product's clients.
type SessionStore struct {
	mu    sync.Mutex
	state domain.SessionState
	user  *domain.User
	token string

	creds   ports.CredentialStore
	api     ports.AuthAPI
	carrier ports.TokenCarrier
	log     zerolog.Logger
}

func NewSessionStore(creds ports.CredentialStore, api ports.AuthAPI, carrier ports.TokenCarrier, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		state:   domain.SessionUninitialized,
		creds:   creds,
		api:     api,
		carrier: carrier,
		log:     log,
	}
}

// Restore rebuilds the session from stored credentials at startup.
//
// A token the server rejects (401/403) is discarded along with the cached
// user. A transport or server failure keeps the stored credentials so a
// later restart can succeed, but the session still comes up unauthenticated;
// the failure is logged, not surfaced.
func (s *SessionStore) Restore(ctx context.Context) error {
	s.mu.Lock()
	if err := s.transition(domain.SessionRestoring); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	creds, err := s.creds.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoCredentials) {
			s.log.Warn().Err(err).Msg("credential store read failed")
		}
		s.settleUnauthenticated()
		return nil
	}
	if creds.Token == "" || tokenExpired(creds.Token, time.Now()) {
		s.log.Info().Msg("stored token missing or expired, discarding credentials")
		if err := s.creds.Delete(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete stale credentials")
		}
		s.settleUnauthenticated()
		return nil
	}

	// The token must be usable for the confirmation call itself.
	s.carrier.SetToken(creds.Token)

	user, err := s.api.Me(ctx)
	if err != nil {
		s.carrier.ClearToken()
		if errors.Is(err, domain.ErrUnauthorized) {
			s.log.Info().Msg("stored token rejected by server, discarding credentials")
			if delErr := s.creds.Delete(ctx); delErr != nil {
				s.log.Warn().Err(delErr).Msg("failed to delete rejected credentials")
			}
		} else {
			s.log.Warn().Err(err).Msg("session restore failed, keeping stored credentials")
		}
		s.settleUnauthenticated()
		return nil
	}

	// Server record wins over the cached copy; re-persist it.
	confirmed := *user
	if err := s.creds.Save(ctx, &ports.Credentials{Token: creds.Token, User: &confirmed}); err != nil {
		s.log.Warn().Err(err).Msg("failed to re-persist confirmed user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(domain.SessionAuthenticated); err != nil {
		return err
	}
	s.user = &confirmed
	s.token = creds.Token
	s.log.Info().Str("user_id", confirmed.ID).Str("role", confirmed.Role).Msg("session restored")
	return nil
}

// Login authenticates with email and password. On failure the session is
// left unchanged and the returned error carries the server's message when
// one was provided (see UserMessage).
func (s *SessionStore) Login(ctx context.Context, in ports.LoginInput) error {
	if err := validate.Validate(in); err != nil {
		return err
	}

	res, err := s.api.Login(ctx, in)
	if err != nil {
		s.log.Debug().Err(err).Str("email", in.Email).Msg("login failed")
		return fmt.Errorf("login: %w", err)
	}
	return s.completeAuth(ctx, res)
}

// Register creates a new customer account and signs it in.
func (s *SessionStore) Register(ctx context.Context, in ports.RegisterInput) error {
	if err := validate.Validate(in); err != nil {
		return err
	}

	res, err := s.api.Register(ctx, in)
	if err != nil {
		s.log.Debug().Err(err).Str("email", in.Email).Msg("registration failed")
		return fmt.Errorf("register: %w", err)
	}
	return s.completeAuth(ctx, res)
}

// completeAuth persists the fresh credentials and sets the bearer token on
// the HTTP client before flipping the session to authenticated, so a
// concurrent IsAuthenticated() == true always implies a usable token.
func (s *SessionStore) completeAuth(ctx context.Context, res *ports.AuthResult) error {
	if err := s.creds.Save(ctx, &ports.Credentials{Token: res.Token, User: res.User}); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist credentials")
	}
	s.carrier.SetToken(res.Token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionAuthenticated {
		if err := s.transition(domain.SessionAuthenticated); err != nil {
			return err
		}
	}
	u := *res.User
	s.user = &u
	s.token = res.Token
	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("signed in")
	return nil
}

// Logout clears stored credentials, the bearer token, and the in-memory
// session. It is unconditional and never fails; cleanup errors are logged.
func (s *SessionStore) Logout(ctx context.Context) {
	if err := s.creds.Delete(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete credentials on logout")
	}
	s.carrier.ClearToken()
	s.settleUnauthenticated()
	s.log.Info().Msg("signed out")
}

// ForceLogout is bound to the HTTP client's 401 hook: any authenticated call
// that the server rejects invalidates the whole session.
func (s *SessionStore) ForceLogout() {
	s.log.Info().Msg("session invalidated by server")
	s.Logout(context.Background())
}

// UpdateUser shallow-merges the patch into the current user and re-persists
// the merged record. It is a no-op without a signed-in user and never calls
// the server.
func (s *SessionStore) UpdateUser(ctx context.Context, patch domain.UserPatch) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil
	}
	merged := s.user.Merge(patch)
	s.user = &merged
	token := s.token
	s.mu.Unlock()

	if err := s.creds.Save(ctx, &ports.Credentials{Token: token, User: &merged}); err != nil {
		return fmt.Errorf("persist user update: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *SessionStore) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns a point-in-time snapshot.
func (s *SessionStore) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := domain.Session{
		Token:         s.token,
		Authenticated: s.state == domain.SessionAuthenticated,
		Loading:       s.state == domain.SessionUninitialized || s.state == domain.SessionRestoring,
	}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

// User returns a copy of the current user, or nil when signed out.
func (s *SessionStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.SessionAuthenticated && s.user != nil && s.token != ""
}

// transition moves the state machine. Caller must hold the mutex.
func (s *SessionStore) transition(next domain.SessionState) error {
	if !s.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.state, next)
	}
	metrics.SessionTransitionsTotal.WithLabelValues(string(s.state), string(next)).Inc()
	s.state = next
	return nil
}

// settleUnauthenticated drops the in-memory identity and lands the state
// machine in unauthenticated, from whichever state it is in.
func (s *SessionStore) settleUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	if s.state == domain.SessionUnauthenticated {
		return
	}
	if s.state.CanTransitionTo(domain.SessionUnauthenticated) {
		metrics.SessionTransitionsTotal.WithLabelValues(string(s.state), string(domain.SessionUnauthenticated)).Inc()
	}
	s.state = domain.SessionUnauthenticated
}

// tokenExpired reports whether the stored bearer token is a JWT whose expiry
// is clearly in the past. Opaque or claim-less tokens pass the screen; the
// server remains the authority either way.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
