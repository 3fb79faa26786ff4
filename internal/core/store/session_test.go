package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCredStore struct {
	creds   *ports.Credentials
	loadErr error
	saveErr error
	saves   []ports.Credentials
	deletes int
}

func (s *stubCredStore) Load(_ context.Context) (*ports.Credentials, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.creds == nil {
		return nil, domain.ErrNoCredentials
	}
	copy := *s.creds
	if s.creds.User != nil {
		u := *s.creds.User
		copy.User = &u
	}
	return &copy, nil
}

func (s *stubCredStore) Save(_ context.Context, creds *ports.Credentials) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, *creds)
	s.creds = creds
	return nil
}

func (s *stubCredStore) Delete(_ context.Context) error {
	s.deletes++
	s.creds = nil
	return nil
}

type stubAuthAPI struct {
	loginFn    func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	meFn       func(ctx context.Context) (*domain.User, error)
}

func (s *stubAuthAPI) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthAPI) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthAPI) Me(ctx context.Context) (*domain.User, error) {
	return s.meFn(ctx)
}

type stubCarrier struct {
	token  string
	sets   int
	clears int
	onSet  func(token string)
}

func (s *stubCarrier) SetToken(token string) {
	s.token = token
	s.sets++
	if s.onSet != nil {
		s.onSet(token)
	}
}

func (s *stubCarrier) ClearToken() {
	s.token = ""
	s.clears++
}

// rejectedError mimics the API client's 401 mapping.
func rejectedError(msg string) error {
	return fmt.Errorf("%s: %w", msg, domain.ErrUnauthorized)
}

func expiredJWT(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestSessionStore_Restore_ValidToken(t *testing.T) {
	cached := &domain.User{ID: "user_1", Email: "a@b.com", Name: "Cached Name", Role: domain.RoleCustomer}
	server := &domain.User{ID: "user_1", Email: "a@b.com", Name: "Server Name", Role: domain.RoleCustomer}
	creds := &stubCredStore{creds: &ports.Credentials{Token: "tok-1", User: cached}}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) { return server, nil }}
	carrier := &stubCarrier{}
	s := NewSessionStore(creds, api, carrier, zerolog.Nop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if !s.IsAuthenticated() {
		t.Fatalf("expected authenticated session")
	}
	if got := s.User(); got.Name != "Server Name" {
		t.Fatalf("expected server record to win, got name %q", got.Name)
	}
	if carrier.token != "tok-1" {
		t.Fatalf("expected bearer token on carrier, got %q", carrier.token)
	}
	if len(creds.saves) != 1 || creds.saves[0].User.Name != "Server Name" {
		t.Fatalf("expected confirmed user re-persisted, got %+v", creds.saves)
	}
}

func TestSessionStore_Restore_NoCredentials(t *testing.T) {
	creds := &stubCredStore{}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) {
		t.Fatalf("Me should not be called")
		return nil, nil
	}}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", s.State())
	}
	if s.IsAuthenticated() {
		t.Fatalf("expected not authenticated")
	}
}

func TestSessionStore_Restore_RejectedToken(t *testing.T) {
	creds := &stubCredStore{creds: &ports.Credentials{Token: "stale", User: &domain.User{ID: "u"}}}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) {
		return nil, rejectedError("invalid token")
	}}
	carrier := &stubCarrier{}
	s := NewSessionStore(creds, api, carrier, zerolog.Nop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if creds.deletes != 1 {
		t.Fatalf("expected stored credentials deleted, got %d deletes", creds.deletes)
	}
	if s.IsAuthenticated() {
		t.Fatalf("expected not authenticated")
	}
	if carrier.clears != 1 {
		t.Fatalf("expected carrier token cleared")
	}
}

func TestSessionStore_Restore_TransportErrorKeepsCredentials(t *testing.T) {
	creds := &stubCredStore{creds: &ports.Credentials{Token: "tok-1", User: &domain.User{ID: "u"}}}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if creds.deletes != 0 {
		t.Fatalf("transport failure must not delete credentials")
	}
	if creds.creds == nil || creds.creds.Token != "tok-1" {
		t.Fatalf("expected stored credentials kept")
	}
	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", s.State())
	}
}

func TestSessionStore_Restore_ExpiredTokenSkipsServer(t *testing.T) {
	creds := &stubCredStore{creds: &ports.Credentials{Token: expiredJWT(t), User: &domain.User{ID: "u"}}}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) {
		t.Fatalf("Me should not be called for a clearly expired token")
		return nil, nil
	}}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if creds.deletes != 1 {
		t.Fatalf("expected expired credentials deleted")
	}
	if s.IsAuthenticated() {
		t.Fatalf("expected not authenticated")
	}
}

func TestSessionStore_Restore_Twice(t *testing.T) {
	creds := &stubCredStore{}
	api := &stubAuthAPI{meFn: func(context.Context) (*domain.User, error) { return nil, nil }}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())

	_ = s.Restore(context.Background())
	if err := s.Restore(context.Background()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login / Register
// ---------------------------------------------------------------------------

func TestSessionStore_Login_Success(t *testing.T) {
	user := &domain.User{ID: "user_1", Email: "a@b.com", Name: "Alice", Role: domain.RoleCustomer}
	creds := &stubCredStore{}
	api := &stubAuthAPI{loginFn: func(_ context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
		if in.Email != "a@b.com" || in.Password != "superseekrit" {
			t.Fatalf("unexpected login input: %+v", in)
		}
		return &ports.AuthResult{Token: "abc", User: user}, nil
	}}
	carrier := &stubCarrier{}
	s := NewSessionStore(creds, api, carrier, zerolog.Nop())

	err := s.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "superseekrit"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	sess := s.Session()
	if !sess.Authenticated || sess.Token != "abc" || sess.User == nil || sess.User.Email != "a@b.com" {
		t.Fatalf("unexpected session snapshot: %+v", sess)
	}
	if len(creds.saves) != 1 || creds.saves[0].Token != "abc" {
		t.Fatalf("expected credentials persisted, got %+v", creds.saves)
	}
}

func TestSessionStore_Login_TokenUsableBeforeAuthenticated(t *testing.T) {
	user := &domain.User{ID: "user_1", Email: "a@b.com", Role: domain.RoleCustomer}
	creds := &stubCredStore{}
	api := &stubAuthAPI{loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
		return &ports.AuthResult{Token: "abc", User: user}, nil
	}}
	carrier := &stubCarrier{}
	s := NewSessionStore(creds, api, carrier, zerolog.Nop())

	carrier.onSet = func(string) {
		if s.IsAuthenticated() {
			t.Fatalf("session reported authenticated before the token was set on the carrier")
		}
		if len(creds.saves) != 1 {
			t.Fatalf("credentials must be persisted before the carrier token is set")
		}
	}

	if err := s.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "superseekrit"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if carrier.sets != 1 {
		t.Fatalf("expected carrier token set once, got %d", carrier.sets)
	}
}

func TestSessionStore_Login_InvalidCredentials(t *testing.T) {
	creds := &stubCredStore{}
	api := &stubAuthAPI{loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
		return nil, &userFacingError{msg: "invalid credentials"}
	}}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())

	err := s.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := UserMessage(err); got != "invalid credentials" {
		t.Fatalf("expected server message surfaced, got %q", got)
	}
	if s.IsAuthenticated() {
		t.Fatalf("state must be unchanged after a failed login")
	}
	if len(creds.saves) != 0 {
		t.Fatalf("nothing must be persisted on a failed login")
	}
}

func TestSessionStore_Login_ValidationRejectsBadInput(t *testing.T) {
	api := &stubAuthAPI{loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
		t.Fatalf("API must not be called for invalid input")
		return nil, nil
	}}
	s := NewSessionStore(&stubCredStore{}, api, &stubCarrier{}, zerolog.Nop())

	if err := s.Login(context.Background(), ports.LoginInput{Email: "not-an-email", Password: "x"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSessionStore_Register_Success(t *testing.T) {
	user := &domain.User{ID: "user_2", Email: "new@b.com", Name: "New User", Role: domain.RoleCustomer}
	api := &stubAuthAPI{registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
		if in.Email != "new@b.com" {
			t.Fatalf("unexpected register input: %+v", in)
		}
		return &ports.AuthResult{Token: "fresh", User: user}, nil
	}}
	s := NewSessionStore(&stubCredStore{}, api, &stubCarrier{}, zerolog.Nop())

	in := ports.RegisterInput{Name: "New User", Email: "new@b.com", Password: "longenough"}
	if err := s.Register(context.Background(), in); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !s.IsAuthenticated() || s.User().Role != domain.RoleCustomer {
		t.Fatalf("expected authenticated customer session")
	}
}

// ---------------------------------------------------------------------------
// Logout / UpdateUser
// ---------------------------------------------------------------------------

func TestSessionStore_Logout_AlwaysClears(t *testing.T) {
	user := &domain.User{ID: "user_1", Email: "a@b.com", Role: domain.RoleCustomer}
	creds := &stubCredStore{}
	api := &stubAuthAPI{loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
		return &ports.AuthResult{Token: "abc", User: user}, nil
	}}
	carrier := &stubCarrier{}
	s := NewSessionStore(creds, api, carrier, zerolog.Nop())

	_ = s.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "superseekrit"})
	s.Logout(context.Background())

	sess := s.Session()
	if sess.Authenticated || sess.Token != "" || sess.User != nil {
		t.Fatalf("expected cleared session, got %+v", sess)
	}
	if creds.deletes != 1 || carrier.clears != 1 {
		t.Fatalf("expected credentials deleted and carrier cleared")
	}

	// Logging out again, or from a fresh store, must not fail either.
	s.Logout(context.Background())
	fresh := NewSessionStore(&stubCredStore{}, api, &stubCarrier{}, zerolog.Nop())
	fresh.Logout(context.Background())
	if fresh.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", fresh.State())
	}
}

func TestSessionStore_UpdateUser_MergesAndPersists(t *testing.T) {
	user := &domain.User{ID: "user_1", Email: "a@b.com", Name: "Alice", Phone: "123456", Role: domain.RoleCustomer}
	creds := &stubCredStore{}
	api := &stubAuthAPI{loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
		return &ports.AuthResult{Token: "abc", User: user}, nil
	}}
	s := NewSessionStore(creds, api, &stubCarrier{}, zerolog.Nop())
	_ = s.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "superseekrit"})

	name := "Alice Renamed"
	if err := s.UpdateUser(context.Background(), domain.UserPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}

	got := s.User()
	if got.Name != "Alice Renamed" || got.Phone != "123456" {
		t.Fatalf("expected shallow merge, got %+v", got)
	}
	last := creds.saves[len(creds.saves)-1]
	if last.User.Name != "Alice Renamed" || last.Token != "abc" {
		t.Fatalf("expected merged record re-persisted, got %+v", last)
	}
}

func TestSessionStore_UpdateUser_NoUserIsNoop(t *testing.T) {
	creds := &stubCredStore{}
	s := NewSessionStore(creds, &stubAuthAPI{}, &stubCarrier{}, zerolog.Nop())

	name := "Nobody"
	if err := s.UpdateUser(context.Background(), domain.UserPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if len(creds.saves) != 0 {
		t.Fatalf("nothing must be persisted without a user")
	}
}

func TestUserMessage_Fallback(t *testing.T) {
	if got := UserMessage(errors.New("dial tcp: timeout")); got != fallbackErrorMessage {
		t.Fatalf("expected fallback message, got %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}
