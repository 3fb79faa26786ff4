package api

import (
	"context"
	"net/http"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
	Phone     string `json:"phone"`
}

type authPayload struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func toUser(p userPayload) *domain.User {
	return &domain.User{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		Phone:     p.Phone,
	}
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	var payload authPayload
	err := c.do(ctx, http.MethodPost, "auth_login", "/auth/login",
		loginRequest{Email: in.Email, Password: in.Password}, &payload)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: payload.Token, User: toUser(payload.User)}, nil
}

// Register calls POST /auth/register.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	var payload authPayload
	err := c.do(ctx, http.MethodPost, "auth_register", "/auth/register",
		registerRequest{Name: in.Name, Email: in.Email, Password: in.Password, Phone: in.Phone}, &payload)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: payload.Token, User: toUser(payload.User)}, nil
}

// Me calls GET /auth/me and returns the user the server binds to the current
// bearer token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "auth_me", "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return toUser(payload), nil
}
