package ports

import (
	"context"

	"github.com/renvo/client-core/internal/core/domain"
)

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterInput carries the data needed to create an account. New accounts
// are registered with the customer role; staff accounts are provisioned
// server-side.
type RegisterInput struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Phone    string `validate:"omitempty,min=6"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string
	User  *domain.User
}

// SendMessageInput carries an outgoing chat message. ClientID is generated
// locally and echoed back by the server.
type SendMessageInput struct {
	PartnerID string `validate:"required"`
	Content   string `validate:"required,max=4000"`
	ClientID  string `validate:"required"`
}

// NotificationList is the server's view of the notification feed.
type NotificationList struct {
	Notifications []domain.Notification
	UnreadCount   int
}

// TokenCarrier is implemented by the HTTP client: the session store sets the
// bearer token here before it marks the session authenticated.
type TokenCarrier interface {
	SetToken(token string)
	ClearToken()
}

// AuthAPI covers the authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	// Me returns the server-confirmed user for the current bearer token.
	Me(ctx context.Context) (*domain.User, error)
}

// NotificationAPI covers the notification endpoints.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) (*NotificationList, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// ConversationAPI covers the messaging endpoints.
type ConversationAPI interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	ListMessages(ctx context.Context, partnerID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error)
}

// RenovationAPI covers the property and renovation endpoints.
type RenovationAPI interface {
	ListProperties(ctx context.Context) ([]domain.Property, error)
	ListRenovations(ctx context.Context) ([]domain.Renovation, error)
	UpdateRenovationStatus(ctx context.Context, id string, status domain.RenovationStatus) (*domain.Renovation, error)
}
