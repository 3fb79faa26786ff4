package ports

import (
	"context"

	"github.com/renvo/client-core/internal/core/domain"
)

// SessionStore is the client's session lifecycle: restore on startup, login
// and register, logout, local profile updates.
type SessionStore interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, in LoginInput) error
	Register(ctx context.Context, in RegisterInput) error
	Logout(ctx context.Context)
	UpdateUser(ctx context.Context, patch domain.UserPatch) error

	State() domain.SessionState
	Session() domain.Session
	User() *domain.User
	IsAuthenticated() bool
}

// NotificationStore holds the notification feed and its unread count.
type NotificationStore interface {
	Fetch(ctx context.Context) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Add(n domain.Notification)

	Notifications() []domain.Notification
	UnreadCount() int
	Loading() bool
}

// ConversationStore holds the conversation list and the messages of the
// currently selected partner.
type ConversationStore interface {
	FetchConversations(ctx context.Context) error
	Select(ctx context.Context, partnerID string) error
	Send(ctx context.Context, content string) (*domain.Message, error)
	Receive(partnerID string, msg domain.Message)

	Conversations() []domain.ConversationSummary
	Selected() string
	Messages() []domain.Message
}

// RenovationStore holds the property and renovation lists.
type RenovationStore interface {
	FetchProperties(ctx context.Context) error
	FetchRenovations(ctx context.Context) error
	AdvanceRenovation(ctx context.Context, id string, next domain.RenovationStatus) error

	Properties() []domain.Property
	Renovations() []domain.Renovation
}
