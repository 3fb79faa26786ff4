package domain

import "time"

// Message is a single chat message between the current user and one partner.
// ClientID is assigned locally before the send and echoed back by the server,
// which lets a refetch be reconciled against optimistic entries. Pending is
// true while the message has not been confirmed by the server.
type Message struct {
	ID        string    `json:"id,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	Pending   bool      `json:"-"`
}

// ConversationSummary is one row of the conversation list, keyed by partner.
// It has no identity beyond the current fetch.
type ConversationSummary struct {
	Partner     User     `json:"partner"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}
