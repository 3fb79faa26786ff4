package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

type messagePayload struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type conversationPayload struct {
	Partner     userPayload     `json:"partner"`
	LastMessage *messagePayload `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}

type conversationListPayload struct {
	Conversations []conversationPayload `json:"conversations"`
}

type messageListPayload struct {
	Messages []messagePayload `json:"messages"`
}

type sendMessageRequest struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}

func toMessage(p messagePayload) domain.Message {
	return domain.Message{
		ID:        p.ID,
		ClientID:  p.ClientID,
		SenderID:  p.SenderID,
		Content:   p.Content,
		IsRead:    p.IsRead,
		CreatedAt: p.CreatedAt,
	}
}

// ListConversations calls GET /conversations.
func (c *Client) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	var payload conversationListPayload
	if err := c.do(ctx, http.MethodGet, "conversations_list", "/conversations", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.ConversationSummary, 0, len(payload.Conversations))
	for _, p := range payload.Conversations {
		summary := domain.ConversationSummary{
			Partner:     *toUser(p.Partner),
			UnreadCount: p.UnreadCount,
		}
		if p.LastMessage != nil {
			m := toMessage(*p.LastMessage)
			summary.LastMessage = &m
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListMessages calls GET /conversations/:partner/messages.
func (c *Client) ListMessages(ctx context.Context, partnerID string) ([]domain.Message, error) {
	var payload messageListPayload
	path := "/conversations/" + url.PathEscape(partnerID) + "/messages"
	if err := c.do(ctx, http.MethodGet, "messages_list", path, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(payload.Messages))
	for _, p := range payload.Messages {
		out = append(out, toMessage(p))
	}
	return out, nil
}

// SendMessage calls POST /conversations/:partner/messages and returns the
// server echo, which carries the client id of the optimistic entry.
func (c *Client) SendMessage(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	var payload messagePayload
	path := "/conversations/" + url.PathEscape(in.PartnerID) + "/messages"
	err := c.do(ctx, http.MethodPost, "messages_send", path,
		sendMessageRequest{Content: in.Content, ClientID: in.ClientID}, &payload)
	if err != nil {
		return nil, err
	}
	m := toMessage(payload)
	return &m, nil
}
