package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

var ErrNoConversationSelected = errors.New("no conversation selected")

// ConversationStore holds the conversation list and the message timeline of
// the currently selected partner. Sends are optimistic: a pending entry
// tagged with a locally generated client id is appended immediately and
// later replaced by the server echo carrying the same client id. A refetch
// drops pending entries the server already knows about, so an echo plus a
// full refetch never produces a duplicate.
type ConversationStore struct {
	mu            sync.Mutex
	conversations []domain.ConversationSummary
	selected      string
	messages      []domain.Message

	api ports.ConversationAPI
	log zerolog.Logger
}

func NewConversationStore(api ports.ConversationAPI, log zerolog.Logger) *ConversationStore {
	return &ConversationStore{api: api, log: log}
}

// FetchConversations replaces the conversation list with the server's view.
// On failure the prior list is kept.
func (s *ConversationStore) FetchConversations(ctx context.Context) error {
	list, err := s.api.ListConversations(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("conversation fetch failed, keeping stale list")
		return fmt.Errorf("fetch conversations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append(list[:0:0], list...)
	return nil
}

// Select makes partnerID the active conversation and fetches its messages.
// Re-selecting the current partner keeps unconfirmed pending sends across
// the refetch; switching partners discards them.
func (s *ConversationStore) Select(ctx context.Context, partnerID string) error {
	s.mu.Lock()
	var pending []domain.Message
	if s.selected == partnerID {
		for _, m := range s.messages {
			if m.Pending {
				pending = append(pending, m)
			}
		}
	}
	s.selected = partnerID
	s.messages = nil
	s.mu.Unlock()

	msgs, err := s.api.ListMessages(ctx, partnerID)
	if err != nil {
		s.log.Warn().Err(err).Str("partner_id", partnerID).Msg("message fetch failed")
		return fmt.Errorf("fetch messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != partnerID {
		// A later Select raced this fetch; its result wins.
		return nil
	}
	s.messages = reconcile(msgs, pending)
	return nil
}

// Send appends an optimistic pending message and issues the server call. On
// success the pending entry is replaced by the server echo and the
// conversation summary updated; on failure the pending entry is removed and
// the error returned.
func (s *ConversationStore) Send(ctx context.Context, content string) (*domain.Message, error) {
	s.mu.Lock()
	partnerID := s.selected
	s.mu.Unlock()
	if partnerID == "" {
		return nil, ErrNoConversationSelected
	}

	in := ports.SendMessageInput{
		PartnerID: partnerID,
		Content:   content,
		ClientID:  uuid.NewString(),
	}
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	pending := domain.Message{
		ClientID:  in.ClientID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Pending:   true,
	}
	s.mu.Lock()
	if s.selected == partnerID {
		s.messages = append(s.messages, pending)
	}
	s.mu.Unlock()

	echo, err := s.api.SendMessage(ctx, in)
	if err != nil {
		s.removePending(in.ClientID)
		s.log.Warn().Err(err).Str("partner_id", partnerID).Msg("send failed, pending message dropped")
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == partnerID {
		replaced := false
		for i := range s.messages {
			if s.messages[i].ClientID == in.ClientID {
				s.messages[i] = *echo
				replaced = true
				break
			}
		}
		if !replaced {
			s.messages = append(s.messages, *echo)
		}
	}
	s.touchSummary(partnerID, *echo, 0)
	return echo, nil
}

// Receive applies an externally pushed incoming message. Messages for the
// selected partner land in the timeline; everything else bumps the unread
// count on the matching conversation summary.
func (s *ConversationStore) Receive(partnerID string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partnerID == s.selected && s.selected != "" {
		for _, m := range s.messages {
			if msg.ID != "" && m.ID == msg.ID {
				return
			}
		}
		s.messages = append(s.messages, msg)
		s.touchSummary(partnerID, msg, 0)
		return
	}
	s.touchSummary(partnerID, msg, 1)
}

// Conversations returns a copy of the conversation list.
func (s *ConversationStore) Conversations() []domain.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.conversations[:0:0], s.conversations...)
}

// Selected returns the active partner id, empty when none is selected.
func (s *ConversationStore) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Messages returns a copy of the active timeline.
func (s *ConversationStore) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.messages[:0:0], s.messages...)
}

func (s *ConversationStore) removePending(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ClientID == clientID && s.messages[i].Pending {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// touchSummary updates the summary row for partnerID with the newest message
// and an unread delta, creating the row when the partner is not listed yet.
// Caller must hold the mutex.
func (s *ConversationStore) touchSummary(partnerID string, msg domain.Message, unreadDelta int) {
	for i := range s.conversations {
		if s.conversations[i].Partner.ID == partnerID {
			m := msg
			s.conversations[i].LastMessage = &m
			s.conversations[i].UnreadCount += unreadDelta
			return
		}
	}
	m := msg
	s.conversations = append([]domain.ConversationSummary{{
		Partner:     domain.User{ID: partnerID},
		LastMessage: &m,
		UnreadCount: unreadDelta,
	}}, s.conversations...)
}

// reconcile merges the server's message list with still-pending optimistic
// entries: a pending message whose client id appears in the server list is
// confirmed and dropped, the rest are re-appended.
func reconcile(server, pending []domain.Message) []domain.Message {
	confirmed := make(map[string]struct{}, len(server))
	for _, m := range server {
		if m.ClientID != "" {
			confirmed[m.ClientID] = struct{}{}
		}
	}
	out := append(server[:0:0], server...)
	for _, p := range pending {
		if _, ok := confirmed[p.ClientID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
