package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
	"github.com/renvo/client-core/internal/metrics"
)

// NotificationStore holds the notification feed in reverse-chronological
// order together with its unread count. The unread count is mutated in the
// same critical section as any read-state change so the two cannot drift.
//
// Read mutations are optimistic: the local flip happens before the server
// call and is rolled back when the call fails. A later Fetch always replaces
// local optimism with the server's view.
type NotificationStore struct {
	mu      sync.Mutex
	items   []domain.Notification
	unread  int
	loading bool

	api ports.NotificationAPI
	log zerolog.Logger
}

func NewNotificationStore(api ports.NotificationAPI, log zerolog.Logger) *NotificationStore {
	return &NotificationStore{api: api, log: log}
}

// Fetch replaces the feed and unread count with the server's view. On
// failure the prior state is kept and the error is logged and returned for
// the caller to surface or drop.
func (s *NotificationStore) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	list, err := s.api.ListNotifications(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification fetch failed, keeping stale feed")
		return fmt.Errorf("fetch notifications: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items[:0:0], list.Notifications...)
	s.unread = list.UnreadCount
	metrics.NotificationsUnread.Set(float64(s.unread))
	return nil
}

// MarkRead flips a single notification to read. Unknown or already-read ids
// are no-ops; the unread count never goes below zero.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.items[idx].IsRead {
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	s.items[idx].IsRead = true
	s.items[idx].ReadAt = &now
	if s.unread > 0 {
		s.unread--
	}
	metrics.NotificationsUnread.Set(float64(s.unread))
	s.mu.Unlock()

	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		s.rollbackRead([]string{id})
		s.log.Warn().Err(err).Str("notification_id", id).Msg("mark read rejected, rolled back")
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread notification and zeroes the unread count.
// On server failure exactly the locally flipped set is rolled back.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	now := time.Now().UTC()
	var flipped []string
	for i := range s.items {
		if s.items[i].IsRead {
			continue
		}
		s.items[i].IsRead = true
		s.items[i].ReadAt = &now
		flipped = append(flipped, s.items[i].ID)
	}
	s.unread = 0
	metrics.NotificationsUnread.Set(0)
	s.mu.Unlock()

	if len(flipped) == 0 {
		return nil
	}
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		s.rollbackRead(flipped)
		s.log.Warn().Err(err).Int("count", len(flipped)).Msg("mark all read rejected, rolled back")
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Add prepends an externally pushed notification to the feed.
func (s *NotificationStore) Add(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Notification{n}, s.items...)
	if !n.IsRead {
		s.unread++
	}
	metrics.NotificationsUnread.Set(float64(s.unread))
}

// Notifications returns a copy of the feed.
func (s *NotificationStore) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.items[:0:0], s.items...)
}

func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *NotificationStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// rollbackRead reverts an optimistic read flip for the given ids. Records
// that disappeared in the meantime (a racing Fetch replaced the feed) are
// skipped; the server view then already won.
func (s *NotificationStore) rollbackRead(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		idx := s.indexOf(id)
		if idx < 0 || !s.items[idx].IsRead {
			continue
		}
		s.items[idx].IsRead = false
		s.items[idx].ReadAt = nil
		s.unread++
	}
	metrics.NotificationsUnread.Set(float64(s.unread))
}

// indexOf returns the position of the notification with the given id, or -1.
// Caller must hold the mutex.
func (s *NotificationStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *NotificationStore) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
