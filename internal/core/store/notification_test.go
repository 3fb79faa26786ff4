package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

type stubNotificationAPI struct {
	listFn    func(ctx context.Context) (*ports.NotificationList, error)
	markFn    func(ctx context.Context, id string) error
	markAllFn func(ctx context.Context) error

	marked     []string
	markedAll  int
	markedFail error
}

func (s *stubNotificationAPI) ListNotifications(ctx context.Context) (*ports.NotificationList, error) {
	return s.listFn(ctx)
}

func (s *stubNotificationAPI) MarkNotificationRead(ctx context.Context, id string) error {
	if s.markFn != nil {
		return s.markFn(ctx, id)
	}
	if s.markedFail != nil {
		return s.markedFail
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubNotificationAPI) MarkAllNotificationsRead(ctx context.Context) error {
	if s.markAllFn != nil {
		return s.markAllFn(ctx)
	}
	if s.markedFail != nil {
		return s.markedFail
	}
	s.markedAll++
	return nil
}

func feed(unreadIDs, readIDs []string) *ports.NotificationList {
	list := &ports.NotificationList{UnreadCount: len(unreadIDs)}
	now := time.Now().UTC()
	for _, id := range unreadIDs {
		list.Notifications = append(list.Notifications, domain.Notification{
			ID: id, Title: "t-" + id, Type: domain.NotificationSystem, CreatedAt: now,
		})
	}
	for _, id := range readIDs {
		readAt := now
		list.Notifications = append(list.Notifications, domain.Notification{
			ID: id, Title: "t-" + id, Type: domain.NotificationSystem, IsRead: true, ReadAt: &readAt, CreatedAt: now,
		})
	}
	return list
}

func TestNotificationStore_Fetch_ReplacesState(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed([]string{"n1", "n2"}, []string{"n3"}), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got := len(s.Notifications()); got != 3 {
		t.Fatalf("expected 3 notifications, got %d", got)
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", s.UnreadCount())
	}
	if s.Loading() {
		t.Fatalf("loading must be false after fetch")
	}
}

func TestNotificationStore_Fetch_ErrorKeepsState(t *testing.T) {
	calls := 0
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		calls++
		if calls == 1 {
			return feed([]string{"n1"}, nil), nil
		}
		return nil, errors.New("server exploded")
	}}
	s := NewNotificationStore(api, zerolog.Nop())

	_ = s.Fetch(context.Background())
	if err := s.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(s.Notifications()) != 1 || s.UnreadCount() != 1 {
		t.Fatalf("failed fetch must leave prior state untouched")
	}
}

func TestNotificationStore_MarkRead_Optimistic(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed([]string{"n1", "n2"}, nil), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}
	if s.UnreadCount() != 1 {
		t.Fatalf("expected 1 unread, got %d", s.UnreadCount())
	}
	items := s.Notifications()
	if !items[0].IsRead || items[0].ReadAt == nil {
		t.Fatalf("expected n1 flipped to read, got %+v", items[0])
	}
	if len(api.marked) != 1 || api.marked[0] != "n1" {
		t.Fatalf("expected server call for n1, got %v", api.marked)
	}
}

func TestNotificationStore_MarkRead_Idempotent(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed(nil, []string{"n1"}), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	for i := 0; i < 3; i++ {
		if err := s.MarkRead(context.Background(), "n1"); err != nil {
			t.Fatalf("MarkRead returned error: %v", err)
		}
	}
	if s.UnreadCount() != 0 {
		t.Fatalf("unread count must never go negative, got %d", s.UnreadCount())
	}
	if len(api.marked) != 0 {
		t.Fatalf("already-read records must not hit the server, got %v", api.marked)
	}
}

func TestNotificationStore_MarkRead_UnknownID(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed([]string{"n1"}, nil), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkRead(context.Background(), "ghost"); err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
	if s.UnreadCount() != 1 {
		t.Fatalf("unread count must be unchanged")
	}
}

func TestNotificationStore_MarkRead_RollbackOnFailure(t *testing.T) {
	api := &stubNotificationAPI{
		listFn: func(context.Context) (*ports.NotificationList, error) {
			return feed([]string{"n1"}, nil), nil
		},
		markFn: func(context.Context, string) error { return errors.New("rejected") },
	}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatalf("expected error")
	}
	items := s.Notifications()
	if items[0].IsRead || items[0].ReadAt != nil {
		t.Fatalf("expected rollback of optimistic flip, got %+v", items[0])
	}
	if s.UnreadCount() != 1 {
		t.Fatalf("expected unread restored to 1, got %d", s.UnreadCount())
	}
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed([]string{"n1", "n2", "n3"}, []string{"n4"}), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}
	if s.UnreadCount() != 0 {
		t.Fatalf("expected 0 unread, got %d", s.UnreadCount())
	}
	for _, n := range s.Notifications() {
		if !n.IsRead {
			t.Fatalf("expected every record read, %s is not", n.ID)
		}
	}
	if api.markedAll != 1 {
		t.Fatalf("expected one server call, got %d", api.markedAll)
	}
}

func TestNotificationStore_MarkAllRead_NothingUnread(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed(nil, []string{"n1"}), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}
	if api.markedAll != 0 {
		t.Fatalf("no server call expected when nothing is unread")
	}
}

func TestNotificationStore_MarkAllRead_RollbackOnFailure(t *testing.T) {
	api := &stubNotificationAPI{
		listFn: func(context.Context) (*ports.NotificationList, error) {
			return feed([]string{"n1", "n2"}, []string{"n3"}), nil
		},
		markAllFn: func(context.Context) error { return errors.New("rejected") },
	}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	if err := s.MarkAllRead(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("expected unread restored to 2, got %d", s.UnreadCount())
	}
	read := 0
	for _, n := range s.Notifications() {
		if n.IsRead {
			read++
		}
	}
	if read != 1 {
		t.Fatalf("only the originally read record may stay read, got %d", read)
	}
}

func TestNotificationStore_FetchReplacesLocalOptimism(t *testing.T) {
	calls := 0
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		calls++
		if calls == 1 {
			return feed([]string{"n1", "n2"}, nil), nil
		}
		// The server still reports n2 unread after our mark-all.
		return feed([]string{"n2"}, []string{"n1"}), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())
	_ = s.MarkAllRead(context.Background())

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if s.UnreadCount() != 1 {
		t.Fatalf("fetch must replace local optimism, expected 1 unread, got %d", s.UnreadCount())
	}
}

func TestNotificationStore_Add(t *testing.T) {
	api := &stubNotificationAPI{listFn: func(context.Context) (*ports.NotificationList, error) {
		return feed([]string{"n1"}, nil), nil
	}}
	s := NewNotificationStore(api, zerolog.Nop())
	_ = s.Fetch(context.Background())

	s.Add(domain.Notification{ID: "pushed", Title: "Pushed", Type: domain.NotificationNewMessage, CreatedAt: time.Now().UTC()})
	items := s.Notifications()
	if items[0].ID != "pushed" {
		t.Fatalf("pushed notification must be prepended, got %s first", items[0].ID)
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", s.UnreadCount())
	}

	readAt := time.Now().UTC()
	s.Add(domain.Notification{ID: "seen", IsRead: true, ReadAt: &readAt, CreatedAt: readAt})
	if s.UnreadCount() != 2 {
		t.Fatalf("read records must not bump the unread count, got %d", s.UnreadCount())
	}
}
