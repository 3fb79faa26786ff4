package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

type notificationPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Type      string            `json:"type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type notificationListPayload struct {
	Notifications []notificationPayload `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

func toNotification(p notificationPayload) domain.Notification {
	return domain.Notification{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Type:      domain.NotificationType(p.Type),
		Metadata:  p.Metadata,
		IsRead:    p.IsRead,
		ReadAt:    p.ReadAt,
		CreatedAt: p.CreatedAt,
	}
}

// ListNotifications calls GET /notifications.
func (c *Client) ListNotifications(ctx context.Context) (*ports.NotificationList, error) {
	var payload notificationListPayload
	if err := c.do(ctx, http.MethodGet, "notifications_list", "/notifications", nil, &payload); err != nil {
		return nil, err
	}
	out := &ports.NotificationList{
		Notifications: make([]domain.Notification, 0, len(payload.Notifications)),
		UnreadCount:   payload.UnreadCount,
	}
	for _, p := range payload.Notifications {
		out.Notifications = append(out.Notifications, toNotification(p))
	}
	return out, nil
}

// MarkNotificationRead calls POST /notifications/:id/read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "notifications_read",
		"/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead calls POST /notifications/read-all.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "notifications_read_all", "/notifications/read-all", nil, nil)
}
