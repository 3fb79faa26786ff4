package domain

import "time"

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationRenovationUpdate NotificationType = "RENOVATION_UPDATE"
	NotificationNewMessage       NotificationType = "NEW_MESSAGE"
	NotificationAppointment      NotificationType = "APPOINTMENT"
	NotificationSystem           NotificationType = "SYSTEM"
)

// Notification is a single entry in the user's notification feed.
// The feed is ordered reverse-chronologically; pushed entries are prepended.
type Notification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Type      NotificationType  `json:"type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
