package models

import "time"

// NotificationKind identifies a one-shot screen notification.
type NotificationKind string

const (
	NotificationShowError NotificationKind = "show_error"
)

// Notification is a transient message for whoever is watching a screen right
// now. It is never part of screen state.
type Notification struct {
	SessionID string           `json:"session_id,omitempty"`
	Screen    string           `json:"screen"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
