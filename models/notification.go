package models

import "time"

type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a user-visible message raised by a store operation.
type Notification struct {
	Level       NotificationLevel `json:"level"`
	Message     string            `json:"message"`
	Description string            `json:"description,omitempty"`
	Event       string            `json:"event,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
