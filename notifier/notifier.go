package notifier

import (
	"context"
	"time"

	"github.com/yashrajoria/materials-storefront/models"
)

// Notifier receives user-visible notifications raised by store operations.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n models.Notification)

func (f Func) Notify(ctx context.Context, n models.Notification) { f(ctx, n) }

// Multi fans a notification out to every non-nil notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Nop discards notifications.
var Nop Notifier = Func(func(context.Context, models.Notification) {})

// New builds a notification stamped with the current time.
func New(level models.NotificationLevel, event, message string) models.Notification {
	return models.Notification{
		Level:     level,
		Message:   message,
		Event:     event,
		CreatedAt: time.Now().UTC(),
	}
}

func Success(event, message string) models.Notification {
	return New(models.LevelSuccess, event, message)
}

func Info(event, message string) models.Notification {
	return New(models.LevelInfo, event, message)
}

func Warning(event, message, description string) models.Notification {
	n := New(models.LevelWarning, event, message)
	n.Description = description
	return n
}

func Error(event, message string) models.Notification {
	return New(models.LevelError, event, message)
}
