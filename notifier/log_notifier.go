package notifier

import (
	"context"

	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/models"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n models.Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("event", n.Event),
	}
	if n.Description != "" {
		fields = append(fields, zap.String("description", n.Description))
	}
	switch n.Level {
	case models.LevelError, models.LevelWarning:
		logger.Warn(ctx, n.Message, fields...)
	default:
		logger.Info(ctx, n.Message, fields...)
	}
}
