package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/models"
	"go.uber.org/zap"
)

// Publisher is satisfied by *aws.SNSClient.
type Publisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

// SNSNotifier publishes storefront events (notifications that carry an
// Event name) to an SNS topic. Publish failures are logged and dropped.
type SNSNotifier struct {
	publisher Publisher
	topicARN  string
	timeout   time.Duration
}

func NewSNSNotifier(publisher Publisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{publisher: publisher, topicARN: topicARN, timeout: 3 * time.Second}
}

func (s *SNSNotifier) Notify(ctx context.Context, n models.Notification) {
	if n.Event == "" {
		return
	}

	payload := map[string]interface{}{
		"event_type": n.Event,
		"level":      n.Level,
		"message":    n.Message,
		"created_at": n.CreatedAt.Format(time.RFC3339),
	}
	if n.Description != "" {
		payload["description"] = n.Description
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		logger.Error(ctx, "failed to marshal storefront event", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, s.topicARN, n.Event, msg); err != nil {
		logger.Error(ctx, "failed to publish storefront event", err, zap.String("event", n.Event))
	}
}
