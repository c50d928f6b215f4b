package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialfeed/internal/models"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EventPublisher sends activity events to a broker. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// activityNotifier publishes events without ever failing the caller.
type activityNotifier struct {
	publisher EventPublisher
	log       *zap.Logger
}

func (n activityNotifier) notify(ctx context.Context, event models.ActivityEvent) {
	ActivityEventsTotal.WithLabelValues(event.Type).Inc()
	if n.publisher == nil {
		n.log.Debug("event publisher not configured, skipping", zap.String("event", event.Type))
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := n.publisher.Publish(ctx, event.Type, event); err != nil {
		n.log.Warn("failed to publish activity event", zap.String("event", event.Type), zap.Error(err))
	}
}

// ActivityLogHandler returns a consumer callback that records each activity
// event in the log. Malformed bodies are rejected so the broker can drop them.
func ActivityLogHandler(log *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event models.ActivityEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("decode activity event: %w", err)
		}
		if event.Type == "" {
			event.Type = msg.RoutingKey
		}
		log.Info("activity",
			zap.String("event", event.Type),
			zap.String("actor_id", event.ActorID),
			zap.String("target_id", event.TargetID),
			zap.String("post_id", event.PostID),
			zap.Time("occurred_at", event.OccurredAt))
		return nil
	}
}
