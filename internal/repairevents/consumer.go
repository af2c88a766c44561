package repairevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/dedupe"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/metrics"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/rabbitmq"

	"go.uber.org/zap"
)

// Binding subscribes to every repair event, at any depth below repair.
var Binding = rabbitmq.Binding{
	Exchange:        rabbitmq.ExchangeName,
	Queue:           "repair_events_queue",
	Pattern:         "repair.#",
	Durable:         true,
	DeadLetterQueue: "repair_events_queue.dlq",
}

// Consumer handles repair events.
type Consumer struct {
	Logger *zap.Logger
	Dedupe dedupe.Store
}

// NewConsumer creates a new repair events consumer.
func NewConsumer(logger *zap.Logger, store dedupe.Store) *Consumer {
	if store == nil {
		store = dedupe.Nop{}
	}
	return &Consumer{Logger: logger, Dedupe: store}
}

// HandleEvent records a repair event. Events qualified as urgent
// (e.g. repair.opened.urgent) are logged at warn level.
func (c *Consumer) HandleEvent(ctx context.Context, event models.DomainEvent) error {
	duplicate, err := dedupe.Once(ctx, c.Dedupe, Binding.Queue, event.MessageID, func() error {
		return c.record(event)
	})
	if errors.Is(err, dedupe.ErrStore) {
		c.Logger.Warn("dedupe store unavailable, processing without it",
			zap.Error(err), zap.String("message_id", event.MessageID))
		return c.record(event)
	}
	if errors.Is(err, dedupe.ErrNotRecorded) {
		c.Logger.Warn("repair event processed but not recorded for dedupe",
			zap.Error(err), zap.String("message_id", event.MessageID))
		return nil
	}
	if duplicate {
		metrics.ConsumerDuplicates.WithLabelValues(Binding.Queue).Inc()
		c.Logger.Info("duplicate repair event ignored",
			zap.String("routing_key", event.RoutingKey), zap.String("message_id", event.MessageID))
	}
	return err
}

func (c *Consumer) record(event models.DomainEvent) error {
	var data any
	if err := json.Unmarshal(event.Payload, &data); err != nil {
		return fmt.Errorf("decode repair event payload: %w", err)
	}

	qualifiers := event.Qualifiers()
	fields := []zap.Field{
		zap.String("routing_key", event.RoutingKey),
		zap.String("action", event.Action()),
		zap.Strings("qualifiers", qualifiers),
		zap.Any("data", data),
		zap.String("message_id", event.MessageID),
		zap.String("correlation_id", event.CorrelationID),
		zap.Bool("redelivered", event.Redelivered),
	}

	if slices.Contains(qualifiers, "urgent") {
		c.Logger.Warn("urgent repair event", fields...)
		return nil
	}
	c.Logger.Info("repair event", fields...)
	return nil
}
