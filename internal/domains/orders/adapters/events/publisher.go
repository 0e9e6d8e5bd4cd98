// Package events delivers order events to Kafka or to the application log.
package events

import (
	"context"
	"io"
	"log/slog"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

// Producer is the subset of the platform Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic, eventType, key string, payload any) error
}

// KafkaPublisher writes events to one topic keyed by order number.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	return p.producer.Publish(ctx, p.topic, event.EventName(), event.AggregateKey(), event)
}

// LogPublisher records events as structured log lines when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.LogAttrs(ctx, slog.LevelInfo, "order event",
		slog.String("event", event.EventName()),
		slog.String("key", event.AggregateKey()),
		slog.Time("occurredAt", event.OccurredAt()))
	return nil
}

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = (*LogPublisher)(nil)
)
