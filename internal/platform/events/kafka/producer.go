// Package kafka publishes JSON domain events to Kafka through a synchronous sarama producer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Producer sends events and waits for broker acknowledgement.
type Producer struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
}

// NewProducer dials the brokers with idempotent, all-replica acknowledged delivery.
func NewProducer(brokers []string, logger *slog.Logger) (*Producer, error) {
	brokers = cleanBrokers(brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	config := sarama.NewConfig()
	config.ClientID = "storefront-api"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewWithSyncProducer(producer, logger), nil
}

// NewWithSyncProducer wraps an existing producer, e.g. sarama mocks in tests.
func NewWithSyncProducer(producer sarama.SyncProducer, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{producer: producer, logger: logger.With(slog.String("component", "kafka-producer"))}
}

// Publish marshals the envelope and sends it keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, eventType, key string, payload any) error {
	body, err := json.Marshal(Envelope{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(body),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(eventType)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to send message to kafka",
			slog.String("topic", topic), slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("failed to send message: %w", err)
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "message sent to kafka",
		slog.String("topic", topic), slog.String("key", key),
		slog.Int("partition", int(partition)), slog.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

// ParseBrokers splits a comma separated KAFKA_BROKERS value.
func ParseBrokers(raw string) []string {
	return cleanBrokers(strings.Split(raw, ","))
}

func cleanBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
