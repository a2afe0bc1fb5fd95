package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Publisher sends envelopes to a topic.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event CloudEvent) error
}

// Producer publishes CloudEvents to Kafka. Writes go through a circuit
// breaker so an unreachable broker fails fast instead of stalling requests.
type Producer struct {
	writer  *kafkago.Writer
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewProducer creates a Producer for the given brokers.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-producer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Producer{writer: writer, breaker: breaker, logger: logger}
}

// PublishEvent writes the envelope keyed by its subject, so events about one
// entity stay ordered on a partition.
func (p *Producer) PublishEvent(ctx context.Context, topic string, event CloudEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, kafkago.Message{
			Topic: topic,
			Key:   []byte(event.Subject),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "ce_type", Value: []byte(event.Type)},
			},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// PublishEvent implements Publisher.
func (NopPublisher) PublishEvent(context.Context, string, CloudEvent) error { return nil }
