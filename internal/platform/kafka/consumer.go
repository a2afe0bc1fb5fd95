package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. A returned error makes the consumer
// retry the same message with backoff; the offset is committed only after
// the handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the subset of *kafkago.Reader the consumer drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewConsumer creates a Consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: logger, newBackOff: defaultBackOff}
}

// defaultBackOff retries forever, capped at 30s between attempts.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Consume blocks, feeding messages to handler until ctx is cancelled or the
// reader is closed. Messages are handled strictly in order: a failing message
// is retried until it succeeds, so a later commit never skips it.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	fetchBackOff := backoff.WithContext(c.newBackOff(), ctx)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return context.Canceled
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			wait := fetchBackOff.NextBackOff()
			c.logger.Error("failed to fetch message", zap.Duration("retry_in", wait), zap.Error(err))
			if wait == backoff.Stop || !sleep(ctx, wait) {
				return context.Canceled
			}
			continue
		}
		fetchBackOff.Reset()

		if err := c.handle(ctx, msg, handler); err != nil {
			return context.Canceled
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// handle runs handler on msg until it succeeds. It only fails once ctx is done.
func (c *Consumer) handle(ctx context.Context, msg kafkago.Message, handler MessageHandler) error {
	op := func() error {
		return handler(ctx, msg)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Error("message handler failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
