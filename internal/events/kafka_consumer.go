package events

import (
	"context"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	paymentSuccess = "success"
	paymentFailed  = "failed"
)

// PaymentUpdater is the part of the payment service the consumer drives.
type PaymentUpdater interface {
	UpdatePayment(ctx context.Context, paymentID int64, req application.UpdatePaymentRequest) (*application.PaymentDTO, error)
}

// GatewayEventConsumer listens to payment gateway outcomes and settles or
// fails the matching payment.
type GatewayEventConsumer struct {
	consumer *kafka.Consumer
	payments PaymentUpdater
	logger   *zap.Logger
}

// NewGatewayEventConsumer creates a new GatewayEventConsumer.
func NewGatewayEventConsumer(
	brokers []string,
	groupID string,
	payments PaymentUpdater,
	logger *zap.Logger,
) *GatewayEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentGateway, logger)
	return &GatewayEventConsumer{
		consumer: consumer,
		payments: payments,
		logger:   logger,
	}
}

// Start begins consuming gateway events. This blocks until the context is cancelled.
func (c *GatewayEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *GatewayEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *GatewayEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from gateway topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.GatewayPaymentSucceeded:
		return c.handleOutcome(ctx, cloudEvent, paymentSuccess)
	case events.GatewayPaymentFailed:
		return c.handleOutcome(ctx, cloudEvent, paymentFailed)
	default:
		c.logger.Debug("ignoring unhandled gateway event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *GatewayEventConsumer) handleOutcome(ctx context.Context, cloudEvent kafka.CloudEvent, status string) error {
	var evt events.GatewayOutcomeEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse GatewayOutcomeEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	req := application.UpdatePaymentRequest{Status: &status}
	if status == paymentSuccess && evt.TransactionID != "" {
		txn := evt.TransactionID
		req.TransactionID = &txn
	}

	c.logger.Info("processing gateway outcome",
		zap.Int64("payment_id", evt.PaymentID),
		zap.String("status", status),
		zap.String("reason", evt.Reason),
	)

	if _, err := c.payments.UpdatePayment(ctx, evt.PaymentID, req); err != nil {
		// Redelivery cannot fix a missing payment or a rejected patch.
		if _, ok := domain.KindOf(err); ok {
			c.logger.Warn("dropping gateway outcome",
				zap.Int64("payment_id", evt.PaymentID),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply gateway outcome",
			zap.Int64("payment_id", evt.PaymentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
