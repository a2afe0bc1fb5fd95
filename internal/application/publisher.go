package application

import (
	"context"
	"strconv"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"go.uber.org/zap"
)

const eventSource = "service-stay"

// eventPublisher wraps a Publisher for the services. Events are published
// after the unit of work commits; failures are logged and never returned.
type eventPublisher struct {
	producer kafka.Publisher
	logger   *zap.Logger
}

func (p eventPublisher) publishEvent(ctx context.Context, topic, eventType, subject string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := p.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func propertySubject(id int64) string { return "property/" + strconv.FormatInt(id, 10) }

func bookingSubject(id int64) string { return "booking/" + strconv.FormatInt(id, 10) }

func paymentSubject(id int64) string { return "payment/" + strconv.FormatInt(id, 10) }
