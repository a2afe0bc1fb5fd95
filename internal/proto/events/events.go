// Package events holds the topics, event types and payloads this service
// exchanges over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicPropertyEvents = "stay.property.events"
	TopicBookingEvents  = "stay.booking.events"
	TopicPaymentEvents  = "stay.payment.events"
	TopicReviewEvents   = "stay.review.events"

	// TopicPaymentGateway carries settlement outcomes reported by the
	// external payment gateway.
	TopicPaymentGateway = "payment.gateway.events"
)

// Event types.
const (
	PropertyCreated       = "stay.property.created"
	PropertyDeleted       = "stay.property.deleted"
	PropertyRatingUpdated = "stay.property.rating_updated"

	BookingCreated       = "stay.booking.created"
	BookingStatusChanged = "stay.booking.status_changed"

	PaymentSettled = "stay.payment.settled"
	PaymentFailed  = "stay.payment.failed"

	ReviewPosted = "stay.review.posted"

	GatewayPaymentSucceeded = "payment.gateway.succeeded"
	GatewayPaymentFailed    = "payment.gateway.failed"
)

type PropertyCreatedEvent struct {
	PropertyID    int64     `json:"property_id"`
	HostID        uuid.UUID `json:"host_id"`
	PropertyType  string    `json:"property_type"`
	Location      string    `json:"location"`
	PricePerNight int64     `json:"price_per_night"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type PropertyDeletedEvent struct {
	PropertyID int64     `json:"property_id"`
	HostID     uuid.UUID `json:"host_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PropertyRatingUpdatedEvent struct {
	PropertyID  int64     `json:"property_id"`
	Rating      string    `json:"rating"`
	ReviewCount int       `json:"review_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	PropertyID   int64     `json:"property_id"`
	GuestID      uuid.UUID `json:"guest_id"`
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	Guests       int       `json:"guests"`
	TotalPrice   int64     `json:"total_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is emitted whenever status or payment status moves.
type BookingStatusChangedEvent struct {
	BookingID             int64     `json:"booking_id"`
	PropertyID            int64     `json:"property_id"`
	GuestID               uuid.UUID `json:"guest_id"`
	PreviousStatus        string    `json:"previous_status"`
	Status                string    `json:"status"`
	PreviousPaymentStatus string    `json:"previous_payment_status"`
	PaymentStatus         string    `json:"payment_status"`
	OccurredAt            time.Time `json:"occurred_at"`
}

type PaymentSettledEvent struct {
	PaymentID     int64     `json:"payment_id"`
	BookingID     int64     `json:"booking_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type PaymentFailedEvent struct {
	PaymentID  int64     `json:"payment_id"`
	BookingID  int64     `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReviewPostedEvent struct {
	ReviewID   int64     `json:"review_id"`
	PropertyID int64     `json:"property_id"`
	BookingID  int64     `json:"booking_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

// GatewayOutcomeEvent is the payload of GatewayPaymentSucceeded and
// GatewayPaymentFailed.
type GatewayOutcomeEvent struct {
	PaymentID     int64     `json:"payment_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
