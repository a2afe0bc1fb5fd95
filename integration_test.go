//go:build integration

package main_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	paymentDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	reviewDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgres_StayLifecycle runs a full stay against the migrated schema:
// listing, booking with a conflict, payment, completion and review.
func TestPostgres_StayLifecycle(t *testing.T) {
	infra := setupPostgres(t)
	defer infra.Cleanup()

	stack := setupStayStack(t, infra.DB, nil, bookingDomain.OverlapPolicy{})
	defer stack.CleanupProducer()
	ctx := context.Background()
	host, guest := uuid.New(), uuid.New()

	prop, err := stack.Properties.CreateProperty(ctx, host, application.CreatePropertyRequest{
		Title:         "Sea View Villa",
		PropertyType:  "villa",
		Location:      "North Goa",
		PricePerNight: 4500,
		MaxGuests:     6,
		Amenities:     []string{"wifi", "pool"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "pool"}, prop.Amenities)

	listed, err := stack.Properties.ListProperties(ctx, application.PropertyFilter{Location: "goa", MaxGuests: 4})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	bk, err := stack.Bookings.CreateBooking(ctx, guest, bookingRequest(prop.ID, "2024-06-10", "2024-06-15"))
	require.NoError(t, err)

	_, err = stack.Bookings.CreateBooking(ctx, uuid.New(), bookingRequest(prop.ID, "2024-06-12", "2024-06-20"))
	assert.ErrorIs(t, err, bookingDomain.ErrDateConflict)

	_, err = stack.Bookings.CreateBooking(ctx, uuid.New(), bookingRequest(prop.ID, "2024-06-15", "2024-06-20"))
	require.NoError(t, err)

	pay, err := stack.Payments.CreatePayment(ctx, application.CreatePaymentRequest{BookingID: bk.ID, Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, "success", pay.Status)

	_, err = stack.Payments.CreatePayment(ctx, application.CreatePaymentRequest{BookingID: bk.ID, Method: "upi"})
	assert.ErrorIs(t, err, paymentDomain.ErrDuplicatePayment)

	_, err = stack.Reviews.CreateReview(ctx, guest, application.CreateReviewRequest{BookingID: bk.ID, Rating: 5})
	assert.ErrorIs(t, err, reviewDomain.ErrStayNotCompleted)

	_, err = stack.Bookings.CompleteBooking(ctx, host, bk.ID)
	require.NoError(t, err)

	_, err = stack.Reviews.CreateReview(ctx, guest, application.CreateReviewRequest{BookingID: bk.ID, Rating: 4, Comment: "Great"})
	require.NoError(t, err)

	_, err = stack.Reviews.CreateReview(ctx, guest, application.CreateReviewRequest{BookingID: bk.ID, Rating: 1})
	assert.ErrorIs(t, err, reviewDomain.ErrAlreadyReviewed)

	got, err := stack.Properties.GetProperty(ctx, prop.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, "4.00", *got.Rating)

	stats, err := stack.Bookings.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
}

// TestPostgres_ConcurrentBookingsOneWins checks the property row lock
// serializes overlapping requests across connections.
func TestPostgres_ConcurrentBookingsOneWins(t *testing.T) {
	infra := setupPostgres(t)
	defer infra.Cleanup()

	stack := setupStayStack(t, infra.DB, nil, bookingDomain.OverlapPolicy{})
	ctx := context.Background()

	prop, err := stack.Properties.CreateProperty(ctx, uuid.New(), application.CreatePropertyRequest{Title: "Loft", PricePerNight: 3000})
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stack.Bookings.CreateBooking(ctx, uuid.New(), bookingRequest(prop.ID, "2024-07-01", "2024-07-05"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, bookingDomain.ErrDateConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

// TestPostgres_RollbackOnFailure verifies a failed unit of work leaves no rows behind.
func TestPostgres_RollbackOnFailure(t *testing.T) {
	infra := setupPostgres(t)
	defer infra.Cleanup()

	stack := setupStayStack(t, infra.DB, nil, bookingDomain.OverlapPolicy{})
	ctx := context.Background()

	prop, err := stack.Properties.CreateProperty(ctx, uuid.New(), application.CreatePropertyRequest{Title: "Hut", PricePerNight: 1000})
	require.NoError(t, err)
	bk, err := stack.Bookings.CreateBooking(ctx, uuid.New(), bookingRequest(prop.ID, "2024-07-01", "2024-07-05"))
	require.NoError(t, err)

	err = stack.Transactor.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		pay, err := paymentDomain.NewPayment(bk.ID, 9000, "", "card", "")
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, pay); err != nil {
			return err
		}
		return bookingDomain.ErrNotPayable
	})
	require.ErrorIs(t, err, bookingDomain.ErrNotPayable)

	_, err = stack.Payments.GetPaymentByBooking(ctx, bk.ID)
	assert.ErrorIs(t, err, paymentDomain.ErrPaymentNotFound)
}

// TestGatewaySucceeded_SettlesPayment verifies that a gateway success event on
// payment.gateway.events settles a pending payment and marks its booking paid.
func TestGatewaySucceeded_SettlesPayment(t *testing.T) {
	infra := setupPostgres(t)
	defer infra.Cleanup()
	brokers, stopKafka := setupKafka(t)
	defer stopKafka()

	stack := setupStayStack(t, infra.DB, brokers, bookingDomain.OverlapPolicy{})
	defer stack.CleanupProducer()
	ctx := context.Background()

	prop, err := stack.Properties.CreateProperty(ctx, uuid.New(), application.CreatePropertyRequest{Title: "Cabin", PricePerNight: 2500})
	require.NoError(t, err)
	bk, err := stack.Bookings.CreateBooking(ctx, uuid.New(), bookingRequest(prop.ID, "2024-07-01", "2024-07-05"))
	require.NoError(t, err)

	// Seed a pending payment, as a redirect-based gateway would leave it.
	pay, err := paymentDomain.NewPayment(bk.ID, bk.TotalPrice, "INR", "card", "")
	require.NoError(t, err)
	require.NoError(t, stack.Transactor.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Payments().Save(ctx, pay)
	}))

	consumer := newGatewayConsumer(brokers, stack.Payments)
	defer func() { _ = consumer.Close() }()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = consumer.Start(consumerCtx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, brokers, events.TopicPaymentGateway, "payment-gateway", events.GatewayPaymentSucceeded,
		events.GatewayOutcomeEvent{PaymentID: pay.ID, TransactionID: "GW-20240701", OccurredAt: time.Now().UTC()})

	model := waitForPaymentStatus(t, infra.DB, bk.ID, "paid", 15*time.Second)
	assert.Equal(t, "confirmed", model.Status)

	settled, err := stack.Payments.GetPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", settled.Status)
	require.NotNil(t, settled.TransactionID)
	assert.Equal(t, "GW-20240701", *settled.TransactionID)

	ce := consumeOneEvent(t, brokers, events.TopicPaymentEvents, events.PaymentSettled, 15*time.Second)
	var evt events.PaymentSettledEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, pay.ID, evt.PaymentID)
	assert.Equal(t, bk.ID, evt.BookingID)
	assert.Equal(t, "payment/"+strconv.FormatInt(pay.ID, 10), ce.Subject)
}
