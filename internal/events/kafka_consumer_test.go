package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	paymentDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/store/memory"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type updateCall struct {
	paymentID int64
	req       application.UpdatePaymentRequest
}

type fakePayments struct {
	calls []updateCall
	err   error
}

func (f *fakePayments) UpdatePayment(_ context.Context, paymentID int64, req application.UpdatePaymentRequest) (*application.PaymentDTO, error) {
	f.calls = append(f.calls, updateCall{paymentID: paymentID, req: req})
	if f.err != nil {
		return nil, f.err
	}
	return &application.PaymentDTO{ID: paymentID}, nil
}

func gatewayMessage(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("payment-gateway", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicPaymentGateway, Value: raw}
}

func newTestConsumer(payments PaymentUpdater) *GatewayEventConsumer {
	return &GatewayEventConsumer{payments: payments, logger: zap.NewNop()}
}

func TestHandleMessage_Succeeded(t *testing.T) {
	fake := &fakePayments{}
	c := newTestConsumer(fake)

	msg := gatewayMessage(t, events.GatewayPaymentSucceeded, events.GatewayOutcomeEvent{PaymentID: 7, TransactionID: "GW-1"})
	require.NoError(t, c.handleMessage(context.Background(), msg))

	require.Len(t, fake.calls, 1)
	assert.Equal(t, int64(7), fake.calls[0].paymentID)
	assert.Equal(t, "success", *fake.calls[0].req.Status)
	assert.Equal(t, "GW-1", *fake.calls[0].req.TransactionID)
}

func TestHandleMessage_Failed(t *testing.T) {
	fake := &fakePayments{}
	c := newTestConsumer(fake)

	msg := gatewayMessage(t, events.GatewayPaymentFailed, events.GatewayOutcomeEvent{PaymentID: 3, TransactionID: "GW-2", Reason: "card declined"})
	require.NoError(t, c.handleMessage(context.Background(), msg))

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "failed", *fake.calls[0].req.Status)
	assert.Nil(t, fake.calls[0].req.TransactionID)
}

func TestHandleMessage_IgnoresOtherTypesAndGarbage(t *testing.T) {
	fake := &fakePayments{}
	c := newTestConsumer(fake)

	assert.NoError(t, c.handleMessage(context.Background(), gatewayMessage(t, "payment.gateway.refunded", map[string]int{"payment_id": 1})))
	assert.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.handleMessage(context.Background(), gatewayMessage(t, events.GatewayPaymentSucceeded, "oops")))
	assert.Empty(t, fake.calls)
}

func TestHandleMessage_RetryOnlyUnexpectedErrors(t *testing.T) {
	msg := gatewayMessage(t, events.GatewayPaymentSucceeded, events.GatewayOutcomeEvent{PaymentID: 9})

	dropped := newTestConsumer(&fakePayments{err: paymentDomain.NotFoundError(9)})
	assert.NoError(t, dropped.handleMessage(context.Background(), msg))

	retried := newTestConsumer(&fakePayments{err: errors.New("connection reset")})
	assert.Error(t, retried.handleMessage(context.Background(), msg))
}

func TestHandleMessage_LateFailureOnSettledPaymentIsDropped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	log := zap.NewNop()
	pub := kafka.NopPublisher{}
	props := application.NewPropertyService(store, false, pub, log)
	bookings := application.NewBookingService(store, bookingDomain.OverlapPolicy{}, pub, log)
	payments := application.NewPaymentService(store, pub, log)

	prop, err := props.CreateProperty(ctx, uuid.New(), application.CreatePropertyRequest{Title: "Hut", PricePerNight: 1000})
	require.NoError(t, err)
	bk, err := bookings.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		PropertyID:   prop.ID,
		CheckInDate:  application.MustParseDate("2024-07-01"),
		CheckOutDate: application.MustParseDate("2024-07-03"),
		TotalPrice:   2000,
	})
	require.NoError(t, err)
	pay, err := payments.CreatePayment(ctx, application.CreatePaymentRequest{BookingID: bk.ID, Method: "card"})
	require.NoError(t, err)

	c := newTestConsumer(payments)
	msg := gatewayMessage(t, events.GatewayPaymentFailed, events.GatewayOutcomeEvent{PaymentID: pay.ID, Reason: "timeout"})
	require.NoError(t, c.handleMessage(ctx, msg))

	got, err := payments.GetPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)

	gotBooking, err := bookings.GetBooking(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", gotBooking.Status)
	assert.Equal(t, "paid", gotBooking.PaymentStatus)
}
