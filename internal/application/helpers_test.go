package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type publishedEvent struct {
	topic string
	event kafka.CloudEvent
}

// recordingPublisher keeps every published event; fail makes it return an error.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event.Type
	}
	return out
}

type testEnv struct {
	store     *memory.Store
	publisher *recordingPublisher
	props     *PropertyService
	bookings  *BookingService
	payments  *PaymentService
	reviews   *ReviewService
}

type envOptions struct {
	ignoreCancelled         bool
	blockDeleteWithBookings bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	log := zap.NewNop()
	return &testEnv{
		store:     store,
		publisher: pub,
		props:     NewPropertyService(store, opts.blockDeleteWithBookings, pub, log),
		bookings:  NewBookingService(store, bookingDomain.OverlapPolicy{IgnoreCancelled: opts.ignoreCancelled}, pub, log),
		payments:  NewPaymentService(store, pub, log),
		reviews:   NewReviewService(store, pub, log),
	}
}

func (e *testEnv) createProperty(t *testing.T, host uuid.UUID, req CreatePropertyRequest) *PropertyDTO {
	t.Helper()
	if req.Title == "" {
		req.Title = "Sea View Villa"
	}
	if req.PricePerNight == 0 {
		req.PricePerNight = 4500
	}
	p, err := e.props.CreateProperty(context.Background(), host, req)
	require.NoError(t, err)
	return p
}

func (e *testEnv) book(t *testing.T, guest uuid.UUID, propertyID int64, in, out string) *BookingDTO {
	t.Helper()
	b, err := e.bookings.CreateBooking(context.Background(), guest, bookingRequest(propertyID, in, out))
	require.NoError(t, err)
	return b
}

// completedStay books, pays and completes a stay, returning the booking.
func (e *testEnv) completedStay(t *testing.T, host, guest uuid.UUID, propertyID int64, in, out string) *BookingDTO {
	t.Helper()
	ctx := context.Background()
	b := e.book(t, guest, propertyID, in, out)
	_, err := e.payments.CreatePayment(ctx, CreatePaymentRequest{BookingID: b.ID, Method: "upi", MethodRef: "guest@upi"})
	require.NoError(t, err)
	done, err := e.bookings.CompleteBooking(ctx, host, b.ID)
	require.NoError(t, err)
	return done
}

func (e *testEnv) bookingCount(t *testing.T) int64 {
	t.Helper()
	stats, err := e.bookings.GetBookingStats(context.Background())
	require.NoError(t, err)
	return stats.TotalBookings
}

func bookingRequest(propertyID int64, in, out string) CreateBookingRequest {
	return CreateBookingRequest{
		PropertyID:   propertyID,
		CheckInDate:  MustParseDate(in),
		CheckOutDate: MustParseDate(out),
		Guests:       2,
		TotalPrice:   9000,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
