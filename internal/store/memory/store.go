package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
)

// ErrReadOnly is returned when a write is attempted inside Read.
var ErrReadOnly = errors.New("memory: write attempted in read-only unit of work")

// Store holds one table per entity kind. Units of work serialize on mu:
// Write holds it exclusively, Read shares it.
type Store struct {
	mu sync.RWMutex

	properties *Table[property.Property, *property.Property]
	bookings   *Table[booking.Booking, *booking.Booking]
	payments   *Table[payment.Payment, *payment.Payment]
	reviews    *Table[review.Review, *review.Review]
}

var _ uow.Transactor = (*Store)(nil)

// New creates an empty store with fresh sequences for every kind.
func New() *Store {
	return &Store{
		properties: NewTable[property.Property](NewSequence()),
		bookings:   NewTable[booking.Booking](NewSequence()),
		payments:   NewTable[payment.Payment](NewSequence()),
		reviews:    NewTable[review.Review](NewSequence()),
	}
}

// Read runs fn under the shared lock.
func (s *Store) Read(ctx context.Context, fn uow.Work) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &repositories{store: s, tx: &txState{readOnly: true}})
}

// Write runs fn under the exclusive lock. When fn fails, every write it made
// is undone in reverse order before the lock is released.
func (s *Store) Write(ctx context.Context, fn uow.Work) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{}
	if err := fn(ctx, &repositories{store: s, tx: tx}); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type txState struct {
	readOnly bool
	undo     []func()
}

func (t *txState) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *txState) onRollback(op func()) {
	t.undo = append(t.undo, op)
}

func (t *txState) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

type repositories struct {
	store *Store
	tx    *txState
}

func (r *repositories) Properties() property.PropertyRepository {
	return &propertyRepo{t: r.store.properties, tx: r.tx}
}

func (r *repositories) Bookings() booking.BookingRepository {
	return &bookingRepo{t: r.store.bookings, tx: r.tx}
}

func (r *repositories) Payments() payment.PaymentRepository {
	return &paymentRepo{t: r.store.payments, tx: r.tx}
}

func (r *repositories) Reviews() review.ReviewRepository {
	return &reviewRepo{t: r.store.reviews, tx: r.tx}
}
