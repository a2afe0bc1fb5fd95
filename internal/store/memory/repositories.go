package memory

import (
	"context"
	"sort"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/google/uuid"
)

// Repositories hand out clones so callers never alias stored rows.

type propertyRepo struct {
	t  *Table[property.Property, *property.Property]
	tx *txState
}

func (r *propertyRepo) FindByID(_ context.Context, id int64) (*property.Property, error) {
	p, ok := r.t.Get(id)
	if !ok {
		return nil, property.NotFoundError(id)
	}
	return p.Clone(), nil
}

// FindByIDForUpdate needs no extra locking: the store lock is held
// exclusively for the whole Write.
func (r *propertyRepo) FindByIDForUpdate(ctx context.Context, id int64) (*property.Property, error) {
	return r.FindByID(ctx, id)
}

func (r *propertyRepo) FindByHostID(_ context.Context, hostID uuid.UUID) ([]*property.Property, error) {
	return cloneProperties(r.t.Find(func(p property.Property) bool {
		return p.HostID == hostID
	})), nil
}

func (r *propertyRepo) FindAll(_ context.Context) ([]*property.Property, error) {
	return cloneProperties(r.t.FindAll()), nil
}

func (r *propertyRepo) Save(_ context.Context, p *property.Property) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	stored := r.t.Put(*p.Clone())
	p.ID = stored.ID
	r.tx.onRollback(func() { r.t.Delete(stored.ID) })
	return nil
}

func (r *propertyRepo) Update(_ context.Context, p *property.Property) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	prev, ok := r.t.Get(p.ID)
	if !ok {
		return property.NotFoundError(p.ID)
	}
	next := p.Clone()
	r.t.Update(p.ID, func(cur *property.Property) { *cur = *next })
	r.tx.onRollback(func() { r.t.restore(prev) })
	return nil
}

func (r *propertyRepo) Delete(_ context.Context, id int64) (bool, error) {
	if err := r.tx.writable(); err != nil {
		return false, err
	}
	prev, ok := r.t.Get(id)
	if !ok {
		return false, nil
	}
	r.t.Delete(id)
	r.tx.onRollback(func() { r.t.restore(prev) })
	return true, nil
}

func cloneProperties(rows []property.Property) []*property.Property {
	out := make([]*property.Property, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out
}

type bookingRepo struct {
	t  *Table[booking.Booking, *booking.Booking]
	tx *txState
}

func (r *bookingRepo) FindByID(_ context.Context, id int64) (*booking.Booking, error) {
	b, ok := r.t.Get(id)
	if !ok {
		return nil, booking.NotFoundError(id)
	}
	return b.Clone(), nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindByGuestID(_ context.Context, guestID uuid.UUID) ([]*booking.Booking, error) {
	return cloneBookings(r.t.Find(func(b booking.Booking) bool {
		return b.GuestID == guestID
	})), nil
}

func (r *bookingRepo) FindByPropertyID(_ context.Context, propertyID int64) ([]*booking.Booking, error) {
	return cloneBookings(r.t.Find(func(b booking.Booking) bool {
		return b.PropertyID == propertyID
	})), nil
}

// ListAll pages through bookings newest first.
func (r *bookingRepo) ListAll(_ context.Context, page, limit int) ([]*booking.Booking, int64, error) {
	rows := r.t.FindAll()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	total := int64(len(rows))
	offset := (page - 1) * limit
	if offset >= len(rows) {
		return []*booking.Booking{}, total, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return cloneBookings(rows[offset:end]), total, nil
}

func (r *bookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, b := range r.t.FindAll() {
		counts[b.Status.String()]++
	}
	return counts, nil
}

func (r *bookingRepo) Save(_ context.Context, b *booking.Booking) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	stored := r.t.Put(*b.Clone())
	b.ID = stored.ID
	r.tx.onRollback(func() { r.t.Delete(stored.ID) })
	return nil
}

func (r *bookingRepo) Update(_ context.Context, b *booking.Booking) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	prev, ok := r.t.Get(b.ID)
	if !ok {
		return booking.NotFoundError(b.ID)
	}
	next := b.Clone()
	r.t.Update(b.ID, func(cur *booking.Booking) { *cur = *next })
	r.tx.onRollback(func() { r.t.restore(prev) })
	return nil
}

func cloneBookings(rows []booking.Booking) []*booking.Booking {
	out := make([]*booking.Booking, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out
}

type paymentRepo struct {
	t  *Table[payment.Payment, *payment.Payment]
	tx *txState
}

func (r *paymentRepo) FindByID(_ context.Context, id int64) (*payment.Payment, error) {
	p, ok := r.t.Get(id)
	if !ok {
		return nil, payment.NotFoundError(id)
	}
	return p.Clone(), nil
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *paymentRepo) FindByBookingID(_ context.Context, bookingID int64) (*payment.Payment, error) {
	rows := r.t.Find(func(p payment.Payment) bool { return p.BookingID == bookingID })
	if len(rows) == 0 {
		return nil, payment.ErrPaymentNotFound
	}
	return rows[0].Clone(), nil
}

func (r *paymentRepo) Save(_ context.Context, p *payment.Payment) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	dup := r.t.Find(func(existing payment.Payment) bool { return existing.BookingID == p.BookingID })
	if len(dup) > 0 {
		return payment.ErrDuplicatePayment
	}
	stored := r.t.Put(*p.Clone())
	p.ID = stored.ID
	r.tx.onRollback(func() { r.t.Delete(stored.ID) })
	return nil
}

func (r *paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	prev, ok := r.t.Get(p.ID)
	if !ok {
		return payment.NotFoundError(p.ID)
	}
	next := p.Clone()
	r.t.Update(p.ID, func(cur *payment.Payment) { *cur = *next })
	r.tx.onRollback(func() { r.t.restore(prev) })
	return nil
}

type reviewRepo struct {
	t  *Table[review.Review, *review.Review]
	tx *txState
}

func (r *reviewRepo) FindByPropertyID(_ context.Context, propertyID int64) ([]*review.Review, error) {
	rows := r.t.Find(func(rv review.Review) bool { return rv.PropertyID == propertyID })
	out := make([]*review.Review, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out, nil
}

func (r *reviewRepo) ExistsForBooking(_ context.Context, bookingID int64) (bool, error) {
	rows := r.t.Find(func(rv review.Review) bool { return rv.BookingID == bookingID })
	return len(rows) > 0, nil
}

func (r *reviewRepo) Save(_ context.Context, rv *review.Review) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if exists, _ := r.ExistsForBooking(context.Background(), rv.BookingID); exists {
		return review.ErrAlreadyReviewed
	}
	stored := r.t.Put(*rv.Clone())
	rv.ID = stored.ID
	r.tx.onRollback(func() { r.t.Delete(stored.ID) })
	return nil
}
