package booking

import (
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/google/uuid"
)

var (
	ErrBookingNotFound  = domain.NewCodedError(domain.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrInvalidDateRange = domain.NewCodedError(domain.KindValidation, "INVALID_DATE_RANGE", "check-out date must be after check-in date")
	ErrMissingDates     = domain.NewCodedError(domain.KindValidation, "MISSING_DATES", "check-in and check-out dates are required")
	ErrDateConflict     = domain.NewCodedError(domain.KindBusinessRule, "DATE_CONFLICT", "property is already booked for the requested dates")
	ErrNotBookingGuest  = domain.NewCodedError(domain.KindForbidden, "NOT_BOOKING_GUEST", "booking does not belong to this guest")
	ErrNotPayable       = domain.NewCodedError(domain.KindBusinessRule, "BOOKING_NOT_PAYABLE", "cancelled bookings cannot be paid")
)

// NotFoundError returns ErrBookingNotFound annotated with the id.
func NotFoundError(id int64) error {
	return ErrBookingNotFound.WithDetail(fmt.Sprintf("id %d", id))
}

// Booking is a guest's reservation of a property for a half-open date range
// [CheckInDate, CheckOutDate).
type Booking struct {
	ID            int64
	PropertyID    int64
	GuestID       uuid.UUID
	CheckInDate   time.Time
	CheckOutDate  time.Time
	Guests        int
	TotalPrice    int64
	Status        BookingStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBooking creates a pending, unpaid booking after checking that both dates
// are set and form a non-empty range.
func NewBooking(
	propertyID int64,
	guestID uuid.UUID,
	checkIn, checkOut time.Time,
	guests int,
	totalPrice int64,
) (*Booking, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, ErrMissingDates
	}
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidDateRange
	}
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if guests < 1 {
		return nil, domain.NewValidationError("guest count must be at least 1")
	}
	if totalPrice < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		PropertyID:    propertyID,
		GuestID:       guestID,
		CheckInDate:   checkIn.UTC(),
		CheckOutDate:  checkOut.UTC(),
		Guests:        guests,
		TotalPrice:    totalPrice,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Identity returns the booking id.
func (b *Booking) Identity() int64 { return b.ID }

// AssignIdentity sets the booking id.
func (b *Booking) AssignIdentity(id int64) { b.ID = id }

// Clone returns a copy of the booking.
func (b *Booking) Clone() *Booking {
	c := *b
	return &c
}

// Overlaps reports whether [checkIn, checkOut) intersects the booking's range.
// A check-out on day X does not conflict with a check-in on day X.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckInDate.Before(checkOut) && checkIn.Before(b.CheckOutDate)
}

// IsBookedBy checks if the booking belongs to the given guest.
func (b *Booking) IsBookedBy(guestID uuid.UUID) bool {
	return b.GuestID == guestID
}

// --- Behavior ---

// Confirm applies payment settlement: the booking becomes paid, and a pending
// booking becomes confirmed. A completed stay keeps its status.
func (b *Booking) Confirm() error {
	if b.Status == StatusCancelled {
		return ErrNotPayable
	}
	// Only pending moves to confirmed. A completed booking, reachable through
	// an admin patch, stays completed so its review eligibility is kept.
	if b.Status == StatusPending {
		b.Status = StatusConfirmed
	}
	b.PaymentStatus = PaymentPaid
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled. A paid booking is marked refunded.
func (b *Booking) Cancel() error {
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return domain.NewCodedError(domain.KindBusinessRule, "INVALID_STATE",
			fmt.Sprintf("cannot transition booking from %s to %s", b.Status, StatusCancelled))
	}
	b.Status = StatusCancelled
	if b.PaymentStatus == PaymentPaid {
		b.PaymentStatus = PaymentRefunded
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete transitions a confirmed booking to completed, making it reviewable.
func (b *Booking) Complete() error {
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return domain.NewCodedError(domain.KindBusinessRule, "INVALID_STATE",
			fmt.Sprintf("cannot transition booking from %s to %s", b.Status, StatusCompleted))
	}
	b.Status = StatusCompleted
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Patch is a partial update of the mutable booking fields. Nil fields are left as is.
type Patch struct {
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil
}

// Validate checks the enum values carried by the patch.
func (p Patch) Validate() error {
	if p.Status != nil && !p.Status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", *p.Status))
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment status: %s", *p.PaymentStatus))
	}
	return nil
}

// Apply merges the patch into b.
func (p Patch) Apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	b.UpdatedAt = time.Now().UTC()
}
