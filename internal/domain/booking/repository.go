package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for bookings.
type BookingRepository interface {
	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// FindByIDForUpdate is FindByID that also takes the booking's row lock for
	// the rest of the unit of work.
	FindByIDForUpdate(ctx context.Context, id int64) (*Booking, error)

	// FindByGuestID retrieves all bookings made by a guest.
	FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*Booking, error)

	// FindByPropertyID retrieves all bookings for a property, whatever their status.
	FindByPropertyID(ctx context.Context, propertyID int64) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking and assigns its id.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking.
	Update(ctx context.Context, booking *Booking) error
}
