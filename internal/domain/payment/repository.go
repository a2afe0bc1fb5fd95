package payment

import "context"

// PaymentRepository defines the persistence contract for payments.
type PaymentRepository interface {
	// FindByID retrieves a payment by its identifier.
	FindByID(ctx context.Context, id int64) (*Payment, error)

	// FindByIDForUpdate is FindByID that also locks the payment row.
	FindByIDForUpdate(ctx context.Context, id int64) (*Payment, error)

	// FindByBookingID retrieves the payment for a booking, or ErrPaymentNotFound.
	FindByBookingID(ctx context.Context, bookingID int64) (*Payment, error)

	// Save persists a new payment and assigns its id. A second payment for
	// the same booking fails with ErrDuplicatePayment.
	Save(ctx context.Context, payment *Payment) error

	// Update persists changes to an existing payment.
	Update(ctx context.Context, payment *Payment) error
}
