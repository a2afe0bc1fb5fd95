package review

import "context"

// ReviewRepository defines persistence operations for reviews. Reviews are
// never updated or deleted.
type ReviewRepository interface {
	FindByPropertyID(ctx context.Context, propertyID int64) ([]*Review, error)
	ExistsForBooking(ctx context.Context, bookingID int64) (bool, error)
	Save(ctx context.Context, r *Review) error
}
