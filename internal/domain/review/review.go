package review

import (
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrNotBookingOwner  = domain.NewCodedError(domain.KindForbidden, "NOT_BOOKING_OWNER", "booking does not belong to this author")
	ErrStayNotCompleted = domain.NewCodedError(domain.KindBusinessRule, "STAY_NOT_COMPLETED", "reviews can only be posted for completed stays")
	ErrAlreadyReviewed  = domain.NewCodedError(domain.KindBusinessRule, "ALREADY_REVIEWED", "booking has already been reviewed")
	ErrInvalidRating    = domain.NewCodedError(domain.KindValidation, "INVALID_RATING", "rating must be between 1 and 5")
)

// Review is a guest's immutable rating of a completed stay.
type Review struct {
	ID         int64
	PropertyID int64
	BookingID  int64
	AuthorID   uuid.UUID
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// NewReview validates the rating bounds and builds a review.
func NewReview(propertyID, bookingID int64, authorID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	return &Review{
		PropertyID: propertyID,
		BookingID:  bookingID,
		AuthorID:   authorID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Identity returns the review id.
func (r *Review) Identity() int64 { return r.ID }

// AssignIdentity sets the review id.
func (r *Review) AssignIdentity(id int64) { r.ID = id }

// Clone returns a copy of the review.
func (r *Review) Clone() *Review {
	c := *r
	return &c
}

// AverageRating is the arithmetic mean of all ratings, rounded half up to two
// decimals. It returns false when there are no reviews.
func AverageRating(reviews []*Review) (string, bool) {
	if len(reviews) == 0 {
		return "", false
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	n := len(reviews)
	hundredths := (total*200 + n) / (2 * n)
	return fmt.Sprintf("%d.%02d", hundredths/100, hundredths%100), true
}
