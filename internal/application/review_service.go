package application

import (
	"context"
	"time"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	reviewDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReviewRequest is the request DTO for reviewing a completed stay.
type CreateReviewRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	BookingID  int64     `json:"booking_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewService posts reviews and maintains the property rating aggregate.
type ReviewService struct {
	tx     uow.Transactor
	events eventPublisher
	logger *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(tx uow.Transactor, producer kafka.Publisher, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		tx:     tx,
		events: eventPublisher{producer: producer, logger: logger},
		logger: logger,
	}
}

// CreateReview posts a review of a completed stay by the booking's guest,
// then recomputes the property rating over all of its reviews. Both writes
// commit together; the property row lock serializes concurrent reviews.
func (s *ReviewService) CreateReview(ctx context.Context, authorID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < reviewDomain.MinRating || req.Rating > reviewDomain.MaxRating {
		return nil, reviewDomain.ErrInvalidRating
	}

	var rv *reviewDomain.Review
	var rating string
	var reviewCount int
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		bk, err := repos.Bookings().FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if !bk.IsBookedBy(authorID) {
			return reviewDomain.ErrNotBookingOwner
		}
		if bk.Status != bookingDomain.StatusCompleted {
			return reviewDomain.ErrStayNotCompleted
		}
		exists, err := repos.Reviews().ExistsForBooking(ctx, bk.ID)
		if err != nil {
			return err
		}
		if exists {
			return reviewDomain.ErrAlreadyReviewed
		}

		prop, err := repos.Properties().FindByIDForUpdate(ctx, bk.PropertyID)
		if err != nil {
			return err
		}

		rv, err = reviewDomain.NewReview(bk.PropertyID, bk.ID, authorID, req.Rating, req.Comment)
		if err != nil {
			return err
		}
		if err := repos.Reviews().Save(ctx, rv); err != nil {
			return err
		}

		rating, reviewCount, err = recomputeRating(ctx, repos, prop)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review posted",
		zap.Int64("review_id", rv.ID),
		zap.Int64("property_id", rv.PropertyID),
		zap.String("rating", rating),
	)
	s.events.publishEvent(ctx, events.TopicReviewEvents, events.ReviewPosted, propertySubject(rv.PropertyID), events.ReviewPostedEvent{
		ReviewID:   rv.ID,
		PropertyID: rv.PropertyID,
		BookingID:  rv.BookingID,
		AuthorID:   rv.AuthorID,
		Rating:     rv.Rating,
		OccurredAt: time.Now().UTC(),
	})
	s.events.publishEvent(ctx, events.TopicPropertyEvents, events.PropertyRatingUpdated, propertySubject(rv.PropertyID), events.PropertyRatingUpdatedEvent{
		PropertyID:  rv.PropertyID,
		Rating:      rating,
		ReviewCount: reviewCount,
		OccurredAt:  time.Now().UTC(),
	})

	result := toReviewDTO(rv)
	return &result, nil
}

// ListPropertyReviews returns the reviews of a property in posting order.
func (s *ReviewService) ListPropertyReviews(ctx context.Context, propertyID int64) ([]ReviewDTO, error) {
	var reviews []*reviewDomain.Review
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		reviews, err = repos.Reviews().FindByPropertyID(ctx, propertyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, rv := range reviews {
		dtos[i] = toReviewDTO(rv)
	}
	return dtos, nil
}

// recomputeRating takes the mean over every review of prop and writes it
// back through the catalog's update path.
func recomputeRating(ctx context.Context, repos uow.Repositories, prop *propertyDomain.Property) (string, int, error) {
	reviews, err := repos.Reviews().FindByPropertyID(ctx, prop.ID)
	if err != nil {
		return "", 0, err
	}
	rating, ok := reviewDomain.AverageRating(reviews)
	if !ok {
		return "", 0, nil
	}
	if err := applyPropertyPatch(ctx, repos, prop, propertyDomain.Patch{Rating: &rating}); err != nil {
		return "", 0, err
	}
	return rating, len(reviews), nil
}

func toReviewDTO(rv *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         rv.ID,
		PropertyID: rv.PropertyID,
		BookingID:  rv.BookingID,
		AuthorID:   rv.AuthorID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}
