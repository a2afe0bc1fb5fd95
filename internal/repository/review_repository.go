package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reviewDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	PropertyID int64     `gorm:"not null;index"`
	BookingID  int64     `gorm:"not null;uniqueIndex"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Rating     int       `gorm:"type:smallint;not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review.
func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	model := toReviewModel(rv)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return reviewDomain.ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	rv.ID = model.ID
	return nil
}

// FindByPropertyID returns all reviews for a property in insertion order.
func (r *GormReviewRepository) FindByPropertyID(ctx context.Context, propertyID int64) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find property reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, nil
}

// ExistsForBooking reports whether the booking already has a review.
func (r *GormReviewRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking review: %w", err)
	}
	return count > 0, nil
}

func toReviewModel(rv *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:         rv.ID,
		PropertyID: rv.PropertyID,
		BookingID:  rv.BookingID,
		AuthorID:   rv.AuthorID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return &reviewDomain.Review{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		BookingID:  m.BookingID,
		AuthorID:   m.AuthorID,
		Rating:     m.Rating,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
	}
}
