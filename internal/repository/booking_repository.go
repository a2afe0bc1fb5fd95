package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	PropertyID    int64     `gorm:"not null;index"`
	GuestID       uuid.UUID `gorm:"type:uuid;not null;index"`
	CheckInDate   time.Time `gorm:"type:date;not null"`
	CheckOutDate  time.Time `gorm:"type:date;not null"`
	Guests        int       `gorm:"not null"`
	TotalPrice    int64     `gorm:"not null"`
	Status        string    `gorm:"not null;size:20;index"`
	PaymentStatus string    `gorm:"not null;size:20"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a booking and locks its row (SELECT ... FOR UPDATE).
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) findOne(db *gorm.DB, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.NotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves all bookings made by a guest.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find guest bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByPropertyID retrieves every booking for a property regardless of status.
func (r *GormBookingRepository) FindByPropertyID(ctx context.Context, propertyID int64) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find property bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking and copies the generated id back.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.ID = model.ID
	return nil
}

// Update persists the mutable booking fields.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.NotFoundError(bk.ID)
	}
	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID,
		PropertyID:    bk.PropertyID,
		GuestID:       bk.GuestID,
		CheckInDate:   bk.CheckInDate,
		CheckOutDate:  bk.CheckOutDate,
		Guests:        bk.Guests,
		TotalPrice:    bk.TotalPrice,
		Status:        bk.Status.String(),
		PaymentStatus: string(bk.PaymentStatus),
		CreatedAt:     bk.CreatedAt,
		UpdatedAt:     bk.UpdatedAt,
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := bookingDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return &bookingDomain.Booking{
		ID:            m.ID,
		PropertyID:    m.PropertyID,
		GuestID:       m.GuestID,
		CheckInDate:   m.CheckInDate.UTC(),
		CheckOutDate:  m.CheckOutDate.UTC(),
		Guests:        m.Guests,
		TotalPrice:    m.TotalPrice,
		Status:        status,
		PaymentStatus: paymentStatus,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
