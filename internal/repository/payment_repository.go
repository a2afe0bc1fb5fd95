package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentModel is the GORM model for the payments table.
// booking_id is unique: a booking has at most one payment.
type PaymentModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	BookingID     int64     `gorm:"not null;uniqueIndex"`
	Amount        int64     `gorm:"not null"`
	Currency      string    `gorm:"not null;size:3;default:'INR'"`
	Method        string    `gorm:"not null;size:30"`
	MethodRef     string    `gorm:"size:255"`
	Status        string    `gorm:"not null;size:20;index"`
	TransactionID *string   `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID retrieves a payment by its unique ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id int64) (*paymentDomain.Payment, error) {
	return r.findOne(r.db.WithContext(ctx), "id = ?", id, paymentDomain.NotFoundError(id))
}

// FindByIDForUpdate retrieves a payment and locks its row.
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*paymentDomain.Payment, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id, paymentDomain.NotFoundError(id))
}

// FindByBookingID retrieves the payment for a booking.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID int64) (*paymentDomain.Payment, error) {
	return r.findOne(r.db.WithContext(ctx), "booking_id = ?", bookingID, paymentDomain.ErrPaymentNotFound)
}

func (r *GormPaymentRepository) findOne(db *gorm.DB, query string, arg int64, notFound error) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := db.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return toDomainPayment(&model)
}

// Save persists a new payment. The unique booking_id index turns a second
// payment for the same booking into ErrDuplicatePayment.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return paymentDomain.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	p.ID = model.ID
	return nil
}

// Update persists the settlement fields of an existing payment.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"transaction_id": model.TransactionID,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return paymentDomain.NotFoundError(p.ID)
	}
	return nil
}

func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        p.Method,
		MethodRef:     p.MethodRef,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toDomainPayment(m *PaymentModel) (*paymentDomain.Payment, error) {
	status, err := paymentDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &paymentDomain.Payment{
		ID:            m.ID,
		BookingID:     m.BookingID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		Method:        m.Method,
		MethodRef:     m.MethodRef,
		Status:        status,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}
