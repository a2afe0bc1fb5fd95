package repository

import (
	"context"
	"database/sql"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"gorm.io/gorm"
)

// GormTransactor runs units of work as database transactions.
type GormTransactor struct {
	db *gorm.DB
}

var _ uow.Transactor = (*GormTransactor)(nil)

// NewGormTransactor creates a new GormTransactor.
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// Read runs fn in a read-only repeatable-read transaction, so all queries
// see one snapshot.
func (t *GormTransactor) Read(ctx context.Context, fn uow.Work) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

// Write runs fn in a transaction that commits only if fn returns nil.
// Writers serialize through the row locks taken by FindByIDForUpdate.
func (t *GormTransactor) Write(ctx context.Context, fn uow.Work) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// Repositories binds the GORM repositories to one connection or transaction.
type Repositories struct {
	db *gorm.DB
}

// NewRepositories creates repositories that share db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

func (r *Repositories) Properties() property.PropertyRepository {
	return NewGormPropertyRepository(r.db)
}

func (r *Repositories) Bookings() booking.BookingRepository {
	return NewGormBookingRepository(r.db)
}

func (r *Repositories) Payments() payment.PaymentRepository {
	return NewGormPaymentRepository(r.db)
}

func (r *Repositories) Reviews() review.ReviewRepository {
	return NewGormReviewRepository(r.db)
}

// Models lists the GORM models for AutoMigrate in development.
func Models() []interface{} {
	return []interface{}{&PropertyModel{}, &BookingModel{}, &PaymentModel{}, &ReviewModel{}}
}
