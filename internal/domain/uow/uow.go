// Package uow defines the unit-of-work boundary shared by the stores.
//
// Every multi-step mutation (overlap check then insert, payment insert then
// booking confirmation, review insert then rating write-back) runs inside a
// single Write call, so no reader observes it half done and no concurrent
// writer interleaves with it.
package uow

import (
	"context"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/review"
)

// Repositories is the set of repositories bound to one unit of work.
type Repositories interface {
	Properties() property.PropertyRepository
	Bookings() booking.BookingRepository
	Payments() payment.PaymentRepository
	Reviews() review.ReviewRepository
}

// Work is a callback run inside a unit of work.
type Work func(ctx context.Context, repos Repositories) error

// Transactor opens units of work.
type Transactor interface {
	// Read runs fn against a consistent snapshot.
	Read(ctx context.Context, fn Work) error
	// Write runs fn exclusively. If fn returns an error none of its writes persist.
	Write(ctx context.Context, fn Work) error
}
