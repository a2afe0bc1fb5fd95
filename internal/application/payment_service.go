package application

import (
	"context"
	"errors"
	"time"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	paymentDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/payment"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"go.uber.org/zap"
)

// CreatePaymentRequest holds the data needed to pay for a booking. A zero
// amount charges the booking's total price.
type CreatePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method" binding:"required"`
	MethodRef string `json:"method_ref"`
}

// UpdatePaymentRequest moves a payment's status.
type UpdatePaymentRequest struct {
	Status        *string `json:"status"`
	TransactionID *string `json:"transaction_id"`
}

// PaymentDTO is the response representation of a payment.
type PaymentDTO struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	MethodRef     string    `json:"method_ref,omitempty"`
	Status        string    `json:"status"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PaymentService tracks payment settlement and drives the booking side effect.
type PaymentService struct {
	tx     uow.Transactor
	events eventPublisher
	logger *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(tx uow.Transactor, producer kafka.Publisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		tx:     tx,
		events: eventPublisher{producer: producer, logger: logger},
		logger: logger,
	}
}

// CreatePayment records and settles the single payment of a booking. The
// payment insert and the booking's move to confirmed/paid commit together.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentDTO, error) {
	var pay *paymentDomain.Payment
	var prev, next *bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		bk, err := repos.Bookings().FindByIDForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if bk.Status == bookingDomain.StatusCancelled {
			return bookingDomain.ErrNotPayable
		}

		if _, err := repos.Payments().FindByBookingID(ctx, req.BookingID); err == nil {
			return paymentDomain.ErrDuplicatePayment
		} else if !errors.Is(err, paymentDomain.ErrPaymentNotFound) {
			return err
		}

		amount := req.Amount
		if amount == 0 {
			amount = bk.TotalPrice
		}
		pay, err = paymentDomain.NewPayment(req.BookingID, amount, req.Currency, req.Method, req.MethodRef)
		if err != nil {
			return err
		}
		if err := pay.Settle(); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, pay); err != nil {
			return err
		}

		prev, next, err = markBookingPaid(ctx, repos, req.BookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment settled",
		zap.Int64("payment_id", pay.ID),
		zap.Int64("booking_id", pay.BookingID),
		zap.String("transaction_id", *pay.TransactionID),
	)
	s.publishSettled(ctx, pay)
	publishBookingStatusChange(ctx, s.events, prev, next)

	result := toPaymentDTO(pay)
	return &result, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID int64) (*PaymentDTO, error) {
	var pay *paymentDomain.Payment
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		pay, err = repos.Payments().FindByID(ctx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(pay)
	return &result, nil
}

// GetPaymentByBooking retrieves the payment of a booking.
func (s *PaymentService) GetPaymentByBooking(ctx context.Context, bookingID int64) (*PaymentDTO, error) {
	var pay *paymentDomain.Payment
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		pay, err = repos.Payments().FindByBookingID(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(pay)
	return &result, nil
}

// UpdatePayment applies a status patch. A move to success assigns a
// transaction id if missing and marks the booking confirmed/paid in the
// same unit of work; a move to failed leaves the booking untouched.
func (s *PaymentService) UpdatePayment(ctx context.Context, paymentID int64, req UpdatePaymentRequest) (*PaymentDTO, error) {
	var patch paymentDomain.Patch
	if req.Status != nil {
		status, err := paymentDomain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}
	patch.TransactionID = req.TransactionID
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var pay *paymentDomain.Payment
	var settled, failed bool
	var prev, next *bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		current, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		// Lock order is booking then payment, matching CreatePayment.
		if _, err := repos.Bookings().FindByIDForUpdate(ctx, current.BookingID); err != nil {
			return err
		}
		pay, err = repos.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		if err := patch.CheckTransition(pay.Status); err != nil {
			return err
		}
		settled = patch.Settles(pay.Status)
		failed = patch.Status != nil && *patch.Status == paymentDomain.StatusFailed && pay.Status != paymentDomain.StatusFailed

		patch.Apply(pay)
		if settled {
			if err := pay.Settle(); err != nil {
				return err
			}
		}
		if err := repos.Payments().Update(ctx, pay); err != nil {
			return err
		}

		if settled {
			prev, next, err = markBookingPaid(ctx, repos, pay.BookingID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment updated",
		zap.Int64("payment_id", pay.ID),
		zap.String("status", string(pay.Status)),
	)
	switch {
	case settled:
		s.publishSettled(ctx, pay)
		publishBookingStatusChange(ctx, s.events, prev, next)
	case failed:
		s.events.publishEvent(ctx, events.TopicPaymentEvents, events.PaymentFailed, paymentSubject(pay.ID), events.PaymentFailedEvent{
			PaymentID:  pay.ID,
			BookingID:  pay.BookingID,
			OccurredAt: time.Now().UTC(),
		})
	}

	result := toPaymentDTO(pay)
	return &result, nil
}

func (s *PaymentService) publishSettled(ctx context.Context, pay *paymentDomain.Payment) {
	var txn string
	if pay.TransactionID != nil {
		txn = *pay.TransactionID
	}
	s.events.publishEvent(ctx, events.TopicPaymentEvents, events.PaymentSettled, paymentSubject(pay.ID), events.PaymentSettledEvent{
		PaymentID:     pay.ID,
		BookingID:     pay.BookingID,
		Amount:        pay.Amount,
		Currency:      pay.Currency,
		TransactionID: txn,
		OccurredAt:    time.Now().UTC(),
	})
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
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
