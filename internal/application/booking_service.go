package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to reserve a property. Guests
// defaults to 1.
type CreateBookingRequest struct {
	PropertyID   int64 `json:"property_id" binding:"required"`
	CheckInDate  Date  `json:"check_in_date"`
	CheckOutDate Date  `json:"check_out_date"`
	Guests       int   `json:"guests"`
	TotalPrice   int64 `json:"total_price"`
}

// UpdateBookingRequest is a raw partial update of the booking status fields.
type UpdateBookingRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            int64     `json:"id"`
	PropertyID    int64     `json:"property_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	CheckInDate   Date      `json:"check_in_date"`
	CheckOutDate  Date      `json:"check_out_date"`
	Guests        int       `json:"guests"`
	TotalPrice    int64     `json:"total_price"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookingService is the application service orchestrating availability and
// the booking lifecycle.
type BookingService struct {
	tx     uow.Transactor
	policy bookingDomain.OverlapPolicy
	events eventPublisher
	logger *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	tx uow.Transactor,
	policy bookingDomain.OverlapPolicy,
	producer kafka.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:     tx,
		policy: policy,
		events: eventPublisher{producer: producer, logger: logger},
		logger: logger,
	}
}

// CreateBooking reserves [check-in, check-out) on a property for guestID.
// The property lookup, date check, overlap check and insert run as one
// unit of work, so two overlapping requests can never both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if _, err := repos.Properties().FindByIDForUpdate(ctx, req.PropertyID); err != nil {
			return err
		}

		guests := req.Guests
		if guests == 0 {
			guests = 1
		}

		var err error
		bk, err = bookingDomain.NewBooking(
			req.PropertyID,
			guestID,
			req.CheckInDate.Time,
			req.CheckOutDate.Time,
			guests,
			req.TotalPrice,
		)
		if err != nil {
			return err
		}

		existing, err := repos.Bookings().FindByPropertyID(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		if conflict := s.policy.FindConflict(existing, bk.CheckInDate, bk.CheckOutDate, 0); conflict != nil {
			return bookingDomain.ErrDateConflict.WithDetail(fmt.Sprintf("overlaps booking %d", conflict.ID))
		}

		return repos.Bookings().Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID),
		zap.Int64("property_id", bk.PropertyID),
		zap.String("guest_id", guestID.String()),
	)
	s.events.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bookingSubject(bk.ID), events.BookingCreatedEvent{
		BookingID:    bk.ID,
		PropertyID:   bk.PropertyID,
		GuestID:      bk.GuestID,
		CheckInDate:  bk.CheckInDate,
		CheckOutDate: bk.CheckOutDate,
		Guests:       bk.Guests,
		TotalPrice:   bk.TotalPrice,
		OccurredAt:   time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListGuestBookings returns every booking made by guestID.
func (s *BookingService) ListGuestBookings(ctx context.Context, guestID uuid.UUID) ([]BookingDTO, error) {
	var bookings []*bookingDomain.Booking
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bookings, err = repos.Bookings().FindByGuestID(ctx, guestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// ListPropertyBookings returns every booking on a property, whatever its status.
func (s *BookingService) ListPropertyBookings(ctx context.Context, propertyID int64) ([]BookingDTO, error) {
	var bookings []*bookingDomain.Booking
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bookings, err = repos.Bookings().FindByPropertyID(ctx, propertyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// UpdateBooking merges a raw status patch. The patch is not checked against
// the lifecycle; CancelBooking and CompleteBooking are the guarded paths.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID int64, req UpdateBookingRequest) (*BookingDTO, error) {
	var patch bookingDomain.Patch
	if req.Status != nil {
		status, err := bookingDomain.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}
	if req.PaymentStatus != nil {
		ps, err := bookingDomain.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		patch.PaymentStatus = &ps
	}

	var bk *bookingDomain.Booking
	var prev bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bk, err = repos.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		prev = *bk

		if s.revivesCancelled(bk, patch) {
			if err := s.checkStillFree(ctx, repos, bk); err != nil {
				return err
			}
		}
		return applyBookingPatch(ctx, repos, bk, patch)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, &prev, bk)
	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a pending or confirmed booking on behalf of its guest.
// A paid booking is marked refunded.
func (s *BookingService) CancelBooking(ctx context.Context, guestID uuid.UUID, bookingID int64) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var prev bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bk, err = repos.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsBookedBy(guestID) {
			return bookingDomain.ErrNotBookingGuest
		}
		prev = *bk

		if err := bk.Cancel(); err != nil {
			return err
		}
		return repos.Bookings().Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.Int64("booking_id", bk.ID),
		zap.String("payment_status", string(bk.PaymentStatus)),
	)
	s.publishStatusChange(ctx, &prev, bk)
	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking marks a confirmed stay completed, making it reviewable.
// Only the host of the booked property may do so.
func (s *BookingService) CompleteBooking(ctx context.Context, hostID uuid.UUID, bookingID int64) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var prev bookingDomain.Booking
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bk, err = repos.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		prop, err := repos.Properties().FindByID(ctx, bk.PropertyID)
		if err != nil {
			return err
		}
		if !prop.IsOwnedBy(hostID) {
			return propertyDomain.ErrNotPropertyOwner
		}
		prev = *bk

		if err := bk.Complete(); err != nil {
			return err
		}
		return repos.Bookings().Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking completed", zap.Int64("booking_id", bk.ID))
	s.publishStatusChange(ctx, &prev, bk)
	result := toBookingDTO(bk)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	var bookings []*bookingDomain.Booking
	var total int64
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bookings, total, err = repos.Bookings().ListAll(ctx, page, limit)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	var counts map[string]int64
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		counts, err = repos.Bookings().CountByStatus(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// revivesCancelled reports whether patch would move a cancelled booking back
// into the set of bookings that hold their dates.
func (s *BookingService) revivesCancelled(bk *bookingDomain.Booking, patch bookingDomain.Patch) bool {
	return s.policy.IgnoreCancelled &&
		bk.Status == bookingDomain.StatusCancelled &&
		patch.Status != nil && *patch.Status != bookingDomain.StatusCancelled
}

func (s *BookingService) checkStillFree(ctx context.Context, repos uow.Repositories, bk *bookingDomain.Booking) error {
	if _, err := repos.Properties().FindByIDForUpdate(ctx, bk.PropertyID); err != nil && !domain.IsNotFound(err) {
		return err
	}
	existing, err := repos.Bookings().FindByPropertyID(ctx, bk.PropertyID)
	if err != nil {
		return err
	}
	if conflict := s.policy.FindConflict(existing, bk.CheckInDate, bk.CheckOutDate, bk.ID); conflict != nil {
		return bookingDomain.ErrDateConflict.WithDetail(fmt.Sprintf("overlaps booking %d", conflict.ID))
	}
	return nil
}

// applyBookingPatch is the booking manager's update path: it merges patch
// into bk and persists it within the caller's unit of work.
func applyBookingPatch(ctx context.Context, repos uow.Repositories, bk *bookingDomain.Booking, patch bookingDomain.Patch) error {
	patch.Apply(bk)
	return repos.Bookings().Update(ctx, bk)
}

// markBookingPaid applies payment settlement to a booking through the update
// path. It runs inside the payment's unit of work.
func markBookingPaid(ctx context.Context, repos uow.Repositories, bookingID int64) (prev, next *bookingDomain.Booking, err error) {
	bk, err := repos.Bookings().FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	before := *bk

	settled := *bk
	if err := settled.Confirm(); err != nil {
		return nil, nil, err
	}
	patch := bookingDomain.Patch{Status: &settled.Status, PaymentStatus: &settled.PaymentStatus}
	if err := applyBookingPatch(ctx, repos, bk, patch); err != nil {
		return nil, nil, err
	}
	return &before, bk, nil
}

func (s *BookingService) publishStatusChange(ctx context.Context, prev, next *bookingDomain.Booking) {
	publishBookingStatusChange(ctx, s.events, prev, next)
}

func publishBookingStatusChange(ctx context.Context, pub eventPublisher, prev, next *bookingDomain.Booking) {
	if prev.Status == next.Status && prev.PaymentStatus == next.PaymentStatus {
		return
	}
	pub.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bookingSubject(next.ID), events.BookingStatusChangedEvent{
		BookingID:             next.ID,
		PropertyID:            next.PropertyID,
		GuestID:               next.GuestID,
		PreviousStatus:        prev.Status.String(),
		Status:                next.Status.String(),
		PreviousPaymentStatus: string(prev.PaymentStatus),
		PaymentStatus:         string(next.PaymentStatus),
		OccurredAt:            time.Now().UTC(),
	})
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID,
		PropertyID:    bk.PropertyID,
		GuestID:       bk.GuestID,
		CheckInDate:   Date{bk.CheckInDate},
		CheckOutDate:  Date{bk.CheckOutDate},
		Guests:        bk.Guests,
		TotalPrice:    bk.TotalPrice,
		Status:        bk.Status.String(),
		PaymentStatus: string(bk.PaymentStatus),
		CreatedAt:     bk.CreatedAt,
		UpdatedAt:     bk.UpdatedAt,
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
