package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/notify"
	"autoship/internal/repositories"
	"autoship/internal/utils"
)

// BookingService handles bookings entered directly, without going through a
// quote, plus status management and soft deletion. Quote-originated bookings
// come from ConversionService.
type BookingService struct {
	DB           *sql.DB
	BookingRepo  repositories.BookingRepository
	CustomerRepo repositories.CustomerRepository
	RouteRepo    repositories.RouteRepository
	VehicleRepo  repositories.VehicleRepository
	Notifier     notify.Notifier
	RequestID    string
	Now          func() time.Time
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

type CreateBookingInput struct {
	CustomerID       int64
	RouteID          int64
	VehicleID        int64
	TotalAmount      int64
	Currency         string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	Notes            string
	CreatedBy        int64
}

// Create records a walk-in booking. It starts in pending, unlike converted
// bookings which start confirmed.
func (s BookingService) Create(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	if in.CustomerID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "customer_id", Msg: "required"}
	}
	if in.RouteID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "route_id", Msg: "required"}
	}
	if in.TotalAmount <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "total_amount", Msg: "must be positive"}
	}

	customer, err := s.CustomerRepo.GetByID(ctx, s.DB, in.CustomerID)
	if err != nil {
		return models.Booking{}, err
	}
	if _, err := s.RouteRepo.GetByID(ctx, s.DB, in.RouteID); err != nil {
		return models.Booking{}, err
	}
	if in.VehicleID > 0 {
		if _, err := s.VehicleRepo.GetByID(ctx, s.DB, in.VehicleID); err != nil {
			return models.Booking{}, err
		}
	}

	now := s.now()
	booking := models.Booking{
		CustomerID:       in.CustomerID,
		VehicleID:        in.VehicleID,
		RouteID:          in.RouteID,
		Status:           domain.BookingPending,
		TotalAmount:      in.TotalAmount,
		Currency:         in.Currency,
		RecipientName:    firstNonEmpty(in.RecipientName, customer.FullName()),
		RecipientPhone:   firstNonEmpty(in.RecipientPhone, customer.Phone),
		RecipientAddress: firstNonEmpty(in.RecipientAddress, customer.Address),
		Notes:            in.Notes,
		CreatedBy:        in.CreatedBy,
	}
	if booking.Currency == "" {
		booking.Currency = "USD"
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	last, err := s.BookingRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("BK", now))
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking reference", Err: err}
	}
	booking.BookingReference = utils.BuildReference("BK", now, utils.NextSequence(last, 4), 4)

	booking.ID, err = s.BookingRepo.Create(ctx, tx, booking)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "create booking", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "booking", "create",
		fmt.Sprintf("booking_id=%d reference=%s total=%d", booking.ID, booking.BookingReference, booking.TotalAmount))

	s.Notifier.Send(notify.EventBookingCreated, customer.Email, map[string]any{
		"booking_reference": booking.BookingReference,
		"total_amount":      booking.TotalAmount,
	})
	return booking, nil
}

// UpdateStatus moves a booking along its lifecycle. Cancelling requires a
// reason, which lands in the notes.
func (s BookingService) UpdateStatus(ctx context.Context, bookingID int64, to domain.Status, reason string) (models.Booking, error) {
	if to == domain.BookingCancelled && reason == "" {
		return models.Booking{}, domain.ValidationError{Field: "reason", Msg: "required when cancelling"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if err := domain.CheckTransition(domain.EntityBooking, booking.Status, to); err != nil {
		return models.Booking{}, err
	}
	if err := s.BookingRepo.UpdateStatus(ctx, tx, bookingID, to); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "update booking status", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "commit", Err: err}
	}

	booking.Status = to
	utils.LogEvent(s.RequestID, "booking", "status",
		fmt.Sprintf("booking_id=%d status=%s", bookingID, to))

	if to == domain.BookingCancelled {
		if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, booking.CustomerID); err == nil {
			s.Notifier.Send(notify.EventBookingCancelled, customer.Email, map[string]any{
				"booking_reference": booking.BookingReference,
				"reason":            reason,
			})
		}
	}
	return booking, nil
}

// Delete soft-deletes a booking; the row stays for the ledger's sake but
// drops out of every listing and lookup.
func (s BookingService) Delete(ctx context.Context, bookingID int64, reason string) error {
	if reason == "" {
		return domain.ValidationError{Field: "reason", Msg: "required"}
	}

	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == domain.BookingInTransit {
		return domain.ConflictError{Msg: "cannot delete a booking in transit"}
	}
	if err := s.BookingRepo.SoftDelete(ctx, tx, bookingID, reason, now); err != nil {
		return domain.InternalError{Msg: "soft delete booking", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "booking", "delete",
		fmt.Sprintf("booking_id=%d reason=%q", bookingID, reason))
	return nil
}

func (s BookingService) Get(ctx context.Context, bookingID int64) (models.Booking, error) {
	return s.BookingRepo.GetByID(ctx, s.DB, bookingID)
}

func (s BookingService) List(ctx context.Context, status string, customerID int64, limit int) ([]models.Booking, error) {
	if status != "" {
		if _, err := domain.ParseStatus(domain.EntityBooking, status); err != nil {
			return nil, err
		}
	}
	return s.BookingRepo.List(ctx, s.DB, status, customerID, limit)
}
