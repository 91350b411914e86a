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

// ShipmentService manages the physical movement side: one shipment per
// confirmed booking, an append-only tracking log, delay bookkeeping and the
// delay sweep.
type ShipmentService struct {
	DB           *sql.DB
	ShipmentRepo repositories.ShipmentRepository
	BookingRepo  repositories.BookingRepository
	CustomerRepo repositories.CustomerRepository
	Notifier     notify.Notifier
	RequestID    string
	Now          func() time.Time
}

func (s ShipmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

type CreateShipmentInput struct {
	BookingID        int64
	CurrentLocation  string
	DepartureDate    *time.Time
	EstimatedArrival *time.Time
}

// CreateForBooking opens a shipment in preparing for a confirmed booking.
// The unique key on shipments.booking_id keeps it one per booking.
func (s ShipmentService) CreateForBooking(ctx context.Context, in CreateShipmentInput) (models.Shipment, error) {
	if in.BookingID <= 0 {
		return models.Shipment{}, domain.ValidationError{Field: "booking_id", Msg: "required"}
	}
	if in.DepartureDate != nil && in.EstimatedArrival != nil && in.EstimatedArrival.Before(*in.DepartureDate) {
		return models.Shipment{}, domain.ValidationError{Field: "estimated_arrival", Msg: "must not precede departure"}
	}

	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, in.BookingID)
	if err != nil {
		return models.Shipment{}, err
	}
	if booking.Status != domain.BookingConfirmed {
		return models.Shipment{}, domain.ConflictError{
			Msg: fmt.Sprintf("booking %s is %s, shipments open on confirmed bookings", booking.BookingReference, booking.Status),
		}
	}
	if _, err := s.ShipmentRepo.GetByBookingID(ctx, tx, in.BookingID); err == nil {
		return models.Shipment{}, domain.ConflictError{Msg: "booking already has a shipment"}
	} else if !domain.IsNotFound(err) {
		return models.Shipment{}, domain.InternalError{Msg: "check existing shipment", Err: err}
	}

	shipment := models.Shipment{
		BookingID:        in.BookingID,
		Status:           domain.ShipmentPreparing,
		CurrentLocation:  in.CurrentLocation,
		DepartureDate:    in.DepartureDate,
		EstimatedArrival: in.EstimatedArrival,
	}

	last, err := s.ShipmentRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("TRK", now))
	if err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "tracking number", Err: err}
	}
	shipment.TrackingNumber = utils.BuildReference("TRK", now, utils.NextSequence(last, 6), 6)

	shipment.ID, err = s.ShipmentRepo.Create(ctx, tx, shipment)
	if err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "create shipment", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "shipment", "create",
		fmt.Sprintf("shipment_id=%d booking_id=%d tracking=%s", shipment.ID, in.BookingID, shipment.TrackingNumber))
	return shipment, nil
}

type ShipmentStatusInput struct {
	Status      domain.Status
	Location    string
	Description string
}

// UpdateStatus advances the shipment and keeps the booking, delay bookkeeping
// and tracking log in step. Entering delayed records the interrupted status in
// delayed_from so Resume knows where to pick up; delivery stamps the actual
// arrival and cascades the booking to delivered.
func (s ShipmentService) UpdateStatus(ctx context.Context, shipmentID int64, in ShipmentStatusInput) (models.Shipment, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	shipment, err := s.ShipmentRepo.GetByIDForUpdate(ctx, tx, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}
	if err := domain.CheckTransition(domain.EntityShipment, shipment.Status, in.Status); err != nil {
		return models.Shipment{}, err
	}

	delayedFrom := domain.Status("")
	if in.Status == domain.ShipmentDelayed {
		delayedFrom = shipment.Status
	}
	var actualArrival *time.Time
	if in.Status == domain.ShipmentDelivered {
		actualArrival = &now
	}

	if err := s.ShipmentRepo.UpdateStatus(ctx, tx, shipmentID, in.Status, delayedFrom, in.Location, actualArrival); err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "update shipment status", Err: err}
	}
	if _, err := s.ShipmentRepo.AppendTrackingUpdate(ctx, tx, models.TrackingUpdate{
		ShipmentID:  shipmentID,
		Timestamp:   now,
		Location:    firstNonEmpty(in.Location, shipment.CurrentLocation),
		Status:      in.Status,
		Description: in.Description,
	}); err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "append tracking update", Err: err}
	}

	// Keep the booking lifecycle in step with the shipment.
	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, shipment.BookingID)
	if err != nil {
		return models.Shipment{}, err
	}
	switch in.Status {
	case domain.ShipmentInTransit:
		if booking.Status == domain.BookingConfirmed {
			if err := s.BookingRepo.UpdateStatus(ctx, tx, booking.ID, domain.BookingInTransit); err != nil {
				return models.Shipment{}, domain.InternalError{Msg: "cascade booking status", Err: err}
			}
		}
	case domain.ShipmentDelivered:
		if booking.Status == domain.BookingInTransit {
			if err := s.BookingRepo.UpdateStatus(ctx, tx, booking.ID, domain.BookingDelivered); err != nil {
				return models.Shipment{}, domain.InternalError{Msg: "cascade booking status", Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Shipment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	shipment.Status = in.Status
	shipment.DelayedFrom = delayedFrom
	if in.Location != "" {
		shipment.CurrentLocation = in.Location
	}
	if actualArrival != nil {
		shipment.ActualArrival = actualArrival
	}

	utils.LogEvent(s.RequestID, "shipment", "status",
		fmt.Sprintf("shipment_id=%d status=%s location=%q", shipmentID, in.Status, in.Location))

	event := notify.EventShipmentUpdated
	switch in.Status {
	case domain.ShipmentDelayed:
		event = notify.EventShipmentDelayed
	case domain.ShipmentDelivered:
		event = notify.EventShipmentDelivered
	}
	if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, booking.CustomerID); err == nil {
		s.Notifier.Send(event, customer.Email, map[string]any{
			"tracking_number":   shipment.TrackingNumber,
			"booking_reference": booking.BookingReference,
			"status":            string(in.Status),
			"location":          shipment.CurrentLocation,
		})
	}
	return shipment, nil
}

// Resume moves a delayed shipment back to the status the delay interrupted,
// falling back to in_transit when nothing was recorded.
func (s ShipmentService) Resume(ctx context.Context, shipmentID int64, location string) (models.Shipment, error) {
	shipment, err := s.ShipmentRepo.GetByID(ctx, s.DB, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}
	if shipment.Status != domain.ShipmentDelayed {
		return models.Shipment{}, domain.ConflictError{Msg: "shipment is not delayed"}
	}
	target := shipment.DelayedFrom
	if target == "" || target == domain.ShipmentPreparing {
		target = domain.ShipmentInTransit
	}
	return s.UpdateStatus(ctx, shipmentID, ShipmentStatusInput{
		Status:      target,
		Location:    location,
		Description: "resumed after delay",
	})
}

type TrackingInput struct {
	Timestamp   *time.Time
	Location    string
	Status      domain.Status
	Description string
}

// AddTrackingUpdate appends a tracking event. Events never rewind: a
// timestamp older than the newest event on the shipment is rejected.
func (s ShipmentService) AddTrackingUpdate(ctx context.Context, shipmentID int64, in TrackingInput) (models.TrackingUpdate, error) {
	if in.Location == "" {
		return models.TrackingUpdate{}, domain.ValidationError{Field: "location", Msg: "required"}
	}

	now := s.now()
	ts := now
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.TrackingUpdate{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	shipment, err := s.ShipmentRepo.GetByIDForUpdate(ctx, tx, shipmentID)
	if err != nil {
		return models.TrackingUpdate{}, err
	}

	status := in.Status
	if status == "" {
		status = shipment.Status
	} else if _, err := domain.ParseStatus(domain.EntityShipment, string(status)); err != nil {
		return models.TrackingUpdate{}, err
	}

	lastTS, err := s.ShipmentRepo.LastTrackingTimestamp(ctx, tx, shipmentID)
	if err != nil {
		return models.TrackingUpdate{}, domain.InternalError{Msg: "last tracking timestamp", Err: err}
	}
	if !lastTS.IsZero() && ts.Before(lastTS) {
		return models.TrackingUpdate{}, domain.ValidationError{
			Field: "timestamp",
			Msg:   fmt.Sprintf("precedes the latest tracking event at %s", utils.FormatDateTime(lastTS)),
		}
	}

	update := models.TrackingUpdate{
		ShipmentID:  shipmentID,
		Timestamp:   ts,
		Location:    in.Location,
		Status:      status,
		Description: in.Description,
	}
	update.ID, err = s.ShipmentRepo.AppendTrackingUpdate(ctx, tx, update)
	if err != nil {
		return models.TrackingUpdate{}, domain.InternalError{Msg: "append tracking update", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.TrackingUpdate{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "shipment", "track",
		fmt.Sprintf("shipment_id=%d location=%q", shipmentID, in.Location))
	return update, nil
}

// ProcessDelayedShipments flags moving shipments past their ETA as delayed.
// Each shipment flips inside its own transaction with a re-check under lock,
// so the sweep is safe to re-run.
func (s ShipmentService) ProcessDelayedShipments(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.ShipmentRepo.ListDelayCandidates(ctx, s.DB, now)
	if err != nil {
		return 0, domain.InternalError{Msg: "list delay candidates", Err: err}
	}

	flagged := 0
	for _, candidate := range candidates {
		if candidate.Status == domain.ShipmentDelayed {
			continue
		}
		err := func() error {
			tx, err := s.DB.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			shipment, err := s.ShipmentRepo.GetByIDForUpdate(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if !shipment.IsDelayed(now) || shipment.Status == domain.ShipmentDelayed {
				return nil
			}
			if domain.CheckTransition(domain.EntityShipment, shipment.Status, domain.ShipmentDelayed) != nil {
				return nil
			}
			if err := s.ShipmentRepo.UpdateStatus(ctx, tx, shipment.ID, domain.ShipmentDelayed, shipment.Status, "", nil); err != nil {
				return err
			}
			if _, err := s.ShipmentRepo.AppendTrackingUpdate(ctx, tx, models.TrackingUpdate{
				ShipmentID:  shipment.ID,
				Timestamp:   now,
				Location:    shipment.CurrentLocation,
				Status:      domain.ShipmentDelayed,
				Description: "flagged delayed past estimated arrival",
			}); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			flagged++
			s.Notifier.Send(notify.EventShipmentDelayed, "", map[string]any{
				"shipment_id":     shipment.ID,
				"tracking_number": shipment.TrackingNumber,
				"days_overdue":    shipment.DaysOverdue(now),
			})
			return nil
		}()
		if err != nil {
			utils.LogEvent(s.RequestID, "shipment", "delay_sweep",
				fmt.Sprintf("shipment_id=%d error=%v", candidate.ID, err))
		}
	}

	utils.LogEvent(s.RequestID, "shipment", "delay_sweep", fmt.Sprintf("flagged=%d", flagged))
	return flagged, nil
}

func (s ShipmentService) Get(ctx context.Context, shipmentID int64) (models.Shipment, error) {
	return s.ShipmentRepo.GetByID(ctx, s.DB, shipmentID)
}

func (s ShipmentService) GetByBooking(ctx context.Context, bookingID int64) (models.Shipment, error) {
	return s.ShipmentRepo.GetByBookingID(ctx, s.DB, bookingID)
}

func (s ShipmentService) TrackingHistory(ctx context.Context, shipmentID int64) ([]models.TrackingUpdate, error) {
	if _, err := s.ShipmentRepo.GetByID(ctx, s.DB, shipmentID); err != nil {
		return nil, err
	}
	return s.ShipmentRepo.ListTrackingUpdates(ctx, s.DB, shipmentID)
}
