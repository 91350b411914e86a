package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/notify"
	"autoship/internal/repositories"
	"autoship/internal/utils"
)

const mysqlErrDuplicateEntry = 1062

// ConversionService turns an approved quote into a confirmed booking.
// The whole conversion runs in one transaction: quote row lock, uniqueness
// on bookings.quote_id, vehicle materialization, booking insert, quote
// status flip and credential consumption either all land or none do.
type ConversionService struct {
	DB             *sql.DB
	QuoteRepo      repositories.QuoteRepository
	BookingRepo    repositories.BookingRepository
	VehicleRepo    repositories.VehicleRepository
	CustomerRepo   repositories.CustomerRepository
	CredentialRepo repositories.CredentialRepository
	Notifier       notify.Notifier
	RequestID      string
	Now            func() time.Time
}

func (s ConversionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// BookingOverrides are recipient fields supplied at conversion time; they
// take precedence over the customer profile.
type BookingOverrides struct {
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	Notes            string
}

func (s ConversionService) ConvertToBooking(ctx context.Context, quoteID int64, ov BookingOverrides, actorID int64) (models.Booking, error) {
	now := s.now()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the quote first: concurrent conversions of the same quote
	// serialize here, and the loser sees status=converted.
	quote, err := s.QuoteRepo.GetByIDForUpdate(ctx, tx, quoteID)
	if err != nil {
		return models.Booking{}, err
	}
	if quote.Status == domain.QuoteConverted {
		return models.Booking{}, domain.ConversionError{
			Code: domain.ConversionAlreadyConverted,
			Msg:  fmt.Sprintf("quote %s has already been converted", quote.QuoteReference),
		}
	}
	if quote.Status != domain.QuoteApproved {
		return models.Booking{}, domain.ConversionError{
			Code: domain.ConversionInvalidQuoteStatus,
			Msg:  fmt.Sprintf("quote %s is %s, only approved quotes convert", quote.QuoteReference, quote.Status),
		}
	}
	if now.After(quote.ValidUntil) {
		return models.Booking{}, domain.ConversionError{
			Code: domain.ConversionQuoteExpired,
			Msg:  fmt.Sprintf("quote %s expired on %s", quote.QuoteReference, utils.FormatDate(quote.ValidUntil)),
		}
	}

	// Application-level idempotency check; the unique key below is the
	// backstop for anything that slips past it.
	exists, err := s.BookingRepo.ExistsForQuote(ctx, tx, quoteID)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "check existing booking", Err: err}
	}
	if exists {
		return models.Booking{}, domain.ConversionError{
			Code: domain.ConversionAlreadyConverted,
			Msg:  fmt.Sprintf("quote %s already has a booking", quote.QuoteReference),
		}
	}

	customer, err := s.CustomerRepo.GetByID(ctx, tx, quote.CustomerID)
	if err != nil {
		return models.Booking{}, err
	}

	// Materialize the vehicle from the quote snapshot unless the quote was
	// already tied to an inventory vehicle.
	vehicleID := quote.VehicleID
	if vehicleID == 0 {
		vehicleID, err = s.VehicleRepo.Create(ctx, tx, models.Vehicle{
			Make:  quote.VehicleDetails.Make,
			Model: quote.VehicleDetails.Model,
			Year:  quote.VehicleDetails.Year,
			Color: quote.VehicleDetails.Color,
			VIN:   quote.VehicleDetails.VIN,
			Type:  quote.VehicleDetails.Type,
		})
		if err != nil {
			return models.Booking{}, domain.InternalError{Msg: "materialize vehicle", Err: err}
		}
	}

	booking := models.Booking{
		CustomerID:       quote.CustomerID,
		QuoteID:          quote.ID,
		VehicleID:        vehicleID,
		RouteID:          quote.RouteID,
		Status:           domain.BookingConfirmed,
		TotalAmount:      quote.TotalAmount,
		Currency:         quote.Currency,
		RecipientName:    firstNonEmpty(ov.RecipientName, customer.FullName()),
		RecipientPhone:   firstNonEmpty(ov.RecipientPhone, customer.Phone),
		RecipientAddress: firstNonEmpty(ov.RecipientAddress, customer.Address),
		Notes:            ov.Notes,
		CreatedBy:        actorID,
	}

	last, err := s.BookingRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("BK", now))
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking reference", Err: err}
	}
	booking.BookingReference = utils.BuildReference("BK", now, utils.NextSequence(last, 4), 4)

	bookingID, err := s.BookingRepo.Create(ctx, tx, booking)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return models.Booking{}, domain.ConversionError{
				Code: domain.ConversionAlreadyConverted,
				Msg:  fmt.Sprintf("quote %s already has a booking", quote.QuoteReference),
			}
		}
		return models.Booking{}, domain.InternalError{Msg: "create booking", Err: err}
	}
	booking.ID = bookingID

	if err := s.QuoteRepo.UpdateStatus(ctx, tx, quote.ID, domain.QuoteConverted); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "mark quote converted", Err: err}
	}

	// Consume the credential issued at approval in the same transaction, so
	// a failed conversion leaves it available for the retry.
	cred, hasCred, err := s.CredentialRepo.ConsumeByQuote(ctx, tx, quote.ID)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "consume credential", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "conversion", "convert",
		fmt.Sprintf("quote_id=%d booking_id=%d reference=%s total=%d", quote.ID, bookingID, booking.BookingReference, booking.TotalAmount))

	// Post-commit only; delivery failure never rolls back the conversion.
	payload := map[string]any{
		"booking_reference": booking.BookingReference,
		"quote_reference":   quote.QuoteReference,
		"total_amount":      booking.TotalAmount,
	}
	if hasCred {
		payload["portal_login"] = customer.Email
		payload["temp_password"] = cred.TempPassword
	}
	s.Notifier.Send(notify.EventBookingCreated, customer.Email, payload)
	if hasCred {
		s.Notifier.Send(notify.EventCredentialsIssued, customer.Email, map[string]any{
			"portal_login": customer.Email,
		})
	}

	return booking, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
