package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/notify"
	"autoship/internal/repositories"
	"autoship/internal/utils"
)

// QuoteService covers the quote lifecycle up to (but not including)
// conversion: drafting, approval with credential issuance, rejection,
// validity extension and the expiry sweep.
type QuoteService struct {
	DB             *sql.DB
	QuoteRepo      repositories.QuoteRepository
	CustomerRepo   repositories.CustomerRepository
	RouteRepo      repositories.RouteRepository
	CredentialRepo repositories.CredentialRepository
	Notifier       notify.Notifier
	ValidityDays   int
	RequestID      string
	Now            func() time.Time
}

func (s QuoteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s QuoteService) validityDays() int {
	if s.ValidityDays > 0 {
		return s.ValidityDays
	}
	return 30
}

type CreateQuoteInput struct {
	CustomerID     int64
	RouteID        int64
	VehicleDetails models.VehicleDetails
	BasePrice      int64
	AdditionalFees []models.Fee
	Currency       string
	ValidUntil     *time.Time
	Notes          string
	CreatedBy      int64
}

func (s QuoteService) Create(ctx context.Context, in CreateQuoteInput) (models.Quote, error) {
	if in.CustomerID <= 0 {
		return models.Quote{}, domain.ValidationError{Field: "customer_id", Msg: "required"}
	}
	if in.RouteID <= 0 {
		return models.Quote{}, domain.ValidationError{Field: "route_id", Msg: "required"}
	}
	if in.VehicleDetails.Make == "" || in.VehicleDetails.Model == "" {
		return models.Quote{}, domain.ValidationError{Field: "vehicle_details", Msg: "make and model are required"}
	}
	for _, f := range in.AdditionalFees {
		if f.Name == "" || f.Amount < 0 {
			return models.Quote{}, domain.ValidationError{Field: "additional_fees", Msg: "each fee needs a name and a non-negative amount"}
		}
	}

	if _, err := s.CustomerRepo.GetByID(ctx, s.DB, in.CustomerID); err != nil {
		return models.Quote{}, err
	}
	route, err := s.RouteRepo.GetByID(ctx, s.DB, in.RouteID)
	if err != nil {
		return models.Quote{}, err
	}

	now := s.now()
	quote := models.Quote{
		CustomerID:     in.CustomerID,
		RouteID:        in.RouteID,
		VehicleDetails: in.VehicleDetails,
		BasePrice:      in.BasePrice,
		AdditionalFees: in.AdditionalFees,
		Currency:       in.Currency,
		Status:         domain.QuotePending,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
	}
	if quote.BasePrice <= 0 {
		quote.BasePrice = route.BasePrice
	}
	if quote.BasePrice <= 0 {
		return models.Quote{}, domain.ValidationError{Field: "base_price", Msg: "must be positive"}
	}
	if quote.Currency == "" {
		quote.Currency = "USD"
	}
	quote.TotalAmount = quote.CalculateTotal()
	if in.ValidUntil != nil {
		if !in.ValidUntil.After(now) {
			return models.Quote{}, domain.ValidationError{Field: "valid_until", Msg: "must be in the future"}
		}
		quote.ValidUntil = *in.ValidUntil
	} else {
		quote.ValidUntil = now.AddDate(0, 0, s.validityDays())
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	last, err := s.QuoteRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("QT", now))
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "quote reference", Err: err}
	}
	quote.QuoteReference = utils.BuildReference("QT", now, utils.NextSequence(last, 4), 4)

	id, err := s.QuoteRepo.Create(ctx, tx, quote)
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "create quote", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "commit", Err: err}
	}

	quote.ID = id
	utils.LogEvent(s.RequestID, "quote", "create",
		fmt.Sprintf("quote_id=%d reference=%s total=%d", id, quote.QuoteReference, quote.TotalAmount))
	return quote, nil
}

// Approve moves a pending quote to approved and issues portal credentials
// when the customer has none (or only temporary ones). The credential is
// parked in pending_credentials until conversion consumes it.
func (s QuoteService) Approve(ctx context.Context, quoteID, actorID int64, notes string) (models.Quote, error) {
	now := s.now()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	quote, err := s.QuoteRepo.GetByIDForUpdate(ctx, tx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	if err := domain.CheckTransition(domain.EntityQuote, quote.Status, domain.QuoteApproved); err != nil {
		return models.Quote{}, err
	}
	if err := s.QuoteRepo.Approve(ctx, tx, quoteID, actorID, now, notes); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "approve quote", Err: err}
	}

	customer, err := s.CustomerRepo.GetByID(ctx, tx, quote.CustomerID)
	if err != nil {
		return models.Quote{}, err
	}

	tempPassword := ""
	if customer.PasswordHash == "" || customer.PasswordIsTemporary {
		tempPassword = utils.RandomPassword(12)
		hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if err != nil {
			return models.Quote{}, domain.InternalError{Msg: "hash password", Err: err}
		}
		if err := s.CustomerRepo.SetPassword(ctx, tx, customer.ID, string(hash), true); err != nil {
			return models.Quote{}, domain.InternalError{Msg: "set password", Err: err}
		}
		if err := s.CredentialRepo.Upsert(ctx, tx, models.PendingCredential{
			QuoteID:      quoteID,
			CustomerID:   customer.ID,
			TempPassword: tempPassword,
			IssuedAt:     now,
		}); err != nil {
			return models.Quote{}, domain.InternalError{Msg: "store credential", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "commit", Err: err}
	}

	quote.Status = domain.QuoteApproved
	quote.ApprovedBy = actorID
	quote.ApprovedAt = &now

	utils.LogEvent(s.RequestID, "quote", "approve",
		fmt.Sprintf("quote_id=%d actor_id=%d credentials_issued=%t", quoteID, actorID, tempPassword != ""))

	payload := map[string]any{
		"quote_reference": quote.QuoteReference,
		"total_amount":    quote.TotalAmount,
		"valid_until":     utils.FormatDate(quote.ValidUntil),
	}
	if tempPassword != "" {
		payload["credentials_pending"] = true
	}
	s.Notifier.Send(notify.EventQuoteApproved, customer.Email, payload)

	return quote, nil
}

func (s QuoteService) Reject(ctx context.Context, quoteID, actorID int64, reason string) (models.Quote, error) {
	if reason == "" {
		return models.Quote{}, domain.ValidationError{Field: "reason", Msg: "required"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	quote, err := s.QuoteRepo.GetByIDForUpdate(ctx, tx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	if err := domain.CheckTransition(domain.EntityQuote, quote.Status, domain.QuoteRejected); err != nil {
		return models.Quote{}, err
	}
	if err := s.QuoteRepo.Reject(ctx, tx, quoteID, reason); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "reject quote", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "commit", Err: err}
	}

	quote.Status = domain.QuoteRejected
	quote.Notes = reason
	utils.LogEvent(s.RequestID, "quote", "reject",
		fmt.Sprintf("quote_id=%d actor_id=%d", quoteID, actorID))

	if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, quote.CustomerID); err == nil {
		s.Notifier.Send(notify.EventQuoteRejected, customer.Email, map[string]any{
			"quote_reference": quote.QuoteReference,
			"reason":          reason,
		})
	}
	return quote, nil
}

// ExtendValidity pushes valid_until out by the given days. An expired quote
// revives to pending; a converted quote cannot be extended.
func (s QuoteService) ExtendValidity(ctx context.Context, quoteID int64, days int) (models.Quote, error) {
	if days <= 0 {
		return models.Quote{}, domain.ValidationError{Field: "days", Msg: "must be positive"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	quote, err := s.QuoteRepo.GetByIDForUpdate(ctx, tx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	if quote.Status == domain.QuoteConverted || quote.Status == domain.QuoteRejected {
		return models.Quote{}, domain.InvalidStateTransition{Entity: domain.EntityQuote, From: quote.Status, To: domain.QuotePending}
	}

	newStatus := quote.Status
	if quote.Status == domain.QuoteExpired {
		if err := domain.CheckTransition(domain.EntityQuote, quote.Status, domain.QuotePending); err != nil {
			return models.Quote{}, err
		}
		newStatus = domain.QuotePending
	}
	newValidUntil := quote.ValidUntil.AddDate(0, 0, days)

	if err := s.QuoteRepo.UpdateValidity(ctx, tx, quoteID, newValidUntil, newStatus); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "extend quote", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Quote{}, domain.InternalError{Msg: "commit", Err: err}
	}

	quote.ValidUntil = newValidUntil
	quote.Status = newStatus
	utils.LogEvent(s.RequestID, "quote", "extend",
		fmt.Sprintf("quote_id=%d days=%d valid_until=%s", quoteID, days, utils.FormatDate(newValidUntil)))
	return quote, nil
}

// ProcessExpiredQuotes is the expiry sweep. Each quote transitions inside its
// own transaction with a re-check under lock, so re-runs and concurrent
// sweeps are no-ops.
func (s QuoteService) ProcessExpiredQuotes(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.QuoteRepo.ListExpiredCandidates(ctx, s.DB, now)
	if err != nil {
		return 0, domain.InternalError{Msg: "list expired quotes", Err: err}
	}

	expired := 0
	for _, candidate := range candidates {
		err := func() error {
			tx, err := s.DB.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			quote, err := s.QuoteRepo.GetByIDForUpdate(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			// Somebody converted/rejected it since the list query.
			if domain.CheckTransition(domain.EntityQuote, quote.Status, domain.QuoteExpired) != nil {
				return nil
			}
			if !quote.IsExpired(now) {
				return nil
			}
			if err := s.QuoteRepo.UpdateStatus(ctx, tx, quote.ID, domain.QuoteExpired); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			expired++
			s.Notifier.Send(notify.EventQuoteExpired, "", map[string]any{
				"quote_id":        quote.ID,
				"quote_reference": quote.QuoteReference,
			})
			return nil
		}()
		if err != nil {
			utils.LogEvent(s.RequestID, "quote", "expire_sweep",
				fmt.Sprintf("quote_id=%d error=%v", candidate.ID, err))
		}
	}

	utils.LogEvent(s.RequestID, "quote", "expire_sweep", fmt.Sprintf("expired=%d", expired))
	return expired, nil
}

func (s QuoteService) Get(ctx context.Context, quoteID int64) (models.Quote, error) {
	return s.QuoteRepo.GetByID(ctx, s.DB, quoteID)
}

func (s QuoteService) List(ctx context.Context, status string, customerID int64, limit int) ([]models.Quote, error) {
	if status != "" {
		if _, err := domain.ParseStatus(domain.EntityQuote, status); err != nil {
			return nil, err
		}
	}
	return s.QuoteRepo.List(ctx, s.DB, status, customerID, limit)
}
