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

// LedgerService owns the money side of a booking: recording payments,
// settling or failing them, and issuing refunds. Every mutation locks the
// booking row first so concurrent writers against the same booking serialize.
type LedgerService struct {
	DB           *sql.DB
	PaymentRepo  repositories.PaymentRepository
	BookingRepo  repositories.BookingRepository
	CustomerRepo repositories.CustomerRepository
	Notifier     notify.Notifier
	RequestID    string
	Now          func() time.Time
}

func (s LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

type RecordPaymentInput struct {
	BookingID     int64
	Amount        int64
	PaymentMethod string
	TransactionID string
	Notes         string
}

// RecordPayment opens a pending ledger record. The amount is validated
// against the outstanding balance under the booking row lock, so two clerks
// cannot jointly overshoot the total.
func (s LedgerService) RecordPayment(ctx context.Context, in RecordPaymentInput) (models.Payment, error) {
	if in.Amount <= 0 {
		return models.Payment{}, domain.LedgerError{
			Code: domain.LedgerInvalidAmount,
			Msg:  "payment amount must be positive",
		}
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return models.Payment{}, domain.ValidationError{Field: "payment_method", Msg: "unknown payment method"}
	}

	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, in.BookingID)
	if err != nil {
		return models.Payment{}, err
	}
	if booking.Status == domain.BookingCancelled {
		return models.Payment{}, domain.ConflictError{Msg: "booking is cancelled"}
	}
	if in.Amount > booking.BalanceAmount() {
		return models.Payment{}, domain.LedgerError{
			Code: domain.LedgerExceedsOutstanding,
			Msg: fmt.Sprintf("amount %s exceeds outstanding balance %s",
				utils.FormatAmount(in.Amount), utils.FormatAmount(booking.BalanceAmount())),
		}
	}

	payment := models.Payment{
		BookingID:     booking.ID,
		CustomerID:    booking.CustomerID,
		Amount:        in.Amount,
		Currency:      booking.Currency,
		Status:        domain.PaymentPending,
		PaymentMethod: in.PaymentMethod,
		TransactionID: in.TransactionID,
		ProcessingFee: models.CalculateProcessingFee(in.Amount, in.PaymentMethod),
		Notes:         in.Notes,
	}

	last, err := s.PaymentRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("PAY", now))
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "payment reference", Err: err}
	}
	payment.PaymentReference = utils.BuildReference("PAY", now, utils.NextSequence(last, 6), 6)

	payment.ID, err = s.PaymentRepo.Create(ctx, tx, payment)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "create payment", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "ledger", "record",
		fmt.Sprintf("payment_id=%d booking_id=%d amount=%d method=%s", payment.ID, booking.ID, payment.Amount, payment.PaymentMethod))

	s.notifyCustomer(ctx, notify.EventPaymentCreated, booking.CustomerID, map[string]any{
		"payment_reference": payment.PaymentReference,
		"booking_reference": booking.BookingReference,
		"amount":            payment.Amount,
	})
	return payment, nil
}

// CompletePayment settles a pending payment and credits the booking. The
// outstanding balance is re-checked under the booking lock: two pending
// payments that each fit the balance at record time cannot both settle.
func (s LedgerService) CompletePayment(ctx context.Context, paymentID int64, transactionID string) (models.Payment, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	payment, err := s.PaymentRepo.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	if err := domain.CheckTransition(domain.EntityPayment, payment.Status, domain.PaymentCompleted); err != nil {
		return models.Payment{}, err
	}

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, payment.BookingID)
	if err != nil {
		return models.Payment{}, err
	}
	if payment.Amount > booking.BalanceAmount() {
		return models.Payment{}, domain.LedgerError{
			Code: domain.LedgerExceedsOutstanding,
			Msg: fmt.Sprintf("amount %s exceeds outstanding balance %s",
				utils.FormatAmount(payment.Amount), utils.FormatAmount(booking.BalanceAmount())),
		}
	}

	if err := s.PaymentRepo.MarkCompleted(ctx, tx, payment.ID, transactionID, now); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "mark completed", Err: err}
	}
	if err := s.BookingRepo.AddPaid(ctx, tx, booking.ID, payment.Amount); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "credit booking", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	payment.Status = domain.PaymentCompleted
	payment.PaymentDate = &now
	if transactionID != "" {
		payment.TransactionID = transactionID
	}

	utils.LogEvent(s.RequestID, "ledger", "complete",
		fmt.Sprintf("payment_id=%d booking_id=%d amount=%d", payment.ID, booking.ID, payment.Amount))

	s.notifyCustomer(ctx, notify.EventPaymentCompleted, booking.CustomerID, map[string]any{
		"payment_reference": payment.PaymentReference,
		"booking_reference": booking.BookingReference,
		"amount":            payment.Amount,
	})
	if booking.PaidAmount+payment.Amount >= booking.TotalAmount {
		s.notifyCustomer(ctx, notify.EventBookingFullyPaid, booking.CustomerID, map[string]any{
			"booking_reference": booking.BookingReference,
			"total_amount":      booking.TotalAmount,
		})
	}
	return payment, nil
}

// FailPayment marks a pending payment as failed. The booking is untouched
// because pending payments never credited it.
func (s LedgerService) FailPayment(ctx context.Context, paymentID int64, reason string) (models.Payment, error) {
	return s.closePending(ctx, paymentID, domain.PaymentFailed, reason, "fail")
}

// CancelPayment voids a pending payment.
func (s LedgerService) CancelPayment(ctx context.Context, paymentID int64, reason string) (models.Payment, error) {
	return s.closePending(ctx, paymentID, domain.PaymentCancelled, reason, "cancel")
}

func (s LedgerService) closePending(ctx context.Context, paymentID int64, to domain.Status, reason, action string) (models.Payment, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	payment, err := s.PaymentRepo.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	if err := domain.CheckTransition(domain.EntityPayment, payment.Status, to); err != nil {
		return models.Payment{}, err
	}
	if err := s.PaymentRepo.UpdateStatus(ctx, tx, payment.ID, to, reason); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "update payment status", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	payment.Status = to
	if reason != "" {
		payment.Notes = reason
	}
	utils.LogEvent(s.RequestID, "ledger", action,
		fmt.Sprintf("payment_id=%d booking_id=%d", payment.ID, payment.BookingID))
	return payment, nil
}

// Refund reverses a completed payment, fully or in part. It writes a new
// negative ledger record pointing at the original, debits the booking, and
// moves the original to refunded on a full refund.
func (s LedgerService) Refund(ctx context.Context, paymentID, amount int64, reason string) (models.Payment, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	original, err := s.PaymentRepo.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	if original.Status != domain.PaymentCompleted {
		return models.Payment{}, domain.CheckTransition(domain.EntityPayment, original.Status, domain.PaymentRefunded)
	}
	if amount <= 0 {
		amount = original.Amount
	}
	if amount > original.Amount {
		return models.Payment{}, domain.LedgerError{
			Code: domain.LedgerInvalidAmount,
			Msg:  "refund amount exceeds the original payment",
		}
	}

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, original.BookingID)
	if err != nil {
		return models.Payment{}, err
	}

	refund := models.Payment{
		BookingID:     original.BookingID,
		CustomerID:    original.CustomerID,
		Amount:        -amount,
		Currency:      original.Currency,
		Status:        domain.PaymentCompleted,
		PaymentMethod: original.PaymentMethod,
		Notes:         reason,
		RefundOfID:    original.ID,
		PaymentDate:   &now,
	}

	last, err := s.PaymentRepo.LastReferenceForUpdate(ctx, tx, utils.ReferencePrefix("PAY", now))
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "payment reference", Err: err}
	}
	refund.PaymentReference = utils.BuildReference("PAY", now, utils.NextSequence(last, 6), 6)

	refund.ID, err = s.PaymentRepo.Create(ctx, tx, refund)
	if err != nil {
		return models.Payment{}, domain.InternalError{Msg: "create refund record", Err: err}
	}
	if amount == original.Amount {
		if err := s.PaymentRepo.UpdateStatus(ctx, tx, original.ID, domain.PaymentRefunded, reason); err != nil {
			return models.Payment{}, domain.InternalError{Msg: "mark refunded", Err: err}
		}
	}
	if err := s.BookingRepo.AddPaid(ctx, tx, booking.ID, -amount); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "debit booking", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return models.Payment{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "ledger", "refund",
		fmt.Sprintf("payment_id=%d refund_id=%d amount=%d", original.ID, refund.ID, amount))

	s.notifyCustomer(ctx, notify.EventPaymentRefunded, booking.CustomerID, map[string]any{
		"payment_reference": original.PaymentReference,
		"refund_reference":  refund.PaymentReference,
		"amount":            amount,
	})
	return refund, nil
}

func (s LedgerService) Get(ctx context.Context, id int64) (models.Payment, error) {
	return s.PaymentRepo.GetByID(ctx, s.DB, id)
}

func (s LedgerService) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	return s.PaymentRepo.ListByBooking(ctx, s.DB, bookingID)
}

func (s LedgerService) List(ctx context.Context, status string, customerID int64, limit int) ([]models.Payment, error) {
	if status != "" {
		if _, err := domain.ParseStatus(domain.EntityPayment, status); err != nil {
			return nil, err
		}
	}
	return s.PaymentRepo.List(ctx, s.DB, status, customerID, limit)
}

func (s LedgerService) notifyCustomer(ctx context.Context, event string, customerID int64, payload map[string]any) {
	customer, err := s.CustomerRepo.GetByID(ctx, s.DB, customerID)
	if err != nil {
		utils.LogEvent(s.RequestID, "ledger", "notify", fmt.Sprintf("customer lookup failed: %v", err))
		return
	}
	s.Notifier.Send(event, customer.Email, payload)
}
