package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"autoship/internal/domain"
	"autoship/internal/notify"
)

var testClock = func() time.Time {
	return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
}

func bookingRow(id, customerID, total, paid int64, status string) *sqlmock.Rows {
	now := testClock()
	return sqlmock.NewRows([]string{
		"id", "booking_reference", "customer_id", "quote_id",
		"vehicle_id", "route_id", "status", "total_amount", "paid_amount", "currency",
		"recipient_name", "recipient_phone", "recipient_address", "notes",
		"created_by", "deleted_at", "deleted_reason", "created_at", "updated_at",
	}).AddRow(id, "BK20260100001", customerID, 0,
		0, 1, status, total, paid, "USD",
		"Jane Doe", "+256700000000", "Plot 1, Kampala", "",
		0, nil, "", now, now)
}

func paymentRow(id, bookingID, customerID, amount int64, status string) *sqlmock.Rows {
	now := testClock()
	return sqlmock.NewRows([]string{
		"id", "payment_reference", "booking_id", "customer_id", "amount", "currency",
		"status", "payment_method", "transaction_id", "processing_fee", "notes",
		"refund_of_id", "payment_date", "created_at", "updated_at",
	}).AddRow(id, "PAY202601000009", bookingID, customerID, amount, "USD",
		status, "bank_transfer", "", 0, "",
		0, nil, now, now)
}

func customerRow(id int64, email string) *sqlmock.Rows {
	now := testClock()
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone", "address", "city", "country",
		"password_hash", "password_is_temporary", "status", "created_at", "updated_at",
	}).AddRow(id, "Jane", "Doe", email, "+256700000000", "Plot 1", "Kampala", "uganda",
		"x", false, "active", now, now)
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 10000, 8000, "confirmed"))
	mock.ExpectRollback()

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		BookingID:     9,
		Amount:        5000,
		PaymentMethod: "bank_transfer",
	})

	var le domain.LedgerError
	if !errors.As(err, &le) {
		t.Fatalf("expected LedgerError, got %v", err)
	}
	if le.Code != domain.LedgerExceedsOutstanding {
		t.Fatalf("expected code %s, got %s", domain.LedgerExceedsOutstanding, le.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordPaymentOnCancelledBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 10000, 0, "cancelled"))
	mock.ExpectRollback()

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		BookingID:     9,
		Amount:        1000,
		PaymentMethod: "cash",
	})

	var ce domain.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompletePaymentCreditsBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id=. FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(paymentRow(5, 9, 3, 2500, "pending"))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 10000, 7500, "confirmed"))
	mock.ExpectExec("UPDATE payments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET paid_amount=GREATEST").
		WithArgs(int64(2500), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// payment.completed plus booking.fully_paid, one customer lookup each
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	payment, err := svc.CompletePayment(context.Background(), 5, "TXN-1")
	if err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if payment.Status != domain.PaymentCompleted {
		t.Fatalf("expected completed, got %s", payment.Status)
	}
	if payment.PaymentDate == nil || !payment.PaymentDate.Equal(testClock()) {
		t.Fatalf("expected payment date %v, got %v", testClock(), payment.PaymentDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompletePaymentTwiceRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id=. FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(paymentRow(5, 9, 3, 2500, "completed"))
	mock.ExpectRollback()

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.CompletePayment(context.Background(), 5, "TXN-2")

	var ist domain.InvalidStateTransition
	if !errors.As(err, &ist) {
		t.Fatalf("expected InvalidStateTransition on double-complete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompletePaymentRejectsOvershoot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// A sibling pending payment settled first: only 200 of the total
	// remains, so this 800 payment must not credit the booking.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id=. FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(paymentRow(5, 9, 3, 800, "pending"))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 1000, 800, "confirmed"))
	mock.ExpectRollback()

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.CompletePayment(context.Background(), 5, "TXN-3")

	var le domain.LedgerError
	if !errors.As(err, &le) {
		t.Fatalf("expected LedgerError, got %v", err)
	}
	if le.Code != domain.LedgerExceedsOutstanding {
		t.Fatalf("expected code %s, got %s", domain.LedgerExceedsOutstanding, le.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundFullRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id=. FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(paymentRow(5, 9, 3, 10000, "completed"))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 10000, 10000, "confirmed"))
	mock.ExpectQuery("payment_reference LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"payment_reference"}))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec("UPDATE payments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET paid_amount=GREATEST").
		WithArgs(int64(-10000), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	refund, err := svc.Refund(context.Background(), 5, 0, "vehicle returned")
	if err != nil {
		t.Fatalf("refund error: %v", err)
	}
	if refund.Amount != -10000 {
		t.Fatalf("expected amount -10000, got %d", refund.Amount)
	}
	if refund.RefundOfID != 5 {
		t.Fatalf("expected refund_of_id 5, got %d", refund.RefundOfID)
	}
	if refund.PaymentReference != "PAY202601000001" {
		t.Fatalf("unexpected refund reference %s", refund.PaymentReference)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payments WHERE id=. FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(paymentRow(5, 9, 3, 10000, "pending"))
	mock.ExpectRollback()

	svc := LedgerService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.Refund(context.Background(), 5, 0, "")

	var ist domain.InvalidStateTransition
	if !errors.As(err, &ist) {
		t.Fatalf("expected InvalidStateTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
