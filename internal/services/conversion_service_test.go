package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"autoship/internal/domain"
	"autoship/internal/notify"
)

func quoteRow(id, customerID, vehicleID, total int64, status string, validUntil time.Time) *sqlmock.Rows {
	now := testClock()
	return sqlmock.NewRows([]string{
		"id", "quote_reference", "customer_id", "route_id",
		"vehicle_id", "vehicle_details",
		"base_price", "additional_fees", "total_amount", "currency",
		"status", "valid_until", "notes", "created_by",
		"approved_by", "approved_at", "created_at", "updated_at",
	}).AddRow(id, "QT2026010007", customerID, 1,
		vehicleID, `{"make":"Toyota","model":"Harrier","year":2019}`,
		total, `[]`, total, "USD",
		status, validUntil, "", 0,
		0, nil, now, now)
}

func credentialRow(quoteID, customerID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "quote_id", "customer_id", "temp_password", "issued_at",
	}).AddRow(1, quoteID, customerID, "w3TzQx7R", testClock())
}

func TestConvertToBookingSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	validUntil := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "approved", validUntil))
	mock.ExpectQuery("FROM bookings WHERE quote_id=").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).
		WillReturnRows(customerRow(3, "jane@example.com"))
	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("booking_reference LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"booking_reference"}))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("UPDATE quotes SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM pending_credentials WHERE quote_id=").
		WithArgs(int64(7)).
		WillReturnRows(credentialRow(7, 3))
	mock.ExpectExec("DELETE FROM pending_credentials").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := ConversionService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	booking, err := svc.ConvertToBooking(context.Background(), 7, BookingOverrides{
		RecipientName: "Receiving Agent Ltd",
	}, 2)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}
	if booking.ID != 42 {
		t.Fatalf("expected booking id 42, got %d", booking.ID)
	}
	if booking.BookingReference != "BK2026010001" {
		t.Fatalf("unexpected reference %s", booking.BookingReference)
	}
	if booking.Status != domain.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", booking.Status)
	}
	if booking.VehicleID != 11 {
		t.Fatalf("expected materialized vehicle 11, got %d", booking.VehicleID)
	}
	if booking.RecipientName != "Receiving Agent Ltd" {
		t.Fatalf("override should win over the profile, got %s", booking.RecipientName)
	}
	if booking.RecipientPhone != "+256700000000" {
		t.Fatalf("profile phone should backfill, got %s", booking.RecipientPhone)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConvertToBookingAlreadyConverted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "converted", testClock().AddDate(0, 1, 0)))
	mock.ExpectRollback()

	svc := ConversionService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.ConvertToBooking(context.Background(), 7, BookingOverrides{}, 2)

	var ce domain.ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if ce.Code != domain.ConversionAlreadyConverted {
		t.Fatalf("expected code %s, got %s", domain.ConversionAlreadyConverted, ce.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConvertToBookingExpiredQuote(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "approved", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	mock.ExpectRollback()

	svc := ConversionService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.ConvertToBooking(context.Background(), 7, BookingOverrides{}, 2)

	var ce domain.ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if ce.Code != domain.ConversionQuoteExpired {
		t.Fatalf("expected code %s, got %s", domain.ConversionQuoteExpired, ce.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConvertToBookingDuplicateKeyLoser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	validUntil := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 4, 450000, "approved", validUntil))
	mock.ExpectQuery("FROM bookings WHERE quote_id=").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).
		WillReturnRows(customerRow(3, "jane@example.com"))
	mock.ExpectQuery("booking_reference LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"booking_reference"}).AddRow("BK2026010004"))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'uq_bookings_quote'"})
	mock.ExpectRollback()

	svc := ConversionService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.ConvertToBooking(context.Background(), 7, BookingOverrides{}, 2)

	var ce domain.ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if ce.Code != domain.ConversionAlreadyConverted {
		t.Fatalf("expected code %s, got %s", domain.ConversionAlreadyConverted, ce.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
