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

func TestExtendValidityRevivesExpiredQuote(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	oldValidUntil := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "expired", oldValidUntil))
	mock.ExpectExec("UPDATE quotes SET valid_until=").
		WithArgs(oldValidUntil.AddDate(0, 0, 14), "pending", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := QuoteService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	quote, err := svc.ExtendValidity(context.Background(), 7, 14)
	if err != nil {
		t.Fatalf("extend error: %v", err)
	}
	if quote.Status != domain.QuotePending {
		t.Fatalf("expected revived quote to be pending, got %s", quote.Status)
	}
	if !quote.ValidUntil.Equal(oldValidUntil.AddDate(0, 0, 14)) {
		t.Fatalf("unexpected valid_until %v", quote.ValidUntil)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExtendValidityRejectsTerminalQuote(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "converted", testClock()))
	mock.ExpectRollback()

	svc := QuoteService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.ExtendValidity(context.Background(), 7, 14)

	var ist domain.InvalidStateTransition
	if !errors.As(err, &ist) {
		t.Fatalf("expected InvalidStateTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessExpiredQuotesIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	pastValidity := testClock().AddDate(0, 0, -3)

	mock.ExpectQuery("FROM quotes\\s+WHERE valid_until <").
		WillReturnRows(quoteRow(7, 3, 0, 450000, "pending", pastValidity))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "pending", pastValidity))
	mock.ExpectExec("UPDATE quotes SET status").
		WithArgs("expired", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := QuoteService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	expired, err := svc.ProcessExpiredQuotes(context.Background())
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired quote, got %d", expired)
	}

	// Second run: the listing still races in the same quote, but the
	// re-check under lock sees it already expired and leaves it alone.
	mock.ExpectQuery("FROM quotes\\s+WHERE valid_until <").
		WillReturnRows(quoteRow(7, 3, 0, 450000, "expired", pastValidity))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM quotes WHERE id=. FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(quoteRow(7, 3, 0, 450000, "expired", pastValidity))
	mock.ExpectRollback()

	expired, err = svc.ProcessExpiredQuotes(context.Background())
	if err != nil {
		t.Fatalf("second sweep error: %v", err)
	}
	if expired != 0 {
		t.Fatalf("second sweep should expire nothing, got %d", expired)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
