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

func shipmentRow(id, bookingID int64, status, delayedFrom string, eta *time.Time) *sqlmock.Rows {
	now := testClock()
	return sqlmock.NewRows([]string{
		"id", "tracking_number", "booking_id", "status", "current_location",
		"departure_date", "estimated_arrival", "actual_arrival", "delayed_from",
		"created_at", "updated_at",
	}).AddRow(id, "TRK202601000001", bookingID, status, "Mombasa port",
		now.AddDate(0, 0, -20), eta, nil, delayedFrom,
		now, now)
}

func TestShipmentDeliveryCascadesBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	eta := testClock().AddDate(0, 0, 2)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shipments WHERE id=. FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(shipmentRow(1, 9, "in_transit", "", &eta))
	mock.ExpectExec("UPDATE shipments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shipment_tracking_updates").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 450000, 450000, "in_transit"))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("delivered", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))

	svc := ShipmentService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	shipment, err := svc.UpdateStatus(context.Background(), 1, ShipmentStatusInput{
		Status:      domain.ShipmentDelivered,
		Location:    "Kampala yard",
		Description: "handed over to customer",
	})
	if err != nil {
		t.Fatalf("update status error: %v", err)
	}
	if shipment.Status != domain.ShipmentDelivered {
		t.Fatalf("expected delivered, got %s", shipment.Status)
	}
	if shipment.ActualArrival == nil || !shipment.ActualArrival.Equal(testClock()) {
		t.Fatalf("expected actual arrival %v, got %v", testClock(), shipment.ActualArrival)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestShipmentDelayRecordsInterruptedStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	eta := testClock().AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shipments WHERE id=. FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(shipmentRow(1, 9, "customs", "", &eta))
	mock.ExpectExec("UPDATE shipments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shipment_tracking_updates").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 450000, 0, "in_transit"))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))

	svc := ShipmentService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	shipment, err := svc.UpdateStatus(context.Background(), 1, ShipmentStatusInput{
		Status: domain.ShipmentDelayed,
	})
	if err != nil {
		t.Fatalf("update status error: %v", err)
	}
	if shipment.DelayedFrom != domain.ShipmentCustoms {
		t.Fatalf("expected delayed_from customs, got %s", shipment.DelayedFrom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResumeRequiresDelayedShipment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	eta := testClock().AddDate(0, 0, 2)
	mock.ExpectQuery("FROM shipments WHERE id=").
		WithArgs(int64(1)).
		WillReturnRows(shipmentRow(1, 9, "in_transit", "", &eta))

	svc := ShipmentService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	_, err = svc.Resume(context.Background(), 1, "")

	var ce domain.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResumeReturnsToInterruptedStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	eta := testClock().AddDate(0, 0, 5)

	mock.ExpectQuery("FROM shipments WHERE id=").
		WithArgs(int64(1)).
		WillReturnRows(shipmentRow(1, 9, "delayed", "customs", &eta))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM shipments WHERE id=. FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(shipmentRow(1, 9, "delayed", "customs", &eta))
	mock.ExpectExec("UPDATE shipments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shipment_tracking_updates").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL FOR UPDATE").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 450000, 0, "in_transit"))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM customers WHERE id=").
		WithArgs(int64(3)).WillReturnRows(customerRow(3, "jane@example.com"))

	svc := ShipmentService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	shipment, err := svc.Resume(context.Background(), 1, "Malaba border")
	if err != nil {
		t.Fatalf("resume error: %v", err)
	}
	if shipment.Status != domain.ShipmentCustoms {
		t.Fatalf("expected customs after resume, got %s", shipment.Status)
	}
	if shipment.DelayedFrom != "" {
		t.Fatalf("expected cleared delayed_from, got %s", shipment.DelayedFrom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
