package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
)

func TestPaymentPriority(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, PriorityLow},
		{14, PriorityLow},
		{15, PriorityMedium},
		{30, PriorityMedium},
		{31, PriorityHigh},
		{90, PriorityHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PaymentPriority(tc.days), "days %d", tc.days)
	}
}

func TestCollectionActionsLadder(t *testing.T) {
	assert.Equal(t,
		[]string{"Send gentle reminder", "Contact customer via phone"},
		CollectionActions(7))
	assert.Equal(t,
		[]string{"Send urgent reminder", "Schedule follow-up call", "Offer payment plan"},
		CollectionActions(14))
	assert.Equal(t,
		[]string{"Escalate to management", "Consider legal action", "Suspend services"},
		CollectionActions(30))
	assert.Equal(t,
		[]string{"Legal collection process", "Write-off consideration", "Debt collection agency"},
		CollectionActions(31))
}

func TestShipmentActions(t *testing.T) {
	now := testClock()
	eta := now.AddDate(0, 0, -3)
	longPast := now.AddDate(0, 0, -10)

	moving := models.Shipment{Status: domain.ShipmentInTransit, EstimatedArrival: &eta}
	assert.Equal(t,
		[]string{"Contact carrier for updated ETA", "Notify customer of delay"},
		ShipmentActions(moving, now))

	badlyLate := models.Shipment{Status: domain.ShipmentDelayed, EstimatedArrival: &longPast}
	assert.Equal(t,
		[]string{
			"Contact carrier for updated ETA", "Notify customer of delay",
			"Escalate to management", "Consider compensation options",
		},
		ShipmentActions(badlyLate, now))

	stuckInCustoms := models.Shipment{Status: domain.ShipmentCustoms}
	assert.Equal(t,
		[]string{"Verify customs documentation", "Check for additional fees"},
		ShipmentActions(stuckInCustoms, now))

	onTime := models.Shipment{Status: domain.ShipmentInTransit}
	assert.Empty(t, ShipmentActions(onTime, now))
}

func TestOverduePaymentsBucketsAndTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := testClock()
	rows := sqlmock.NewRows([]string{
		"id", "payment_reference", "booking_id", "customer_id", "amount", "currency",
		"status", "payment_method", "transaction_id", "processing_fee", "notes",
		"refund_of_id", "payment_date", "created_at", "updated_at",
	}).
		AddRow(1, "PAY202511000001", 9, 3, 5000, "USD", "pending", "cash", "", 0, "", 0, nil, now.AddDate(0, 0, -45), now).
		AddRow(2, "PAY202512000002", 9, 3, 3000, "USD", "pending", "cash", "", 0, "", 0, nil, now.AddDate(0, 0, -20), now).
		AddRow(3, "PAY202601000003", 9, 3, 2000, "USD", "pending", "cash", "", 0, "", 0, nil, now.AddDate(0, 0, -8), now)

	mock.ExpectQuery("FROM payments\\s+WHERE status=. AND created_at <").
		WillReturnRows(rows)

	svc := AttentionService{DB: db, Now: testClock}
	summary, err := svc.OverduePayments(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.ThresholdDays)
	assert.Equal(t, 3, summary.TotalOverdue)
	assert.Equal(t, int64(10000), summary.TotalAmount)
	assert.Equal(t, 1, summary.HighPriority)
	assert.Equal(t, 1, summary.MediumCount)
	assert.Equal(t, 1, summary.LowCount)

	require.Len(t, summary.Payments, 3)
	assert.Equal(t, PriorityHigh, summary.Payments[0].Priority)
	assert.Equal(t,
		[]string{"Legal collection process", "Write-off consideration", "Debt collection agency"},
		summary.Payments[0].SuggestedActions)
	assert.Equal(t, 45, summary.Payments[0].DaysPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverduePaymentsDefaultThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM payments\\s+WHERE status=. AND created_at <").
		WithArgs("pending", testClock().AddDate(0, 0, -30)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "payment_reference", "booking_id", "customer_id", "amount", "currency",
			"status", "payment_method", "transaction_id", "processing_fee", "notes",
			"refund_of_id", "payment_date", "created_at", "updated_at",
		}))

	svc := AttentionService{DB: db, Now: testClock}
	summary, err := svc.OverduePayments(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, summary.ThresholdDays)
	assert.Empty(t, summary.Payments)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelayedShipmentsAnnotates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := testClock()
	eta := now.AddDate(0, 0, -9)
	rows := sqlmock.NewRows([]string{
		"id", "tracking_number", "booking_id", "status", "current_location",
		"departure_date", "estimated_arrival", "actual_arrival", "delayed_from",
		"created_at", "updated_at",
	}).AddRow(1, "TRK202601000001", 9, "in_transit", "Mombasa port",
		now.AddDate(0, 0, -40), eta, nil, "",
		now, now)

	mock.ExpectQuery("FROM shipments").WillReturnRows(rows)

	svc := AttentionService{DB: db, Now: testClock}
	delayed, err := svc.DelayedShipments(context.Background())
	require.NoError(t, err)

	require.Len(t, delayed, 1)
	assert.Equal(t, 9, delayed[0].DaysOverdue)
	assert.Equal(t,
		[]string{
			"Contact carrier for updated ETA", "Notify customer of delay",
			"Escalate to management", "Consider compensation options",
		},
		delayed[0].SuggestedActions)
	require.NoError(t, mock.ExpectationsWereMet())
}
