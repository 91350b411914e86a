package models

import (
	"time"

	"autoship/internal/domain"
)

// Derived payment standing of a booking.
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

type Booking struct {
	ID               int64         `json:"id"`
	BookingReference string        `json:"booking_reference"`
	CustomerID       int64         `json:"customer_id"`
	QuoteID          int64         `json:"quote_id,omitempty"`
	VehicleID        int64         `json:"vehicle_id,omitempty"`
	RouteID          int64         `json:"route_id"`
	Status           domain.Status `json:"status"`
	TotalAmount      int64         `json:"total_amount"`
	PaidAmount       int64         `json:"paid_amount"`
	Currency         string        `json:"currency"`
	RecipientName    string        `json:"recipient_name,omitempty"`
	RecipientPhone   string        `json:"recipient_phone,omitempty"`
	RecipientAddress string        `json:"recipient_address,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	CreatedBy        int64         `json:"created_by,omitempty"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty"`
	DeletedReason    string        `json:"deleted_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BalanceAmount is the outstanding balance, never derived below zero.
func (b Booking) BalanceAmount() int64 {
	bal := b.TotalAmount - b.PaidAmount
	if bal < 0 {
		return 0
	}
	return bal
}

// PaymentStatus derives unpaid/partial/paid from the ledger amounts.
func (b Booking) PaymentStatus() string {
	switch {
	case b.PaidAmount <= 0:
		return PaymentStatusUnpaid
	case b.PaidAmount < b.TotalAmount:
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}

// Progress maps booking status onto a rough completion percentage for the
// dashboard cards.
func (b Booking) Progress() int {
	switch b.Status {
	case domain.BookingConfirmed:
		return 25
	case domain.BookingInTransit:
		return 50
	case domain.BookingDelivered:
		return 100
	default:
		return 0
	}
}
