package models

import (
	"time"

	"autoship/internal/domain"
)

// Payment methods.
const (
	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"
	MethodCreditCard   = "credit_card"
	MethodCash         = "cash"
)

var ValidPaymentMethods = []string{
	MethodBankTransfer,
	MethodMobileMoney,
	MethodCreditCard,
	MethodCash,
}

func IsValidPaymentMethod(m string) bool {
	for _, v := range ValidPaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Payment is one ledger record. Refunds are separate records with a negative
// amount; the original record moves to status refunded.
type Payment struct {
	ID               int64         `json:"id"`
	PaymentReference string        `json:"payment_reference"`
	BookingID        int64         `json:"booking_id"`
	CustomerID       int64         `json:"customer_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Status           domain.Status `json:"status"`
	PaymentMethod    string        `json:"payment_method"`
	TransactionID    string        `json:"transaction_id,omitempty"`
	ProcessingFee    int64         `json:"processing_fee"`
	Notes            string        `json:"notes,omitempty"`
	RefundOfID       int64         `json:"refund_of_id,omitempty"`
	PaymentDate      *time.Time    `json:"payment_date,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsRefund reports whether this record is the negative side of a refund.
func (p Payment) IsRefund() bool {
	return p.Amount < 0
}

// DaysPending is how long a pending payment has been waiting.
func (p Payment) DaysPending(now time.Time) int {
	if p.Status != domain.PaymentPending {
		return 0
	}
	d := int(now.Sub(p.CreatedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// CalculateProcessingFee applies the per-method fee schedule, in cents:
// credit card 2.9% + 30c, mobile money 1.5%, bank transfer 0.5% capped at
// $25, cash free.
func CalculateProcessingFee(amount int64, method string) int64 {
	if amount <= 0 {
		return 0
	}
	switch method {
	case MethodCreditCard:
		return amount*29/1000 + 30
	case MethodMobileMoney:
		return amount * 15 / 1000
	case MethodBankTransfer:
		fee := amount * 5 / 1000
		if fee > 2500 {
			fee = 2500
		}
		return fee
	default:
		return 0
	}
}
