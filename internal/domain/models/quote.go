package models

import (
	"time"

	"autoship/internal/domain"
)

// Fee is one line of a quote's additional fees, stored as JSON.
type Fee struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// VehicleDetails is the denormalized vehicle snapshot captured on the quote.
// A real vehicle row is materialized from it at conversion time.
type VehicleDetails struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color,omitempty"`
	VIN   string `json:"vin,omitempty"`
	Type  string `json:"type,omitempty"`
}

type Quote struct {
	ID             int64           `json:"id"`
	QuoteReference string          `json:"quote_reference"`
	CustomerID     int64           `json:"customer_id"`
	RouteID        int64           `json:"route_id"`
	VehicleID      int64           `json:"vehicle_id,omitempty"`
	VehicleDetails VehicleDetails  `json:"vehicle_details"`
	BasePrice      int64           `json:"base_price"`
	AdditionalFees []Fee           `json:"additional_fees"`
	TotalAmount    int64           `json:"total_amount"`
	Currency       string          `json:"currency"`
	Status         domain.Status   `json:"status"`
	ValidUntil     time.Time       `json:"valid_until"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      int64           `json:"created_by,omitempty"`
	ApprovedBy     int64           `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TotalFees sums the additional fee lines.
func (q Quote) TotalFees() int64 {
	var sum int64
	for _, f := range q.AdditionalFees {
		sum += f.Amount
	}
	return sum
}

// CalculateTotal derives total_amount as base plus fees; it is recomputed
// server-side on every write.
func (q Quote) CalculateTotal() int64 {
	return q.BasePrice + q.TotalFees()
}

// IsExpired reports whether the quote is past its validity and not converted.
func (q Quote) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil) && q.Status != domain.QuoteConverted
}

// DaysUntilExpiry never goes below zero.
func (q Quote) DaysUntilExpiry(now time.Time) int {
	d := int(q.ValidUntil.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
