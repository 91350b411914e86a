package models

import (
	"time"

	"autoship/internal/domain"
)

type Shipment struct {
	ID               int64         `json:"id"`
	TrackingNumber   string        `json:"tracking_number"`
	BookingID        int64         `json:"booking_id"`
	Status           domain.Status `json:"status"`
	CurrentLocation  string        `json:"current_location,omitempty"`
	DepartureDate    *time.Time    `json:"departure_date,omitempty"`
	EstimatedArrival *time.Time    `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time    `json:"actual_arrival,omitempty"`
	// DelayedFrom holds the forward status a delayed shipment resumes to.
	DelayedFrom domain.Status `json:"delayed_from,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TrackingUpdate is one append-only tracking event. Timestamps are
// monotonically non-decreasing per shipment.
type TrackingUpdate struct {
	ID          int64         `json:"id"`
	ShipmentID  int64         `json:"shipment_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Location    string        `json:"location"`
	Status      domain.Status `json:"status"`
	Description string        `json:"description,omitempty"`
}

// IsDelayed covers both flagged delays and shipments past their ETA.
func (s Shipment) IsDelayed(now time.Time) bool {
	if s.Status == domain.ShipmentDelayed {
		return true
	}
	if s.Status == domain.ShipmentDelivered || s.EstimatedArrival == nil {
		return false
	}
	return now.After(*s.EstimatedArrival)
}

// DaysOverdue is how far past the ETA an undelivered shipment is.
func (s Shipment) DaysOverdue(now time.Time) int {
	if s.EstimatedArrival == nil || s.Status == domain.ShipmentDelivered {
		return 0
	}
	d := int(now.Sub(*s.EstimatedArrival).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Progress maps shipment status onto a completion percentage.
func (s Shipment) Progress() int {
	switch s.Status {
	case domain.ShipmentPreparing:
		return 10
	case domain.ShipmentDelayed:
		return 25
	case domain.ShipmentInTransit:
		return 50
	case domain.ShipmentCustoms:
		return 80
	case domain.ShipmentDelivered:
		return 100
	default:
		return 0
	}
}
