package services

import (
	"context"
	"database/sql"
	"time"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/repositories"
	"autoship/internal/utils"
)

// Priority buckets for overdue payments.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PaymentPriority buckets an overdue payment by how long it has sat pending.
func PaymentPriority(daysPending int) string {
	switch {
	case daysPending > 30:
		return PriorityHigh
	case daysPending > 14:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// CollectionActions is the fixed escalation ladder for overdue payments.
func CollectionActions(daysPending int) []string {
	switch {
	case daysPending <= 7:
		return []string{"Send gentle reminder", "Contact customer via phone"}
	case daysPending <= 14:
		return []string{"Send urgent reminder", "Schedule follow-up call", "Offer payment plan"}
	case daysPending <= 30:
		return []string{"Escalate to management", "Consider legal action", "Suspend services"}
	default:
		return []string{"Legal collection process", "Write-off consideration", "Debt collection agency"}
	}
}

// ShipmentActions suggests next steps for a shipment needing attention.
func ShipmentActions(s models.Shipment, now time.Time) []string {
	var actions []string
	if s.IsDelayed(now) {
		actions = append(actions, "Contact carrier for updated ETA", "Notify customer of delay")
		if s.DaysOverdue(now) > 7 {
			actions = append(actions, "Escalate to management", "Consider compensation options")
		}
	}
	if s.Status == domain.ShipmentCustoms {
		actions = append(actions, "Verify customs documentation", "Check for additional fees")
	}
	return actions
}

type OverduePayment struct {
	Payment          models.Payment `json:"payment"`
	DaysPending      int            `json:"days_pending"`
	Priority         string         `json:"priority"`
	SuggestedActions []string       `json:"suggested_actions"`
}

type OverdueSummary struct {
	Payments      []OverduePayment `json:"payments"`
	TotalOverdue  int              `json:"total_overdue"`
	TotalAmount   int64            `json:"total_amount"`
	HighPriority  int              `json:"high_priority_count"`
	MediumCount   int              `json:"medium_priority_count"`
	LowCount      int              `json:"low_priority_count"`
	ThresholdDays int              `json:"threshold_days"`
}

type ExpiringDocument struct {
	Document      models.Document `json:"document"`
	DaysRemaining int             `json:"days_remaining"`
}

type DelayedShipment struct {
	Shipment         models.Shipment `json:"shipment"`
	DaysOverdue      int             `json:"days_overdue"`
	SuggestedActions []string        `json:"suggested_actions"`
}

// AttentionService produces the "requires attention" lists for the back
// office. Everything here is read-only; the sweeps do the mutations.
type AttentionService struct {
	DB                 *sql.DB
	PaymentRepo        repositories.PaymentRepository
	DocumentRepo       repositories.DocumentRepository
	ShipmentRepo       repositories.ShipmentRepository
	OverdueDays        int
	ExpiringWindowDays int
	Now                func() time.Time
}

func (s AttentionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// OverduePayments lists pending payments older than the threshold, bucketed
// by priority with the fixed collection actions attached.
func (s AttentionService) OverduePayments(ctx context.Context, thresholdDays int) (OverdueSummary, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.OverdueDays
	}
	if thresholdDays <= 0 {
		thresholdDays = 30
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -thresholdDays)
	pending, err := s.PaymentRepo.ListPendingOlderThan(ctx, s.DB, cutoff)
	if err != nil {
		return OverdueSummary{}, domain.InternalError{Msg: "list overdue payments", Err: err}
	}

	summary := OverdueSummary{Payments: []OverduePayment{}, ThresholdDays: thresholdDays}
	for _, p := range pending {
		days := p.DaysPending(now)
		item := OverduePayment{
			Payment:          p,
			DaysPending:      days,
			Priority:         PaymentPriority(days),
			SuggestedActions: CollectionActions(days),
		}
		summary.Payments = append(summary.Payments, item)
		summary.TotalOverdue++
		summary.TotalAmount += p.Amount
		switch item.Priority {
		case PriorityHigh:
			summary.HighPriority++
		case PriorityMedium:
			summary.MediumCount++
		default:
			summary.LowCount++
		}
	}
	return summary, nil
}

// ExpiringDocuments lists approved documents whose expiry falls inside the
// window. Already-expired documents are the expiry sweep's business, not
// this scanner's.
func (s AttentionService) ExpiringDocuments(ctx context.Context, windowDays int) ([]ExpiringDocument, error) {
	if windowDays <= 0 {
		windowDays = s.ExpiringWindowDays
	}
	if windowDays <= 0 {
		windowDays = 30
	}

	now := s.now()
	docs, err := s.DocumentRepo.ListExpiringApproved(ctx, s.DB, now, now.AddDate(0, 0, windowDays))
	if err != nil {
		return nil, domain.InternalError{Msg: "list expiring documents", Err: err}
	}

	out := []ExpiringDocument{}
	for _, d := range docs {
		out = append(out, ExpiringDocument{
			Document:      d,
			DaysRemaining: utils.DaysBetween(now, *d.ExpiryDate),
		})
	}
	return out, nil
}

// DelayedShipments lists shipments flagged delayed plus moving shipments
// past their estimated arrival.
func (s AttentionService) DelayedShipments(ctx context.Context) ([]DelayedShipment, error) {
	now := s.now()
	shipments, err := s.ShipmentRepo.ListDelayCandidates(ctx, s.DB, now)
	if err != nil {
		return nil, domain.InternalError{Msg: "list delayed shipments", Err: err}
	}

	out := []DelayedShipment{}
	for _, sh := range shipments {
		out = append(out, DelayedShipment{
			Shipment:         sh,
			DaysOverdue:      sh.DaysOverdue(now),
			SuggestedActions: ShipmentActions(sh, now),
		})
	}
	return out, nil
}
