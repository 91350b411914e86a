package domain

import "fmt"

// Status is a closed status value for one of the workflow entities. Each
// entity has its own constants and transition table; everything goes through
// CheckTransition so there is exactly one place that decides legality.
type Status string

// Quote statuses.
const (
	QuotePending   Status = "pending"
	QuoteApproved  Status = "approved"
	QuoteRejected  Status = "rejected"
	QuoteConverted Status = "converted"
	QuoteExpired   Status = "expired"
)

// Booking statuses.
const (
	BookingPending   Status = "pending"
	BookingConfirmed Status = "confirmed"
	BookingInTransit Status = "in_transit"
	BookingDelivered Status = "delivered"
	BookingCancelled Status = "cancelled"
)

// Payment statuses.
const (
	PaymentPending   Status = "pending"
	PaymentCompleted Status = "completed"
	PaymentFailed    Status = "failed"
	PaymentRefunded  Status = "refunded"
	PaymentCancelled Status = "cancelled"
)

// Document statuses.
const (
	DocumentPending          Status = "pending"
	DocumentApproved         Status = "approved"
	DocumentRejected         Status = "rejected"
	DocumentRequiresRevision Status = "requires_revision"
)

// Shipment statuses.
const (
	ShipmentPreparing Status = "preparing"
	ShipmentInTransit Status = "in_transit"
	ShipmentCustoms   Status = "customs"
	ShipmentDelayed   Status = "delayed"
	ShipmentDelivered Status = "delivered"
)

// Entity names used in transition errors.
const (
	EntityQuote    = "quote"
	EntityBooking  = "booking"
	EntityPayment  = "payment"
	EntityDocument = "document"
	EntityShipment = "shipment"
)

// QuoteTransitions: expired quotes can be revived back to pending by
// extending their validity; converted and rejected are terminal.
var QuoteTransitions = map[Status][]Status{
	QuotePending:   {QuoteApproved, QuoteRejected, QuoteExpired},
	QuoteApproved:  {QuoteConverted, QuoteExpired},
	QuoteExpired:   {QuotePending},
	QuoteRejected:  {},
	QuoteConverted: {},
}

var BookingTransitions = map[Status][]Status{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingInTransit, BookingCancelled},
	BookingInTransit: {BookingDelivered, BookingCancelled},
	BookingDelivered: {},
	BookingCancelled: {},
}

// PaymentTransitions: failed/cancelled/refunded are terminal for the record;
// a new payment models a retry.
var PaymentTransitions = map[Status][]Status{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentCancelled: {},
	PaymentRefunded:  {},
}

// DocumentTransitions: approved -> requires_revision is reserved for the
// expiry sweep; verification never takes that edge.
var DocumentTransitions = map[Status][]Status{
	DocumentPending:          {DocumentApproved, DocumentRejected, DocumentRequiresRevision},
	DocumentRequiresRevision: {DocumentPending},
	DocumentApproved:         {DocumentRequiresRevision},
	DocumentRejected:         {},
}

// ShipmentTransitions: a delayed shipment resumes to the forward status it
// was in when the delay hit (tracked on the shipment row).
var ShipmentTransitions = map[Status][]Status{
	ShipmentPreparing: {ShipmentInTransit},
	ShipmentInTransit: {ShipmentCustoms, ShipmentDelivered, ShipmentDelayed},
	ShipmentCustoms:   {ShipmentDelivered, ShipmentDelayed},
	ShipmentDelayed:   {ShipmentInTransit, ShipmentCustoms, ShipmentDelivered},
	ShipmentDelivered: {},
}

var transitionTables = map[string]map[Status][]Status{
	EntityQuote:    QuoteTransitions,
	EntityBooking:  BookingTransitions,
	EntityPayment:  PaymentTransitions,
	EntityDocument: DocumentTransitions,
	EntityShipment: ShipmentTransitions,
}

// CanTransition reports whether from -> to is legal for the entity.
func CanTransition(entity string, from, to Status) bool {
	table, ok := transitionTables[entity]
	if !ok {
		return false
	}
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns InvalidStateTransition when from -> to is illegal.
func CheckTransition(entity string, from, to Status) error {
	if !CanTransition(entity, from, to) {
		return InvalidStateTransition{Entity: entity, From: from, To: to}
	}
	return nil
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(entity string, s Status) bool {
	table, ok := transitionTables[entity]
	if !ok {
		return false
	}
	next, ok := table[s]
	return ok && len(next) == 0
}

// ParseStatus validates a raw status string against the entity's table.
func ParseStatus(entity, raw string) (Status, error) {
	table, ok := transitionTables[entity]
	if !ok {
		return "", fmt.Errorf("unknown entity: %s", entity)
	}
	s := Status(raw)
	if _, ok := table[s]; !ok {
		return "", ValidationError{Field: "status", Msg: fmt.Sprintf("unknown %s status %q", entity, raw)}
	}
	return s, nil
}
