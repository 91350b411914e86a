package notify

import (
	"log"
)

// Event names dispatched by the workflow services.
const (
	EventQuoteApproved      = "quote.approved"
	EventQuoteRejected      = "quote.rejected"
	EventQuoteExpired       = "quote.expired"
	EventBookingCreated     = "booking.created"
	EventBookingCancelled   = "booking.cancelled"
	EventPaymentCreated     = "payment.created"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentRefunded    = "payment.refunded"
	EventBookingFullyPaid   = "booking.fully_paid"
	EventPaymentOverdue     = "payment.overdue"
	EventDocumentVerified   = "document.verified"
	EventDocumentExpired    = "document.expired"
	EventShipmentUpdated    = "shipment.updated"
	EventShipmentDelayed    = "shipment.delayed"
	EventShipmentDelivered  = "shipment.delivered"
	EventCredentialsIssued  = "customer.credentials_issued"
	EventDocumentsRequested = "documents.requested"
)

// Notifier dispatches events to customers/admins. Delivery is fire-and-forget
// relative to the caller; implementations must never block a DB transaction.
type Notifier interface {
	Send(event, recipient string, payload map[string]any)
}

// LogNotifier writes notifications to the process log. It stands in for the
// real mail/SMS sender in development and in tests.
type LogNotifier struct{}

func (LogNotifier) Send(event, recipient string, payload map[string]any) {
	// Redact anything credential-shaped before logging.
	safe := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "temp_password" || k == "password" {
			safe[k] = "***"
			continue
		}
		safe[k] = v
	}
	log.Printf("[NOTIFY] event=%s recipient=%s payload=%v", event, recipient, safe)
}

// Discard drops every notification; used in tests.
type Discard struct{}

func (Discard) Send(event, recipient string, payload map[string]any) {}
