package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTransitions(t *testing.T) {
	assert.True(t, CanTransition(EntityQuote, QuotePending, QuoteApproved))
	assert.True(t, CanTransition(EntityQuote, QuotePending, QuoteRejected))
	assert.True(t, CanTransition(EntityQuote, QuotePending, QuoteExpired))
	assert.True(t, CanTransition(EntityQuote, QuoteApproved, QuoteConverted))
	assert.True(t, CanTransition(EntityQuote, QuoteApproved, QuoteExpired))
	assert.True(t, CanTransition(EntityQuote, QuoteExpired, QuotePending), "extending revives an expired quote")

	assert.False(t, CanTransition(EntityQuote, QuotePending, QuoteConverted), "pending must be approved first")
	assert.False(t, CanTransition(EntityQuote, QuoteExpired, QuoteConverted))
	assert.False(t, CanTransition(EntityQuote, QuoteConverted, QuotePending))
	assert.False(t, CanTransition(EntityQuote, QuoteRejected, QuoteApproved))
}

func TestBookingTransitionsAreLinearPlusCancel(t *testing.T) {
	assert.True(t, CanTransition(EntityBooking, BookingPending, BookingConfirmed))
	assert.True(t, CanTransition(EntityBooking, BookingConfirmed, BookingInTransit))
	assert.True(t, CanTransition(EntityBooking, BookingInTransit, BookingDelivered))

	for _, from := range []Status{BookingPending, BookingConfirmed, BookingInTransit} {
		assert.True(t, CanTransition(EntityBooking, from, BookingCancelled), "cancel from %s", from)
	}
	assert.False(t, CanTransition(EntityBooking, BookingDelivered, BookingCancelled))
	assert.False(t, CanTransition(EntityBooking, BookingCancelled, BookingConfirmed))
	assert.False(t, CanTransition(EntityBooking, BookingPending, BookingInTransit), "no skipping confirmed")
	assert.False(t, CanTransition(EntityBooking, BookingDelivered, BookingInTransit), "no going backwards")
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, CanTransition(EntityPayment, PaymentPending, PaymentCompleted))
	assert.True(t, CanTransition(EntityPayment, PaymentPending, PaymentFailed))
	assert.True(t, CanTransition(EntityPayment, PaymentPending, PaymentCancelled))
	assert.True(t, CanTransition(EntityPayment, PaymentCompleted, PaymentRefunded))

	assert.False(t, CanTransition(EntityPayment, PaymentPending, PaymentRefunded), "only completed payments refund")
	assert.False(t, CanTransition(EntityPayment, PaymentFailed, PaymentCompleted))
	assert.False(t, CanTransition(EntityPayment, PaymentRefunded, PaymentCompleted))
}

func TestDocumentTransitions(t *testing.T) {
	assert.True(t, CanTransition(EntityDocument, DocumentPending, DocumentApproved))
	assert.True(t, CanTransition(EntityDocument, DocumentPending, DocumentRejected))
	assert.True(t, CanTransition(EntityDocument, DocumentPending, DocumentRequiresRevision))
	assert.True(t, CanTransition(EntityDocument, DocumentRequiresRevision, DocumentPending))
	assert.True(t, CanTransition(EntityDocument, DocumentApproved, DocumentRequiresRevision))

	assert.False(t, CanTransition(EntityDocument, DocumentRejected, DocumentPending))
	assert.False(t, CanTransition(EntityDocument, DocumentApproved, DocumentRejected))
}

func TestShipmentTransitions(t *testing.T) {
	assert.True(t, CanTransition(EntityShipment, ShipmentPreparing, ShipmentInTransit))
	assert.True(t, CanTransition(EntityShipment, ShipmentInTransit, ShipmentCustoms))
	assert.True(t, CanTransition(EntityShipment, ShipmentInTransit, ShipmentDelayed))
	assert.True(t, CanTransition(EntityShipment, ShipmentCustoms, ShipmentDelayed))
	assert.True(t, CanTransition(EntityShipment, ShipmentDelayed, ShipmentInTransit))
	assert.True(t, CanTransition(EntityShipment, ShipmentDelayed, ShipmentCustoms))
	assert.True(t, CanTransition(EntityShipment, ShipmentDelayed, ShipmentDelivered))

	assert.False(t, CanTransition(EntityShipment, ShipmentPreparing, ShipmentDelayed), "delay only applies to moving shipments")
	assert.False(t, CanTransition(EntityShipment, ShipmentDelivered, ShipmentInTransit))
	assert.False(t, CanTransition(EntityShipment, ShipmentDelivered, ShipmentDelayed))
}

func TestCheckTransitionErrorCarriesContext(t *testing.T) {
	err := CheckTransition(EntityBooking, BookingDelivered, BookingCancelled)
	require.Error(t, err)

	var transition InvalidStateTransition
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, EntityBooking, transition.Entity)
	assert.Equal(t, BookingDelivered, transition.From)
	assert.Equal(t, BookingCancelled, transition.To)
	assert.True(t, IsInvalidTransition(err))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(EntityQuote, QuoteConverted))
	assert.True(t, IsTerminal(EntityQuote, QuoteRejected))
	assert.True(t, IsTerminal(EntityPayment, PaymentRefunded))
	assert.True(t, IsTerminal(EntityShipment, ShipmentDelivered))
	assert.True(t, IsTerminal(EntityDocument, DocumentRejected))

	assert.False(t, IsTerminal(EntityQuote, QuoteExpired), "expired quotes can revive")
	assert.False(t, IsTerminal(EntityDocument, DocumentApproved), "approved documents can expire")
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(EntityShipment, "customs")
	require.NoError(t, err)
	assert.Equal(t, ShipmentCustoms, s)

	_, err = ParseStatus(EntityShipment, "teleported")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = ParseStatus(EntityQuote, "confirmed")
	require.Error(t, err, "booking statuses are not quote statuses")
}
