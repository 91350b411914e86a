package domain

import (
	"errors"
	"fmt"
)

// NotFoundError maps to 404.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError maps to 422 with field-level detail.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError maps to 409.
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// InternalError maps to 500; its message is never sent to clients.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// InvalidStateTransition is returned when a status change is not present in
// the entity's transition table. The entity is left untouched.
type InvalidStateTransition struct {
	Entity string
	From   Status
	To     Status
}

func (e InvalidStateTransition) Error() string {
	return fmt.Sprintf("%s: illegal transition %s -> %s", e.Entity, e.From, e.To)
}

// Ledger error codes.
const (
	LedgerInvalidAmount      = "invalid_amount"
	LedgerExceedsOutstanding = "exceeds_outstanding_balance"
)

// LedgerError is a money-rule rejection; nothing was written.
type LedgerError struct {
	Code string
	Msg  string
}

func (e LedgerError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Code
}

// Conversion error codes.
const (
	ConversionInvalidQuoteStatus = "invalid_quote_status"
	ConversionQuoteExpired       = "quote_expired"
	ConversionAlreadyConverted   = "already_converted"
)

// ConversionError rejects a quote-to-booking conversion. A missing quote is
// reported as NotFoundError, not as a ConversionError.
type ConversionError struct {
	Code string
	Msg  string
}

func (e ConversionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Code
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidStateTransition
	return errors.As(err, &target)
}

func AsLedger(err error) (LedgerError, bool) {
	var target LedgerError
	ok := errors.As(err, &target)
	return target, ok
}

func AsConversion(err error) (ConversionError, bool) {
	var target ConversionError
	ok := errors.As(err, &target)
	return target, ok
}
