package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain"
	"autoship/internal/http/middleware"
)

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, gin.H{
		"error":      message,
		"code":       code,
		"details":    details,
		"request_id": middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Business-rule
// rejections (illegal transitions, ledger rules, conversion rules) are 400s;
// the double-conversion case is a 409 since the resource already exists.
func RespondDomainError(c *gin.Context, err error) {
	if convErr, ok := domain.AsConversion(err); ok {
		if convErr.Code == domain.ConversionAlreadyConverted {
			respondError(c, http.StatusConflict, convErr.Code, convErr.Error(), nil)
			return
		}
		respondError(c, http.StatusBadRequest, convErr.Code, convErr.Error(), nil)
		return
	}
	if ledgerErr, ok := domain.AsLedger(err); ok {
		respondError(c, http.StatusBadRequest, ledgerErr.Code, ledgerErr.Error(), nil)
		return
	}
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusUnprocessableEntity, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsInvalidTransition(err):
		respondError(c, http.StatusBadRequest, "invalid_transition", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
