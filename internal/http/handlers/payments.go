package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain/models"
	"autoship/internal/services"
)

type recordPaymentRequest struct {
	BookingID     int64  `json:"booking_id"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes"`
}

// POST /api/payments
func (a *API) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	payment, err := a.ledgerService(c).RecordPayment(c.Request.Context(), services.RecordPaymentInput{
		BookingID:     req.BookingID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// GET /api/payments
func (a *API) ListPayments(c *gin.Context) {
	payments, err := a.ledgerService(c).List(c.Request.Context(),
		c.Query("status"), queryInt64(c, "customer_id"), queryInt(c, "limit", 100))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GET /api/payments/:id
func (a *API) GetPayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	payment, err := a.ledgerService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// GET /api/bookings/:id/payments
func (a *API) ListBookingPayments(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	payments, err := a.ledgerService(c).ListByBooking(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type completePaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

// POST /api/payments/:id/complete
func (a *API) CompletePayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req completePaymentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	payment, err := a.ledgerService(c).CompletePayment(c.Request.Context(), id, req.TransactionID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type paymentReasonRequest struct {
	Reason string `json:"reason"`
}

// POST /api/payments/:id/fail
func (a *API) FailPayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req paymentReasonRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	payment, err := a.ledgerService(c).FailPayment(c.Request.Context(), id, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// POST /api/payments/:id/cancel
func (a *API) CancelPayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req paymentReasonRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	payment, err := a.ledgerService(c).CancelPayment(c.Request.Context(), id, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type refundPaymentRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// POST /api/payments/:id/refund
func (a *API) RefundPayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req refundPaymentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	refund, err := a.ledgerService(c).Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"refund": refund})
}

// GET /api/payments/:id/receipt
func (a *API) GetPaymentReceipt(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := a.docsService(c).GenerateReceipt(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
