package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/http/middleware"
	"autoship/internal/services"
)

type createBookingRequest struct {
	CustomerID       int64  `json:"customer_id"`
	RouteID          int64  `json:"route_id"`
	VehicleID        int64  `json:"vehicle_id"`
	TotalAmount      int64  `json:"total_amount"`
	Currency         string `json:"currency"`
	RecipientName    string `json:"recipient_name"`
	RecipientPhone   string `json:"recipient_phone"`
	RecipientAddress string `json:"recipient_address"`
	Notes            string `json:"notes"`
}

// POST /api/bookings
func (a *API) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	booking, err := a.bookingService(c).Create(c.Request.Context(), services.CreateBookingInput{
		CustomerID:       req.CustomerID,
		RouteID:          req.RouteID,
		VehicleID:        req.VehicleID,
		TotalAmount:      req.TotalAmount,
		Currency:         req.Currency,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		Notes:            req.Notes,
		CreatedBy:        middleware.GetActorID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// GET /api/bookings
func (a *API) ListBookings(c *gin.Context) {
	bookings, err := a.bookingService(c).List(c.Request.Context(),
		c.Query("status"), queryInt64(c, "customer_id"), queryInt(c, "limit", 100))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GET /api/bookings/:id
func (a *API) GetBooking(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	booking, err := a.bookingService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":        booking,
		"payment_status": booking.PaymentStatus(),
		"balance":        booking.BalanceAmount(),
		"progress":       booking.Progress(),
	})
}

type bookingStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// PUT /api/bookings/:id/status
func (a *API) UpdateBookingStatus(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req bookingStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	status, err := domain.ParseStatus(domain.EntityBooking, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	booking, err := a.bookingService(c).UpdateStatus(c.Request.Context(), id, status, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

type deleteBookingRequest struct {
	Reason string `json:"reason"`
}

// DELETE /api/bookings/:id
func (a *API) DeleteBooking(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req deleteBookingRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	if err := a.bookingService(c).Delete(c.Request.Context(), id, req.Reason); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

// GET /api/bookings/:id/invoice
func (a *API) GetBookingInvoice(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := a.docsService(c).GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GET /api/bookings/:id/documents/missing
func (a *API) GetMissingDocuments(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	missing, err := a.documentService(c).MissingDocuments(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	labels := make([]string, 0, len(missing))
	for _, t := range missing {
		labels = append(labels, t.Label())
	}
	c.JSON(http.StatusOK, gin.H{"missing": missing, "labels": labels, "complete": len(missing) == 0})
}

// POST /api/bookings/:id/documents/request
func (a *API) RequestMissingDocuments(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	missing, err := a.documentService(c).RequestMissing(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing": missing, "requested": len(missing) > 0})
}
