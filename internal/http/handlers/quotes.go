package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain/models"
	"autoship/internal/http/middleware"
	"autoship/internal/services"
	"autoship/internal/utils"
)

type createQuoteRequest struct {
	CustomerID     int64                 `json:"customer_id"`
	RouteID        int64                 `json:"route_id"`
	VehicleDetails models.VehicleDetails `json:"vehicle_details"`
	BasePrice      int64                 `json:"base_price"`
	AdditionalFees []models.Fee          `json:"additional_fees"`
	Currency       string                `json:"currency"`
	ValidUntil     string                `json:"valid_until"`
	Notes          string                `json:"notes"`
}

// POST /api/quotes
func (a *API) CreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	var validUntil *time.Time
	if req.ValidUntil != "" {
		t, err := utils.ParseDate(req.ValidUntil)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "valid_until must be YYYY-MM-DD", err)
			return
		}
		validUntil = &t
	}

	quote, err := a.quoteService(c).Create(c.Request.Context(), services.CreateQuoteInput{
		CustomerID:     req.CustomerID,
		RouteID:        req.RouteID,
		VehicleDetails: req.VehicleDetails,
		BasePrice:      req.BasePrice,
		AdditionalFees: req.AdditionalFees,
		Currency:       req.Currency,
		ValidUntil:     validUntil,
		Notes:          req.Notes,
		CreatedBy:      middleware.GetActorID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// GET /api/quotes
func (a *API) ListQuotes(c *gin.Context) {
	quotes, err := a.quoteService(c).List(c.Request.Context(),
		c.Query("status"), queryInt64(c, "customer_id"), queryInt(c, "limit", 100))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// GET /api/quotes/:id
func (a *API) GetQuote(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	quote, err := a.quoteService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type quoteDecisionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// POST /api/quotes/:id/approve
func (a *API) ApproveQuote(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req quoteDecisionRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	quote, err := a.quoteService(c).Approve(c.Request.Context(), id, middleware.GetActorID(c), req.Notes)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// POST /api/quotes/:id/reject
func (a *API) RejectQuote(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req quoteDecisionRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	quote, err := a.quoteService(c).Reject(c.Request.Context(), id, middleware.GetActorID(c), req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type extendQuoteRequest struct {
	Days int `json:"days"`
}

// POST /api/quotes/:id/extend
func (a *API) ExtendQuote(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req extendQuoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	quote, err := a.quoteService(c).ExtendValidity(c.Request.Context(), id, req.Days)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type convertQuoteRequest struct {
	RecipientName    string `json:"recipient_name"`
	RecipientPhone   string `json:"recipient_phone"`
	RecipientAddress string `json:"recipient_address"`
	Notes            string `json:"notes"`
}

// POST /api/quotes/:id/convert-to-booking
func (a *API) ConvertQuote(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req convertQuoteRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	booking, err := a.conversionService(c).ConvertToBooking(c.Request.Context(), id, services.BookingOverrides{
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		Notes:            req.Notes,
	}, middleware.GetActorID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}
