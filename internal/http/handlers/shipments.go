package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain"
	"autoship/internal/services"
	"autoship/internal/utils"
)

type createShipmentRequest struct {
	BookingID        int64  `json:"booking_id"`
	CurrentLocation  string `json:"current_location"`
	DepartureDate    string `json:"departure_date"`
	EstimatedArrival string `json:"estimated_arrival"`
}

func parseOptionalDate(c *gin.Context, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		RespondError(c, http.StatusBadRequest, field+" must be YYYY-MM-DD", err)
		return nil, false
	}
	return &t, true
}

// POST /api/shipments
func (a *API) CreateShipment(c *gin.Context) {
	var req createShipmentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	departure, ok := parseOptionalDate(c, "departure_date", req.DepartureDate)
	if !ok {
		return
	}
	estimated, ok := parseOptionalDate(c, "estimated_arrival", req.EstimatedArrival)
	if !ok {
		return
	}

	shipment, err := a.shipmentService(c).CreateForBooking(c.Request.Context(), services.CreateShipmentInput{
		BookingID:        req.BookingID,
		CurrentLocation:  req.CurrentLocation,
		DepartureDate:    departure,
		EstimatedArrival: estimated,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shipment": shipment})
}

// GET /api/shipments/:id
func (a *API) GetShipment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	shipment, err := a.shipmentService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": shipment, "progress": shipment.Progress()})
}

// GET /api/bookings/:id/shipment
func (a *API) GetBookingShipment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	shipment, err := a.shipmentService(c).GetByBooking(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": shipment, "progress": shipment.Progress()})
}

type shipmentStatusRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// PUT /api/shipments/:id/status
func (a *API) UpdateShipmentStatus(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req shipmentStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	status, err := domain.ParseStatus(domain.EntityShipment, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	shipment, err := a.shipmentService(c).UpdateStatus(c.Request.Context(), id, services.ShipmentStatusInput{
		Status:      status,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": shipment})
}

type resumeShipmentRequest struct {
	Location string `json:"location"`
}

// POST /api/shipments/:id/resume
func (a *API) ResumeShipment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req resumeShipmentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	shipment, err := a.shipmentService(c).Resume(c.Request.Context(), id, req.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": shipment})
}

type trackingUpdateRequest struct {
	Timestamp   string `json:"timestamp"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// POST /api/shipments/:id/tracking
func (a *API) AddTrackingUpdate(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req trackingUpdateRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	var ts *time.Time
	if req.Timestamp != "" {
		t, err := utils.ParseDateTime(req.Timestamp)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "timestamp must be YYYY-MM-DD HH:MM:SS", err)
			return
		}
		ts = &t
	}

	update, err := a.shipmentService(c).AddTrackingUpdate(c.Request.Context(), id, services.TrackingInput{
		Timestamp:   ts,
		Location:    req.Location,
		Status:      domain.Status(req.Status),
		Description: req.Description,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tracking_update": update})
}

// GET /api/shipments/:id/tracking
func (a *API) GetTrackingHistory(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	updates, err := a.shipmentService(c).TrackingHistory(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking_updates": updates})
}
