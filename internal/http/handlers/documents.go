package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/http/middleware"
	"autoship/internal/services"
)

type uploadDocumentRequest struct {
	BookingID    int64  `json:"booking_id"`
	DocumentType string `json:"document_type"`
	FilePath     string `json:"file_path"`
	FileName     string `json:"file_name"`
	ExpiryDate   string `json:"expiry_date"`
	Notes        string `json:"notes"`
}

// POST /api/documents
func (a *API) UploadDocument(c *gin.Context) {
	var req uploadDocumentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	expiry, ok := parseOptionalDate(c, "expiry_date", req.ExpiryDate)
	if !ok {
		return
	}

	doc, err := a.documentService(c).Upload(c.Request.Context(), services.UploadDocumentInput{
		BookingID:    req.BookingID,
		DocumentType: models.DocumentType(req.DocumentType),
		FilePath:     req.FilePath,
		FileName:     req.FileName,
		ExpiryDate:   expiry,
		Notes:        req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GET /api/documents/:id
func (a *API) GetDocument(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	doc, err := a.documentService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// GET /api/bookings/:id/documents
func (a *API) ListBookingDocuments(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	docs, err := a.documentService(c).ListByBooking(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

type verifyDocumentRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// POST /api/documents/:id/verify
func (a *API) VerifyDocument(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req verifyDocumentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	status, err := domain.ParseStatus(domain.EntityDocument, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	doc, err := a.documentService(c).Verify(c.Request.Context(), id, status, middleware.GetActorID(c), req.Notes)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}
