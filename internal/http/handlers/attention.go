package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/attention/overdue-payments
func (a *API) OverduePayments(c *gin.Context) {
	summary, err := a.attentionService().OverduePayments(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/attention/expiring-documents
func (a *API) ExpiringDocuments(c *gin.Context) {
	docs, err := a.attentionService().ExpiringDocuments(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expiring_documents": docs, "total": len(docs)})
}

// GET /api/attention/delayed-shipments
func (a *API) DelayedShipments(c *gin.Context) {
	shipments, err := a.attentionService().DelayedShipments(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delayed_shipments": shipments, "total": len(shipments)})
}
