package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sweeps are invoked by an external scheduler. Each one is idempotent, so a
// crashed or doubled cron run is harmless.

// POST /api/sweeps/expired-quotes
func (a *API) SweepExpiredQuotes(c *gin.Context) {
	n, err := a.quoteService(c).ProcessExpiredQuotes(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}

// POST /api/sweeps/expired-documents
func (a *API) SweepExpiredDocuments(c *gin.Context) {
	n, err := a.documentService(c).ProcessExpiredDocuments(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": n})
}

// POST /api/sweeps/delayed-shipments
func (a *API) SweepDelayedShipments(c *gin.Context) {
	n, err := a.shipmentService(c).ProcessDelayedShipments(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": n})
}
