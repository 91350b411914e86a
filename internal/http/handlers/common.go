package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autoship/internal/config"
	"autoship/internal/http/middleware"
	"autoship/internal/notify"
	"autoship/internal/repositories"
	"autoship/internal/services"
)

// API carries the process-wide dependencies; services are built per request
// so each one gets the request id for logging.
type API struct {
	DB       *sql.DB
	Env      config.Env
	Notifier notify.Notifier
}

func (a *API) quoteService(c *gin.Context) services.QuoteService {
	return services.QuoteService{
		DB:             a.DB,
		QuoteRepo:      repositories.QuoteRepository{},
		CustomerRepo:   repositories.CustomerRepository{},
		RouteRepo:      repositories.RouteRepository{},
		CredentialRepo: repositories.CredentialRepository{},
		Notifier:       a.Notifier,
		ValidityDays:   a.Env.QuoteValidityDays,
		RequestID:      middleware.GetRequestID(c),
	}
}

func (a *API) conversionService(c *gin.Context) services.ConversionService {
	return services.ConversionService{
		DB:             a.DB,
		QuoteRepo:      repositories.QuoteRepository{},
		BookingRepo:    repositories.BookingRepository{},
		VehicleRepo:    repositories.VehicleRepository{},
		CustomerRepo:   repositories.CustomerRepository{},
		CredentialRepo: repositories.CredentialRepository{},
		Notifier:       a.Notifier,
		RequestID:      middleware.GetRequestID(c),
	}
}

func (a *API) bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		DB:           a.DB,
		BookingRepo:  repositories.BookingRepository{},
		CustomerRepo: repositories.CustomerRepository{},
		RouteRepo:    repositories.RouteRepository{},
		VehicleRepo:  repositories.VehicleRepository{},
		Notifier:     a.Notifier,
		RequestID:    middleware.GetRequestID(c),
	}
}

func (a *API) ledgerService(c *gin.Context) services.LedgerService {
	return services.LedgerService{
		DB:           a.DB,
		PaymentRepo:  repositories.PaymentRepository{},
		BookingRepo:  repositories.BookingRepository{},
		CustomerRepo: repositories.CustomerRepository{},
		Notifier:     a.Notifier,
		RequestID:    middleware.GetRequestID(c),
	}
}

func (a *API) shipmentService(c *gin.Context) services.ShipmentService {
	return services.ShipmentService{
		DB:           a.DB,
		ShipmentRepo: repositories.ShipmentRepository{},
		BookingRepo:  repositories.BookingRepository{},
		CustomerRepo: repositories.CustomerRepository{},
		Notifier:     a.Notifier,
		RequestID:    middleware.GetRequestID(c),
	}
}

func (a *API) documentService(c *gin.Context) services.DocumentService {
	return services.DocumentService{
		DB:           a.DB,
		DocumentRepo: repositories.DocumentRepository{},
		BookingRepo:  repositories.BookingRepository{},
		RouteRepo:    repositories.RouteRepository{},
		CustomerRepo: repositories.CustomerRepository{},
		Notifier:     a.Notifier,
		RequestID:    middleware.GetRequestID(c),
	}
}

func (a *API) attentionService() services.AttentionService {
	return services.AttentionService{
		DB:                 a.DB,
		PaymentRepo:        repositories.PaymentRepository{},
		DocumentRepo:       repositories.DocumentRepository{},
		ShipmentRepo:       repositories.ShipmentRepository{},
		OverdueDays:        a.Env.OverduePaymentDays,
		ExpiringWindowDays: a.Env.ExpiringDocumentDays,
	}
}

func (a *API) docsService(c *gin.Context) services.DocsService {
	return services.DocsService{
		DB:           a.DB,
		BookingRepo:  repositories.BookingRepository{},
		PaymentRepo:  repositories.PaymentRepository{},
		CustomerRepo: repositories.CustomerRepository{},
		RouteRepo:    repositories.RouteRepository{},
		RequestID:    middleware.GetRequestID(c),
	}
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

// PathID parses the :id path segment; responds 400 and returns false on junk.
func PathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryInt64(c *gin.Context, name string) int64 {
	n, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
