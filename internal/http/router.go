package api

import (
	"database/sql"
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/config"
	h "autoship/internal/http/handlers"
	"autoship/internal/http/middleware"
	"autoship/internal/notify"
)

func NewRouter(env config.Env, db *sql.DB, notifier notify.Notifier) *gin.Engine {
	api := &h.API{DB: db, Env: env, Notifier: notifier}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	root := r.Group("/api")
	{
		root.GET("/health", api.Health)
		root.GET("/db-check", api.DBCheck)

		auth := root.Group("/auth")
		auth.POST("/login", api.Login)
		auth.POST("/register", api.Register)
		auth.POST("/portal/login", api.PortalLogin)
		auth.POST("/portal/change-password", api.PortalChangePassword)

		protected := root.Group("")
		protected.Use(middleware.RequireAuth(env.JWTSecret))

		quotes := protected.Group("/quotes")
		quotes.GET("", api.ListQuotes)
		quotes.POST("", api.CreateQuote)
		quotes.GET("/:id", api.GetQuote)
		quotes.POST("/:id/approve", api.ApproveQuote)
		quotes.POST("/:id/reject", api.RejectQuote)
		quotes.POST("/:id/extend", api.ExtendQuote)
		quotes.POST("/:id/convert-to-booking", api.ConvertQuote)

		bookings := protected.Group("/bookings")
		bookings.GET("", api.ListBookings)
		bookings.POST("", api.CreateBooking)
		bookings.GET("/:id", api.GetBooking)
		bookings.PUT("/:id/status", api.UpdateBookingStatus)
		bookings.DELETE("/:id", api.DeleteBooking)
		bookings.GET("/:id/invoice", api.GetBookingInvoice)
		bookings.GET("/:id/payments", api.ListBookingPayments)
		bookings.GET("/:id/shipment", api.GetBookingShipment)
		bookings.GET("/:id/documents", api.ListBookingDocuments)
		bookings.GET("/:id/documents/missing", api.GetMissingDocuments)
		bookings.POST("/:id/documents/request", api.RequestMissingDocuments)

		payments := protected.Group("/payments")
		payments.GET("", api.ListPayments)
		payments.POST("", api.RecordPayment)
		payments.GET("/:id", api.GetPayment)
		payments.POST("/:id/complete", api.CompletePayment)
		payments.POST("/:id/fail", api.FailPayment)
		payments.POST("/:id/cancel", api.CancelPayment)
		payments.POST("/:id/refund", api.RefundPayment)
		payments.GET("/:id/receipt", api.GetPaymentReceipt)

		shipments := protected.Group("/shipments")
		shipments.POST("", api.CreateShipment)
		shipments.GET("/:id", api.GetShipment)
		shipments.PUT("/:id/status", api.UpdateShipmentStatus)
		shipments.POST("/:id/resume", api.ResumeShipment)
		shipments.GET("/:id/tracking", api.GetTrackingHistory)
		shipments.POST("/:id/tracking", api.AddTrackingUpdate)

		documents := protected.Group("/documents")
		documents.POST("", api.UploadDocument)
		documents.GET("/:id", api.GetDocument)
		documents.POST("/:id/verify", api.VerifyDocument)

		customers := protected.Group("/customers")
		customers.GET("", api.ListCustomers)
		customers.POST("", api.CreateCustomer)
		customers.GET("/:id", api.GetCustomer)
		customers.PUT("/:id", api.UpdateCustomer)

		routes := protected.Group("/routes")
		routes.GET("", api.ListRoutes)
		routes.POST("", api.CreateRoute)
		routes.GET("/:id", api.GetRoute)
		routes.PUT("/:id", api.UpdateRoute)

		vehicles := protected.Group("/vehicles")
		vehicles.GET("", api.ListVehicles)
		vehicles.POST("", api.CreateVehicle)
		vehicles.GET("/:id", api.GetVehicle)
		vehicles.PUT("/:id", api.UpdateVehicle)

		attention := protected.Group("/attention")
		attention.GET("/overdue-payments", api.OverduePayments)
		attention.GET("/expiring-documents", api.ExpiringDocuments)
		attention.GET("/delayed-shipments", api.DelayedShipments)

		sweeps := protected.Group("/sweeps")
		sweeps.POST("/expired-quotes", api.SweepExpiredQuotes)
		sweeps.POST("/expired-documents", api.SweepExpiredDocuments)
		sweeps.POST("/delayed-shipments", api.SweepDelayedShipments)
	}

	return r
}
