package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/rentdesk/rentdesk/internal/api/v1"
	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/rest/middleware"
	"github.com/rentdesk/rentdesk/internal/sentry"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Invoice      *v1.InvoiceHandler
	Payment      *v1.PaymentHandler
	Invite       *v1.InviteHandler
	Notification *v1.NotificationHandler
	Meter        *v1.MeterHandler
	Audit        *v1.AuditHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	provider auth.Provider,
	sentryService *sentry.Service,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger, sentryService),
	)

	// Health check
	router.GET("/health", handlers.Health.Health)

	// v1 routes require a bearer token
	v1Private := router.Group("/v1")
	v1Private.Use(
		middleware.AuthenticateMiddleware(provider, logger),
		middleware.SentryScopeMiddleware,
	)

	invoices := v1Private.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id/lines", handlers.Invoice.UpdateInvoiceLines)
		invoices.POST("/:id/issue", handlers.Invoice.IssueInvoice)
		invoices.POST("/:id/void", handlers.Invoice.VoidInvoice)

		invoices.POST("/:id/payments", handlers.Payment.RecordPayment)
		invoices.GET("/:id/payments", handlers.Payment.ListPayments)
		invoices.GET("/:id/audit-logs", handlers.Audit.ListInvoiceAuditLogs)
	}

	payments := v1Private.Group("/payments")
	{
		payments.PATCH("/:id/status", handlers.Payment.UpdatePaymentStatus)
	}

	invites := v1Private.Group("/invites")
	{
		invites.POST("", handlers.Invite.CreateInvite)
		invites.POST("/respond", handlers.Invite.RespondToInviteByToken)
		invites.POST("/:id/respond", handlers.Invite.RespondToInvite)
	}

	meterReadings := v1Private.Group("/meter-readings")
	{
		meterReadings.POST("", handlers.Meter.SubmitMeterReading)
		meterReadings.GET("", handlers.Meter.ListMeterReadings)
	}

	notifications := v1Private.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.ListNotifications)
		notifications.GET("/unread-count", handlers.Notification.UnreadCount)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
		notifications.POST("/:id/read", handlers.Notification.MarkRead)
	}

	return router
}
