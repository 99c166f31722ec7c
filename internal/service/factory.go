package service

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/domain/invite"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/meter"
	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/publisher"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Locker locker.Locker
	Cache  cache.Cache
	Now    Clock

	// Repositories
	InvoiceRepo      invoice.Repository
	PaymentRepo      payment.Repository
	TenancyRepo      tenancy.Repository
	InviteRepo       invite.Repository
	NotificationRepo notification.Repository
	AuditRepo        audit.Repository
	MeterRepo        meter.Repository

	// Publishers
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	locker locker.Locker,
	cache cache.Cache,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	tenancyRepo tenancy.Repository,
	inviteRepo invite.Repository,
	notificationRepo notification.Repository,
	auditRepo audit.Repository,
	meterRepo meter.Repository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Locker:           locker,
		Cache:            cache,
		Now:              func() time.Time { return time.Now().UTC() },
		InvoiceRepo:      invoiceRepo,
		PaymentRepo:      paymentRepo,
		TenancyRepo:      tenancyRepo,
		InviteRepo:       inviteRepo,
		NotificationRepo: notificationRepo,
		AuditRepo:        auditRepo,
		MeterRepo:        meterRepo,
		EventPublisher:   eventPublisher,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
