package repository

import (
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/domain/invite"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/meter"
	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	postgresRepo "github.com/rentdesk/rentdesk/internal/repository/postgres"
)

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewInviteRepository(db *postgres.DB, logger *logger.Logger) invite.Repository {
	return postgresRepo.NewInviteRepository(db, logger)
}

func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return postgresRepo.NewNotificationRepository(db, logger)
}

func NewTenancyRepository(db *postgres.DB, logger *logger.Logger) tenancy.Repository {
	return postgresRepo.NewTenancyRepository(db, logger)
}

func NewAuditRepository(db *postgres.DB, logger *logger.Logger) audit.Repository {
	return postgresRepo.NewAuditRepository(db, logger)
}

func NewMeterRepository(db *postgres.DB, logger *logger.Logger) meter.Repository {
	return postgresRepo.NewMeterRepository(db, logger)
}
