package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentdesk/rentdesk/internal/domain/payment"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id, invoice_id, amount, payment_method, payment_status, idempotency_key,
			provider_ref, note, paid_at, failed_at, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :amount, :payment_method, :payment_status, :idempotency_key,
			:provider_ref, :note, :paid_at, :failed_at, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount,
		"status", p.PaymentStatus,
	)

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return translate(err, "payment", "create")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, `SELECT * FROM payments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("payment", id)
		}
		return nil, translate(err, "payment", "get")
	}
	return &p, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, `SELECT * FROM payments WHERE idempotency_key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment not found for idempotency key").
				WithHint("Payment not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, translate(err, "payment", "get")
	}
	return &p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET
			payment_status = :payment_status,
			paid_at = :paid_at,
			failed_at = :failed_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND payment_status = :pending`

	params := map[string]interface{}{
		"id":             p.ID,
		"payment_status": p.PaymentStatus,
		"paid_at":        p.PaidAt,
		"failed_at":      p.FailedAt,
		"updated_at":     p.UpdatedAt,
		"updated_by":     p.UpdatedBy,
		"pending":        types.PaymentStatusPending,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return translate(err, "payment", "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "payment", "update")
	}
	if rows == 0 {
		return ierr.NewError("payment is no longer pending").
			WithHint("The payment was settled by someone else").
			WithReportableDetails(map[string]any{"payment_id": p.ID}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	payments := []*payment.Payment{}
	query := `SELECT * FROM payments WHERE invoice_id = $1 ORDER BY created_at, id`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, invoiceID); err != nil {
		return nil, translate(err, "payment", "list")
	}
	return payments, nil
}
