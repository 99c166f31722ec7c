package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

const invoiceColumns = `id, invoice_number, tenancy_id, period, invoice_status, total_amount,
	amount_paid, amount_due, due_date, notes, issued_at, paid_at, voided_at, version,
	created_at, updated_at, created_by, updated_by`

var invoiceSortColumns = map[string]string{
	"created_at": "created_at",
	"due_date":   "due_date",
	"period":     "period",
}

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"tenancy_id", inv.TenancyID,
		"period", inv.Period,
	)

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (
			:id, :invoice_number, :tenancy_id, :period, :invoice_status, :total_amount,
			:amount_paid, :amount_due, :due_date, :notes, :issued_at, :paid_at, :voided_at, :version,
			:created_at, :updated_at, :created_by, :updated_by)`

		if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
			return translate(err, "invoice", "create")
		}
		return r.insertLineItems(ctx, inv.LineItems)
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.get(ctx, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	if _, ok := postgres.GetTx(ctx); !ok {
		return nil, ierr.NewError("row lock requested outside a transaction").
			WithHint("Failed to lock invoice").
			Mark(ierr.ErrSystem)
	}
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, id string, forUpdate bool) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = :id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var inv invoice.Invoice
	if err := r.db.NamedGetContext(ctx, &inv, query, map[string]interface{}{"id": id}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", id)
		}
		return nil, translate(err, "invoice", "get")
	}

	items, err := r.listLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			total_amount = :total_amount,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			due_date = :due_date,
			notes = :notes,
			issued_at = :issued_at,
			paid_at = :paid_at,
			voided_at = :voided_at,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND version = :version`

	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"version", inv.Version,
		"status", inv.InvoiceStatus,
	)

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return translate(err, "invoice", "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "invoice", "update")
	}
	if rows == 0 {
		return ierr.NewError("invoice version is stale").
			WithHint("The invoice was changed by someone else, please retry").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID, "version": inv.Version}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	return nil
}

func (r *invoiceRepository) ReplaceLineItems(ctx context.Context, invoiceID string, items []*invoice.LineItem) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)
		if _, err := q.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoiceID); err != nil {
			return translate(err, "invoice line", "delete")
		}
		return r.insertLineItems(ctx, items)
	})
}

func (r *invoiceRepository) insertLineItems(ctx context.Context, items []*invoice.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO invoice_line_items (
			id, invoice_id, position, item_type, description, quantity, unit_price, amount, meta,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :position, :item_type, :description, :quantity, :unit_price, :amount, :meta,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	// sqlx expands a slice argument into a multi-row insert
	if _, err := r.db.NamedExecContext(ctx, query, items); err != nil {
		return translate(err, "invoice line", "create")
	}
	return nil
}

func (r *invoiceRepository) listLineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	var items []*invoice.LineItem
	query := `SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY position`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query, invoiceID); err != nil {
		return nil, translate(err, "invoice line", "list")
	}
	return items, nil
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, tenancyID, period string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM invoices
		WHERE tenancy_id = $1 AND period = $2 AND invoice_status <> $3)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, query, tenancyID, period, types.InvoiceStatusVoid)
	if err != nil {
		return false, translate(err, "invoice", "check")
	}
	return exists, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	where, params := invoiceWhere(filter)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		orderClause(filter.GetSort(), filter.GetOrder(), invoiceSortColumns)
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	invoices := []*invoice.Invoice{}
	if err := r.db.NamedSelectContext(ctx, &invoices, query, params); err != nil {
		return nil, translate(err, "invoice", "list")
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	where, params := invoiceWhere(filter)

	var counts []int
	if err := r.db.NamedSelectContext(ctx, &counts, `SELECT COUNT(*) FROM invoices`+where, params); err != nil {
		return 0, translate(err, "invoice", "count")
	}
	return lo.FirstOr(counts, 0), nil
}

// invoiceWhere builds the WHERE clause. A non-nil empty TenancyIDs matches
// nothing, which is what an actor without tenancies should see.
func invoiceWhere(filter *types.InvoiceFilter) (string, map[string]interface{}) {
	var conds []string
	params := map[string]interface{}{}

	if filter.TenancyIDs != nil {
		if len(filter.TenancyIDs) == 0 {
			return " WHERE FALSE", params
		}
		conds = append(conds, "tenancy_id IN (:tenancy_ids)")
		params["tenancy_ids"] = filter.TenancyIDs
	}
	if filter.TenancyID != "" {
		conds = append(conds, "tenancy_id = :tenancy_id")
		params["tenancy_id"] = filter.TenancyID
	}
	if filter.Period != "" {
		conds = append(conds, "period = :period")
		params["period"] = filter.Period
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, "invoice_status IN (:statuses)")
		params["statuses"] = lo.Map(filter.Statuses, func(s types.InvoiceStatus, _ int) string {
			return string(s)
		})
	}
	if filter.IssuedOnly {
		conds = append(conds, "issued_at IS NOT NULL")
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date < :due_before")
		params["due_before"] = *filter.DueBefore
	}

	if len(conds) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}
