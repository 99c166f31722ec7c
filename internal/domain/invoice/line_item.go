package invoice

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single charge on an invoice
type LineItem struct {
	ID          string                    `db:"id" json:"id"`
	InvoiceID   string                    `db:"invoice_id" json:"invoice_id"`
	Position    int                       `db:"position" json:"position"`
	ItemType    types.InvoiceLineItemType `db:"item_type" json:"item_type"`
	Description string                    `db:"description" json:"description,omitempty"`
	Quantity    decimal.Decimal           `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal           `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal           `db:"amount" json:"amount"`
	Meta        types.JSONMap             `db:"meta" json:"meta,omitempty"`
	types.BaseModel
}

// NewLineItems materializes a priced line set in input order
func NewLineItems(ctx context.Context, invoiceID string, set *billing.LineSet) []*LineItem {
	items := make([]*LineItem, 0, len(set.Lines))
	for i, l := range set.Lines {
		items = append(items, &LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			InvoiceID:   invoiceID,
			Position:    i,
			ItemType:    l.ItemType,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
			Meta:        l.Meta,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}
	return items
}
