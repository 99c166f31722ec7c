package audit

import (
	"context"
	"testing"

	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestChanges_OnlyMovedFields(t *testing.T) {
	changes := Changes{}.
		Set("status", "pending", "partial").
		Set("total_amount", decimal.RequireFromString("10.50"), decimal.RequireFromString("10.5")).
		Set("amount_due", decimal.RequireFromString("10.50"), decimal.RequireFromString("4")).
		Set("notes", "", "")

	assert.Len(t, changes, 2)
	assert.Equal(t, Change{Old: "pending", New: "partial"}, changes["status"])
	assert.Equal(t, Change{Old: "10.5", New: "4"}, changes["amount_due"])
	assert.NotContains(t, changes, "total_amount")
}

func TestNew_StampsActorFromContext(t *testing.T) {
	ctx := types.SetUserID(context.Background(), "landlord_1")
	l := New(ctx, types.AuditActionCreate, types.AuditObjectInvoice, "inv_1", Changes{}.Set("status", nil, "draft"), nil)
	assert.Equal(t, "landlord_1", l.ActorID)
	assert.Equal(t, map[string]any{"old": nil, "new": "draft"}, l.Changes["status"])

	system := New(context.Background(), types.AuditActionUpdate, types.AuditObjectInvoice, "inv_1", Changes{}, nil)
	assert.Equal(t, types.SystemUserID, system.ActorID)
	assert.Empty(t, system.Changes)
}
