package notification

import (
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestMarkRead_Idempotent(t *testing.T) {
	n := New("user_1", types.TemplateInvoiceOverdue, types.JSONMap{"invoice_id": "inv_1"}, "invoice", "inv_1")
	assert.Equal(t, types.NotificationPriorityUrgent, n.Priority)
	assert.False(t, n.IsRead)

	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.True(t, n.MarkRead(first))
	assert.False(t, n.MarkRead(first.Add(time.Hour)))

	assert.True(t, n.IsRead)
	assert.Equal(t, first, *n.ReadAt)
}
