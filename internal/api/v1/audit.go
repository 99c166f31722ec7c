package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/service"
)

type AuditHandler struct {
	auditService service.AuditService
	logger       *logger.Logger
}

func NewAuditHandler(auditService service.AuditService, logger *logger.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// ListInvoiceAuditLogs godoc
// @Summary Invoice audit trail
// @Description Every recorded change of an invoice and its payments, oldest first. Landlord only.
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.ListAuditLogsResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/audit-logs [get]
func (h *AuditHandler) ListInvoiceAuditLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.auditService.ListInvoiceAuditLogs(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
