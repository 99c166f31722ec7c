package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/api/dto"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice godoc
// @Summary Create an invoice
// @Description Create a monthly invoice for a tenancy. Drafts stay hidden from the tenant until issued.
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceViewResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), actor, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInvoice godoc
// @Summary Get an invoice
// @Description Invoice with lines, payments and a status derived from the ledger
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceViewResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetInvoiceView(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoices godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param filter query types.InvoiceFilter false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter := types.NewInvoiceFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), actor, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateInvoiceLines godoc
// @Summary Replace invoice lines
// @Description Replaces every line and recomputes the total. Paid and void invoices are immutable.
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param lines body dto.UpdateInvoiceLinesRequest true "New lines"
// @Success 200 {object} dto.InvoiceViewResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/lines [put]
func (h *InvoiceHandler) UpdateInvoiceLines(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.UpdateInvoiceLines(c.Request.Context(), actor, id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) IssueInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.invoiceService.IssueInvoice(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.invoiceService.VoidInvoice(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
