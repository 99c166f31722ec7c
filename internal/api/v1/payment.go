package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/api/dto"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/types"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

// @Summary Record a payment
// @Description Appends a payment to the invoice ledger. Replaying an idempotency key returns the original payment.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param payment body dto.RecordPaymentRequest true "Payment"
// @Success 201 {object} dto.RecordPaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	invoiceID, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	// the header wins over the body field
	if key := strings.TrimSpace(c.GetHeader(types.HeaderIdempotencyKey)); key != "" {
		req.IdempotencyKey = key
	}

	resp, err := h.service.RecordPayment(c.Request.Context(), actor, invoiceID, req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// @Summary List payments of an invoice
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.ListPaymentsResponse
// @Router /invoices/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	invoiceID, ok := requireParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.service.ListPayments(c.Request.Context(), actor, invoiceID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Confirm or fail a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param status body dto.UpdatePaymentStatusRequest true "Final status"
// @Success 200 {object} dto.PaymentStatusResponse
// @Router /payments/{id}/status [patch]
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Payment ID is required")
	if !ok {
		return
	}

	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdatePaymentStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
