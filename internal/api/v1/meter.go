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

type MeterHandler struct {
	meterService service.MeterService
	logger       *logger.Logger
}

func NewMeterHandler(meterService service.MeterService, logger *logger.Logger) *MeterHandler {
	return &MeterHandler{
		meterService: meterService,
		logger:       logger,
	}
}

// SubmitMeterReading godoc
// @Summary Record a meter reading
// @Description Record the electricity and water indexes of a tenancy's room for a period. The tenant is notified.
// @Tags MeterReadings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reading body dto.SubmitMeterReadingRequest true "Meter indexes"
// @Success 201 {object} dto.MeterReadingResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /meter-readings [post]
func (h *MeterHandler) SubmitMeterReading(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.SubmitMeterReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.meterService.SubmitMeterReading(c.Request.Context(), actor, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *MeterHandler) ListMeterReadings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter := types.NewMeterReadingFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.meterService.ListMeterReadings(c.Request.Context(), actor, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
