package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/api/dto"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/service"
)

type InviteHandler struct {
	inviteService service.InviteService
	logger        *logger.Logger
}

func NewInviteHandler(inviteService service.InviteService, logger *logger.Logger) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		logger:        logger,
	}
}

// @Summary Create an invite
// @Description A landlord invites a tenant into a room
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invite body dto.CreateInviteRequest true "Invite"
// @Success 201 {object} dto.InviteResponse
// @Router /invites [post]
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.inviteService.CreateInvite(c.Request.Context(), actor, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Accept or reject an invite by its token
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param decision body dto.RespondInviteByTokenRequest true "Token and decision"
// @Success 200 {object} dto.RespondInviteResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invites/respond [post]
func (h *InviteHandler) RespondToInviteByToken(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.RespondInviteByTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.inviteService.RespondToInviteByToken(c.Request.Context(), actor, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Accept or reject an invite
// @Description An invite answers once. Later responses fail with invite_already_processed and the settled status.
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invite ID"
// @Param decision body dto.RespondInviteRequest true "Decision"
// @Success 200 {object} dto.RespondInviteResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invites/{id}/respond [post]
func (h *InviteHandler) RespondToInvite(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Invite ID is required")
	if !ok {
		return
	}

	var req dto.RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid request format").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.inviteService.RespondToInvite(c.Request.Context(), actor, id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
