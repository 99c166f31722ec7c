package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/types"
)

// NotificationHandler serves the caller's own inbox. Every route is scoped
// to the authenticated user.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter := types.NewNotificationFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).WithHint("Invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.notificationService.ListNotifications(c.Request.Context(), actor, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := requireParam(c, "id", "Notification ID is required")
	if !ok {
		return
	}

	resp, err := h.notificationService.MarkNotificationRead(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.MarkAllNotificationsRead(c.Request.Context(), actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
