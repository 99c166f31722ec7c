package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/sentry"
)

// ErrorHandler renders the last error a handler attached with c.Error. Only
// hints and reportable details reach the client.
func ErrorHandler(logger *logger.Logger, sentryService *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= 500 {
			logger.Errorw("request failed",
				"error", err,
				"path", c.FullPath(),
				"status", status,
			)
			sentryService.CaptureException(c.Request.Context(), err)
		} else {
			logger.Debugw("request rejected",
				"error", err,
				"path", c.FullPath(),
				"status", status,
			)
		}

		c.JSON(status, ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Code:    ierr.CodeFromErr(err),
				Display: ierr.DisplayMessage(err),
				Details: ierr.ReportableDetails(err),
			},
		})
	}
}
