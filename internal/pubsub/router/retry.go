package router

import (
	"context"
	"net"

	"github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
)

func shouldRetry(logger *logger.Logger, err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// business errors repeat on every attempt
	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsPermissionDenied(err) ||
		errors.IsInvalidOperation(err) ||
		errors.IsImmutableState(err) ||
		errors.IsAlreadyExists(err) {
		logger.Debugw("non-retryable handler error", "error", err)
		return false
	}

	return true
}
