package invite

import (
	"fmt"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
)

// AlreadyProcessedError is returned when a response targets an invite that
// is no longer pending. CurrentStatus is the state it settled in.
type AlreadyProcessedError struct {
	InviteID      string
	CurrentStatus types.InviteStatus
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("invite %s already processed: %s", e.InviteID, e.CurrentStatus)
}

// NewAlreadyProcessedError wraps the typed error so it carries the conflict
// mark, a user hint and the current status as reportable detail.
func NewAlreadyProcessedError(inviteID string, current types.InviteStatus) error {
	return ierr.WithError(&AlreadyProcessedError{InviteID: inviteID, CurrentStatus: current}).
		WithHintf("This invite has already been %s", current).
		WithReportableDetails(map[string]any{"current_status": current}).
		Mark(ierr.ErrInviteAlreadyProcessed)
}

// AsAlreadyProcessed extracts the typed error from a wrapped chain
func AsAlreadyProcessed(err error) (*AlreadyProcessedError, bool) {
	var target *AlreadyProcessedError
	if ierr.As(err, &target) {
		return target, true
	}
	return nil, false
}
