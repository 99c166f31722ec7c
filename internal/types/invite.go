package types

import (
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRejected InviteStatus = "rejected"
	InviteStatusExpired  InviteStatus = "expired"
)

func (s InviteStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the invite can no longer change
func (s InviteStatus) IsTerminal() bool {
	return s != InviteStatusPending
}

// InviteDecision is the answer a prospective tenant gives to an invite
type InviteDecision string

const (
	InviteDecisionAccepted InviteDecision = "accepted"
	InviteDecisionRejected InviteDecision = "rejected"
)

func (d InviteDecision) Validate() error {
	allowed := []InviteDecision{InviteDecisionAccepted, InviteDecisionRejected}
	if !lo.Contains(allowed, d) {
		return ierr.NewError("invalid invite decision").
			WithHintf("Decision must be one of %v", allowed).
			WithField("decision").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (d InviteDecision) Status() InviteStatus {
	if d == InviteDecisionAccepted {
		return InviteStatusAccepted
	}
	return InviteStatusRejected
}
