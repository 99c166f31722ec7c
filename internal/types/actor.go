package types

import (
	"strings"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

// Role is the capacity in which a user acts on billing resources
type Role string

const (
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
	// RoleSystem is used by background jobs such as the overdue sweep
	RoleSystem Role = "system"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Validate() error {
	allowed := []Role{RoleLandlord, RoleTenant, RoleSystem}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid role").
			WithHintf("Role must be one of %v", allowed).
			WithField("role").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Actor identifies who is performing an operation. It is passed explicitly
// to every service call instead of being read from global state.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}

func (a Actor) Validate() error {
	if a.UserID == "" {
		return ierr.NewError("actor user id is required").
			WithHint("Authentication is required").
			Mark(ierr.ErrPermissionDenied)
	}
	return a.Role.Validate()
}

func (a Actor) IsLandlord() bool {
	return a.Role == RoleLandlord
}

func (a Actor) IsTenant() bool {
	return a.Role == RoleTenant
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// EmailMatches compares addresses case-insensitively
func (a Actor) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(email))
}

// SystemActor is used for scheduled jobs that act on behalf of nobody
func SystemActor() Actor {
	return Actor{UserID: SystemUserID, Role: RoleSystem}
}
