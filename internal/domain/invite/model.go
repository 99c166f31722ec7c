package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultTTL is how long an invite stays answerable when none is given
const DefaultTTL = 7 * 24 * time.Hour

// Invite is a landlord's offer of a room to a prospective tenant
type Invite struct {
	ID           string             `db:"id" json:"id"`
	Token        string             `db:"token" json:"token"`
	LandlordID   string             `db:"landlord_id" json:"landlord_id"`
	PropertyID   string             `db:"property_id" json:"property_id"`
	RoomID       string             `db:"room_id" json:"room_id"`
	Email        string             `db:"email" json:"email,omitempty"`
	Phone        string             `db:"phone" json:"phone,omitempty"`
	BaseRent     decimal.Decimal    `db:"base_rent" json:"base_rent"`
	Deposit      decimal.Decimal    `db:"deposit" json:"deposit"`
	InviteStatus types.InviteStatus `db:"invite_status" json:"status"`
	ExpiresAt    time.Time          `db:"expires_at" json:"expires_at"`
	RespondedAt  *time.Time         `db:"responded_at" json:"responded_at,omitempty"`
	RespondedBy  *string            `db:"responded_by" json:"responded_by,omitempty"`
	TenancyID    *string            `db:"tenancy_id" json:"tenancy_id,omitempty"`
	types.BaseModel
}

// New creates a pending invite with a random token
func New(ctx context.Context, landlordID, propertyID, roomID, email, phone string, baseRent, deposit decimal.Decimal, expiresAt time.Time) (*Invite, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	return &Invite{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVITE),
		Token:        token,
		LandlordID:   landlordID,
		PropertyID:   propertyID,
		RoomID:       roomID,
		Email:        email,
		Phone:        phone,
		BaseRent:     baseRent,
		Deposit:      deposit,
		InviteStatus: types.InviteStatusPending,
		ExpiresAt:    expiresAt,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}, nil
}

// IsOpen is true for invites not addressed to anyone in particular
func (i *Invite) IsOpen() bool {
	return i.Email == ""
}

// IsExpired reports whether a pending invite has outlived its deadline
func (i *Invite) IsExpired(now time.Time) bool {
	return i.InviteStatus == types.InviteStatusPending && !now.Before(i.ExpiresAt)
}

// Expire moves a pending invite to expired
func (i *Invite) Expire(now time.Time) {
	if i.InviteStatus != types.InviteStatusPending {
		return
	}
	i.InviteStatus = types.InviteStatusExpired
	i.RespondedAt = &now
}

// Respond applies the decision. A pending invite past its deadline is expired
// in place and the caller gets an AlreadyProcessedError for the expired state,
// so it should still persist the change.
func (i *Invite) Respond(decision types.InviteDecision, responderID string, now time.Time) error {
	if err := decision.Validate(); err != nil {
		return err
	}
	if i.InviteStatus.IsTerminal() {
		return NewAlreadyProcessedError(i.ID, i.InviteStatus)
	}
	if i.IsExpired(now) {
		i.Expire(now)
		return NewAlreadyProcessedError(i.ID, i.InviteStatus)
	}

	i.InviteStatus = decision.Status()
	i.RespondedAt = &now
	i.RespondedBy = &responderID
	return nil
}

// CanRespond reports whether the actor is the addressee of the invite
func (i *Invite) CanRespond(actor types.Actor) error {
	if !actor.IsTenant() {
		return ierr.NewError("only tenants can respond to invites").
			WithHint("You are not allowed to respond to this invite").
			Mark(ierr.ErrPermissionDenied)
	}
	if !i.IsOpen() && !actor.EmailMatches(i.Email) {
		return ierr.NewError("invite addressed to another email").
			WithHint("This invite was sent to a different email address").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate invite token").
			Mark(ierr.ErrSystem)
	}
	return hex.EncodeToString(buf), nil
}
