package tenancy

import (
	"context"
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Tenancy binds a tenant to a room of a landlord's property. Invoices are
// billed against it.
type Tenancy struct {
	ID            string              `db:"id" json:"id"`
	PropertyID    string              `db:"property_id" json:"property_id"`
	RoomID        string              `db:"room_id" json:"room_id"`
	LandlordID    string              `db:"landlord_id" json:"landlord_id"`
	TenantID      string              `db:"tenant_id" json:"tenant_id"`
	StartDate     time.Time           `db:"start_date" json:"start_date"`
	EndDate       *time.Time          `db:"end_date" json:"end_date,omitempty"`
	BaseRent      decimal.Decimal     `db:"base_rent" json:"base_rent"`
	Deposit       decimal.Decimal     `db:"deposit" json:"deposit"`
	TenancyStatus types.TenancyStatus `db:"tenancy_status" json:"status"`
	InviteID      *string             `db:"invite_id" json:"invite_id,omitempty"`
	types.BaseModel
}

// New starts an active tenancy today
func New(ctx context.Context, propertyID, roomID, landlordID, tenantID string, baseRent, deposit decimal.Decimal, now time.Time) *Tenancy {
	return &Tenancy{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANCY),
		PropertyID:    propertyID,
		RoomID:        roomID,
		LandlordID:    landlordID,
		TenantID:      tenantID,
		StartDate:     types.StartOfDay(now),
		BaseRent:      baseRent,
		Deposit:       deposit,
		TenancyStatus: types.TenancyStatusActive,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}

// Manageable is nil when the actor may create, edit and collect on invoices of the tenancy
func (t *Tenancy) Manageable(actor types.Actor) error {
	if actor.IsSystem() || (actor.IsLandlord() && t.LandlordID == actor.UserID) {
		return nil
	}
	return denied("You are not allowed to manage invoices of this tenancy")
}

// Viewable is nil when the actor is a party to the tenancy
func (t *Tenancy) Viewable(actor types.Actor) error {
	if t.Manageable(actor) == nil || (actor.IsTenant() && t.TenantID == actor.UserID) {
		return nil
	}
	return denied("You are not allowed to view invoices of this tenancy")
}

// Payable is nil when the actor may submit payments for the tenancy
func (t *Tenancy) Payable(actor types.Actor) error {
	return t.Viewable(actor)
}

func denied(hint string) error {
	return ierr.NewError("actor is not a party to the tenancy").
		WithHint(hint).
		Mark(ierr.ErrPermissionDenied)
}
