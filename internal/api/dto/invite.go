package dto

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/invite"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInviteRequest offers a room to a prospective tenant. Without an
// email the invite is open and any tenant holding it may respond.
type CreateInviteRequest struct {
	PropertyID string          `json:"property_id" validate:"required"`
	RoomID     string          `json:"room_id" validate:"required"`
	Email      string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string          `json:"phone,omitempty" validate:"omitempty,max=20"`
	BaseRent   decimal.Decimal `json:"base_rent"`
	Deposit    decimal.Decimal `json:"deposit"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

func (r *CreateInviteRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.BaseRent.IsPositive() {
		return ierr.NewError("base rent must be positive").
			WithHint("Base rent must be greater than zero").
			WithField("base_rent").
			Mark(ierr.ErrValidation)
	}
	if r.Deposit.IsNegative() {
		return ierr.NewError("deposit cannot be negative").
			WithHint("Deposit cannot be negative").
			WithField("deposit").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ExpiresAtOrDefault returns the requested deadline or now plus the default TTL
func (r *CreateInviteRequest) ExpiresAtOrDefault(now time.Time) (time.Time, error) {
	if r.ExpiresAt == nil {
		return now.Add(invite.DefaultTTL), nil
	}
	if !r.ExpiresAt.After(now) {
		return time.Time{}, ierr.NewError("expiry is in the past").
			WithHint("Expiry must be in the future").
			WithField("expires_at").
			Mark(ierr.ErrValidation)
	}
	return r.ExpiresAt.UTC(), nil
}

// RespondInviteRequest is the tenant's decision on an invite
type RespondInviteRequest struct {
	Decision types.InviteDecision `json:"decision" validate:"required"`
}

func (r *RespondInviteRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Decision.Validate()
}

// RespondInviteByTokenRequest answers an invite through the token shared with the tenant
type RespondInviteByTokenRequest struct {
	Token    string               `json:"token" validate:"required,max=100"`
	Decision types.InviteDecision `json:"decision" validate:"required"`
}

func (r *RespondInviteByTokenRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Decision.Validate()
}

type InviteResponse struct {
	ID          string             `json:"id"`
	Token       string             `json:"token,omitempty"`
	LandlordID  string             `json:"landlord_id"`
	PropertyID  string             `json:"property_id"`
	RoomID      string             `json:"room_id"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	BaseRent    decimal.Decimal    `json:"base_rent"`
	Deposit     decimal.Decimal    `json:"deposit"`
	Status      types.InviteStatus `json:"status"`
	ExpiresAt   time.Time          `json:"expires_at"`
	RespondedAt *time.Time         `json:"responded_at,omitempty"`
	TenancyID   *string            `json:"tenancy_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewInviteResponse renders an invite. The token is only shown to the landlord
// that created it, so callers pass withToken accordingly.
func NewInviteResponse(inv *invite.Invite, withToken bool) *InviteResponse {
	resp := &InviteResponse{
		ID:          inv.ID,
		LandlordID:  inv.LandlordID,
		PropertyID:  inv.PropertyID,
		RoomID:      inv.RoomID,
		Email:       inv.Email,
		Phone:       inv.Phone,
		BaseRent:    inv.BaseRent,
		Deposit:     inv.Deposit,
		Status:      inv.InviteStatus,
		ExpiresAt:   inv.ExpiresAt,
		RespondedAt: inv.RespondedAt,
		TenancyID:   inv.TenancyID,
		CreatedAt:   inv.CreatedAt,
	}
	if withToken {
		resp.Token = inv.Token
	}
	return resp
}

type TenancyResponse struct {
	ID         string              `json:"id"`
	PropertyID string              `json:"property_id"`
	RoomID     string              `json:"room_id"`
	LandlordID string              `json:"landlord_id"`
	TenantID   string              `json:"tenant_id"`
	StartDate  time.Time           `json:"start_date"`
	BaseRent   decimal.Decimal     `json:"base_rent"`
	Deposit    decimal.Decimal     `json:"deposit"`
	Status     types.TenancyStatus `json:"status"`
}

func NewTenancyResponse(t *tenancy.Tenancy) *TenancyResponse {
	if t == nil {
		return nil
	}
	return &TenancyResponse{
		ID:         t.ID,
		PropertyID: t.PropertyID,
		RoomID:     t.RoomID,
		LandlordID: t.LandlordID,
		TenantID:   t.TenantID,
		StartDate:  t.StartDate,
		BaseRent:   t.BaseRent,
		Deposit:    t.Deposit,
		Status:     t.TenancyStatus,
	}
}

// RespondInviteResponse carries the settled invite and, on acceptance, the new tenancy
type RespondInviteResponse struct {
	Invite  *InviteResponse  `json:"invite"`
	Tenancy *TenancyResponse `json:"tenancy,omitempty"`
}
