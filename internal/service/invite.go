package service

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/domain/invite"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
)

type InviteService interface {
	CreateInvite(ctx context.Context, actor types.Actor, req dto.CreateInviteRequest) (*dto.InviteResponse, error)
	RespondToInvite(ctx context.Context, actor types.Actor, inviteID string, req dto.RespondInviteRequest) (*dto.RespondInviteResponse, error)
	RespondToInviteByToken(ctx context.Context, actor types.Actor, req dto.RespondInviteByTokenRequest) (*dto.RespondInviteResponse, error)
	// ExpireInvites moves every pending invite past its deadline to expired.
	// With dryRun it only counts them.
	ExpireInvites(ctx context.Context, now time.Time, dryRun bool) (int, error)
}

type inviteService struct {
	ServiceParams
}

func NewInviteService(params ServiceParams) InviteService {
	return &inviteService{
		ServiceParams: params,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, actor types.Actor, req dto.CreateInviteRequest) (*dto.InviteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsLandlord() {
		return nil, ierr.NewError("only landlords can create invites").
			WithHint("You are not allowed to create invites").
			Mark(ierr.ErrPermissionDenied)
	}

	expiresAt, err := req.ExpiresAtOrDefault(s.now())
	if err != nil {
		return nil, err
	}

	inv, err := invite.New(ctx, actor.UserID, req.PropertyID, req.RoomID, req.Email, req.Phone, req.BaseRent, req.Deposit, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.InviteRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("created invite",
		"invite_id", inv.ID,
		"landlord_id", inv.LandlordID,
		"room_id", inv.RoomID,
		"expires_at", inv.ExpiresAt,
	)
	return dto.NewInviteResponse(inv, true), nil
}

// RespondToInvite settles a pending invite. Accepting creates the tenancy in
// the same transaction. Any invite that is no longer pending, including one
// that expires on this very call, yields an AlreadyProcessedError carrying
// its current status.
func (s *inviteService) RespondToInvite(ctx context.Context, actor types.Actor, inviteID string, req dto.RespondInviteRequest) (*dto.RespondInviteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InviteRepo.Get(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if err := inv.CanRespond(actor); err != nil {
		return nil, err
	}

	now := s.now()
	expected := inv.InviteStatus
	if err := inv.Respond(req.Decision, actor.UserID, now); err != nil {
		if expected == types.InviteStatusPending && inv.InviteStatus == types.InviteStatusExpired {
			s.persistExpiry(ctx, inv)
		}
		return nil, err
	}

	var created *tenancy.Tenancy
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if inv.InviteStatus == types.InviteStatusAccepted {
			created = tenancy.New(ctx, inv.PropertyID, inv.RoomID, inv.LandlordID, actor.UserID, inv.BaseRent, inv.Deposit, now)
			created.InviteID = &inv.ID
			if err := s.TenancyRepo.Create(ctx, created); err != nil {
				return err
			}
			inv.TenancyID = &created.ID
		}
		inv.Touch(ctx)
		return s.InviteRepo.UpdateStatus(ctx, inv, types.InviteStatusPending)
	})
	if err != nil {
		if ierr.IsVersionConflict(err) {
			return nil, s.alreadyProcessed(ctx, inviteID, err)
		}
		return nil, err
	}

	s.Logger.Infow("invite answered",
		"invite_id", inv.ID,
		"status", inv.InviteStatus,
		"responded_by", actor.UserID,
	)

	s.markInviteNotificationsRead(ctx, actor.UserID, inv.ID, now)
	s.publishInviteEvents(ctx, inv, created)

	return &dto.RespondInviteResponse{
		Invite:  dto.NewInviteResponse(inv, false),
		Tenancy: dto.NewTenancyResponse(created),
	}, nil
}

// RespondToInviteByToken resolves the invite link token and answers it like RespondToInvite
func (s *inviteService) RespondToInviteByToken(ctx context.Context, actor types.Actor, req dto.RespondInviteByTokenRequest) (*dto.RespondInviteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InviteRepo.GetByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return s.RespondToInvite(ctx, actor, inv.ID, dto.RespondInviteRequest{Decision: req.Decision})
}

// persistExpiry stores an expiry found on touch. Losing the race to another
// writer is fine since the invite left pending either way.
func (s *inviteService) persistExpiry(ctx context.Context, inv *invite.Invite) {
	inv.Touch(ctx)
	if err := s.InviteRepo.UpdateStatus(ctx, inv, types.InviteStatusPending); err != nil && !ierr.IsVersionConflict(err) {
		s.Logger.Errorw("failed to persist invite expiry", "invite_id", inv.ID, "error", err)
	}
}

// alreadyProcessed reports the status a concurrent responder left behind
func (s *inviteService) alreadyProcessed(ctx context.Context, inviteID string, cause error) error {
	current, err := s.InviteRepo.Get(ctx, inviteID)
	if err != nil {
		return cause
	}
	return invite.NewAlreadyProcessedError(inviteID, current.InviteStatus)
}

func (s *inviteService) markInviteNotificationsRead(ctx context.Context, userID, inviteID string, now time.Time) {
	n, err := s.NotificationRepo.MarkReadByObject(ctx, userID, "invite", inviteID, now)
	if err != nil {
		s.Logger.Warnw("failed to mark invite notifications read", "invite_id", inviteID, "error", err)
		return
	}
	if n > 0 {
		s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixUnreadCount, userID))
	}
}

func (s *inviteService) publishInviteEvents(ctx context.Context, inv *invite.Invite, created *tenancy.Tenancy) {
	eventType := types.TemplateInviteRejected
	if inv.InviteStatus == types.InviteStatusAccepted {
		eventType = types.TemplateInviteAccepted
	}
	s.publish(ctx, events.New(ctx, eventType, "invite", inv.ID, map[string]any{
		"invite_id":   inv.ID,
		"property_id": inv.PropertyID,
		"room_id":     inv.RoomID,
		"status":      inv.InviteStatus,
	}, inv.LandlordID))

	if created != nil {
		s.publish(ctx, events.New(ctx, types.TemplateTenancyCreated, "tenancy", created.ID, map[string]any{
			"tenancy_id": created.ID,
			"room_id":    created.RoomID,
			"base_rent":  created.BaseRent.String(),
			"start_date": created.StartDate.Format(types.DateLayout),
		}, recipients(created)...))
	}
}

func (s *inviteService) ExpireInvites(ctx context.Context, now time.Time, dryRun bool) (int, error) {
	if dryRun {
		return s.InviteRepo.CountExpirable(ctx, now)
	}

	expired, err := s.InviteRepo.ExpirePending(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, inv := range expired {
		s.Logger.Infow("expired invite", "invite_id", inv.ID, "expires_at", inv.ExpiresAt)
	}
	return len(expired), nil
}
