package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"edulift.app/membership/common/id"
	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/domain"
	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/store"
)

func (c *membershipCoordinator) CreateFamilyInvitation(ctx context.Context, caller model.Identity, familyID int64, in CreateInvitationInput) (*model.Invitation, error) {
	ctx = logger.WithLogFields(withCaller(ctx, caller), logger.LogFields{FamilyID: logger.Ptr(familyID)})
	sc := logger.StartSpan(ctx, "membership.create_family_invitation")
	defer sc.End()
	ctx = sc.Context()

	email, message, err := normalizeInvitationInput(in)
	if err != nil {
		return nil, err
	}
	role := model.FamilyRole(strings.ToUpper(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.FamilyRoleMember
	}
	if !role.IsValid() {
		return nil, invalidInput("unknown family role %q", in.Role)
	}

	var (
		inv     *model.Invitation
		family  *model.Family
		inviter string
	)
	err = c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := c.access.RequireAdmin(ctx, stores, caller.UserID, familyID, model.InvitationKindFamily); err != nil {
			return err
		}

		var err error
		family, err = stores.Families().Lock(ctx, familyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("locking family: %w", err)
		}

		if email != nil {
			member, err := stores.Families().HasMemberWithEmail(ctx, familyID, *email)
			if err != nil {
				return fmt.Errorf("checking family members: %w", err)
			}
			if member {
				return ErrAlreadyMember
			}
			if err := c.ensureNoLiveOffer(ctx, stores.Invitations(), model.InvitationKindFamily, familyID, *email); err != nil {
				return err
			}
		}

		if err := c.capacity.CheckFamilyCapacity(ctx, stores.Families(), familyID); err != nil {
			return err
		}

		inv, err = c.insertInvitation(ctx, stores.Invitations(), &model.Invitation{
			Kind:            model.InvitationKindFamily,
			TargetID:        familyID,
			Email:           email,
			Role:            string(role),
			PersonalMessage: message,
			CreatedBy:       caller.UserID,
			InvitedBy:       caller.UserID,
		})
		if err != nil {
			return err
		}

		inviter = displayName(ctx, stores.Users(), caller)
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	sc.SetInt64("invitation_id", inv.ID)
	slog.InfoContext(ctx, "family invitation created",
		"invitation_id", inv.ID,
		"role", inv.Role,
		"email", maskedEmail(inv.Email),
		"expires_at", inv.ExpiresAt,
	)

	c.publishFamily(ctx, familyID, domain.InvitationCreated{
		Kind:         inv.Kind,
		TargetID:     familyID,
		InvitationID: inv.ID,
	})

	if inv.Email != nil && c.mailer != nil {
		payload := domain.FamilyInvitationEmail{
			InvitationID:    inv.ID,
			FamilyName:      family.Name,
			InviterName:     inviter,
			Role:            inv.Role,
			Code:            inv.Code,
			PersonalMessage: deref(inv.PersonalMessage),
			AcceptURL:       c.acceptURL("families", inv.Code),
			ExpiresAt:       inv.ExpiresAt,
		}
		if err := c.mailer.SendFamilyInvitation(ctx, *inv.Email, payload); err != nil {
			slog.WarnContext(ctx, "family invitation email dispatch failed",
				"invitation_id", inv.ID,
				"error", err,
			)
		}
	}

	return inv, nil
}

func (c *membershipCoordinator) CreateGroupInvitation(ctx context.Context, caller model.Identity, groupID int64, in CreateInvitationInput) (*model.Invitation, error) {
	ctx = logger.WithLogFields(withCaller(ctx, caller), logger.LogFields{GroupID: logger.Ptr(groupID)})
	sc := logger.StartSpan(ctx, "membership.create_group_invitation")
	defer sc.End()
	ctx = sc.Context()

	email, message, err := normalizeInvitationInput(in)
	if err != nil {
		return nil, err
	}
	role := model.GroupRole(strings.ToUpper(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.GroupRoleMember
	}
	if !role.IsValid() {
		return nil, invalidInput("unknown group role %q", in.Role)
	}

	var (
		inv     *model.Invitation
		group   *model.Group
		inviter string
	)
	err = c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := c.access.RequireAdmin(ctx, stores, caller.UserID, groupID, model.InvitationKindGroup); err != nil {
			return err
		}

		var err error
		group, err = stores.Groups().Lock(ctx, groupID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("locking group: %w", err)
		}

		if email != nil {
			bound, err := stores.Groups().HasFamilyWithUserEmail(ctx, groupID, *email)
			if err != nil {
				return fmt.Errorf("checking group families: %w", err)
			}
			if bound {
				return ErrAlreadyMember
			}
			if err := c.ensureNoLiveOffer(ctx, stores.Invitations(), model.InvitationKindGroup, groupID, *email); err != nil {
				return err
			}
		}

		inv, err = c.insertInvitation(ctx, stores.Invitations(), &model.Invitation{
			Kind:            model.InvitationKindGroup,
			TargetID:        groupID,
			Email:           email,
			Role:            string(role),
			PersonalMessage: message,
			CreatedBy:       caller.UserID,
			InvitedBy:       caller.UserID,
		})
		if err != nil {
			return err
		}

		inviter = displayName(ctx, stores.Users(), caller)
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	sc.SetInt64("invitation_id", inv.ID)
	slog.InfoContext(ctx, "group invitation created",
		"invitation_id", inv.ID,
		"role", inv.Role,
		"email", maskedEmail(inv.Email),
		"expires_at", inv.ExpiresAt,
	)

	c.publishGroup(ctx, groupID, domain.InvitationCreated{
		Kind:         inv.Kind,
		TargetID:     groupID,
		InvitationID: inv.ID,
	})

	if inv.Email != nil && c.mailer != nil {
		payload := domain.GroupInvitationEmail{
			InvitationID:    inv.ID,
			Email:           *inv.Email,
			GroupName:       group.Name,
			InviterName:     inviter,
			Role:            inv.Role,
			Code:            inv.Code,
			PersonalMessage: deref(inv.PersonalMessage),
			AcceptURL:       c.acceptURL("groups", inv.Code),
			ExpiresAt:       inv.ExpiresAt,
		}
		if err := c.mailer.SendGroupInvitation(ctx, payload); err != nil {
			slog.WarnContext(ctx, "group invitation email dispatch failed",
				"invitation_id", inv.ID,
				"error", err,
			)
		}
	}

	return inv, nil
}

// ensureNoLiveOffer retires overdue PENDING rows for the address, then fails
// if a live one remains.
func (c *membershipCoordinator) ensureNoLiveOffer(ctx context.Context, invitations store.InvitationStore, kind model.InvitationKind, targetID int64, email string) error {
	now := c.clock()
	if _, err := invitations.ExpireOverdueForEmail(ctx, kind, targetID, email, now); err != nil {
		return fmt.Errorf("expiring overdue invitations: %w", err)
	}
	_, err := invitations.GetLivePendingForEmail(ctx, kind, targetID, email, now)
	if err == nil {
		return ErrDuplicateInvitation
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("checking pending invitations: %w", err)
}

// insertInvitation assigns id, code and deadline, retrying on code collision.
func (c *membershipCoordinator) insertInvitation(ctx context.Context, invitations store.InvitationStore, inv *model.Invitation) (*model.Invitation, error) {
	now := c.clock()
	inv.ID = id.New()
	inv.Status = model.InvitationStatusPending
	inv.CreatedAt = now
	inv.UpdatedAt = now
	inv.ExpiresAt = now.Add(c.ttl)

	for attempt := 1; attempt <= c.codeAttempts; attempt++ {
		code, err := c.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("generating invitation code: %w", err)
		}
		inv.Code = code

		err = invitations.Create(ctx, inv)
		switch {
		case err == nil:
			return inv, nil
		case errors.Is(err, store.ErrCodeTaken):
			slog.WarnContext(ctx, "invitation code collision", "attempt", attempt)
			continue
		case errors.Is(err, store.ErrConflict):
			return nil, ErrDuplicateInvitation
		default:
			return nil, fmt.Errorf("creating invitation: %w", err)
		}
	}
	return nil, fmt.Errorf("no unique invitation code after %d attempts", c.codeAttempts)
}

func (c *membershipCoordinator) ValidateFamilyInvitation(ctx context.Context, code string, caller *model.Identity) (*FamilyInvitationValidation, error) {
	sc := logger.StartSpan(ctx, "membership.validate_family_invitation")
	defer sc.End()
	ctx = sc.Context()

	inv, err := c.pendingForDisplay(ctx, model.InvitationKindFamily, code, caller)
	if err != nil {
		return nil, err
	}

	family, err := c.stores.Families().GetByID(ctx, inv.TargetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("getting family: %w", err)
	}

	eligibility, err := c.access.FamilyEligibility(ctx, c.stores, inv, caller)
	if err != nil {
		return nil, err
	}

	return &FamilyInvitationValidation{
		Valid:           true,
		InvitationID:    inv.ID,
		FamilyID:        family.ID,
		FamilyName:      family.Name,
		Role:            model.FamilyRole(inv.Role),
		Email:           inv.Email,
		PersonalMessage: inv.PersonalMessage,
		InviterName:     inviterName(ctx, c.stores.Users(), inv.InvitedBy),
		ExpiresAt:       inv.ExpiresAt,
		Eligibility:     eligibility,
	}, nil
}

func (c *membershipCoordinator) ValidateGroupInvitation(ctx context.Context, code string, caller *model.Identity) (*GroupInvitationValidation, error) {
	sc := logger.StartSpan(ctx, "membership.validate_group_invitation")
	defer sc.End()
	ctx = sc.Context()

	inv, err := c.pendingForDisplay(ctx, model.InvitationKindGroup, code, caller)
	if err != nil {
		return nil, err
	}

	group, err := c.stores.Groups().GetByID(ctx, inv.TargetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("getting group: %w", err)
	}

	eligibility, err := c.access.GroupEligibility(ctx, c.stores, inv, caller)
	if err != nil {
		return nil, err
	}

	return &GroupInvitationValidation{
		Valid:           true,
		InvitationID:    inv.ID,
		GroupID:         group.ID,
		GroupName:       group.Name,
		Role:            model.GroupRole(inv.Role),
		Email:           inv.Email,
		PersonalMessage: inv.PersonalMessage,
		InviterName:     inviterName(ctx, c.stores.Users(), inv.InvitedBy),
		ExpiresAt:       inv.ExpiresAt,
		Eligibility:     eligibility,
	}, nil
}

// pendingForDisplay looks up a PENDING invitation without locking and
// reports expiry without flipping status.
func (c *membershipCoordinator) pendingForDisplay(ctx context.Context, kind model.InvitationKind, code string, caller *model.Identity) (*model.Invitation, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	inv, err := c.stores.Invitations().GetPendingByCode(ctx, kind, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	if inv.IsExpired(c.clock()) {
		return nil, expired(inv.ExpiresAt)
	}
	if err := c.access.CheckEmailBinding(inv, caller); err != nil {
		return nil, err
	}
	return inv, nil
}

func (c *membershipCoordinator) CancelFamilyInvitation(ctx context.Context, caller model.Identity, invitationID int64) error {
	return c.cancel(ctx, caller, model.InvitationKindFamily, invitationID)
}

func (c *membershipCoordinator) CancelGroupInvitation(ctx context.Context, caller model.Identity, invitationID int64) error {
	return c.cancel(ctx, caller, model.InvitationKindGroup, invitationID)
}

// cancel is idempotent: an invitation already in a terminal state is left as is.
func (c *membershipCoordinator) cancel(ctx context.Context, caller model.Identity, kind model.InvitationKind, invitationID int64) error {
	ctx = logger.WithLogFields(withCaller(ctx, caller), logger.LogFields{InvitationID: logger.Ptr(invitationID)})
	sc := logger.StartSpan(ctx, "membership.cancel_invitation")
	defer sc.End()
	ctx = sc.Context()

	var (
		inv       *model.Invitation
		cancelled bool
	)
	err := c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		inv, err = stores.Invitations().GetByID(ctx, kind, invitationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("getting invitation: %w", err)
		}

		if err := c.access.RequireAdmin(ctx, stores, caller.UserID, inv.TargetID, kind); err != nil {
			return err
		}

		if inv.Status.IsTerminal() {
			return nil
		}

		_, err = stores.Invitations().MarkCancelled(ctx, inv.ID, c.clock())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Accepted, cancelled or expired concurrently.
				return nil
			}
			return fmt.Errorf("cancelling invitation: %w", err)
		}
		cancelled = true
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return err
	}

	if !cancelled {
		slog.InfoContext(ctx, "invitation already terminal, cancel is a no-op", "status", inv.Status)
		return nil
	}

	slog.InfoContext(ctx, "invitation cancelled", "kind", kind, "target_id", inv.TargetID)
	c.publishTarget(ctx, kind, inv.TargetID, domain.InvitationCancelled{
		Kind:         kind,
		TargetID:     inv.TargetID,
		InvitationID: inv.ID,
	})
	return nil
}

func (c *membershipCoordinator) ListPendingInvitationsForTarget(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) ([]model.Invitation, error) {
	if !kind.IsValid() {
		return nil, invalidInput("unknown invitation kind %q", kind)
	}
	if err := c.access.RequireAdmin(ctx, c.stores, caller.UserID, targetID, kind); err != nil {
		return nil, err
	}
	invitations, err := c.stores.Invitations().ListLivePendingForTarget(ctx, kind, targetID, c.clock())
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, nil
}

func (c *membershipCoordinator) ListInvitationsForUserEmail(ctx context.Context, email string) ([]model.Invitation, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalidInput("email is required")
	}
	invitations, err := c.stores.Invitations().ListLivePendingForEmail(ctx, email, c.clock())
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, nil
}

func (c *membershipCoordinator) acceptURL(path, code string) string {
	return fmt.Sprintf("%s/%s/join?code=%s", strings.TrimRight(c.dashboardURL, "/"), path, url.QueryEscape(code))
}

func normalizeInvitationInput(in CreateInvitationInput) (*string, *string, error) {
	var email *string
	if in.Email != nil {
		if e := normalizeEmail(*in.Email); e != "" {
			at := strings.LastIndex(e, "@")
			if at <= 0 || at == len(e)-1 || strings.ContainsAny(e, " \t") {
				return nil, nil, invalidInput("invalid email %q", *in.Email)
			}
			email = &e
		}
	}

	var message *string
	if in.PersonalMessage != nil {
		if m := strings.TrimSpace(*in.PersonalMessage); m != "" {
			if len(m) > maxPersonalMessageLength {
				return nil, nil, invalidInput("personal message exceeds %d characters", maxPersonalMessageLength)
			}
			message = &m
		}
	}
	return email, message, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// displayName falls back to the caller's email when the profile is missing.
func displayName(ctx context.Context, users store.UserStore, caller model.Identity) string {
	if user, err := users.GetByID(ctx, caller.UserID); err == nil && user.Name != "" {
		return user.Name
	}
	return caller.Email
}

func inviterName(ctx context.Context, users store.UserStore, userID int64) string {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Name
}

func maskedEmail(email *string) string {
	if email == nil {
		return ""
	}
	return logger.MaskEmail(*email)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
