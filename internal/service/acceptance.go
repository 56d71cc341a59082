package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/domain"
	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/store"
)

func (c *membershipCoordinator) AcceptFamilyInvitation(ctx context.Context, code string, caller model.Identity, opts AcceptFamilyOptions) (*FamilyAcceptance, error) {
	ctx = withCaller(ctx, caller)
	sc := logger.StartSpan(ctx, "membership.accept_family_invitation")
	defer sc.End()
	ctx = sc.Context()

	var result FamilyAcceptance
	err := c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		inv, err := c.lockPending(ctx, stores, model.InvitationKindFamily, code)
		if err != nil {
			return err
		}
		if err := c.access.CheckEmailBinding(inv, &caller); err != nil {
			return err
		}

		current, err := membershipOf(ctx, stores.Families(), caller.UserID)
		if err != nil {
			return err
		}
		if current != nil && current.FamilyID == inv.TargetID {
			return ErrAlreadyMember
		}

		ids := []int64{inv.TargetID}
		if current != nil {
			ids = append(ids, current.FamilyID)
		}
		locked, err := lockFamilies(ctx, stores.Families(), ids...)
		if err != nil {
			return err
		}
		target, ok := locked[inv.TargetID]
		if !ok {
			return ErrInvalidCode
		}

		if current != nil {
			old, ok := locked[current.FamilyID]
			if !ok {
				return ErrFamilyConflict
			}
			if !opts.LeaveCurrentFamily {
				return familyConflict(old.ID, old.Name)
			}
			// Re-read under the family lock before deciding.
			current, err = membershipOf(ctx, stores.Families(), caller.UserID)
			if err != nil {
				return err
			}
			if current == nil || current.FamilyID != old.ID {
				return ErrFamilyConflict
			}
			canLeave, err := canLeaveFamily(ctx, stores.Families(), current)
			if err != nil {
				return err
			}
			if !canLeave {
				return lastAdmin(old.Name)
			}
			if err := stores.Families().RemoveMember(ctx, old.ID, caller.UserID); err != nil {
				return fmt.Errorf("leaving current family: %w", err)
			}
			result.LeftFamilyID = &old.ID
		}

		if err := c.capacity.CheckFamilyCapacity(ctx, stores.Families(), target.ID); err != nil {
			return err
		}

		now := c.clock()
		member := &model.FamilyMember{
			UserID:   caller.UserID,
			FamilyID: target.ID,
			Role:     model.FamilyRole(inv.Role),
			JoinedAt: now,
		}
		if err := stores.Families().AddMember(ctx, member); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// Another acceptance for this user committed first.
				return ErrFamilyConflict
			}
			return fmt.Errorf("adding family member: %w", err)
		}

		accepted, err := stores.Invitations().MarkAccepted(ctx, inv.ID, caller.UserID, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("accepting invitation: %w", err)
		}

		result.Invitation = accepted
		result.Family = target
		result.Membership = member
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InvitationID: logger.Ptr(result.Invitation.ID),
		FamilyID:     logger.Ptr(result.Family.ID),
	})
	sc.SetInt64("invitation_id", result.Invitation.ID)

	if result.LeftFamilyID != nil {
		slog.InfoContext(ctx, "user left family to accept invitation", "left_family_id", *result.LeftFamilyID)
		c.publishFamily(ctx, *result.LeftFamilyID, domain.FamilyMemberLeft{
			FamilyID: *result.LeftFamilyID,
			UserID:   caller.UserID,
			Reason:   domain.LeaveReasonJoinedAnother,
		})
	}

	slog.InfoContext(ctx, "family invitation accepted", "role", result.Membership.Role)
	c.publishFamily(ctx, result.Family.ID, domain.FamilyMemberJoined{
		FamilyID:     result.Family.ID,
		UserID:       caller.UserID,
		Role:         result.Membership.Role,
		InvitationID: result.Invitation.ID,
	})

	return &result, nil
}

func (c *membershipCoordinator) AcceptGroupInvitation(ctx context.Context, code string, caller model.Identity) (*GroupAcceptance, error) {
	ctx = withCaller(ctx, caller)
	sc := logger.StartSpan(ctx, "membership.accept_group_invitation")
	defer sc.End()
	ctx = sc.Context()

	var result GroupAcceptance
	err := c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		inv, err := c.lockPending(ctx, stores, model.InvitationKindGroup, code)
		if err != nil {
			return err
		}
		if err := c.access.CheckEmailBinding(inv, &caller); err != nil {
			return err
		}

		member, err := membershipOf(ctx, stores.Families(), caller.UserID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrFamilyOnboardingRequired
		}

		group, err := stores.Groups().Lock(ctx, inv.TargetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("locking group: %w", err)
		}

		family, err := stores.Families().Lock(ctx, member.FamilyID)
		if err != nil {
			return fmt.Errorf("locking family: %w", err)
		}

		bound, err := familyInGroup(ctx, stores.Groups(), group.ID, family.ID)
		if err != nil {
			return err
		}
		if bound {
			return ErrAlreadyMember
		}

		if !member.IsAdmin() {
			admins, err := stores.Families().ListAdmins(ctx, family.ID)
			if err != nil {
				return fmt.Errorf("listing family admins: %w", err)
			}
			if len(admins) == 0 {
				return requiresAdminAction(family.Name, "", "")
			}
			return requiresAdminAction(family.Name, admins[0].Name, admins[0].Email)
		}

		now := c.clock()
		binding := &model.GroupFamilyMember{
			GroupID:  group.ID,
			FamilyID: family.ID,
			Role:     model.GroupRole(inv.Role),
			AddedBy:  caller.UserID,
			JoinedAt: now,
		}
		if err := stores.Groups().AddFamily(ctx, binding); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("adding family to group: %w", err)
		}

		children, err := stores.Groups().AddFamilyChildren(ctx, group.ID, family.ID, caller.UserID, now)
		if err != nil {
			return fmt.Errorf("adding children to group: %w", err)
		}

		members, err := stores.Families().CountMembers(ctx, family.ID)
		if err != nil {
			return fmt.Errorf("counting family members: %w", err)
		}

		accepted, err := stores.Invitations().MarkAccepted(ctx, inv.ID, caller.UserID, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("accepting invitation: %w", err)
		}

		result = GroupAcceptance{
			Invitation:      accepted,
			Group:           group,
			Binding:         binding,
			MembersAffected: members,
			ChildrenAdded:   children,
		}
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InvitationID: logger.Ptr(result.Invitation.ID),
		GroupID:      logger.Ptr(result.Group.ID),
		FamilyID:     logger.Ptr(result.Binding.FamilyID),
	})
	sc.SetInt64("invitation_id", result.Invitation.ID)

	slog.InfoContext(ctx, "group invitation accepted",
		"members_affected", result.MembersAffected,
		"children_added", result.ChildrenAdded,
	)
	c.publishGroup(ctx, result.Group.ID, domain.GroupFamilyJoined{
		GroupID:         result.Group.ID,
		FamilyID:        result.Binding.FamilyID,
		Role:            result.Binding.Role,
		InvitationID:    result.Invitation.ID,
		MembersAffected: result.MembersAffected,
		ChildrenAdded:   result.ChildrenAdded,
	})

	return &result, nil
}

func (c *membershipCoordinator) LeaveFamily(ctx context.Context, caller model.Identity) error {
	ctx = withCaller(ctx, caller)
	sc := logger.StartSpan(ctx, "membership.leave_family")
	defer sc.End()
	ctx = sc.Context()

	var familyID int64
	err := c.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		member, err := membershipOf(ctx, stores.Families(), caller.UserID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotFound
		}

		family, err := stores.Families().Lock(ctx, member.FamilyID)
		if err != nil {
			return fmt.Errorf("locking family: %w", err)
		}

		canLeave, err := canLeaveFamily(ctx, stores.Families(), member)
		if err != nil {
			return err
		}
		if !canLeave {
			return lastAdmin(family.Name)
		}

		if err := stores.Families().RemoveMember(ctx, family.ID, caller.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("removing family member: %w", err)
		}
		familyID = family.ID
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return err
	}

	slog.InfoContext(ctx, "user left family", "family_id", familyID)
	c.publishFamily(ctx, familyID, domain.FamilyMemberLeft{
		FamilyID: familyID,
		UserID:   caller.UserID,
		Reason:   domain.LeaveReasonLeft,
	})
	return nil
}

// lockPending locks the PENDING invitation for code. A row that stopped being
// PENDING while we waited for the lock is not returned.
func (c *membershipCoordinator) lockPending(ctx context.Context, stores StoreProvider, kind model.InvitationKind, code string) (*model.Invitation, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	inv, err := stores.Invitations().LockPendingByCode(ctx, kind, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("locking invitation: %w", err)
	}
	if inv.IsExpired(c.clock()) {
		return nil, expired(inv.ExpiresAt)
	}
	return inv, nil
}

// lockFamilies locks family rows in ascending id order so two transactions
// touching the same pair cannot deadlock.
func lockFamilies(ctx context.Context, families store.FamilyStore, ids ...int64) (map[int64]*model.Family, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	locked := make(map[int64]*model.Family, len(sorted))
	for _, familyID := range sorted {
		if _, ok := locked[familyID]; ok {
			continue
		}
		family, err := families.Lock(ctx, familyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("locking family %d: %w", familyID, err)
		}
		locked[familyID] = family
	}
	return locked, nil
}
