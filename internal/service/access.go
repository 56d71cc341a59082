package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/store"
)

// AccessValidator answers two questions: may this caller manage invitations
// for a target, and may this caller redeem a given invitation.
type AccessValidator struct{}

// FamilyEligibility is advisory output for a family invitation. It is
// recomputed and enforced again at acceptance.
type FamilyEligibility struct {
	UserExists            bool    `json:"user_exists"`
	AlreadyMember         bool    `json:"already_member"`
	CurrentFamilyID       *int64  `json:"current_family_id,omitempty"`
	CurrentFamilyName     *string `json:"current_family_name,omitempty"`
	CanLeaveCurrentFamily bool    `json:"can_leave_current_family"`
}

// GroupEligibility describes the caller's family. Leave eligibility does not
// apply: a group is joined by a family, not by an individual.
type GroupEligibility struct {
	UserExists          bool    `json:"user_exists"`
	HasFamily           bool    `json:"has_family"`
	FamilyID            *int64  `json:"family_id,omitempty"`
	FamilyName          *string `json:"family_name,omitempty"`
	IsFamilyAdmin       bool    `json:"is_family_admin"`
	FamilyAlreadyMember bool    `json:"family_already_member"`
}

// RequireAdmin fails with UNAUTHORIZED unless userID administers the target.
// For a group that is an ADMIN of the owner family, or an ADMIN of a family
// bound to the group with the ADMIN group role.
func (v AccessValidator) RequireAdmin(ctx context.Context, stores StoreProvider, userID, targetID int64, kind model.InvitationKind) error {
	member, err := membershipOf(ctx, stores.Families(), userID)
	if err != nil {
		return err
	}
	if member == nil || !member.IsAdmin() {
		return ErrUnauthorized
	}

	switch kind {
	case model.InvitationKindFamily:
		if member.FamilyID != targetID {
			return ErrUnauthorized
		}
		return nil
	case model.InvitationKindGroup:
		group, err := stores.Groups().GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("getting group: %w", err)
		}
		if group.OwnerFamilyID == member.FamilyID {
			return nil
		}
		binding, err := stores.Groups().GetFamilyBinding(ctx, targetID, member.FamilyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUnauthorized
			}
			return fmt.Errorf("getting group binding: %w", err)
		}
		if binding.Role != model.GroupRoleAdmin {
			return ErrUnauthorized
		}
		return nil
	default:
		return invalidInput("unknown invitation kind %q", kind)
	}
}

// RequireMember fails with UNAUTHORIZED unless userID belongs to the family,
// or for a group, unless the user's family is in the group.
func (v AccessValidator) RequireMember(ctx context.Context, stores StoreProvider, userID, targetID int64, kind model.InvitationKind) error {
	member, err := membershipOf(ctx, stores.Families(), userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrUnauthorized
	}

	switch kind {
	case model.InvitationKindFamily:
		if member.FamilyID != targetID {
			return ErrUnauthorized
		}
		return nil
	case model.InvitationKindGroup:
		bound, err := familyInGroup(ctx, stores.Groups(), targetID, member.FamilyID)
		if err != nil {
			return err
		}
		if !bound {
			return ErrUnauthorized
		}
		return nil
	default:
		return invalidInput("unknown invitation kind %q", kind)
	}
}

// CheckEmailBinding blocks an authenticated caller from redeeming an
// invitation addressed to someone else. Open invitations and anonymous
// callers pass.
func (v AccessValidator) CheckEmailBinding(inv *model.Invitation, caller *model.Identity) error {
	if inv.Email == nil || caller == nil {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(*inv.Email), strings.TrimSpace(caller.Email)) {
		return ErrEmailMismatch
	}
	return nil
}

func (v AccessValidator) FamilyEligibility(ctx context.Context, stores StoreProvider, inv *model.Invitation, caller *model.Identity) (FamilyEligibility, error) {
	var out FamilyEligibility

	exists, err := userExistsFor(ctx, stores.Users(), inv, caller)
	if err != nil {
		return out, err
	}
	out.UserExists = exists

	if caller == nil {
		return out, nil
	}

	member, err := membershipOf(ctx, stores.Families(), caller.UserID)
	if err != nil || member == nil {
		return out, err
	}
	if member.FamilyID == inv.TargetID {
		out.AlreadyMember = true
		return out, nil
	}

	family, err := stores.Families().GetByID(ctx, member.FamilyID)
	if err != nil {
		return out, fmt.Errorf("getting current family: %w", err)
	}
	out.CurrentFamilyID = &family.ID
	out.CurrentFamilyName = &family.Name

	canLeave, err := canLeaveFamily(ctx, stores.Families(), member)
	if err != nil {
		return out, err
	}
	out.CanLeaveCurrentFamily = canLeave
	return out, nil
}

func (v AccessValidator) GroupEligibility(ctx context.Context, stores StoreProvider, inv *model.Invitation, caller *model.Identity) (GroupEligibility, error) {
	var out GroupEligibility

	exists, err := userExistsFor(ctx, stores.Users(), inv, caller)
	if err != nil {
		return out, err
	}
	out.UserExists = exists

	if caller == nil {
		return out, nil
	}

	member, err := membershipOf(ctx, stores.Families(), caller.UserID)
	if err != nil || member == nil {
		return out, err
	}
	out.HasFamily = true
	out.IsFamilyAdmin = member.IsAdmin()

	family, err := stores.Families().GetByID(ctx, member.FamilyID)
	if err != nil {
		return out, fmt.Errorf("getting family: %w", err)
	}
	out.FamilyID = &family.ID
	out.FamilyName = &family.Name

	bound, err := familyInGroup(ctx, stores.Groups(), inv.TargetID, family.ID)
	if err != nil {
		return out, err
	}
	out.FamilyAlreadyMember = bound
	return out, nil
}

// membershipOf returns nil when the user has no family.
func membershipOf(ctx context.Context, families store.FamilyStore, userID int64) (*model.FamilyMember, error) {
	member, err := families.GetMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting family membership: %w", err)
	}
	return member, nil
}

// canLeaveFamily is false only for the sole ADMIN of a family.
func canLeaveFamily(ctx context.Context, families store.FamilyStore, member *model.FamilyMember) (bool, error) {
	if !member.IsAdmin() {
		return true, nil
	}
	admins, err := families.CountAdmins(ctx, member.FamilyID)
	if err != nil {
		return false, fmt.Errorf("counting family admins: %w", err)
	}
	return admins > 1, nil
}

func familyInGroup(ctx context.Context, groups store.GroupStore, groupID, familyID int64) (bool, error) {
	group, err := groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("getting group: %w", err)
	}
	if group.OwnerFamilyID == familyID {
		return true, nil
	}
	_, err = groups.GetFamilyBinding(ctx, groupID, familyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("getting group binding: %w", err)
	}
	return true, nil
}

func userExistsFor(ctx context.Context, users store.UserStore, inv *model.Invitation, caller *model.Identity) (bool, error) {
	if inv.Email == nil {
		return caller != nil, nil
	}
	_, err := users.GetByEmail(ctx, *inv.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("getting user by email: %w", err)
	}
	return true, nil
}
