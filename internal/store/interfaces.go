package store

import (
	"context"
	"errors"
	"time"

	"edulift.app/membership/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist, or when a
// conditional update found no row in the expected state.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrCodeTaken is returned when an invitation code is already in the ledger.
var ErrCodeTaken = errors.New("invitation code taken")

// InvitationStore defines the contract for the invitation ledger
type InvitationStore interface {
	// Create inserts a PENDING invitation. Returns ErrCodeTaken on a code
	// collision and ErrConflict when a live offer for the same email exists.
	Create(ctx context.Context, inv *model.Invitation) error
	GetByID(ctx context.Context, kind model.InvitationKind, id int64) (*model.Invitation, error)
	GetPendingByCode(ctx context.Context, kind model.InvitationKind, code string) (*model.Invitation, error)
	// LockPendingByCode takes a row lock held until the transaction ends.
	LockPendingByCode(ctx context.Context, kind model.InvitationKind, code string) (*model.Invitation, error)
	GetLivePendingForEmail(ctx context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (*model.Invitation, error)
	ExpireOverdueForEmail(ctx context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (int64, error)
	// MarkAccepted and MarkCancelled only move PENDING rows; ErrNotFound otherwise.
	MarkAccepted(ctx context.Context, id, userID int64, at time.Time) (*model.Invitation, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) (*model.Invitation, error)
	ListLivePendingForTarget(ctx context.Context, kind model.InvitationKind, targetID int64, now time.Time) ([]model.Invitation, error)
	ListLivePendingForEmail(ctx context.Context, email string, now time.Time) ([]model.Invitation, error)
	ExpireOverdue(ctx context.Context, now time.Time) (map[model.InvitationKind]int64, error)
}

// FamilyStore defines the contract for family and family membership data access
type FamilyStore interface {
	GetByID(ctx context.Context, id int64) (*model.Family, error)
	// Lock serializes membership changes to one family for the rest of the transaction.
	Lock(ctx context.Context, id int64) (*model.Family, error)
	CountMembers(ctx context.Context, familyID int64) (int, error)
	CountAdmins(ctx context.Context, familyID int64) (int, error)
	GetMembership(ctx context.Context, userID int64) (*model.FamilyMember, error)
	AddMember(ctx context.Context, member *model.FamilyMember) error
	RemoveMember(ctx context.Context, familyID, userID int64) error
	ListAdmins(ctx context.Context, familyID int64) ([]model.User, error)
	HasMemberWithEmail(ctx context.Context, familyID int64, email string) (bool, error)
}

// GroupStore defines the contract for group and group binding data access
type GroupStore interface {
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	Lock(ctx context.Context, id int64) (*model.Group, error)
	GetFamilyBinding(ctx context.Context, groupID, familyID int64) (*model.GroupFamilyMember, error)
	AddFamily(ctx context.Context, binding *model.GroupFamilyMember) error
	// AddFamilyChildren registers every child of the family in the group and
	// returns how many were newly added.
	AddFamilyChildren(ctx context.Context, groupID, familyID, addedBy int64, at time.Time) (int64, error)
	HasFamilyWithUserEmail(ctx context.Context, groupID int64, email string) (bool, error)
}

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
