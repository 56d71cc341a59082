package domain

import "edulift.app/membership/internal/model"

// EventType names a membership change pushed to connected clients.
type EventType string

const (
	EventTypeFamilyMemberJoined  EventType = "family.member_joined"
	EventTypeFamilyMemberLeft    EventType = "family.member_left"
	EventTypeGroupFamilyJoined   EventType = "group.family_joined"
	EventTypeInvitationCreated   EventType = "invitation.created"
	EventTypeInvitationCancelled EventType = "invitation.cancelled"
)

// Event is implemented by every typed membership notification.
type Event interface {
	Type() EventType
}

type FamilyMemberJoined struct {
	FamilyID     int64            `json:"family_id"`
	UserID       int64            `json:"user_id"`
	Role         model.FamilyRole `json:"role"`
	InvitationID int64            `json:"invitation_id"`
}

func (FamilyMemberJoined) Type() EventType { return EventTypeFamilyMemberJoined }

type LeaveReason string

const (
	LeaveReasonLeft          LeaveReason = "left"
	LeaveReasonJoinedAnother LeaveReason = "joined_another_family"
)

type FamilyMemberLeft struct {
	FamilyID int64       `json:"family_id"`
	UserID   int64       `json:"user_id"`
	Reason   LeaveReason `json:"reason"`
}

func (FamilyMemberLeft) Type() EventType { return EventTypeFamilyMemberLeft }

// GroupFamilyJoined is emitted when a whole family is bound to a group.
// MembersAffected counts the users of that family.
type GroupFamilyJoined struct {
	GroupID         int64           `json:"group_id"`
	FamilyID        int64           `json:"family_id"`
	Role            model.GroupRole `json:"role"`
	InvitationID    int64           `json:"invitation_id"`
	MembersAffected int             `json:"members_affected"`
	ChildrenAdded   int64           `json:"children_added"`
}

func (GroupFamilyJoined) Type() EventType { return EventTypeGroupFamilyJoined }

type InvitationCreated struct {
	Kind         model.InvitationKind `json:"kind"`
	TargetID     int64                `json:"target_id"`
	InvitationID int64                `json:"invitation_id"`
}

func (InvitationCreated) Type() EventType { return EventTypeInvitationCreated }

type InvitationCancelled struct {
	Kind         model.InvitationKind `json:"kind"`
	TargetID     int64                `json:"target_id"`
	InvitationID int64                `json:"invitation_id"`
}

func (InvitationCancelled) Type() EventType { return EventTypeInvitationCancelled }
