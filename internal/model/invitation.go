package model

import "time"

type InvitationKind string

const (
	InvitationKindFamily InvitationKind = "FAMILY"
	InvitationKindGroup  InvitationKind = "GROUP"
)

func (k InvitationKind) IsValid() bool {
	return k == InvitationKindFamily || k == InvitationKindGroup
}

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "PENDING"
	InvitationStatusAccepted  InvitationStatus = "ACCEPTED"
	InvitationStatusCancelled InvitationStatus = "CANCELLED"
	InvitationStatusExpired   InvitationStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is allowed.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationStatusPending
}

// Invitation is a single-use offer to join a family or a group. Role holds a
// FamilyRole for family invitations and a GroupRole for group invitations.
type Invitation struct {
	ID              int64            `json:"id"`
	Kind            InvitationKind   `json:"kind"`
	TargetID        int64            `json:"target_id"`
	Email           *string          `json:"email,omitempty"` // nil means open invitation
	Role            string           `json:"role"`
	Code            string           `json:"code"`
	PersonalMessage *string          `json:"personal_message,omitempty"`
	Status          InvitationStatus `json:"status"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedBy       int64            `json:"created_by"`
	InvitedBy       int64            `json:"invited_by"`
	AcceptedBy      *int64           `json:"accepted_by,omitempty"`
	AcceptedAt      *time.Time       `json:"accepted_at,omitempty"`
	CancelledAt     *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i *Invitation) IsOpen() bool {
	return i.Email == nil
}
