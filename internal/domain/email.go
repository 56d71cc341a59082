package domain

import "time"

// FamilyInvitationEmail carries what the mailer needs to render a family invite.
type FamilyInvitationEmail struct {
	InvitationID    int64     `json:"invitation_id"`
	FamilyName      string    `json:"family_name"`
	InviterName     string    `json:"inviter_name"`
	Role            string    `json:"role"`
	Code            string    `json:"code"`
	PersonalMessage string    `json:"personal_message,omitempty"`
	AcceptURL       string    `json:"accept_url"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// GroupInvitationEmail is addressed by its own Email field.
type GroupInvitationEmail struct {
	InvitationID    int64     `json:"invitation_id"`
	Email           string    `json:"email"`
	GroupName       string    `json:"group_name"`
	InviterName     string    `json:"inviter_name"`
	Role            string    `json:"role"`
	Code            string    `json:"code"`
	PersonalMessage string    `json:"personal_message,omitempty"`
	AcceptURL       string    `json:"accept_url"`
	ExpiresAt       time.Time `json:"expires_at"`
}
