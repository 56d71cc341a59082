package model

import "time"

type FamilyRole string

const (
	FamilyRoleAdmin  FamilyRole = "ADMIN"
	FamilyRoleMember FamilyRole = "MEMBER"
)

func (r FamilyRole) IsValid() bool {
	return r == FamilyRoleAdmin || r == FamilyRoleMember
}

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilyMember is keyed by user: a user belongs to at most one family.
type FamilyMember struct {
	UserID   int64      `json:"user_id"`
	FamilyID int64      `json:"family_id"`
	Role     FamilyRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

func (m *FamilyMember) IsAdmin() bool {
	return m.Role == FamilyRoleAdmin
}
