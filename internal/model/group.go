package model

import "time"

type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "ADMIN"
	GroupRoleMember GroupRole = "MEMBER"
)

func (r GroupRole) IsValid() bool {
	return r == GroupRoleAdmin || r == GroupRoleMember
}

type Group struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	OwnerFamilyID int64     `json:"owner_family_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GroupFamilyMember binds a whole family to a group.
type GroupFamilyMember struct {
	GroupID  int64     `json:"group_id"`
	FamilyID int64     `json:"family_id"`
	Role     GroupRole `json:"role"`
	AddedBy  int64     `json:"added_by"`
	JoinedAt time.Time `json:"joined_at"`
}
