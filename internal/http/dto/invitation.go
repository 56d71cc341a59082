package dto

import (
	"time"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

// Email format and role are validated by the coordinator so that malformed
// input surfaces as INVALID_INPUT with the same wording on every transport.
type CreateInvitationRequest struct {
	Email           *string `json:"email,omitempty" binding:"omitempty,max=320"`
	Role            string  `json:"role,omitempty" binding:"omitempty,max=16"`
	PersonalMessage *string `json:"personal_message,omitempty"`
}

func (r CreateInvitationRequest) ToInput() service.CreateInvitationInput {
	return service.CreateInvitationInput{
		Email:           r.Email,
		Role:            r.Role,
		PersonalMessage: r.PersonalMessage,
	}
}

type AcceptFamilyInvitationRequest struct {
	Code               string `json:"code" binding:"required,max=64"`
	LeaveCurrentFamily bool   `json:"leave_current_family"`
}

type AcceptGroupInvitationRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type InvitationResponse struct {
	ID              int64                  `json:"id,string"`
	Kind            model.InvitationKind   `json:"kind"`
	TargetID        int64                  `json:"target_id,string"`
	Email           *string                `json:"email,omitempty"`
	Role            string                 `json:"role"`
	Code            string                 `json:"code"`
	PersonalMessage *string                `json:"personal_message,omitempty"`
	Status          model.InvitationStatus `json:"status"`
	ExpiresAt       time.Time              `json:"expires_at"`
	InvitedBy       int64                  `json:"invited_by,string"`
	CreatedAt       time.Time              `json:"created_at"`
}

func ToInvitationResponse(inv *model.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:              inv.ID,
		Kind:            inv.Kind,
		TargetID:        inv.TargetID,
		Email:           inv.Email,
		Role:            inv.Role,
		Code:            inv.Code,
		PersonalMessage: inv.PersonalMessage,
		Status:          inv.Status,
		ExpiresAt:       inv.ExpiresAt,
		InvitedBy:       inv.InvitedBy,
		CreatedAt:       inv.CreatedAt,
	}
}

type ListInvitationsResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
}

func ToListInvitationsResponse(invitations []model.Invitation) ListInvitationsResponse {
	resp := ListInvitationsResponse{Invitations: make([]InvitationResponse, len(invitations))}
	for i := range invitations {
		resp.Invitations[i] = ToInvitationResponse(&invitations[i])
	}
	return resp
}

type FamilyAcceptanceResponse struct {
	Invitation   InvitationResponse `json:"invitation"`
	FamilyID     int64              `json:"family_id,string"`
	FamilyName   string             `json:"family_name"`
	Role         model.FamilyRole   `json:"role"`
	LeftFamilyID *int64             `json:"left_family_id,omitempty,string"`
}

func ToFamilyAcceptanceResponse(a *service.FamilyAcceptance) FamilyAcceptanceResponse {
	return FamilyAcceptanceResponse{
		Invitation:   ToInvitationResponse(a.Invitation),
		FamilyID:     a.Family.ID,
		FamilyName:   a.Family.Name,
		Role:         a.Membership.Role,
		LeftFamilyID: a.LeftFamilyID,
	}
}

type GroupAcceptanceResponse struct {
	Invitation      InvitationResponse `json:"invitation"`
	GroupID         int64              `json:"group_id,string"`
	GroupName       string             `json:"group_name"`
	FamilyID        int64              `json:"family_id,string"`
	Role            model.GroupRole    `json:"role"`
	MembersAffected int                `json:"members_affected"`
	ChildrenAdded   int64              `json:"children_added"`
}

func ToGroupAcceptanceResponse(a *service.GroupAcceptance) GroupAcceptanceResponse {
	return GroupAcceptanceResponse{
		Invitation:      ToInvitationResponse(a.Invitation),
		GroupID:         a.Group.ID,
		GroupName:       a.Group.Name,
		FamilyID:        a.Binding.FamilyID,
		Role:            a.Binding.Role,
		MembersAffected: a.MembersAffected,
		ChildrenAdded:   a.ChildrenAdded,
	}
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    service.Code      `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
