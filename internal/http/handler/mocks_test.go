package handler_test

import (
	"context"
	"net/http"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

type mockMembershipCoordinator struct {
	createFamilyFn  func(ctx context.Context, caller model.Identity, familyID int64, in service.CreateInvitationInput) (*model.Invitation, error)
	createGroupFn   func(ctx context.Context, caller model.Identity, groupID int64, in service.CreateInvitationInput) (*model.Invitation, error)
	validateFamFn   func(ctx context.Context, code string, caller *model.Identity) (*service.FamilyInvitationValidation, error)
	validateGroupFn func(ctx context.Context, code string, caller *model.Identity) (*service.GroupInvitationValidation, error)
	acceptFamilyFn  func(ctx context.Context, code string, caller model.Identity, opts service.AcceptFamilyOptions) (*service.FamilyAcceptance, error)
	acceptGroupFn   func(ctx context.Context, code string, caller model.Identity) (*service.GroupAcceptance, error)
	cancelFamilyFn  func(ctx context.Context, caller model.Identity, invitationID int64) error
	cancelGroupFn   func(ctx context.Context, caller model.Identity, invitationID int64) error
	listTargetFn    func(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) ([]model.Invitation, error)
	listEmailFn     func(ctx context.Context, email string) ([]model.Invitation, error)
	leaveFamilyFn   func(ctx context.Context, caller model.Identity) error
	authorizeFn     func(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) error
}

func (m *mockMembershipCoordinator) CreateFamilyInvitation(ctx context.Context, caller model.Identity, familyID int64, in service.CreateInvitationInput) (*model.Invitation, error) {
	if m.createFamilyFn != nil {
		return m.createFamilyFn(ctx, caller, familyID, in)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) CreateGroupInvitation(ctx context.Context, caller model.Identity, groupID int64, in service.CreateInvitationInput) (*model.Invitation, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(ctx, caller, groupID, in)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) ValidateFamilyInvitation(ctx context.Context, code string, caller *model.Identity) (*service.FamilyInvitationValidation, error) {
	if m.validateFamFn != nil {
		return m.validateFamFn(ctx, code, caller)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) ValidateGroupInvitation(ctx context.Context, code string, caller *model.Identity) (*service.GroupInvitationValidation, error) {
	if m.validateGroupFn != nil {
		return m.validateGroupFn(ctx, code, caller)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) AcceptFamilyInvitation(ctx context.Context, code string, caller model.Identity, opts service.AcceptFamilyOptions) (*service.FamilyAcceptance, error) {
	if m.acceptFamilyFn != nil {
		return m.acceptFamilyFn(ctx, code, caller, opts)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) AcceptGroupInvitation(ctx context.Context, code string, caller model.Identity) (*service.GroupAcceptance, error) {
	if m.acceptGroupFn != nil {
		return m.acceptGroupFn(ctx, code, caller)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) CancelFamilyInvitation(ctx context.Context, caller model.Identity, invitationID int64) error {
	if m.cancelFamilyFn != nil {
		return m.cancelFamilyFn(ctx, caller, invitationID)
	}
	return nil
}

func (m *mockMembershipCoordinator) CancelGroupInvitation(ctx context.Context, caller model.Identity, invitationID int64) error {
	if m.cancelGroupFn != nil {
		return m.cancelGroupFn(ctx, caller, invitationID)
	}
	return nil
}

func (m *mockMembershipCoordinator) ListPendingInvitationsForTarget(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) ([]model.Invitation, error) {
	if m.listTargetFn != nil {
		return m.listTargetFn(ctx, caller, kind, targetID)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) ListInvitationsForUserEmail(ctx context.Context, email string) ([]model.Invitation, error) {
	if m.listEmailFn != nil {
		return m.listEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockMembershipCoordinator) LeaveFamily(ctx context.Context, caller model.Identity) error {
	if m.leaveFamilyFn != nil {
		return m.leaveFamilyFn(ctx, caller)
	}
	return nil
}

func (m *mockMembershipCoordinator) AuthorizeSubscription(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) error {
	if m.authorizeFn != nil {
		return m.authorizeFn(ctx, caller, kind, targetID)
	}
	return nil
}

type mockReaper struct {
	runFn func(ctx context.Context) (*service.SweepResult, error)
}

func (m *mockReaper) RunExpirySweep(ctx context.Context) (*service.SweepResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return &service.SweepResult{}, nil
}

type mockSubscriber struct {
	served []int64
}

func (m *mockSubscriber) ServeFamily(w http.ResponseWriter, _ *http.Request, familyID, _ int64) error {
	m.served = append(m.served, familyID)
	w.WriteHeader(http.StatusOK)
	return nil
}

func (m *mockSubscriber) ServeGroup(w http.ResponseWriter, _ *http.Request, groupID, _ int64) error {
	m.served = append(m.served, groupID)
	w.WriteHeader(http.StatusOK)
	return nil
}
