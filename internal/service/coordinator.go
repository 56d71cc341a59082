package service

import (
	"context"
	"log/slog"
	"time"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/core/config"
	"edulift.app/membership/internal/domain"
	"edulift.app/membership/internal/model"
)

const maxPersonalMessageLength = 1000

// MembershipCoordinator executes invitation lifecycle transitions. Every
// mutation runs in one transaction; e-mail and broadcast side effects run
// after commit and never fail the call.
type MembershipCoordinator interface {
	CreateFamilyInvitation(ctx context.Context, caller model.Identity, familyID int64, in CreateInvitationInput) (*model.Invitation, error)
	CreateGroupInvitation(ctx context.Context, caller model.Identity, groupID int64, in CreateInvitationInput) (*model.Invitation, error)

	// Validate* never mutate state. caller is nil for anonymous lookups.
	ValidateFamilyInvitation(ctx context.Context, code string, caller *model.Identity) (*FamilyInvitationValidation, error)
	ValidateGroupInvitation(ctx context.Context, code string, caller *model.Identity) (*GroupInvitationValidation, error)

	AcceptFamilyInvitation(ctx context.Context, code string, caller model.Identity, opts AcceptFamilyOptions) (*FamilyAcceptance, error)
	AcceptGroupInvitation(ctx context.Context, code string, caller model.Identity) (*GroupAcceptance, error)

	CancelFamilyInvitation(ctx context.Context, caller model.Identity, invitationID int64) error
	CancelGroupInvitation(ctx context.Context, caller model.Identity, invitationID int64) error

	ListPendingInvitationsForTarget(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) ([]model.Invitation, error)
	ListInvitationsForUserEmail(ctx context.Context, email string) ([]model.Invitation, error)

	LeaveFamily(ctx context.Context, caller model.Identity) error

	// AuthorizeSubscription gates the realtime feed of a family or group.
	AuthorizeSubscription(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) error
}

type CreateInvitationInput struct {
	Email           *string // nil or blank creates an open invitation
	Role            string  // defaults to MEMBER
	PersonalMessage *string
}

type AcceptFamilyOptions struct {
	LeaveCurrentFamily bool
}

type FamilyInvitationValidation struct {
	Valid           bool              `json:"valid"`
	InvitationID    int64             `json:"invitation_id"`
	FamilyID        int64             `json:"family_id"`
	FamilyName      string            `json:"family_name"`
	Role            model.FamilyRole  `json:"role"`
	Email           *string           `json:"email,omitempty"`
	PersonalMessage *string           `json:"personal_message,omitempty"`
	InviterName     string            `json:"inviter_name,omitempty"`
	ExpiresAt       time.Time         `json:"expires_at"`
	Eligibility     FamilyEligibility `json:"eligibility"`
}

type GroupInvitationValidation struct {
	Valid           bool             `json:"valid"`
	InvitationID    int64            `json:"invitation_id"`
	GroupID         int64            `json:"group_id"`
	GroupName       string           `json:"group_name"`
	Role            model.GroupRole  `json:"role"`
	Email           *string          `json:"email,omitempty"`
	PersonalMessage *string          `json:"personal_message,omitempty"`
	InviterName     string           `json:"inviter_name,omitempty"`
	ExpiresAt       time.Time        `json:"expires_at"`
	Eligibility     GroupEligibility `json:"eligibility"`
}

type FamilyAcceptance struct {
	Invitation   *model.Invitation
	Family       *model.Family
	Membership   *model.FamilyMember
	LeftFamilyID *int64
}

type GroupAcceptance struct {
	Invitation      *model.Invitation
	Group           *model.Group
	Binding         *model.GroupFamilyMember
	MembersAffected int
	ChildrenAdded   int64
}

// CoordinatorDeps wires a MembershipCoordinator. Events and Mailer may be nil.
type CoordinatorDeps struct {
	TxRunner     TxRunner
	Stores       StoreProvider
	Events       EventBus
	Mailer       EmailDispatcher
	Policy       config.InvitationConfig
	DashboardURL string
	Now          func() time.Time
	Codes        *CodeGenerator
}

type membershipCoordinator struct {
	txRunner     TxRunner
	stores       StoreProvider
	events       EventBus
	mailer       EmailDispatcher
	codes        *CodeGenerator
	capacity     CapacityGuard
	access       AccessValidator
	ttl          time.Duration
	codeAttempts int
	dashboardURL string
	now          func() time.Time
}

func NewMembershipCoordinator(deps CoordinatorDeps) MembershipCoordinator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	codes := deps.Codes
	if codes == nil {
		codes = NewCodeGenerator(deps.Policy.CodeLength)
	}
	ttl := deps.Policy.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	attempts := deps.Policy.CodeMaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &membershipCoordinator{
		txRunner:     deps.TxRunner,
		stores:       deps.Stores,
		events:       deps.Events,
		mailer:       deps.Mailer,
		codes:        codes,
		capacity:     NewCapacityGuard(deps.Policy.FamilyMaxMembers),
		ttl:          ttl,
		codeAttempts: attempts,
		dashboardURL: deps.DashboardURL,
		now:          now,
	}
}

func (c *membershipCoordinator) clock() time.Time {
	return c.now().UTC()
}

func (c *membershipCoordinator) AuthorizeSubscription(ctx context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) error {
	return c.access.RequireMember(ctx, c.stores, caller.UserID, targetID, kind)
}

func withCaller(ctx context.Context, caller model.Identity) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(caller.UserID),
		Component: "membership.service.coordinator",
	})
}

func (c *membershipCoordinator) publishFamily(ctx context.Context, familyID int64, event domain.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.BroadcastFamilyUpdate(ctx, familyID, event); err != nil {
		slog.WarnContext(ctx, "family broadcast failed",
			"family_id", familyID,
			"event_type", event.Type(),
			"error", err,
		)
	}
}

func (c *membershipCoordinator) publishGroup(ctx context.Context, groupID int64, event domain.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.BroadcastGroupUpdate(ctx, groupID, event); err != nil {
		slog.WarnContext(ctx, "group broadcast failed",
			"group_id", groupID,
			"event_type", event.Type(),
			"error", err,
		)
	}
}

func (c *membershipCoordinator) publishTarget(ctx context.Context, kind model.InvitationKind, targetID int64, event domain.Event) {
	if kind == model.InvitationKindGroup {
		c.publishGroup(ctx, targetID, event)
		return
	}
	c.publishFamily(ctx, targetID, event)
}
