package service

import (
	"context"

	"edulift.app/membership/internal/domain"
)

// EventBus pushes membership changes to connected clients. Delivery is best effort.
type EventBus interface {
	BroadcastFamilyUpdate(ctx context.Context, familyID int64, event domain.Event) error
	BroadcastGroupUpdate(ctx context.Context, groupID int64, event domain.Event) error
}

// EmailDispatcher hands invitation notices to asynchronous delivery.
type EmailDispatcher interface {
	SendFamilyInvitation(ctx context.Context, email string, payload domain.FamilyInvitationEmail) error
	SendGroupInvitation(ctx context.Context, payload domain.GroupInvitationEmail) error
}
