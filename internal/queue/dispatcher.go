package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"edulift.app/membership/internal/domain"
)

// EmailDispatcher hands invitation e-mails to the worker through the stream.
// The current trace ID travels with the task so the send links back to the
// request that created the invitation.
type EmailDispatcher struct {
	producer Producer
}

func NewEmailDispatcher(producer Producer) *EmailDispatcher {
	return &EmailDispatcher{producer: producer}
}

func (d *EmailDispatcher) SendFamilyInvitation(ctx context.Context, email string, payload domain.FamilyInvitationEmail) error {
	return d.enqueue(ctx, TaskTypeFamilyInvitationEmail, payload.InvitationID, email, payload)
}

func (d *EmailDispatcher) SendGroupInvitation(ctx context.Context, payload domain.GroupInvitationEmail) error {
	return d.enqueue(ctx, TaskTypeGroupInvitationEmail, payload.InvitationID, payload.Email, payload)
}

func (d *EmailDispatcher) enqueue(ctx context.Context, taskType TaskType, invitationID int64, to string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", taskType, err)
	}

	msg := EmailMessage{
		TaskType:     taskType,
		InvitationID: invitationID,
		To:           to,
		Payload:      body,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID := sc.TraceID().String()
		msg.TraceID = &traceID
	}
	return d.producer.Enqueue(ctx, msg)
}
