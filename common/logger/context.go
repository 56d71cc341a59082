package logger

import (
	"context"
	"strings"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and the coordinator enrich the context once; every slog call made with
// that context then carries the membership identifiers without repeating them.
type LogFields struct {
	InvitationID *int64  // Invitation being created, accepted or cancelled
	FamilyID     *int64  // Family whose membership is changing
	GroupID      *int64  // Group whose membership is changing
	UserID       *int64  // Authenticated caller
	MessageID    *string // Redis stream message ID (worker)
	Component    string  // Component name, e.g. "membership.service.coordinator"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.InvitationID != nil {
		result.InvitationID = next.InvitationID
	}
	if next.FamilyID != nil {
		result.FamilyID = next.FamilyID
	}
	if next.GroupID != nil {
		result.GroupID = next.GroupID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{FamilyID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "bob@example.com" -> "b***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
