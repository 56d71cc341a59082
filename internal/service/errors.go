package service

import (
	"fmt"
	"time"
)

// Code is a machine-readable business error code.
type Code string

const (
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodeInvalidCode              Code = "INVALID_CODE"
	CodeExpired                  Code = "EXPIRED"
	CodeEmailMismatch            Code = "EMAIL_MISMATCH"
	CodeAlreadyMember            Code = "ALREADY_MEMBER"
	CodeDuplicateInvitation      Code = "DUPLICATE_INVITATION"
	CodeFamilyFull               Code = "FAMILY_FULL"
	CodeLastAdmin                Code = "LAST_ADMIN"
	CodeFamilyOnboardingRequired Code = "FAMILY_ONBOARDING_REQUIRED"
	CodeRequiresAdminAction      Code = "REQUIRES_ADMIN_ACTION"
	CodeNotFound                 Code = "NOT_FOUND"
	CodeFamilyConflict           Code = "FAMILY_CONFLICT"
	CodeInvalidInput             Code = "INVALID_INPUT"
)

// Error is an expected business outcome. Anything else returned by the
// service is an infrastructure failure.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, so errors.Is(err, service.ErrFamilyFull) holds for any
// FAMILY_FULL error regardless of message or metadata.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewErrorWithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

var (
	ErrUnauthorized             = NewError(CodeUnauthorized, "only an administrator may manage these invitations")
	ErrInvalidCode              = NewError(CodeInvalidCode, "invitation code is invalid or no longer pending")
	ErrExpired                  = NewError(CodeExpired, "invitation has expired")
	ErrEmailMismatch            = NewError(CodeEmailMismatch, "invitation was sent to a different email address")
	ErrAlreadyMember            = NewError(CodeAlreadyMember, "already a member")
	ErrDuplicateInvitation      = NewError(CodeDuplicateInvitation, "a pending invitation already exists for this email")
	ErrFamilyFull               = NewError(CodeFamilyFull, "family has reached its member limit")
	ErrLastAdmin                = NewError(CodeLastAdmin, "the last administrator cannot leave the family")
	ErrFamilyOnboardingRequired = NewError(CodeFamilyOnboardingRequired, "create or join a family before joining a group")
	ErrRequiresAdminAction      = NewError(CodeRequiresAdminAction, "only a family administrator can join a group")
	ErrNotFound                 = NewError(CodeNotFound, "not found")
	ErrFamilyConflict           = NewError(CodeFamilyConflict, "already a member of another family")
	ErrInvalidInput             = NewError(CodeInvalidInput, "invalid input")
)

func invalidInput(format string, args ...any) *Error {
	return NewError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

func familyFull(familyID int64, max int) *Error {
	return NewErrorWithMetadata(CodeFamilyFull, ErrFamilyFull.Message, map[string]string{
		"family_id":   fmt.Sprint(familyID),
		"max_members": fmt.Sprint(max),
	})
}

func lastAdmin(family string) *Error {
	return NewErrorWithMetadata(CodeLastAdmin,
		fmt.Sprintf("you are the only administrator of %s; promote another member first", family),
		map[string]string{"family_name": family},
	)
}

func familyConflict(familyID int64, family string) *Error {
	return NewErrorWithMetadata(CodeFamilyConflict,
		fmt.Sprintf("you already belong to %s; confirm leaving it to accept", family),
		map[string]string{"family_id": fmt.Sprint(familyID), "family_name": family},
	)
}

func requiresAdminAction(family, adminName, adminEmail string) *Error {
	return NewErrorWithMetadata(CodeRequiresAdminAction,
		fmt.Sprintf("ask %s, an administrator of %s, to accept this group invitation", adminName, family),
		map[string]string{"family_name": family, "admin_name": adminName, "admin_email": adminEmail},
	)
}

func expired(expiresAt time.Time) *Error {
	return NewErrorWithMetadata(CodeExpired, ErrExpired.Message, map[string]string{
		"expired_at": expiresAt.UTC().Format(time.RFC3339),
	})
}
