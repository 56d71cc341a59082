package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"edulift.app/membership/internal/domain"
	"edulift.app/membership/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const expiryLayout = "Monday, January 2, 2006"

type familyView struct {
	domain.FamilyInvitationEmail
	RoleLabel string
	ExpiresOn string
}

type groupView struct {
	domain.GroupInvitationEmail
	ExpiresOn string
}

// RenderFamilyInvitation builds the message for a family invitation. The
// idempotency key is derived from the invitation so redelivered tasks do not
// produce a second e-mail.
func RenderFamilyInvitation(to string, payload domain.FamilyInvitationEmail) (Email, error) {
	role := "a member"
	if payload.Role == string(model.FamilyRoleAdmin) {
		role = "an administrator"
	}
	html, err := render("family_invitation.html", familyView{
		FamilyInvitationEmail: payload,
		RoleLabel:             role,
		ExpiresOn:             payload.ExpiresAt.UTC().Format(expiryLayout),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:             to,
		Subject:        fmt.Sprintf("%s invited you to join %s on EduLift", inviter(payload.InviterName), payload.FamilyName),
		HTML:           html,
		IdempotencyKey: idempotencyKey(payload.InvitationID),
	}, nil
}

func RenderGroupInvitation(payload domain.GroupInvitationEmail) (Email, error) {
	html, err := render("group_invitation.html", groupView{
		GroupInvitationEmail: payload,
		ExpiresOn:            payload.ExpiresAt.UTC().Format(expiryLayout),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:             payload.Email,
		Subject:        fmt.Sprintf("%s invited your family to %s on EduLift", inviter(payload.InviterName), payload.GroupName),
		HTML:           html,
		IdempotencyKey: idempotencyKey(payload.InvitationID),
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func inviter(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}

func idempotencyKey(invitationID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "edulift-invitation-%d", invitationID)).String()
}
