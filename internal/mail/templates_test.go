package mail_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"edulift.app/membership/internal/domain"
	"edulift.app/membership/internal/mail"
)

var _ = Describe("Rendering", func() {
	expiresAt := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	It("renders family invitations", func() {
		email, err := mail.RenderFamilyInvitation("bob@x.com", domain.FamilyInvitationEmail{
			InvitationID:    42,
			FamilyName:      "Smiths",
			InviterName:     "Alice",
			Role:            "ADMIN",
			Code:            "ABC1234",
			PersonalMessage: "See you <soon>",
			AcceptURL:       "https://app.edulift.test/families/join?code=ABC1234",
			ExpiresAt:       expiresAt,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(email.To).To(Equal("bob@x.com"))
		Expect(email.Subject).To(Equal("Alice invited you to join Smiths on EduLift"))
		Expect(email.HTML).To(ContainSubstring("as an administrator"))
		Expect(email.HTML).To(ContainSubstring("ABC1234"))
		Expect(email.HTML).To(ContainSubstring("See you &lt;soon&gt;"))
		Expect(email.HTML).To(ContainSubstring("Sunday, March 8, 2026"))
	})

	It("omits the message block when there is none", func() {
		email, err := mail.RenderFamilyInvitation("bob@x.com", domain.FamilyInvitationEmail{InvitationID: 1, FamilyName: "Smiths"})
		Expect(err).NotTo(HaveOccurred())
		Expect(email.HTML).NotTo(ContainSubstring("<blockquote"))
		Expect(email.Subject).To(HavePrefix("Someone invited you"))
	})

	It("renders group invitations to the payload recipient", func() {
		email, err := mail.RenderGroupInvitation(domain.GroupInvitationEmail{
			InvitationID: 7,
			Email:        "dave@x.com",
			GroupName:    "Carpool",
			InviterName:  "Alice",
			Code:         "XYZ9876",
			AcceptURL:    "https://app.edulift.test/groups/join?code=XYZ9876",
			ExpiresAt:    expiresAt,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(email.To).To(Equal("dave@x.com"))
		Expect(email.Subject).To(Equal("Alice invited your family to Carpool on EduLift"))
		Expect(email.HTML).To(ContainSubstring("groups/join?code=XYZ9876"))
	})

	It("derives a stable idempotency key per invitation", func() {
		first, err := mail.RenderGroupInvitation(domain.GroupInvitationEmail{InvitationID: 7, Email: "dave@x.com"})
		Expect(err).NotTo(HaveOccurred())
		again, err := mail.RenderGroupInvitation(domain.GroupInvitationEmail{InvitationID: 7, Email: "dave@x.com"})
		Expect(err).NotTo(HaveOccurred())
		other, err := mail.RenderGroupInvitation(domain.GroupInvitationEmail{InvitationID: 8, Email: "dave@x.com"})
		Expect(err).NotTo(HaveOccurred())

		Expect(first.IdempotencyKey).To(Equal(again.IdempotencyKey))
		Expect(first.IdempotencyKey).NotTo(Equal(other.IdempotencyKey))
	})
})
