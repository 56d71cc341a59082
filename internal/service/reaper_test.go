package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

var _ = Describe("ExpiryReaper", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	reaper := func() service.ExpiryReaper {
		return service.NewExpiryReaper(f.db.Stores().Invitations(), func() time.Time { return f.now })
	}

	It("expires overdue invitations of both kinds and reports counts per kind", func() {
		overdueFamily := f.inviteToFamily(strPtr("bob@x.com"), model.FamilyRoleMember)
		overdueGroup := f.inviteToGroup(strPtr("dave@x.com"))
		f.advance(6 * 24 * time.Hour)
		live := f.inviteToFamily(strPtr("carol@x.com"), model.FamilyRoleMember)
		f.advance(2 * 24 * time.Hour)

		result, err := reaper().RunExpirySweep(f.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FamilyExpired).To(Equal(int64(1)))
		Expect(result.GroupExpired).To(Equal(int64(1)))
		Expect(result.Total()).To(Equal(int64(2)))
		Expect(result.SweptAt).To(Equal(f.now))

		Expect(f.db.invitation(overdueFamily.ID).Status).To(Equal(model.InvitationStatusExpired))
		Expect(f.db.invitation(overdueGroup.ID).Status).To(Equal(model.InvitationStatusExpired))
		Expect(f.db.invitation(live.ID).Status).To(Equal(model.InvitationStatusPending))
	})

	It("changes nothing on a second run", func() {
		f.inviteToFamily(strPtr("bob@x.com"), model.FamilyRoleMember)
		f.advance(8 * 24 * time.Hour)

		first, err := reaper().RunExpirySweep(f.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Total()).To(Equal(int64(1)))

		second, err := reaper().RunExpirySweep(f.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Total()).To(BeZero())
	})

	It("never touches terminal invitations", func() {
		accepted := f.inviteToFamily(strPtr("bob@x.com"), model.FamilyRoleMember)
		_, err := f.svc.AcceptFamilyInvitation(f.ctx, accepted.Code, identity(bob), service.AcceptFamilyOptions{})
		Expect(err).NotTo(HaveOccurred())
		cancelled := f.inviteToFamily(strPtr("carol@x.com"), model.FamilyRoleMember)
		Expect(f.svc.CancelFamilyInvitation(f.ctx, identity(alice), cancelled.ID)).To(Succeed())
		f.advance(30 * 24 * time.Hour)

		result, err := reaper().RunExpirySweep(f.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Total()).To(BeZero())
		Expect(f.db.invitation(accepted.ID).Status).To(Equal(model.InvitationStatusAccepted))
		Expect(f.db.invitation(cancelled.ID).Status).To(Equal(model.InvitationStatusCancelled))
	})

	It("surfaces store failures", func() {
		store := &mockInvitationStore{
			expireOverdueFn: func(context.Context, time.Time) (map[model.InvitationKind]int64, error) {
				return nil, errors.New("statement timeout")
			},
		}

		_, err := service.NewExpiryReaper(store, nil).RunExpirySweep(context.Background())
		Expect(err).To(MatchError(ContainSubstring("statement timeout")))
	})
})
