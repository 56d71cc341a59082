package service

import (
	"edulift.app/membership/core/config"
	"edulift.app/membership/internal/store"
)

type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	events       EventBus
	mailer       EmailDispatcher
	policy       config.InvitationConfig
	dashboardURL string
}

// NewServices wires the membership services. events and mailer may be nil in
// processes that neither broadcast nor send mail.
func NewServices(stores *store.Stores, txRunner TxRunner, events EventBus, mailer EmailDispatcher, policy config.InvitationConfig, dashboardURL string) *Services {
	return &Services{
		stores:       stores,
		txRunner:     txRunner,
		events:       events,
		mailer:       mailer,
		policy:       policy,
		dashboardURL: dashboardURL,
	}
}

func (s *Services) Membership() MembershipCoordinator {
	return NewMembershipCoordinator(CoordinatorDeps{
		TxRunner:     s.txRunner,
		Stores:       s.stores,
		Events:       s.events,
		Mailer:       s.mailer,
		Policy:       s.policy,
		DashboardURL: s.dashboardURL,
	})
}

func (s *Services) Reaper() ExpiryReaper {
	return NewExpiryReaper(s.stores.Invitations(), nil)
}
