package store

import (
	"edulift.app/membership/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Invitations() InvitationStore {
	return newInvitationStore(s.queries)
}

func (s *Stores) Families() FamilyStore {
	return newFamilyStore(s.queries)
}

func (s *Stores) Groups() GroupStore {
	return newGroupStore(s.queries)
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}
