package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
	"edulift.app/membership/internal/store"
)

// memDB is an in-memory stand-in for Postgres. One transaction runs at a
// time; a failed transaction restores the snapshot taken when it began.
type memDB struct {
	mu    sync.Mutex
	state memState

	// failOn makes the named store operation return the error once.
	failOn map[string]error
	// beforeCommit runs inside WithTx after fn succeeds.
	beforeCommit func(stores service.StoreProvider) error
}

type memState struct {
	users         map[int64]model.User
	families      map[int64]model.Family
	members       map[int64]model.FamilyMember // keyed by user
	children      map[int64]int64              // child -> family
	groups        map[int64]model.Group
	bindings      map[[2]int64]model.GroupFamilyMember // group, family
	groupChildren map[[2]int64]bool                    // group, child
	invitations   map[int64]model.Invitation
}

func newMemDB() *memDB {
	return &memDB{
		state: memState{
			users:         map[int64]model.User{},
			families:      map[int64]model.Family{},
			members:       map[int64]model.FamilyMember{},
			children:      map[int64]int64{},
			groups:        map[int64]model.Group{},
			bindings:      map[[2]int64]model.GroupFamilyMember{},
			groupChildren: map[[2]int64]bool{},
			invitations:   map[int64]model.Invitation{},
		},
		failOn: map[string]error{},
	}
}

func (s memState) clone() memState {
	out := memState{
		users:         make(map[int64]model.User, len(s.users)),
		families:      make(map[int64]model.Family, len(s.families)),
		members:       make(map[int64]model.FamilyMember, len(s.members)),
		children:      make(map[int64]int64, len(s.children)),
		groups:        make(map[int64]model.Group, len(s.groups)),
		bindings:      make(map[[2]int64]model.GroupFamilyMember, len(s.bindings)),
		groupChildren: make(map[[2]int64]bool, len(s.groupChildren)),
		invitations:   make(map[int64]model.Invitation, len(s.invitations)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.families {
		out.families[k] = v
	}
	for k, v := range s.members {
		out.members[k] = v
	}
	for k, v := range s.children {
		out.children[k] = v
	}
	for k, v := range s.groups {
		out.groups[k] = v
	}
	for k, v := range s.bindings {
		out.bindings[k] = v
	}
	for k, v := range s.groupChildren {
		out.groupChildren[k] = v
	}
	for k, v := range s.invitations {
		out.invitations[k] = v
	}
	return out
}

// --- seeding helpers ---------------------------------------------------------

func (db *memDB) addUser(id int64, email, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.users[id] = model.User{ID: id, Email: email, Name: name}
}

func (db *memDB) addFamily(id int64, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.families[id] = model.Family{ID: id, Name: name}
}

func (db *memDB) addMember(familyID, userID int64, role model.FamilyRole) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.members[userID] = model.FamilyMember{UserID: userID, FamilyID: familyID, Role: role}
}

func (db *memDB) addChild(id, familyID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.children[id] = familyID
}

func (db *memDB) addGroup(id int64, name string, ownerFamilyID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.groups[id] = model.Group{ID: id, Name: name, OwnerFamilyID: ownerFamilyID}
}

func (db *memDB) bindFamily(groupID, familyID int64, role model.GroupRole) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.bindings[[2]int64{groupID, familyID}] = model.GroupFamilyMember{
		GroupID: groupID, FamilyID: familyID, Role: role,
	}
}

func (db *memDB) putInvitation(inv model.Invitation) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.invitations[inv.ID] = inv
}

// --- inspection helpers ------------------------------------------------------

func (db *memDB) invitation(id int64) model.Invitation {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.invitations[id]
}

func (db *memDB) membership(userID int64) (model.FamilyMember, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.state.members[userID]
	return m, ok
}

func (db *memDB) memberCount(familyID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, m := range db.state.members {
		if m.FamilyID == familyID {
			n++
		}
	}
	return n
}

func (db *memDB) adminCount(familyID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, m := range db.state.members {
		if m.FamilyID == familyID && m.Role == model.FamilyRoleAdmin {
			n++
		}
	}
	return n
}

// anyAdmin returns the lowest admin user id of a family.
func (db *memDB) anyAdmin(familyID int64) (int64, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var (
		best  int64
		found bool
	)
	for userID, m := range db.state.members {
		if m.FamilyID == familyID && m.Role == model.FamilyRoleAdmin && (!found || userID < best) {
			best, found = userID, true
		}
	}
	return best, found
}

func (db *memDB) familyIDs() []int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := make([]int64, 0, len(db.state.families))
	for id := range db.state.families {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (db *memDB) isBound(groupID, familyID int64) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.state.bindings[[2]int64{groupID, familyID}]
	return ok
}

func (db *memDB) groupChildCount(groupID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for k := range db.state.groupChildren {
		if k[0] == groupID {
			n++
		}
	}
	return n
}

func (db *memDB) invitationsWithStatus(status model.InvitationStatus) []model.Invitation {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Invitation
	for _, inv := range db.state.invitations {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out
}

// --- StoreProvider / TxRunner ------------------------------------------------

// Stores returns a provider for reads outside a transaction.
func (db *memDB) Stores() service.StoreProvider {
	return &memStores{db: db}
}

func (db *memDB) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.state.clone()
	stores := &memStores{db: db, inTx: true}
	err := fn(stores)
	if err == nil && db.beforeCommit != nil {
		err = db.beforeCommit(stores)
	}
	if err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

type memStores struct {
	db   *memDB
	inTx bool
}

// lock guards non-transactional access; a transaction already holds the mutex.
func (s *memStores) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *memStores) fail(op string) error {
	if err, ok := s.db.failOn[op]; ok {
		delete(s.db.failOn, op)
		return err
	}
	return nil
}

func (s *memStores) Invitations() store.InvitationStore { return &memInvitations{s} }
func (s *memStores) Families() store.FamilyStore        { return &memFamilies{s} }
func (s *memStores) Groups() store.GroupStore           { return &memGroups{s} }
func (s *memStores) Users() store.UserStore             { return &memUsers{s} }

// --- invitations -------------------------------------------------------------

type memInvitations struct{ *memStores }

func sameEmail(a *string, b string) bool {
	return a != nil && strings.EqualFold(*a, b)
}

func (s *memInvitations) Create(_ context.Context, inv *model.Invitation) error {
	defer s.lock()()
	if err := s.fail("Invitations.Create"); err != nil {
		return err
	}
	for _, existing := range s.db.state.invitations {
		if existing.Code == inv.Code {
			return store.ErrCodeTaken
		}
		if inv.Email != nil && existing.Status == model.InvitationStatusPending &&
			existing.Kind == inv.Kind && existing.TargetID == inv.TargetID && sameEmail(existing.Email, *inv.Email) {
			return fmt.Errorf("%w: invitations_pending_email_key", store.ErrConflict)
		}
	}
	s.db.state.invitations[inv.ID] = *inv
	return nil
}

func (s *memInvitations) GetByID(_ context.Context, kind model.InvitationKind, id int64) (*model.Invitation, error) {
	defer s.lock()()
	inv, ok := s.db.state.invitations[id]
	if !ok || inv.Kind != kind {
		return nil, store.ErrNotFound
	}
	return &inv, nil
}

func (s *memInvitations) pendingByCode(kind model.InvitationKind, code string) (*model.Invitation, error) {
	for _, inv := range s.db.state.invitations {
		if inv.Code == code && inv.Kind == kind && inv.Status == model.InvitationStatusPending {
			return &inv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memInvitations) GetPendingByCode(_ context.Context, kind model.InvitationKind, code string) (*model.Invitation, error) {
	defer s.lock()()
	return s.pendingByCode(kind, code)
}

func (s *memInvitations) LockPendingByCode(_ context.Context, kind model.InvitationKind, code string) (*model.Invitation, error) {
	defer s.lock()()
	return s.pendingByCode(kind, code)
}

func (s *memInvitations) GetLivePendingForEmail(_ context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (*model.Invitation, error) {
	defer s.lock()()
	for _, inv := range s.db.state.invitations {
		if inv.Kind == kind && inv.TargetID == targetID && sameEmail(inv.Email, email) &&
			inv.Status == model.InvitationStatusPending && inv.ExpiresAt.After(now) {
			return &inv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memInvitations) ExpireOverdueForEmail(_ context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for id, inv := range s.db.state.invitations {
		if inv.Kind == kind && inv.TargetID == targetID && sameEmail(inv.Email, email) &&
			inv.Status == model.InvitationStatusPending && !inv.ExpiresAt.After(now) {
			inv.Status = model.InvitationStatusExpired
			inv.UpdatedAt = now
			s.db.state.invitations[id] = inv
			n++
		}
	}
	return n, nil
}

func (s *memInvitations) MarkAccepted(_ context.Context, id, userID int64, at time.Time) (*model.Invitation, error) {
	defer s.lock()()
	if err := s.fail("Invitations.MarkAccepted"); err != nil {
		return nil, err
	}
	inv, ok := s.db.state.invitations[id]
	if !ok || inv.Status != model.InvitationStatusPending {
		return nil, store.ErrNotFound
	}
	inv.Status = model.InvitationStatusAccepted
	inv.AcceptedBy = &userID
	inv.AcceptedAt = &at
	inv.UpdatedAt = at
	s.db.state.invitations[id] = inv
	return &inv, nil
}

func (s *memInvitations) MarkCancelled(_ context.Context, id int64, at time.Time) (*model.Invitation, error) {
	defer s.lock()()
	inv, ok := s.db.state.invitations[id]
	if !ok || inv.Status != model.InvitationStatusPending {
		return nil, store.ErrNotFound
	}
	inv.Status = model.InvitationStatusCancelled
	inv.CancelledAt = &at
	inv.UpdatedAt = at
	s.db.state.invitations[id] = inv
	return &inv, nil
}

func (s *memInvitations) ListLivePendingForTarget(_ context.Context, kind model.InvitationKind, targetID int64, now time.Time) ([]model.Invitation, error) {
	defer s.lock()()
	out := []model.Invitation{}
	for _, inv := range s.db.state.invitations {
		if inv.Kind == kind && inv.TargetID == targetID &&
			inv.Status == model.InvitationStatusPending && inv.ExpiresAt.After(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memInvitations) ListLivePendingForEmail(_ context.Context, email string, now time.Time) ([]model.Invitation, error) {
	defer s.lock()()
	out := []model.Invitation{}
	for _, inv := range s.db.state.invitations {
		if sameEmail(inv.Email, email) && inv.Status == model.InvitationStatusPending && inv.ExpiresAt.After(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memInvitations) ExpireOverdue(_ context.Context, now time.Time) (map[model.InvitationKind]int64, error) {
	defer s.lock()()
	counts := map[model.InvitationKind]int64{
		model.InvitationKindFamily: 0,
		model.InvitationKindGroup:  0,
	}
	for id, inv := range s.db.state.invitations {
		if inv.Status == model.InvitationStatusPending && inv.ExpiresAt.Before(now) {
			inv.Status = model.InvitationStatusExpired
			inv.UpdatedAt = now
			s.db.state.invitations[id] = inv
			counts[inv.Kind]++
		}
	}
	return counts, nil
}

// --- families ----------------------------------------------------------------

type memFamilies struct{ *memStores }

func (s *memFamilies) GetByID(_ context.Context, id int64) (*model.Family, error) {
	defer s.lock()()
	return s.family(id)
}

func (s *memFamilies) Lock(_ context.Context, id int64) (*model.Family, error) {
	defer s.lock()()
	if err := s.fail("Families.Lock"); err != nil {
		return nil, err
	}
	return s.family(id)
}

func (s *memFamilies) family(id int64) (*model.Family, error) {
	f, ok := s.db.state.families[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &f, nil
}

func (s *memFamilies) CountMembers(_ context.Context, familyID int64) (int, error) {
	defer s.lock()()
	n := 0
	for _, m := range s.db.state.members {
		if m.FamilyID == familyID {
			n++
		}
	}
	return n, nil
}

func (s *memFamilies) CountAdmins(_ context.Context, familyID int64) (int, error) {
	defer s.lock()()
	n := 0
	for _, m := range s.db.state.members {
		if m.FamilyID == familyID && m.Role == model.FamilyRoleAdmin {
			n++
		}
	}
	return n, nil
}

func (s *memFamilies) GetMembership(_ context.Context, userID int64) (*model.FamilyMember, error) {
	defer s.lock()()
	m, ok := s.db.state.members[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *memFamilies) AddMember(_ context.Context, member *model.FamilyMember) error {
	defer s.lock()()
	if err := s.fail("Families.AddMember"); err != nil {
		return err
	}
	if _, ok := s.db.state.members[member.UserID]; ok {
		return fmt.Errorf("%w: family_members_pkey", store.ErrConflict)
	}
	s.db.state.members[member.UserID] = *member
	return nil
}

func (s *memFamilies) RemoveMember(_ context.Context, familyID, userID int64) error {
	defer s.lock()()
	m, ok := s.db.state.members[userID]
	if !ok || m.FamilyID != familyID {
		return store.ErrNotFound
	}
	delete(s.db.state.members, userID)
	return nil
}

func (s *memFamilies) ListAdmins(_ context.Context, familyID int64) ([]model.User, error) {
	defer s.lock()()
	out := []model.User{}
	for _, m := range s.db.state.members {
		if m.FamilyID == familyID && m.Role == model.FamilyRoleAdmin {
			out = append(out, s.db.state.users[m.UserID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memFamilies) HasMemberWithEmail(_ context.Context, familyID int64, email string) (bool, error) {
	defer s.lock()()
	for _, m := range s.db.state.members {
		if m.FamilyID == familyID && strings.EqualFold(s.db.state.users[m.UserID].Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// --- groups ------------------------------------------------------------------

type memGroups struct{ *memStores }

func (s *memGroups) GetByID(_ context.Context, id int64) (*model.Group, error) {
	defer s.lock()()
	return s.group(id)
}

func (s *memGroups) Lock(_ context.Context, id int64) (*model.Group, error) {
	defer s.lock()()
	return s.group(id)
}

func (s *memGroups) group(id int64) (*model.Group, error) {
	g, ok := s.db.state.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &g, nil
}

func (s *memGroups) GetFamilyBinding(_ context.Context, groupID, familyID int64) (*model.GroupFamilyMember, error) {
	defer s.lock()()
	b, ok := s.db.state.bindings[[2]int64{groupID, familyID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *memGroups) AddFamily(_ context.Context, binding *model.GroupFamilyMember) error {
	defer s.lock()()
	key := [2]int64{binding.GroupID, binding.FamilyID}
	if _, ok := s.db.state.bindings[key]; ok {
		return fmt.Errorf("%w: group_family_members_pkey", store.ErrConflict)
	}
	s.db.state.bindings[key] = *binding
	return nil
}

func (s *memGroups) AddFamilyChildren(_ context.Context, groupID, familyID, _ int64, _ time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for childID, fam := range s.db.state.children {
		key := [2]int64{groupID, childID}
		if fam == familyID && !s.db.state.groupChildren[key] {
			s.db.state.groupChildren[key] = true
			n++
		}
	}
	return n, nil
}

func (s *memGroups) HasFamilyWithUserEmail(_ context.Context, groupID int64, email string) (bool, error) {
	defer s.lock()()
	group, ok := s.db.state.groups[groupID]
	if !ok {
		return false, nil
	}
	inGroup := map[int64]bool{group.OwnerFamilyID: true}
	for key := range s.db.state.bindings {
		if key[0] == groupID {
			inGroup[key[1]] = true
		}
	}
	for _, m := range s.db.state.members {
		if inGroup[m.FamilyID] && strings.EqualFold(s.db.state.users[m.UserID].Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// --- users -------------------------------------------------------------------

type memUsers struct{ *memStores }

func (s *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	defer s.lock()()
	u, ok := s.db.state.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	defer s.lock()()
	for _, u := range s.db.state.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}
