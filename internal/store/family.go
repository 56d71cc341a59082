package store

import (
	"context"
	"time"

	"edulift.app/membership/core/db/sqlc"
	"edulift.app/membership/internal/model"
)

type familyStore struct {
	queries *sqlc.Queries
}

func newFamilyStore(queries *sqlc.Queries) FamilyStore {
	return &familyStore{queries: queries}
}

func (s *familyStore) GetByID(ctx context.Context, id int64) (*model.Family, error) {
	row, err := s.queries.GetFamily(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toFamilyModel(row), nil
}

func (s *familyStore) Lock(ctx context.Context, id int64) (*model.Family, error) {
	row, err := s.queries.LockFamily(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toFamilyModel(row), nil
}

func (s *familyStore) CountMembers(ctx context.Context, familyID int64) (int, error) {
	n, err := s.queries.CountFamilyMembers(ctx, familyID)
	return int(n), err
}

func (s *familyStore) CountAdmins(ctx context.Context, familyID int64) (int, error) {
	n, err := s.queries.CountFamilyAdmins(ctx, familyID)
	return int(n), err
}

func (s *familyStore) GetMembership(ctx context.Context, userID int64) (*model.FamilyMember, error) {
	row, err := s.queries.GetFamilyMemberByUser(ctx, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toFamilyMemberModel(row), nil
}

func (s *familyStore) AddMember(ctx context.Context, member *model.FamilyMember) error {
	joinedAt := member.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now()
	}
	row, err := s.queries.InsertFamilyMember(ctx, sqlc.InsertFamilyMemberParams{
		UserID:   member.UserID,
		FamilyID: member.FamilyID,
		Role:     string(member.Role),
		JoinedAt: timestamptz(joinedAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*member = *toFamilyMemberModel(row)
	return nil
}

func (s *familyStore) RemoveMember(ctx context.Context, familyID, userID int64) error {
	n, err := s.queries.DeleteFamilyMember(ctx, sqlc.DeleteFamilyMemberParams{
		UserID:   userID,
		FamilyID: familyID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *familyStore) ListAdmins(ctx context.Context, familyID int64) ([]model.User, error) {
	rows, err := s.queries.ListFamilyAdmins(ctx, familyID)
	if err != nil {
		return nil, err
	}
	admins := make([]model.User, len(rows))
	for i, row := range rows {
		admins[i] = model.User{ID: row.ID, Email: row.Email, Name: row.Name}
	}
	return admins, nil
}

func (s *familyStore) HasMemberWithEmail(ctx context.Context, familyID int64, email string) (bool, error) {
	return s.queries.FamilyHasMemberWithEmail(ctx, sqlc.FamilyHasMemberWithEmailParams{
		FamilyID: familyID,
		Email:    email,
	})
}

func toFamilyModel(row sqlc.Family) *model.Family {
	return &model.Family{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func toFamilyMemberModel(row sqlc.FamilyMember) *model.FamilyMember {
	return &model.FamilyMember{
		UserID:   row.UserID,
		FamilyID: row.FamilyID,
		Role:     model.FamilyRole(row.Role),
		JoinedAt: row.JoinedAt.Time,
	}
}
