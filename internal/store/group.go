package store

import (
	"context"
	"time"

	"edulift.app/membership/core/db/sqlc"
	"edulift.app/membership/internal/model"
)

type groupStore struct {
	queries *sqlc.Queries
}

func newGroupStore(queries *sqlc.Queries) GroupStore {
	return &groupStore{queries: queries}
}

func (s *groupStore) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	row, err := s.queries.GetGroup(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toGroupModel(row), nil
}

func (s *groupStore) Lock(ctx context.Context, id int64) (*model.Group, error) {
	row, err := s.queries.LockGroup(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return toGroupModel(row), nil
}

func (s *groupStore) GetFamilyBinding(ctx context.Context, groupID, familyID int64) (*model.GroupFamilyMember, error) {
	row, err := s.queries.GetGroupFamilyMember(ctx, sqlc.GetGroupFamilyMemberParams{
		GroupID:  groupID,
		FamilyID: familyID,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toGroupFamilyMemberModel(row), nil
}

func (s *groupStore) AddFamily(ctx context.Context, binding *model.GroupFamilyMember) error {
	joinedAt := binding.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now()
	}
	row, err := s.queries.InsertGroupFamilyMember(ctx, sqlc.InsertGroupFamilyMemberParams{
		GroupID:  binding.GroupID,
		FamilyID: binding.FamilyID,
		Role:     string(binding.Role),
		AddedBy:  binding.AddedBy,
		JoinedAt: timestamptz(joinedAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*binding = *toGroupFamilyMemberModel(row)
	return nil
}

func (s *groupStore) AddFamilyChildren(ctx context.Context, groupID, familyID, addedBy int64, at time.Time) (int64, error) {
	return s.queries.AddFamilyChildrenToGroup(ctx, sqlc.AddFamilyChildrenToGroupParams{
		GroupID:  groupID,
		AddedBy:  addedBy,
		AddedAt:  timestamptz(at),
		FamilyID: familyID,
	})
}

func (s *groupStore) HasFamilyWithUserEmail(ctx context.Context, groupID int64, email string) (bool, error) {
	return s.queries.GroupHasFamilyWithUserEmail(ctx, sqlc.GroupHasFamilyWithUserEmailParams{
		GroupID: groupID,
		Email:   email,
	})
}

func toGroupModel(row sqlc.Group) *model.Group {
	return &model.Group{
		ID:            row.ID,
		Name:          row.Name,
		OwnerFamilyID: row.OwnerFamilyID,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

func toGroupFamilyMemberModel(row sqlc.GroupFamilyMember) *model.GroupFamilyMember {
	return &model.GroupFamilyMember{
		GroupID:  row.GroupID,
		FamilyID: row.FamilyID,
		Role:     model.GroupRole(row.Role),
		AddedBy:  row.AddedBy,
		JoinedAt: row.JoinedAt.Time,
	}
}
