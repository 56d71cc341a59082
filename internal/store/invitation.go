package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"edulift.app/membership/core/db/sqlc"
	"edulift.app/membership/internal/model"
)

type invitationStore struct {
	queries *sqlc.Queries
}

func newInvitationStore(queries *sqlc.Queries) InvitationStore {
	return &invitationStore{queries: queries}
}

func (s *invitationStore) Create(ctx context.Context, inv *model.Invitation) error {
	row, err := s.queries.InsertInvitation(ctx, sqlc.InsertInvitationParams{
		ID:              inv.ID,
		Kind:            string(inv.Kind),
		TargetID:        inv.TargetID,
		Email:           inv.Email,
		Role:            inv.Role,
		Code:            inv.Code,
		PersonalMessage: inv.PersonalMessage,
		ExpiresAt:       timestamptz(inv.ExpiresAt),
		CreatedBy:       inv.CreatedBy,
		InvitedBy:       inv.InvitedBy,
		CreatedAt:       timestamptz(inv.CreatedAt),
	})
	if err != nil {
		// ON CONFLICT (code) DO NOTHING returns no row on a code collision.
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCodeTaken
		}
		return mapErr(err)
	}
	*inv = *toInvitationModel(row)
	return nil
}

func (s *invitationStore) GetByID(ctx context.Context, kind model.InvitationKind, id int64) (*model.Invitation, error) {
	row, err := s.queries.GetInvitationByID(ctx, sqlc.GetInvitationByIDParams{
		ID:   id,
		Kind: string(kind),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) GetPendingByCode(ctx context.Context, kind model.InvitationKind, code string) (*model.Invitation, error) {
	row, err := s.queries.GetPendingInvitationByCode(ctx, sqlc.GetPendingInvitationByCodeParams{
		Code: code,
		Kind: string(kind),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) LockPendingByCode(ctx context.Context, kind model.InvitationKind, code string) (*model.Invitation, error) {
	row, err := s.queries.LockPendingInvitationByCode(ctx, sqlc.LockPendingInvitationByCodeParams{
		Code: code,
		Kind: string(kind),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) GetLivePendingForEmail(ctx context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (*model.Invitation, error) {
	row, err := s.queries.GetLivePendingInvitationForEmail(ctx, sqlc.GetLivePendingInvitationForEmailParams{
		Kind:     string(kind),
		TargetID: targetID,
		Email:    email,
		Now:      timestamptz(now),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) ExpireOverdueForEmail(ctx context.Context, kind model.InvitationKind, targetID int64, email string, now time.Time) (int64, error) {
	return s.queries.ExpireOverdueInvitationsForEmail(ctx, sqlc.ExpireOverdueInvitationsForEmailParams{
		Now:      timestamptz(now),
		Kind:     string(kind),
		TargetID: targetID,
		Email:    email,
	})
}

func (s *invitationStore) MarkAccepted(ctx context.Context, id, userID int64, at time.Time) (*model.Invitation, error) {
	row, err := s.queries.AcceptInvitation(ctx, sqlc.AcceptInvitationParams{
		ID:         id,
		AcceptedBy: &userID,
		AcceptedAt: timestamptz(at),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) MarkCancelled(ctx context.Context, id int64, at time.Time) (*model.Invitation, error) {
	row, err := s.queries.CancelInvitation(ctx, sqlc.CancelInvitationParams{
		ID:          id,
		CancelledAt: timestamptz(at),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) ListLivePendingForTarget(ctx context.Context, kind model.InvitationKind, targetID int64, now time.Time) ([]model.Invitation, error) {
	rows, err := s.queries.ListLivePendingInvitationsForTarget(ctx, sqlc.ListLivePendingInvitationsForTargetParams{
		Kind:     string(kind),
		TargetID: targetID,
		Now:      timestamptz(now),
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending invitations for target: %w", mapErr(err))
	}
	return toInvitationModels(rows), nil
}

func (s *invitationStore) ListLivePendingForEmail(ctx context.Context, email string, now time.Time) ([]model.Invitation, error) {
	rows, err := s.queries.ListLivePendingInvitationsForEmail(ctx, sqlc.ListLivePendingInvitationsForEmailParams{
		Email: email,
		Now:   timestamptz(now),
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending invitations for email: %w", mapErr(err))
	}
	return toInvitationModels(rows), nil
}

func (s *invitationStore) ExpireOverdue(ctx context.Context, now time.Time) (map[model.InvitationKind]int64, error) {
	rows, err := s.queries.ExpireOverdueInvitations(ctx, timestamptz(now))
	if err != nil {
		return nil, fmt.Errorf("expiring overdue invitations: %w", mapErr(err))
	}
	counts := map[model.InvitationKind]int64{
		model.InvitationKindFamily: 0,
		model.InvitationKindGroup:  0,
	}
	for _, row := range rows {
		counts[model.InvitationKind(row.Kind)] = row.Expired
	}
	return counts, nil
}

func toInvitationModel(row sqlc.Invitation) *model.Invitation {
	inv := &model.Invitation{
		ID:              row.ID,
		Kind:            model.InvitationKind(row.Kind),
		TargetID:        row.TargetID,
		Email:           row.Email,
		Role:            row.Role,
		Code:            row.Code,
		PersonalMessage: row.PersonalMessage,
		Status:          model.InvitationStatus(row.Status),
		ExpiresAt:       row.ExpiresAt.Time,
		CreatedBy:       row.CreatedBy,
		InvitedBy:       row.InvitedBy,
		AcceptedBy:      row.AcceptedBy,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
	if row.AcceptedAt.Valid {
		inv.AcceptedAt = &row.AcceptedAt.Time
	}
	if row.CancelledAt.Valid {
		inv.CancelledAt = &row.CancelledAt.Time
	}
	return inv
}

func toInvitationModels(rows []sqlc.Invitation) []model.Invitation {
	result := make([]model.Invitation, len(rows))
	for i, row := range rows {
		result[i] = *toInvitationModel(row)
	}
	return result
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
