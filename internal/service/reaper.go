package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/store"
)

// ExpiryReaper flips overdue PENDING invitations to EXPIRED in one statement.
// Running it twice in a row changes nothing the second time.
type ExpiryReaper interface {
	RunExpirySweep(ctx context.Context) (*SweepResult, error)
}

type SweepResult struct {
	FamilyExpired int64     `json:"family_expired"`
	GroupExpired  int64     `json:"group_expired"`
	SweptAt       time.Time `json:"swept_at"`
}

func (r *SweepResult) Total() int64 {
	return r.FamilyExpired + r.GroupExpired
}

type expiryReaper struct {
	invitations store.InvitationStore
	now         func() time.Time
}

func NewExpiryReaper(invitations store.InvitationStore, now func() time.Time) ExpiryReaper {
	if now == nil {
		now = time.Now
	}
	return &expiryReaper{invitations: invitations, now: now}
}

func (r *expiryReaper) RunExpirySweep(ctx context.Context) (*SweepResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "membership.service.reaper"})
	sc := logger.StartSpan(ctx, "membership.expiry_sweep")
	defer sc.End()
	ctx = sc.Context()

	now := r.now().UTC()
	counts, err := r.invitations.ExpireOverdue(ctx, now)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("expiring invitations: %w", err)
	}

	result := &SweepResult{
		FamilyExpired: counts[model.InvitationKindFamily],
		GroupExpired:  counts[model.InvitationKindGroup],
		SweptAt:       now,
	}
	sc.SetInt64("expired_total", result.Total())

	if result.Total() > 0 {
		slog.InfoContext(ctx, "expired overdue invitations",
			"family_expired", result.FamilyExpired,
			"group_expired", result.GroupExpired,
		)
	} else {
		slog.DebugContext(ctx, "expiry sweep found nothing to expire")
	}
	return result, nil
}
