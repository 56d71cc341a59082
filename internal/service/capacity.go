package service

import (
	"context"
	"fmt"

	"edulift.app/membership/internal/store"
)

const DefaultFamilyMaxMembers = 6

// CapacityGuard enforces the family member ceiling. Callers run it inside the
// transaction that writes, after locking the family row.
type CapacityGuard struct {
	maxMembers int
}

func NewCapacityGuard(maxMembers int) CapacityGuard {
	if maxMembers <= 0 {
		maxMembers = DefaultFamilyMaxMembers
	}
	return CapacityGuard{maxMembers: maxMembers}
}

func (g CapacityGuard) MaxMembers() int {
	return g.maxMembers
}

func (g CapacityGuard) CheckFamilyCapacity(ctx context.Context, families store.FamilyStore, familyID int64) error {
	count, err := families.CountMembers(ctx, familyID)
	if err != nil {
		return fmt.Errorf("counting family members: %w", err)
	}
	if count >= g.maxMembers {
		return familyFull(familyID, g.maxMembers)
	}
	return nil
}
