package service

import (
	"context"

	"edulift.app/membership/core/db"
	"edulift.app/membership/core/db/sqlc"
	"edulift.app/membership/internal/store"
)

// StoreProvider exposes the stores a membership operation may touch.
type StoreProvider interface {
	Invitations() store.InvitationStore
	Families() store.FamilyStore
	Groups() store.GroupStore
	Users() store.UserStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		stores := store.NewStores(q)
		return fn(stores)
	})
}
