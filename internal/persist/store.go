// Package persist provides the two local persistence slots: one for the
// transaction log, one for the plan collection. The slots are passive
// mirrors of the in-memory stores, loaded once at startup and rewritten
// after every mutation.
package persist

import (
	"context"

	"velvet/internal/core"
)

// StateStore is the port implemented by the file and sqlite backends.
// Load methods report found=false when the slot has never been written,
// which the caller turns into an empty ledger or the default plan seed.
type StateStore interface {
	LoadTransactions(ctx context.Context) (txs []core.Transaction, found bool, err error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error

	LoadPlans(ctx context.Context) (plans []core.Plan, found bool, err error)
	SavePlans(ctx context.Context, plans []core.Plan) error

	Close() error
}
