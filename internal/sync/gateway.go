// Package sync moves full application snapshots through a shared
// key/value endpoint. Two installs that hold the same sync key see each
// other's pushes; the snapshot always replaces local state wholesale.
package sync

import (
	"context"
	"errors"

	"velvet/internal/core"
)

// ErrKeyNotFound reports that the remote side has no snapshot under the
// given key yet. First pull after creating a key is expected to hit it.
var ErrKeyNotFound = errors.New("sync: key not found")

// Data is the wire snapshot. Field names match the historical payload,
// so old snapshots keep decoding.
type Data struct {
	Transactions []core.Transaction `json:"transactions"`
	Plans        []core.Plan        `json:"plans"`
	WiseBalance  core.Money         `json:"wiseBalance"`
	Goal         core.Money         `json:"goal"`
	LastUpdated  string             `json:"lastUpdated"`
}

// Gateway is the port to the remote snapshot store.
type Gateway interface {
	Pull(ctx context.Context, key string) (Data, error)
	Push(ctx context.Context, key string, data Data) error
	CreateKey(ctx context.Context) (string, error)
}
