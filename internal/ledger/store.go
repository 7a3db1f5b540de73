// Package ledger holds the authoritative in-memory transaction
// collection for the session. Persistence layers mirror it; they are
// never the source of truth while the application is running.
package ledger

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"velvet/internal/core"
)

// ErrNotFound is returned when an operation references an id that is not
// in the store, so callers can detect stale references after a remote
// deletion.
var ErrNotFound = errors.New("transaction not found")

// Input carries every transaction field except the id, which the store
// assigns on Add and preserves on Update.
type Input struct {
	Amount   core.Money
	Category core.Category
	Date     core.Date
	User     core.User
	Note     string
	Type     core.EntryType
}

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func NewStore() *Store {
	return &Store{}
}

func (in Input) transaction(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Amount:   in.Amount,
		Category: in.Category,
		Date:     in.Date,
		User:     in.User,
		Note:     in.Note,
		Type:     in.Type,
	}
}

// Add validates the input, assigns a fresh id and appends. The mutation
// is rejected whole on validation failure.
func (s *Store) Add(in Input) (core.Transaction, error) {
	t := in.transaction(uuid.NewString())
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t, nil
}

// Update replaces every field except the id.
func (s *Store) Update(id string, in Input) (core.Transaction, error) {
	t := in.transaction(id)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = t
			return t, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

// Remove deletes the transaction with the given id. A missing id is
// reported, not swallowed.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get returns the transaction with the given id.
func (s *Store) Get(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

// List returns a copy ordered newest date first, ties kept in insertion
// order, which is the order direct display wants.
func (s *Store) List() []core.Transaction {
	out := s.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}

// Snapshot returns a copy in insertion order, for persistence and sync.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

// Replace swaps the whole collection in one assignment, used when a
// remote snapshot is adopted or state is loaded at startup.
func (s *Store) Replace(txs []core.Transaction) {
	copied := append([]core.Transaction(nil), txs...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = copied
}

// Recent returns up to n of the most recently added transactions, oldest
// of those first.
func (s *Store) Recent(n int) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.items) == 0 {
		return nil
	}
	start := len(s.items) - n
	if start < 0 {
		start = 0
	}
	return append([]core.Transaction(nil), s.items[start:]...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
