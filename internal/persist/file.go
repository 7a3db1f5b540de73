package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"velvet/internal/core"
)

const (
	transactionsFile = "velvet_tx.json"
	plansFile        = "velvet_plans.json"
)

// FileStore keeps each slot in a JSON file under a data directory.
// Writes go through a temp file and a rename so a crash mid-write never
// leaves a truncated slot behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadTransactions(ctx context.Context) ([]core.Transaction, bool, error) {
	var txs []core.Transaction
	found, err := s.loadSlot(transactionsFile, &txs)
	return txs, found, err
}

func (s *FileStore) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return s.saveSlot(transactionsFile, txs)
}

func (s *FileStore) LoadPlans(ctx context.Context) ([]core.Plan, bool, error) {
	var plans []core.Plan
	found, err := s.loadSlot(plansFile, &plans)
	return plans, found, err
}

func (s *FileStore) SavePlans(ctx context.Context, plans []core.Plan) error {
	if plans == nil {
		plans = []core.Plan{}
	}
	return s.saveSlot(plansFile, plans)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadSlot(name string, dst any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (s *FileStore) saveSlot(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
