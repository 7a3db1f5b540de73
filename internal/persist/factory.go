package persist

import (
	"fmt"
	"log/slog"
)

// Backend names accepted by New.
const (
	FileBackend   = "file"
	SQLiteBackend = "sqlite"
)

// New builds the state store named by backend. The file backend keeps
// JSON slots under dir; the sqlite backend keeps everything in dbPath.
func New(backend, dir, dbPath string, logger *slog.Logger) (StateStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case FileBackend:
		store, err := NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("Initialized file backend", "data_dir", dir)
		return store, nil
	case SQLiteBackend:
		store, err := NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", dbPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backend)
	}
}
