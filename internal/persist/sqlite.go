package persist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"velvet/internal/core"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// SQLiteStore keeps both slots in a single sqlite database. Each save
// replaces the slot's rows wholesale inside one transaction; the slots
// table records which slots have ever been written.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// migrateSchema brings the database at dbPath up to the latest embedded
// schema version. It runs on its own short-lived connection so the
// migration lock is released before the store's pool starts working.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open for migration: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) LoadTransactions(ctx context.Context) ([]core.Transaction, bool, error) {
	found, err := s.slotWritten(ctx, "transactions")
	if err != nil || !found {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount_cents, category, date, user, note, type
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var tx core.Transaction
		var cents int64
		var date string
		if err := rows.Scan(&tx.ID, &cents, &tx.Category, &date, &tx.User, &tx.Note, &tx.Type); err != nil {
			return nil, false, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, false, fmt.Errorf("parse date for transaction %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, true, nil
}

func (s *SQLiteStore) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		for i, t := range txs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, position, amount_cents, category, date, user, note, type)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, i, t.Amount.Cents, string(t.Category), t.Date.String(), string(t.User), t.Note, string(t.Type))
			if err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
		}
		return s.markSlot(ctx, tx, "transactions")
	})
}

func (s *SQLiteStore) LoadPlans(ctx context.Context) ([]core.Plan, bool, error) {
	found, err := s.slotWritten(ctx, "plans")
	if err != nil || !found {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, color FROM plans ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	plans := []core.Plan{}
	index := map[string]int{}
	for rows.Next() {
		var p core.Plan
		if err := rows.Scan(&p.ID, &p.Title, &p.Color); err != nil {
			return nil, false, fmt.Errorf("scan plan: %w", err)
		}
		p.Items = []core.PlanItem{}
		index[p.ID] = len(plans)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate plans: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, label, amount_cents
		FROM plan_items ORDER BY plan_id, position`)
	if err != nil {
		return nil, false, fmt.Errorf("query plan items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item core.PlanItem
		var planID string
		var cents int64
		if err := itemRows.Scan(&item.ID, &planID, &item.Label, &cents); err != nil {
			return nil, false, fmt.Errorf("scan plan item: %w", err)
		}
		item.Amount = core.Money{Cents: cents}
		i, ok := index[planID]
		if !ok {
			return nil, false, fmt.Errorf("plan item %s references unknown plan %s", item.ID, planID)
		}
		plans[i].Items = append(plans[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate plan items: %w", err)
	}
	return plans, true, nil
}

func (s *SQLiteStore) SavePlans(ctx context.Context, plans []core.Plan) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM plan_items"); err != nil {
			return fmt.Errorf("clear plan items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM plans"); err != nil {
			return fmt.Errorf("clear plans: %w", err)
		}
		for i, p := range plans {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO plans (id, position, title, color) VALUES (?, ?, ?, ?)",
				p.ID, i, p.Title, p.Color)
			if err != nil {
				return fmt.Errorf("insert plan %s: %w", p.ID, err)
			}
			for j, item := range p.Items {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO plan_items (id, plan_id, position, label, amount_cents)
					VALUES (?, ?, ?, ?, ?)`,
					item.ID, p.ID, j, item.Label, item.Amount.Cents)
				if err != nil {
					return fmt.Errorf("insert plan item %s: %w", item.ID, err)
				}
			}
		}
		return s.markSlot(ctx, tx, "plans")
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) slotWritten(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM slots WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check slot %s: %w", name, err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) markSlot(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO slots (name, written_at) VALUES (?, datetime('now'))
		ON CONFLICT (name) DO UPDATE SET written_at = excluded.written_at`, name)
	if err != nil {
		return fmt.Errorf("mark slot %s: %w", name, err)
	}
	return nil
}
