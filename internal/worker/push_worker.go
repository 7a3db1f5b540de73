// Package worker runs the periodic background jobs of the worker
// command: pull once on startup, then push the full snapshot on an
// interval, and mirror new ledger entries to the spreadsheet.
package worker

import (
	"context"
	"time"

	"velvet/internal/core"
	"velvet/internal/log"
	"velvet/internal/services"
)

// Mirror receives ledger entries for the append-only spreadsheet export.
type Mirror interface {
	Append(ctx context.Context, tx core.Transaction) error
	MirroredIDs(ctx context.Context) (map[string]bool, error)
}

type PushWorker struct {
	app      *services.App
	mirror   Mirror
	interval time.Duration
	logger   *log.Logger

	mirrored map[string]bool
}

// NewPushWorker builds the worker. mirror may be nil when no
// spreadsheet is configured.
func NewPushWorker(app *services.App, mirror Mirror, interval time.Duration, logger *log.Logger) *PushWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PushWorker{
		app:      app,
		mirror:   mirror,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled. Errors inside a cycle are logged
// and the next tick retries, only cancellation ends the loop.
func (w *PushWorker) Run(ctx context.Context) error {
	if changed, err := w.app.PullRemote(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup pull failed",
			log.FieldOperation, log.OpPull, log.FieldError, err)
	} else if changed {
		w.logger.InfoContext(ctx, "Startup pull adopted remote state")
	}

	w.loadMirroredIDs(ctx)
	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Push worker stopping",
				log.FieldOperation, log.OpShutdown)
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *PushWorker) runCycle(ctx context.Context) {
	if err := w.app.PushNow(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Periodic push failed",
			log.FieldOperation, log.OpPush, log.FieldError, err)
	}
	w.mirrorNewEntries(ctx)
}

func (w *PushWorker) loadMirroredIDs(ctx context.Context) {
	if w.mirror == nil {
		return
	}
	ids, err := w.mirror.MirroredIDs(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Could not read mirrored ids, assuming none",
			log.FieldError, err)
		w.mirrored = map[string]bool{}
		return
	}
	w.mirrored = ids
	w.logger.InfoContext(ctx, "Loaded mirrored ids", log.FieldCount, len(ids))
}

func (w *PushWorker) mirrorNewEntries(ctx context.Context) {
	if w.mirror == nil {
		return
	}
	if w.mirrored == nil {
		w.loadMirroredIDs(ctx)
	}

	appended := 0
	for _, tx := range w.app.Transactions() {
		if w.mirrored[tx.ID] {
			continue
		}
		if err := w.mirror.Append(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror transaction",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
			continue
		}
		w.mirrored[tx.ID] = true
		appended++
	}
	if appended > 0 {
		w.logger.InfoContext(ctx, "Mirrored new transactions", log.FieldCount, appended)
	}
}
