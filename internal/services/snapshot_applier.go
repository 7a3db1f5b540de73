package services

import (
	"context"
	"fmt"
	"sync"

	"velvet/internal/amqp"
	"velvet/internal/log"
)

// SnapshotSource delivers month snapshots from the bus until the
// context is cancelled.
type SnapshotSource interface {
	ConsumeMonthSnapshots(ctx context.Context, handler func(*amqp.MonthSnapshot) error) error
}

// SnapshotApplier feeds bus snapshots into the App so a second install
// publishing a month shows up here without a manual pull.
type SnapshotApplier struct {
	app    *App
	source SnapshotSource
	logger *log.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

func NewSnapshotApplier(app *App, source SnapshotSource, logger *log.Logger) *SnapshotApplier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SnapshotApplier{
		app:    app,
		source: source,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins consuming in the background. Returns an error if already
// running.
func (p *SnapshotApplier) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("snapshot applier is already running")
	}
	p.running = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.run(runCtx)

	p.logger.InfoContext(ctx, "Snapshot applier started",
		log.FieldOperation, log.OpStartup)
	return nil
}

func (p *SnapshotApplier) run(ctx context.Context) {
	defer close(p.doneCh)

	err := p.source.ConsumeMonthSnapshots(ctx, func(snapshot *amqp.MonthSnapshot) error {
		return p.app.AdoptMonthSnapshot(ctx, snapshot)
	})
	if err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "Snapshot consumption ended",
			log.FieldError, err)
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Stop cancels consumption and waits for the loop to wind down.
func (p *SnapshotApplier) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	done := p.doneCh
	p.mu.Unlock()

	cancel()

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Snapshot applier stopped",
			log.FieldOperation, log.OpShutdown)
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Snapshot applier stop timed out")
		return ctx.Err()
	}
}

func (p *SnapshotApplier) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
