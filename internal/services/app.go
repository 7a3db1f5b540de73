// Package services wires the in-memory stores to persistence, the sync
// gateway, and the advisor. App is the single entry point the commands
// talk to.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"velvet/internal/advisor"
	"velvet/internal/allocation"
	"velvet/internal/amqp"
	"velvet/internal/core"
	"velvet/internal/goals"
	"velvet/internal/ledger"
	"velvet/internal/log"
	"velvet/internal/report"
	syncgw "velvet/internal/sync"
)

// Advisor is what App needs from the advice layer.
type Advisor interface {
	Advise(ctx context.Context, txs []core.Transaction) string
}

// Publisher pushes month snapshots to the message bus.
type Publisher interface {
	PublishMonthSnapshot(ctx context.Context, snapshot *amqp.MonthSnapshot) error
}

// StateStore is the persistence port, see package persist.
type StateStore interface {
	LoadTransactions(ctx context.Context) ([]core.Transaction, bool, error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	LoadPlans(ctx context.Context) ([]core.Plan, bool, error)
	SavePlans(ctx context.Context, plans []core.Plan) error
}

// Options collects App dependencies. Store is required, everything
// else degrades to a no-op when absent.
type Options struct {
	Store     StateStore
	Gateway   syncgw.Gateway
	Advisor   Advisor
	Publisher Publisher
	SyncKey   string
	Logger    *log.Logger

	// PushTimeout bounds the background push after each mutation.
	PushTimeout time.Duration
}

type App struct {
	ledger  *ledger.Store
	goals   *goals.Store
	store   StateStore
	gateway syncgw.Gateway
	advisor Advisor
	pub     Publisher
	syncKey string
	logger  *log.Logger

	pushTimeout time.Duration
	now         func() time.Time
}

func NewApp(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("services: state store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	pushTimeout := opts.PushTimeout
	if pushTimeout == 0 {
		pushTimeout = 15 * time.Second
	}

	return &App{
		ledger:      ledger.NewStore(),
		goals:       goals.NewStore(nil),
		store:       opts.Store,
		gateway:     opts.Gateway,
		advisor:     opts.Advisor,
		pub:         opts.Publisher,
		syncKey:     opts.SyncKey,
		logger:      logger.WithComponent(log.ComponentApp),
		pushTimeout: pushTimeout,
		now:         time.Now,
	}, nil
}

// Load restores state from the local store. A missing transaction slot
// means a fresh install and yields an empty ledger; a missing plan slot
// seeds the default plans and writes them back immediately.
func (a *App) Load(ctx context.Context) error {
	txs, found, err := a.store.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if found {
		a.ledger.Replace(txs)
	}

	plans, found, err := a.store.LoadPlans(ctx)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	if found {
		a.goals.Replace(plans)
	} else {
		a.goals.Replace(goals.DefaultPlans())
		if err := a.store.SavePlans(ctx, a.goals.Plans()); err != nil {
			return fmt.Errorf("seed default plans: %w", err)
		}
	}

	a.logger.InfoContext(ctx, "State loaded",
		log.FieldOperation, log.OpLoad,
		"transactions", a.ledger.Len(),
		"plans", len(a.goals.Plans()))
	return nil
}

// SyncKey returns the key snapshots are shared under, empty when sync
// is not configured.
func (a *App) SyncKey() string { return a.syncKey }

// EnsureSyncKey mints a key when none is configured yet.
func (a *App) EnsureSyncKey(ctx context.Context) (string, error) {
	if a.syncKey != "" {
		return a.syncKey, nil
	}
	if a.gateway == nil {
		return "", fmt.Errorf("sync gateway not configured")
	}
	key, err := a.gateway.CreateKey(ctx)
	if err != nil {
		return "", fmt.Errorf("create sync key: %w", err)
	}
	a.syncKey = key
	a.logger.InfoContext(ctx, "Created sync key", log.FieldSyncKey, key)
	return key, nil
}

// --- transaction operations ---

func (a *App) AddTransaction(ctx context.Context, in ledger.Input) (core.Transaction, error) {
	tx, err := a.ledger.Add(in)
	if err != nil {
		return core.Transaction{}, err
	}
	a.logger.InfoContext(ctx, "Transaction added",
		log.FieldOperation, log.OpAdd,
		log.FieldTransactionID, tx.ID,
		log.FieldCategory, string(tx.Category),
		log.FieldUser, string(tx.User),
		log.FieldAmountCents, tx.Amount.Cents)
	a.afterLedgerChange(ctx, tx.Date)
	return tx, nil
}

func (a *App) UpdateTransaction(ctx context.Context, id string, in ledger.Input) (core.Transaction, error) {
	tx, err := a.ledger.Update(id, in)
	if err != nil {
		return core.Transaction{}, err
	}
	a.logger.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTransactionID, id)
	a.afterLedgerChange(ctx, tx.Date)
	return tx, nil
}

func (a *App) RemoveTransaction(ctx context.Context, id string) error {
	tx, err := a.ledger.Get(id)
	if err != nil {
		return err
	}
	if err := a.ledger.Remove(id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Transaction removed",
		log.FieldOperation, log.OpRemove,
		log.FieldTransactionID, id)
	a.afterLedgerChange(ctx, tx.Date)
	return nil
}

// ApplyCarryOver closes out a month by adding its balance as a
// transfer entry on the first day of the next month. Months with a
// zero balance close without an entry.
func (a *App) ApplyCarryOver(ctx context.Context, year int, month time.Month) (core.Transaction, bool, error) {
	carry, ok := report.CarryOver(a.ledger.Snapshot(), year, month)
	if !ok {
		return core.Transaction{}, false, nil
	}
	tx, err := a.ledger.Add(ledger.Input{
		Amount:   carry.Amount,
		Category: carry.Category,
		Date:     carry.Date,
		User:     carry.User,
		Note:     carry.Note,
		Type:     carry.Type,
	})
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("apply carry-over: %w", err)
	}
	a.logger.InfoContext(ctx, "Month carried over",
		log.FieldYear, year,
		log.FieldMonth, int(month),
		log.FieldTransactionID, tx.ID,
		log.FieldAmountCents, tx.Amount.Cents)
	a.afterLedgerChange(ctx, tx.Date)
	return tx, true, nil
}

// --- plan operations ---

func (a *App) RenamePlan(ctx context.Context, planID, title string) error {
	if err := a.goals.UpdatePlanTitle(planID, title); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Plan renamed", log.FieldPlanID, planID)
	a.afterPlansChange(ctx)
	return nil
}

func (a *App) AddPlanItem(ctx context.Context, planID, label string, amount core.Money) (core.PlanItem, error) {
	item, err := a.goals.AddItem(planID, label, amount)
	if err != nil {
		return core.PlanItem{}, err
	}
	a.logger.InfoContext(ctx, "Plan item added",
		log.FieldPlanID, planID,
		log.FieldItemID, item.ID,
		log.FieldAmountCents, item.Amount.Cents)
	a.afterPlansChange(ctx)
	return item, nil
}

func (a *App) UpdatePlanItem(ctx context.Context, planID, itemID string, patch goals.ItemPatch) error {
	if _, err := a.goals.UpdateItem(planID, itemID, patch); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Plan item updated",
		log.FieldPlanID, planID,
		log.FieldItemID, itemID)
	a.afterPlansChange(ctx)
	return nil
}

func (a *App) RemovePlanItem(ctx context.Context, planID, itemID string) error {
	if err := a.goals.RemoveItem(planID, itemID); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Plan item removed",
		log.FieldPlanID, planID,
		log.FieldItemID, itemID)
	a.afterPlansChange(ctx)
	return nil
}

// --- read operations ---

func (a *App) Transactions() []core.Transaction { return a.ledger.List() }
func (a *App) Plans() []core.Plan               { return a.goals.Plans() }

func (a *App) MonthTotals(year int, month time.Month) report.MonthTotals {
	return report.MonthlyTotals(a.ledger.Snapshot(), year, month)
}

func (a *App) MonthBalance(year int, month time.Month) core.Money {
	return report.MonthlyBalance(a.ledger.Snapshot(), year, month)
}

func (a *App) CategoryBreakdown(year int, month time.Month) []report.CategoryTotal {
	return report.CategoryBreakdown(a.ledger.Snapshot(), year, month)
}

func (a *App) SavingsBalance() core.Money {
	return report.TotalSavingsToDate(a.ledger.Snapshot())
}

func (a *App) YearOverview(year int) []report.MonthStat {
	return report.YearOverview(a.ledger.Snapshot(), year)
}

func (a *App) ActivityOn(day core.Date) report.DayActivity {
	return report.ActivityOn(a.ledger.Snapshot(), day)
}

// PlanProgress runs the waterfall for every plan against the lifetime
// savings balance. Each plan sees the full pool.
func (a *App) PlanProgress() []allocation.PlanProgress {
	return allocation.ForPlans(a.goals.Plans(), a.SavingsBalance())
}

// Advice returns coaching text based on the newest ledger entries.
func (a *App) Advice(ctx context.Context) string {
	if a.advisor == nil {
		return advisor.MsgNotConfigured
	}
	return a.advisor.Advise(ctx, a.ledger.Recent(advisor.RecentWindow))
}

// --- sync ---

// SyncData assembles the full snapshot pushed to the gateway.
func (a *App) SyncData() syncgw.Data {
	return syncgw.Data{
		Transactions: a.ledger.Snapshot(),
		Plans:        a.goals.Plans(),
		WiseBalance:  a.SavingsBalance(),
		Goal:         a.goals.TotalTarget(),
		LastUpdated:  a.now().UTC().Format(time.RFC3339),
	}
}

// PushNow pushes the current snapshot synchronously.
func (a *App) PushNow(ctx context.Context) error {
	if a.gateway == nil || a.syncKey == "" {
		return nil
	}
	if err := a.gateway.Push(ctx, a.syncKey, a.SyncData()); err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	a.logger.InfoContext(ctx, "Snapshot pushed",
		log.FieldOperation, log.OpPush,
		"transactions", a.ledger.Len())
	return nil
}

// PullRemote fetches the remote snapshot and adopts it when it differs
// from local state. Reports whether anything changed.
func (a *App) PullRemote(ctx context.Context) (bool, error) {
	if a.gateway == nil || a.syncKey == "" {
		return false, nil
	}
	data, err := a.gateway.Pull(ctx, a.syncKey)
	if err != nil {
		return false, fmt.Errorf("pull snapshot: %w", err)
	}
	return a.AdoptRemote(ctx, data), nil
}

// AdoptRemote replaces local state with the remote snapshot. Identical
// collections are left untouched so a pull never dirties local state.
func (a *App) AdoptRemote(ctx context.Context, data syncgw.Data) bool {
	changed := false

	if !sameJSON(a.ledger.Snapshot(), data.Transactions) {
		a.ledger.Replace(data.Transactions)
		changed = true
	}
	if !sameJSON(a.goals.Plans(), data.Plans) {
		a.goals.Replace(data.Plans)
		changed = true
	}
	if !changed {
		return false
	}

	a.logger.InfoContext(ctx, "Adopted remote snapshot",
		log.FieldOperation, log.OpPull,
		"transactions", a.ledger.Len(),
		"plans", len(a.goals.Plans()))
	a.persistAll(ctx)
	return true
}

// AdoptMonthSnapshot replaces one month of the ledger and the whole
// plan collection with the bus snapshot. Entries outside the month are
// untouched; a snapshot equal to current state is dropped so echoes of
// our own publishes never cause redundant persist and push cycles.
func (a *App) AdoptMonthSnapshot(ctx context.Context, snapshot *amqp.MonthSnapshot) error {
	merged := make([]core.Transaction, 0, a.ledger.Len())
	for _, tx := range a.ledger.Snapshot() {
		if !tx.Date.InMonth(snapshot.Year, snapshot.Month) {
			merged = append(merged, tx)
		}
	}
	merged = append(merged, snapshot.Transactions...)

	sameTxs := sameJSON(a.ledger.Snapshot(), merged)
	samePlans := len(snapshot.Plans) == 0 || sameJSON(a.goals.Plans(), snapshot.Plans)
	if sameTxs && samePlans {
		return nil
	}

	a.ledger.Replace(merged)
	if len(snapshot.Plans) > 0 {
		a.goals.Replace(snapshot.Plans)
	}

	a.logger.InfoContext(ctx, "Adopted month snapshot",
		log.FieldYear, snapshot.Year,
		log.FieldMonth, int(snapshot.Month),
		"transactions", len(snapshot.Transactions))
	a.persistAll(ctx)
	return nil
}

// --- internals ---

// afterLedgerChange persists the ledger, pushes the full snapshot in
// the background, and feeds the changed month to the bus. Persistence
// and sync failures are logged, the in-memory mutation stands.
func (a *App) afterLedgerChange(ctx context.Context, changed core.Date) {
	if err := a.store.SaveTransactions(ctx, a.ledger.Snapshot()); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist transactions",
			log.FieldOperation, log.OpSave, log.FieldError, err)
	}
	a.publishMonth(ctx, changed.Year(), changed.Month())
	a.pushAsync()
}

func (a *App) afterPlansChange(ctx context.Context) {
	if err := a.store.SavePlans(ctx, a.goals.Plans()); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist plans",
			log.FieldOperation, log.OpSave, log.FieldError, err)
	}
	a.pushAsync()
}

func (a *App) persistAll(ctx context.Context) {
	if err := a.store.SaveTransactions(ctx, a.ledger.Snapshot()); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist transactions",
			log.FieldOperation, log.OpSave, log.FieldError, err)
	}
	if err := a.store.SavePlans(ctx, a.goals.Plans()); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist plans",
			log.FieldOperation, log.OpSave, log.FieldError, err)
	}
}

func (a *App) publishMonth(ctx context.Context, year int, month time.Month) {
	if a.pub == nil {
		return
	}
	var monthTxs []core.Transaction
	for _, tx := range a.ledger.Snapshot() {
		if tx.Date.InMonth(year, month) {
			monthTxs = append(monthTxs, tx)
		}
	}
	snapshot := amqp.NewMonthSnapshot(year, month, monthTxs, a.goals.Plans())
	if err := a.pub.PublishMonthSnapshot(ctx, snapshot); err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish month snapshot",
			log.FieldYear, year,
			log.FieldMonth, int(month),
			log.FieldError, err)
	}
}

func (a *App) pushAsync() {
	if a.gateway == nil || a.syncKey == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.pushTimeout)
		defer cancel()
		if err := a.PushNow(ctx); err != nil {
			a.logger.ErrorContext(ctx, "Background push failed",
				log.FieldOperation, log.OpPush, log.FieldError, err)
		}
	}()
}

func sameJSON(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}
