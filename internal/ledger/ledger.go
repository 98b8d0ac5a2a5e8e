// Package ledger owns the income, expense and transfer collections and
// derives balances from them.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pennywise/internal/core"
)

var ErrNotFound = errors.New("entry not found")

// Ledger is the single source of truth for recorded entries. Every mutation
// is written through the Persister and announced through the Notifier; a
// failure of either is logged and never rolls back the in-memory change.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	income    *Collection[core.IncomeEntry]
	expenses  *Collection[core.ExpenseEntry]
	transfers *Collection[core.TransferEntry]

	persister Persister
	notifier  Notifier
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time
}

type Option func(*Ledger)

func WithNotifier(n Notifier) Option { return func(l *Ledger) { l.notifier = n } }

func WithLogger(logger *slog.Logger) Option { return func(l *Ledger) { l.logger = logger } }

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(f func() string) Option { return func(l *Ledger) { l.newID = f } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// New returns an empty ledger. A nil persister keeps everything in memory.
func New(p Persister, opts ...Option) *Ledger {
	l := &Ledger{
		income:    newCollection(KeyIncome, core.IncomeValidator, normalizeIncome),
		expenses:  newCollection(KeyExpenses, core.ExpenseValidator, normalizeExpense),
		transfers: newCollection(KeyTransfers, core.TransferValidator, normalizeTransfer),
		persister: p,
		logger:    slog.Default(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.notifier == nil {
		l.notifier = LogNotifier{Logger: l.logger}
	}
	return l
}

// Open builds a ledger and loads the three collections from p. Unreadable
// or undecodable collections are logged and start empty; stored records that
// fail validation are dropped.
func Open(ctx context.Context, p Persister, opts ...Option) (*Ledger, error) {
	l := New(p, opts...)

	var (
		income    []core.IncomeEntry
		expenses  []core.ExpenseEntry
		transfers []core.TransferEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		income, err = loadEntries[core.IncomeEntry](gctx, l, KeyIncome)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = loadEntries[core.ExpenseEntry](gctx, l, KeyExpenses)
		return err
	})
	g.Go(func() (err error) {
		transfers, err = loadEntries[core.TransferEntry](gctx, l, KeyTransfers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	restore(ctx, l, l.income, income)
	restore(ctx, l, l.expenses, expenses)
	restore(ctx, l, l.transfers, transfers)

	l.logger.InfoContext(ctx, "Ledger loaded",
		"income", l.income.Len(),
		"expenses", l.expenses.Len(),
		"transfers", l.transfers.Len())
	return l, nil
}

func loadEntries[E core.Entry](ctx context.Context, l *Ledger, key string) ([]E, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.persister == nil {
		return nil, nil
	}
	data, ok, err := l.persister.Load(ctx, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		l.logger.ErrorContext(ctx, "Failed to read collection, starting empty", "key", key, "error", err)
		return nil, nil
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var entries []E
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.ErrorContext(ctx, "Failed to decode collection, starting empty", "key", key, "error", err)
		return nil, nil
	}
	return entries, nil
}

func restore[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], entries []E) {
	res := c.reset(entries)
	if n := res.RejectedCount(); n > 0 {
		l.logger.WarnContext(ctx, "Dropped invalid stored entries", "key", c.key, "dropped", n)
	}
}

func normalizeIncome(e core.IncomeEntry) core.IncomeEntry       { e.Date = e.Date.UTC(); return e }
func normalizeExpense(e core.ExpenseEntry) core.ExpenseEntry    { e.Date = e.Date.UTC(); return e }
func normalizeTransfer(e core.TransferEntry) core.TransferEntry { e.Date = e.Date.UTC(); return e }

// Income returns a copy of the income entries, newest first.
func (l *Ledger) Income() []core.IncomeEntry { return l.income.All() }

func (l *Ledger) Expenses() []core.ExpenseEntry { return l.expenses.All() }

func (l *Ledger) Transfers() []core.TransferEntry { return l.transfers.All() }

func (l *Ledger) FindIncome(id string) (core.IncomeEntry, bool) { return l.income.Find(id) }

func (l *Ledger) FindExpense(id string) (core.ExpenseEntry, bool) { return l.expenses.Find(id) }

func (l *Ledger) FindTransfer(id string) (core.TransferEntry, bool) { return l.transfers.Find(id) }

// Balances returns the all-time balance of each pool.
func (l *Ledger) Balances() Balances {
	return ComputeBalances(l.income.entries, l.expenses.entries, l.transfers.entries)
}

func (l *Ledger) AddIncome(ctx context.Context, d core.IncomeDraft) (core.IncomeEntry, error) {
	return add(ctx, l, l.income, d.WithID(l.newID()))
}

func (l *Ledger) AddExpense(ctx context.Context, d core.ExpenseDraft) (core.ExpenseEntry, error) {
	return add(ctx, l, l.expenses, d.WithID(l.newID()))
}

func (l *Ledger) AddTransfer(ctx context.Context, d core.TransferDraft) (core.TransferEntry, error) {
	return add(ctx, l, l.transfers, d.WithID(l.newID()))
}

// UpdateIncome overwrites every field of the entry except its id.
func (l *Ledger) UpdateIncome(ctx context.Context, id string, d core.IncomeDraft) (core.IncomeEntry, error) {
	return update(ctx, l, l.income, d.WithID(id))
}

func (l *Ledger) UpdateExpense(ctx context.Context, id string, d core.ExpenseDraft) (core.ExpenseEntry, error) {
	return update(ctx, l, l.expenses, d.WithID(id))
}

func (l *Ledger) UpdateTransfer(ctx context.Context, id string, d core.TransferDraft) (core.TransferEntry, error) {
	return update(ctx, l, l.transfers, d.WithID(id))
}

// DeleteIncome removes the entry if present. Deleting an unknown id is a
// no-op; the result reports whether anything was removed.
func (l *Ledger) DeleteIncome(ctx context.Context, id string) bool {
	return remove(ctx, l, l.income, id)
}

func (l *Ledger) DeleteExpense(ctx context.Context, id string) bool {
	return remove(ctx, l, l.expenses, id)
}

func (l *Ledger) DeleteTransfer(ctx context.Context, id string) bool {
	return remove(ctx, l, l.transfers, id)
}

// ReplaceAllIncome overwrites the whole income collection with the valid
// subset of entries. This is not additive.
func (l *Ledger) ReplaceAllIncome(ctx context.Context, entries []core.IncomeEntry) ReplaceResult[core.IncomeEntry] {
	return replaceAll(ctx, l, l.income, entries)
}

func (l *Ledger) ReplaceAllExpenses(ctx context.Context, entries []core.ExpenseEntry) ReplaceResult[core.ExpenseEntry] {
	return replaceAll(ctx, l, l.expenses, entries)
}

func (l *Ledger) ReplaceAllTransfers(ctx context.Context, entries []core.TransferEntry) ReplaceResult[core.TransferEntry] {
	return replaceAll(ctx, l, l.transfers, entries)
}

func add[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], e E) (E, error) {
	if err := c.validate(e); err != nil {
		var zero E
		return zero, err
	}
	c.insert(e)
	commit(ctx, l, c, Event{Kind: c.kind, Op: OpAdd, ID: e.EntryID(), Amount: e.EntryAmount().String()})
	return e, nil
}

func update[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], e E) (E, error) {
	var zero E
	i := c.index(e.EntryID())
	if i < 0 {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, c.kind, e.EntryID())
	}
	if err := c.validate(e); err != nil {
		return zero, err
	}
	c.set(i, e)
	commit(ctx, l, c, Event{Kind: c.kind, Op: OpUpdate, ID: e.EntryID(), Amount: e.EntryAmount().String()})
	return e, nil
}

func remove[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], id string) bool {
	if !c.remove(id) {
		l.logger.DebugContext(ctx, "Delete of unknown entry ignored", "kind", c.kind, "id", id)
		return false
	}
	commit(ctx, l, c, Event{Kind: c.kind, Op: OpDelete, ID: id})
	return true
}

func replaceAll[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], entries []E) ReplaceResult[E] {
	res := c.reset(entries)
	commit(ctx, l, c, Event{Kind: c.kind, Op: OpReplaceAll, Rejected: res.RejectedCount()})
	return res
}

// commit persists the collection and announces the event.
func commit[E core.Entry](ctx context.Context, l *Ledger, c *Collection[E], ev Event) {
	ev.Count = c.Len()
	ev.At = l.now().UTC()

	if l.persister != nil {
		if err := save(ctx, l.persister, c); err != nil {
			l.logger.ErrorContext(ctx, "Failed to persist collection, in-memory state kept",
				"key", c.key, "op", ev.Op, "error", err)
		}
	}

	if err := l.notifier.Notify(ctx, ev); err != nil {
		l.logger.ErrorContext(ctx, "Failed to notify ledger event",
			"kind", ev.Kind, "op", ev.Op, "error", err)
	}
}

func save[E core.Entry](ctx context.Context, p Persister, c *Collection[E]) error {
	entries := c.entries
	if entries == nil {
		entries = []E{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := p.Save(ctx, c.key, data); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

// Snapshot is a point-in-time copy of all three collections.
type Snapshot struct {
	Income    []core.IncomeEntry
	Expenses  []core.ExpenseEntry
	Transfers []core.TransferEntry
}

func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{Income: l.Income(), Expenses: l.Expenses(), Transfers: l.Transfers()}
}
