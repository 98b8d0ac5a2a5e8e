package ledger

import (
	"context"
	"log/slog"
	"time"

	"pennywise/internal/core"
)

// Storage keys, one per collection.
const (
	KeyIncome    = "pennywise.income"
	KeyExpenses  = "pennywise.expenses"
	KeyTransfers = "pennywise.transfers"
)

// Ports for outbound adapters.
type (
	// Persister is the key-value store the ledger saves its collections to.
	// Values are JSON arrays of entries.
	Persister interface {
		// Load returns ok=false when nothing was stored under key yet.
		Load(ctx context.Context, key string) (value []byte, ok bool, err error)
		Save(ctx context.Context, key string, value []byte) error
	}

	// Notifier is told about every successful mutation.
	Notifier interface {
		Notify(ctx context.Context, ev Event) error
	}
)

type Op string

const (
	OpAdd        Op = "add"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpReplaceAll Op = "replace_all"
)

// Event describes one mutation of one collection.
type Event struct {
	Kind     core.Kind `json:"kind"`
	Op       Op        `json:"op"`
	ID       string    `json:"id,omitempty"`
	Amount   string    `json:"amount,omitempty"`
	Count    int       `json:"count"`
	Rejected int       `json:"rejected,omitempty"`
	At       time.Time `json:"at"`
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogNotifier reports mutations through slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, ev Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{"kind", ev.Kind, "op", ev.Op, "count", ev.Count}
	if ev.ID != "" {
		args = append(args, "id", ev.ID)
	}
	if ev.Amount != "" {
		args = append(args, "amount", ev.Amount)
	}
	if ev.Rejected > 0 {
		logger.WarnContext(ctx, "Some entries were invalid and have been filtered", append(args, "rejected", ev.Rejected)...)
		return nil
	}
	logger.InfoContext(ctx, "Ledger updated", args...)
	return nil
}

// MultiNotifier fans an event out to several notifiers and returns the
// first error after trying all of them.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
