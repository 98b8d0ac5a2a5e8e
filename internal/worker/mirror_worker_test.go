package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	"pennywise/internal/ledger"
	sheetsmem "pennywise/internal/sheets/memory"
	"pennywise/internal/storage/memory"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSyncSkipsUnchangedLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	writer := sheetsmem.New()
	w := NewMirrorWorker(store, writer, quiet())

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if wrote, err := w.Sync(ctx); err != nil || wrote {
		t.Fatalf("unchanged ledger should not be rewritten: wrote=%v err=%v", wrote, err)
	}

	l, err := ledger.Open(ctx, store, ledger.WithLogger(quiet()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.AddExpense(ctx, core.ExpenseDraft{
		Amount: core.M(9), Category: "Food", Source: core.Wallet, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	msg := amqp.NewLedgerEventMessage(ledger.Event{Kind: core.KindExpense, Op: ledger.OpAdd, Count: 1})
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if writer.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", writer.Writes())
	}
	tbl, _ := writer.Table("Expenses")
	if len(tbl.Rows) != 1 || tbl.Rows[0][3] != "Food" {
		t.Fatalf("unexpected mirrored expenses %v", tbl.Rows)
	}
}

type failingWriter struct{ calls int }

func (f *failingWriter) WriteSnapshot(context.Context, ledger.Snapshot) error {
	f.calls++
	return errors.New("quota exceeded")
}

func TestFailedWriteIsRetried(t *testing.T) {
	ctx := context.Background()
	fw := &failingWriter{}
	w := NewMirrorWorker(memory.New(nil), fw, quiet())

	if _, err := w.Sync(ctx); err == nil {
		t.Fatal("expected error")
	}
	if _, err := w.Sync(ctx); err == nil || fw.calls != 2 {
		t.Fatalf("a failed write must not be remembered as mirrored (calls=%d)", fw.calls)
	}
}

func TestRunPeriodicStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	writer := sheetsmem.New()
	w := NewMirrorWorker(memory.New(nil), writer, quiet())

	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, 5*time.Millisecond)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for writer.Writes() == 0 {
		select {
		case <-deadline:
			t.Fatal("periodic sync never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not return after cancel")
	}
}
