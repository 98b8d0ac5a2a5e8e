// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/ledger"
	"pennywise/internal/sheets"
)

// MirrorWorker reloads the ledger from the shared store and writes it to the
// mirror. Unchanged snapshots are not written again.
type MirrorWorker struct {
	store  ledger.Persister
	writer sheets.SnapshotWriter
	logger *slog.Logger

	mu          sync.Mutex
	fingerprint [sha256.Size]byte
	mirrored    bool
}

func NewMirrorWorker(store ledger.Persister, writer sheets.SnapshotWriter, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{store: store, writer: writer, logger: logger}
}

// HandleLedgerEvent processes one event from AMQP.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"kind", msg.Kind,
		"op", msg.Op,
		"count", msg.Count,
		"event_time", msg.Timestamp)
	_, err := w.Sync(ctx)
	return err
}

// Sync mirrors the current ledger and reports whether anything was written.
func (w *MirrorWorker) Sync(ctx context.Context) (bool, error) {
	l, err := ledger.Open(ctx, w.store,
		ledger.WithLogger(w.logger),
		ledger.WithNotifier(ledger.NotifierFunc(func(context.Context, ledger.Event) error { return nil })))
	if err != nil {
		return false, fmt.Errorf("load ledger: %w", err)
	}
	snap := l.Snapshot()

	sum, err := fingerprint(snap)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mirrored && sum == w.fingerprint {
		w.logger.DebugContext(ctx, "Ledger unchanged, mirror skipped")
		return false, nil
	}
	if err := w.writer.WriteSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	w.fingerprint, w.mirrored = sum, true

	w.logger.InfoContext(ctx, "Ledger mirrored",
		"income", len(snap.Income),
		"expenses", len(snap.Expenses),
		"transfers", len(snap.Transfers))
	return true, nil
}

// StartupSyncCheck mirrors once so changes made while the worker was down
// are not lost.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	wrote, err := w.Sync(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "written", wrote)
	return nil
}

// RunPeriodic calls Sync every interval until ctx is done. It backs up the
// event stream in case messages are lost.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func fingerprint(snap ledger.Snapshot) ([sha256.Size]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return sha256.Sum256(b), nil
}
