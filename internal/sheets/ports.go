// Package sheets mirrors the ledger into a spreadsheet.
package sheets

import (
	"context"

	"pennywise/internal/ledger"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter replaces the mirrored copy of the ledger with snap.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error
	}
)
