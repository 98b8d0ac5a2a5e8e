package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pennywise.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := repo.Save(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, "k", []byte(`[2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := repo.Load(ctx, "k")
	if err != nil || !ok || string(v) != `[2]` {
		t.Fatalf("load: %q ok=%v err=%v", v, ok, err)
	}
	if _, ok, err := repo.UpdatedAt(ctx, "k"); err != nil || !ok {
		t.Fatalf("updated at: ok=%v err=%v", ok, err)
	}
	keys, err := repo.Keys(ctx)
	if err != nil || !slices.Equal(keys, []string{"k"}) {
		t.Fatalf("keys: %v err=%v", keys, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestLedgerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	quiet := ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	l, err := ledger.Open(ctx, repo, quiet)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	e, err := l.AddExpense(ctx, core.ExpenseDraft{
		Amount: core.M(42.5), Category: "Food", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Source: core.Wallet,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened, err := ledger.Open(ctx, repo, quiet)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	got, ok := reopened.FindExpense(e.ID)
	if !ok || !got.Amount.Equal(e.Amount) || !got.Date.Equal(e.Date) {
		t.Fatalf("expense not restored: %+v", got)
	}
}
