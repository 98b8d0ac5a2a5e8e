package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"pennywise/internal/core"
)

type mapPersister struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	saves   int
}

func newMapPersister() *mapPersister { return &mapPersister{data: map[string][]byte{}} }

func (p *mapPersister) Load(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	return v, ok, nil
}

func (p *mapPersister) Save(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.data[key] = append([]byte(nil), value...)
	return nil
}

type recorder struct{ events []Event }

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seqIDs() func() string {
	n := 0
	return func() string { n++; return "id-" + strconv.Itoa(n) }
}

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func day(d int) time.Time { return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC) }

func newTestLedger(t *testing.T, p Persister, opts ...Option) (*Ledger, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithLogger(quietLogger()), WithNotifier(rec), WithIDGenerator(seqIDs())}, opts...)
	l, err := Open(context.Background(), p, opts...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return l, rec
}

func TestAddAssignsIDAndKeepsDateOrder(t *testing.T) {
	ctx := context.Background()
	l, rec := newTestLedger(t, newMapPersister())

	for _, d := range []int{5, 20, 1, 12} {
		if _, err := l.AddExpense(ctx, core.ExpenseDraft{
			Amount: core.M(10), Category: "Food", Date: day(d), Source: core.Wallet,
		}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got := l.Expenses()
	if len(got) != 4 {
		t.Fatalf("want 4 entries, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Date.Before(got[i].Date) {
			t.Fatalf("entries not newest first: %v before %v", got[i-1].Date, got[i].Date)
		}
	}
	if got[0].ID != "id-2" {
		t.Fatalf("newest entry should be id-2, got %s", got[0].ID)
	}
	if len(rec.events) != 4 || rec.events[0].Op != OpAdd || rec.events[3].Count != 4 {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
}

func TestAddNormalizesDateToUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	l, _ := newTestLedger(t, nil)
	e, err := l.AddIncome(context.Background(), core.IncomeDraft{
		Amount: core.M(1), Source: core.Bank, Date: time.Date(2024, 1, 1, 3, 0, 0, 0, ist),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.Date.Location() != time.UTC || !e.Date.Equal(time.Date(2023, 12, 31, 21, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", e.Date)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	l, rec := newTestLedger(t, newMapPersister())
	_, err := l.AddTransfer(context.Background(), core.TransferDraft{
		Amount: core.M(5), FromSource: core.Bank, ToSource: core.Bank, Date: day(1),
	})
	if !errors.Is(err, core.ErrValidation) || !errors.Is(err, core.ErrSameSource) {
		t.Fatalf("want same-source validation error, got %v", err)
	}
	if len(l.Transfers()) != 0 || len(rec.events) != 0 {
		t.Fatalf("rejected add must not change state")
	}
}

func TestUpdateOverwritesAllFields(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, newMapPersister())
	e, _ := l.AddExpense(ctx, core.ExpenseDraft{
		Amount: core.M(10), Category: "Food", Subcategory: "Lunch", Description: "x", Date: day(1), Source: core.Wallet,
	})
	other, _ := l.AddExpense(ctx, core.ExpenseDraft{
		Amount: core.M(3), Category: "Bills", Date: day(2), Source: core.Bank,
	})

	upd, err := l.UpdateExpense(ctx, e.ID, core.ExpenseDraft{
		Amount: core.M(99), Category: "Travel", Date: day(30), Source: core.Bank,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.ID != e.ID || upd.Subcategory != "" || upd.Description != "" {
		t.Fatalf("update must replace every field but id: %+v", upd)
	}
	got := l.Expenses()
	if got[0].ID != e.ID || !got[0].Amount.Equal(core.M(99)) {
		t.Fatalf("updated entry should sort first: %+v", got)
	}
	if o, ok := l.FindExpense(other.ID); !ok || !o.Amount.Equal(core.M(3)) {
		t.Fatalf("other entry changed: %+v", o)
	}
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	l, rec := newTestLedger(t, newMapPersister())
	_, err := l.UpdateIncome(context.Background(), "nope", core.IncomeDraft{Amount: core.M(1), Source: core.Bank, Date: day(1)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("no event expected")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	l, rec := newTestLedger(t, p)
	e, _ := l.AddIncome(ctx, core.IncomeDraft{Amount: core.M(1), Source: core.Bank, Date: day(1)})

	if !l.DeleteIncome(ctx, e.ID) {
		t.Fatalf("first delete should remove")
	}
	saves := p.saves
	if l.DeleteIncome(ctx, e.ID) {
		t.Fatalf("second delete should be a no-op")
	}
	if p.saves != saves || len(rec.events) != 2 {
		t.Fatalf("no-op delete must not persist or notify")
	}
	if len(l.Income()) != 0 {
		t.Fatalf("income not empty")
	}
}

func TestReplaceAllFiltersAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, rec := newTestLedger(t, newMapPersister())
	l.AddExpense(ctx, core.ExpenseDraft{Amount: core.M(1), Category: "Old", Date: day(1), Source: core.Bank})

	in := []core.ExpenseEntry{
		{ID: "a", Amount: core.M(10), Category: "Food", Date: day(3), Source: core.Wallet},
		{ID: "b", Amount: core.M(-5), Category: "Food", Date: day(4), Source: core.Wallet},
		{ID: "c", Amount: core.M(7), Category: "", Date: day(5), Source: core.Wallet},
		{ID: "d", Amount: core.M(2), Category: "Bills", Date: day(9), Source: core.Bank},
		{ID: "a", Amount: core.M(4), Category: "Dup", Date: day(2), Source: core.Bank},
	}
	res := l.ReplaceAllExpenses(ctx, in)
	if len(res.Accepted) != 2 || res.RejectedCount() != 3 {
		t.Fatalf("want 2 accepted / 3 rejected, got %d / %d", len(res.Accepted), res.RejectedCount())
	}
	if res.Rejected[0].Index != 1 || res.Rejected[2].Index != 4 {
		t.Fatalf("unexpected rejections: %+v", res.Rejected)
	}
	first := l.Expenses()
	if first[0].ID != "d" || first[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", first)
	}
	if ev := rec.events[len(rec.events)-1]; ev.Op != OpReplaceAll || ev.Rejected != 3 || ev.Count != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}

	l.ReplaceAllExpenses(ctx, in)
	second := l.Expenses()
	if len(second) != len(first) {
		t.Fatalf("replace-all not idempotent")
	}
	for i := range first {
		if first[i].ID != second[i].ID || !first[i].Amount.Equal(second[i].Amount) {
			t.Fatalf("replace-all not idempotent at %d", i)
		}
	}
}

func TestPersistenceFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	p.saveErr = errors.New("disk full")
	l, rec := newTestLedger(t, p)

	e, err := l.AddIncome(ctx, core.IncomeDraft{Amount: core.M(1), Source: core.Wallet, Date: day(1)})
	if err != nil {
		t.Fatalf("persistence failure must not fail the mutation: %v", err)
	}
	if _, ok := l.FindIncome(e.ID); !ok {
		t.Fatalf("in-memory state lost")
	}
	if len(rec.events) != 1 {
		t.Fatalf("notification expected even when persisting fails")
	}
}

func TestOpenRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	l, _ := newTestLedger(t, p)
	l.AddIncome(ctx, core.IncomeDraft{Amount: core.M(500), Source: core.Bank, Date: day(1)})
	l.AddExpense(ctx, core.ExpenseDraft{Amount: mustMoney(t, "12.34"), Category: "Food", Date: day(2), Source: core.Wallet})
	l.AddTransfer(ctx, core.TransferDraft{Amount: core.M(50), FromSource: core.Bank, ToSource: core.Wallet, Date: day(3)})

	p.data[KeyTransfers] = []byte(`not json`)

	reopened, _ := newTestLedger(t, p)
	if len(reopened.Income()) != 1 || len(reopened.Expenses()) != 1 {
		t.Fatalf("collections not restored: %+v", reopened.Snapshot())
	}
	if !reopened.Expenses()[0].Amount.Equal(l.Expenses()[0].Amount) {
		t.Fatalf("amount changed across reload")
	}
	if len(reopened.Transfers()) != 0 {
		t.Fatalf("undecodable collection should start empty")
	}
}

func TestOpenHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Open(ctx, newMapPersister(), WithLogger(quietLogger())); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestBalancesScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, nil)
	jan := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	l.AddIncome(ctx, core.IncomeDraft{Amount: core.M(1000), Source: core.Wallet, Date: jan(5)})
	l.AddExpense(ctx, core.ExpenseDraft{Amount: core.M(300), Category: "Food", Date: jan(6), Source: core.Wallet})
	l.AddTransfer(ctx, core.TransferDraft{Amount: core.M(200), FromSource: core.Wallet, ToSource: core.Bank, Date: jan(7)})

	b := l.Balances()
	if !b.Wallet.Equal(core.M(500)) || !b.Bank.Equal(core.M(200)) || !b.Total().Equal(core.M(700)) {
		t.Fatalf("unexpected balances wallet=%s bank=%s", b.Wallet, b.Bank)
	}
}

func TestTransfersConserveTotal(t *testing.T) {
	income := []core.IncomeEntry{{ID: "i", Amount: core.M(100), Source: core.Wallet, Date: day(1)}}
	expenses := []core.ExpenseEntry{{ID: "e", Amount: core.M(30), Category: "x", Source: core.Bank, Date: day(1)}}
	base := ComputeBalances(income, expenses, nil).Total()

	for i := 1; i <= 5; i++ {
		var transfers []core.TransferEntry
		for j := 0; j < i; j++ {
			from, to := core.Wallet, core.Bank
			if j%2 == 1 {
				from, to = to, from
			}
			transfers = append(transfers, core.TransferEntry{
				ID: fmt.Sprint(j), Amount: core.M(float64(j) + 0.25), FromSource: from, ToSource: to, Date: day(1),
			})
		}
		if got := ComputeBalances(income, expenses, transfers).Total(); !got.Equal(base) {
			t.Fatalf("%d transfers changed total: %s != %s", i, got, base)
		}
	}
}
