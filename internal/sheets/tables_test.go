package sheets

import (
	"testing"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

func TestBuildTables(t *testing.T) {
	at := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	snap := ledger.Snapshot{
		Income:    []core.IncomeEntry{{ID: "i", Amount: core.M(1000), Source: core.Wallet, Date: at}},
		Expenses:  []core.ExpenseEntry{{ID: "e", Amount: core.M(300), Category: "Food", Source: core.Wallet, Date: at}},
		Transfers: []core.TransferEntry{{ID: "t", Amount: core.M(200), FromSource: core.Wallet, ToSource: core.Bank, Date: at}},
	}
	tables := BuildTables(snap, DefaultTabNames())
	if len(tables) != 4 {
		t.Fatalf("want 4 tables, got %d", len(tables))
	}

	exp := tables[1]
	if exp.Name != "Expenses" || len(exp.Rows) != 1 {
		t.Fatalf("unexpected expenses table %+v", exp)
	}
	if exp.Rows[0][1] != "2024-01-05T00:00:00.000Z" || exp.Rows[0][2] != "300.00" || exp.Rows[0][5] != "Wallet" {
		t.Fatalf("unexpected expense row %v", exp.Rows[0])
	}

	bal := tables[3]
	if bal.Rows[0][0] != "Wallet" || bal.Rows[0][5] != "500.00" || bal.Rows[1][5] != "200.00" {
		t.Fatalf("unexpected balances %v", bal.Rows)
	}
	if v := tables[0].Values(); len(v) != 2 || v[0][0] != "ID" {
		t.Fatalf("values must start with the header: %v", v)
	}
}
