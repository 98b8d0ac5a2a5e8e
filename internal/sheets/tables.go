package sheets

import (
	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// TabNames are the sheet names the mirror writes to.
type TabNames struct {
	Income    string
	Expenses  string
	Transfers string
	Balances  string
}

func DefaultTabNames() TabNames {
	return TabNames{Income: "Income", Expenses: "Expenses", Transfers: "Transfers", Balances: "Balances"}
}

// Table is the full content of one tab, header first.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Values returns header and rows in the shape the Sheets API expects.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	return append(append(out, header), t.Rows...)
}

// BuildTables lays the snapshot out as one table per tab. Amounts are
// written as plain decimal strings so the sheet can parse them.
func BuildTables(snap ledger.Snapshot, names TabNames) []Table {
	income := Table{Name: names.Income, Header: []string{"ID", "Date", "Amount", "Source", "Subcategory", "Description"}}
	for _, e := range snap.Income {
		income.Rows = append(income.Rows, []any{e.ID, core.FormatDate(e.Date), e.Amount.StringFixed(2), e.Source.Label(), e.Subcategory, e.Description})
	}

	expenses := Table{Name: names.Expenses, Header: []string{"ID", "Date", "Amount", "Category", "Subcategory", "Source", "Description"}}
	for _, e := range snap.Expenses {
		expenses.Rows = append(expenses.Rows, []any{e.ID, core.FormatDate(e.Date), e.Amount.StringFixed(2), e.Category, e.Subcategory, e.Source.Label(), e.Description})
	}

	transfers := Table{Name: names.Transfers, Header: []string{"ID", "Date", "Amount", "From", "To", "Description"}}
	for _, e := range snap.Transfers {
		transfers.Rows = append(transfers.Rows, []any{e.ID, core.FormatDate(e.Date), e.Amount.StringFixed(2), e.FromSource.Label(), e.ToSource.Label(), e.Description})
	}

	flows := ledger.ComputeFlows(snap.Income, snap.Expenses, snap.Transfers)
	balances := Table{Name: names.Balances, Header: []string{"Pool", "Income", "Expenses", "Transferred In", "Transferred Out", "Balance"}}
	for _, s := range core.Sources() {
		f := flows[s]
		balances.Rows = append(balances.Rows, []any{
			s.Label(), f.Income.StringFixed(2), f.Expenses.StringFixed(2),
			f.TransferredIn.StringFixed(2), f.TransferredOut.StringFixed(2), f.Balance().StringFixed(2),
		})
	}

	return []Table{income, expenses, transfers, balances}
}
