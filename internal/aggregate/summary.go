package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"pennywise/internal/core"
)

// Summary is the income against expenses view of a period.
type Summary struct {
	Income     core.Money
	Expenses   core.Money
	Net        core.Money
	Categories []Group[core.ExpenseEntry]
}

func Summarize(income []core.IncomeEntry, expenses []core.ExpenseEntry) Summary {
	in, out := Total(income), Total(expenses)
	return Summary{
		Income:     in,
		Expenses:   out,
		Net:        in.Sub(out),
		Categories: By(expenses, ByCategory),
	}
}

// SortOption orders a transaction list.
type SortOption string

const (
	DateDesc   SortOption = "date_desc"
	DateAsc    SortOption = "date_asc"
	AmountDesc SortOption = "amount_desc"
	AmountAsc  SortOption = "amount_asc"
)

func ParseSortOption(s string) (SortOption, error) {
	switch o := SortOption(strings.ToLower(strings.TrimSpace(s))); o {
	case DateDesc, DateAsc, AmountDesc, AmountAsc:
		return o, nil
	case "":
		return DateDesc, nil
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

type sortable interface {
	core.Dated
	core.Amounted
}

// Sorted returns a sorted copy of entries. Equal keys keep input order.
func Sorted[E sortable](entries []E, opt SortOption) []E {
	out := slices.Clone(entries)
	var cmpFn func(a, b E) int
	switch opt {
	case DateAsc:
		cmpFn = func(a, b E) int { return a.EntryDate().Compare(b.EntryDate()) }
	case AmountDesc:
		cmpFn = func(a, b E) int { return b.EntryAmount().Cmp(a.EntryAmount()) }
	case AmountAsc:
		cmpFn = func(a, b E) int { return a.EntryAmount().Cmp(b.EntryAmount()) }
	default:
		cmpFn = func(a, b E) int { return b.EntryDate().Compare(a.EntryDate()) }
	}
	slices.SortStableFunc(out, cmpFn)
	return out
}
