// Package aggregate reduces entries to per-key totals for summaries and
// charts.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"pennywise/internal/core"
)

// NoSubcategory labels entries recorded without a subcategory.
const NoSubcategory = "(No Subcategory)"

// Group is one key's share of a set of entries. Entries keeps the original
// records, in input order, so a caller can navigate from a group to them.
type Group[E core.Amounted] struct {
	Key     string
	Total   core.Money
	Entries []E
}

// By groups entries by key and orders the groups by total, largest first.
// Groups with equal totals keep the order in which their key first
// appeared.
func By[E core.Amounted](entries []E, key func(E) string) []Group[E] {
	groups := collect(entries, key)
	slices.SortStableFunc(groups, func(a, b Group[E]) int { return b.Total.Cmp(a.Total) })
	return groups
}

// Partition groups entries by key with the groups ordered alphabetically.
func Partition[E core.Amounted](entries []E, key func(E) string) []Group[E] {
	groups := collect(entries, key)
	slices.SortStableFunc(groups, func(a, b Group[E]) int { return cmp.Compare(a.Key, b.Key) })
	return groups
}

func collect[E core.Amounted](entries []E, key func(E) string) []Group[E] {
	var groups []Group[E]
	index := map[string]int{}
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[E]{Key: k})
		}
		groups[i].Total = groups[i].Total.Add(e.EntryAmount())
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// Total sums the amounts of entries; an empty list sums to zero.
func Total[E core.Amounted](entries []E) core.Money {
	var sum core.Money
	for _, e := range entries {
		sum = sum.Add(e.EntryAmount())
	}
	return sum
}

func subcategory(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoSubcategory
	}
	return s
}

func ByCategory(e core.ExpenseEntry) string { return e.Category }

// BySubcategory keys on subcategory, with NoSubcategory for blanks.
func BySubcategory(e core.ExpenseEntry) string { return subcategory(e.Subcategory) }

// ByExpenseSource keys on the capitalised pool label.
func ByExpenseSource(e core.ExpenseEntry) string { return e.Source.Label() }

func ByIncomeSource(e core.IncomeEntry) string { return e.Source.Label() }

func ByIncomeSubcategory(e core.IncomeEntry) string { return subcategory(e.Subcategory) }

// ByTransferRoute keys a transfer on its direction, e.g. "Bank to Wallet".
func ByTransferRoute(e core.TransferEntry) string {
	return fmt.Sprintf("%s to %s", e.FromSource.Label(), e.ToSource.Label())
}

// ByTransferSource keys a transfer on the pool it left.
func ByTransferSource(e core.TransferEntry) string { return e.FromSource.Label() }

// InCategory returns the expenses of one category, the input of a
// subcategory drill-down.
func InCategory(expenses []core.ExpenseEntry, category string) []core.ExpenseEntry {
	out := make([]core.ExpenseEntry, 0)
	for _, e := range expenses {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}
