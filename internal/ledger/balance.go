package ledger

import "pennywise/internal/core"

// PoolFlows breaks a pool's balance down into its four movements.
type PoolFlows struct {
	Source         core.Source
	Income         core.Money
	Expenses       core.Money
	TransferredIn  core.Money
	TransferredOut core.Money
}

// Balance is income - expenses + transfers in - transfers out.
func (f PoolFlows) Balance() core.Money {
	return f.Income.Sub(f.Expenses).Add(f.TransferredIn).Sub(f.TransferredOut)
}

// ComputeFlows totals the movements of every pool over the given entries.
func ComputeFlows(income []core.IncomeEntry, expenses []core.ExpenseEntry, transfers []core.TransferEntry) map[core.Source]PoolFlows {
	flows := make(map[core.Source]PoolFlows, 2)
	for _, s := range core.Sources() {
		flows[s] = PoolFlows{Source: s}
	}
	for _, e := range income {
		if f, ok := flows[e.Source]; ok {
			f.Income = f.Income.Add(e.Amount)
			flows[e.Source] = f
		}
	}
	for _, e := range expenses {
		if f, ok := flows[e.Source]; ok {
			f.Expenses = f.Expenses.Add(e.Amount)
			flows[e.Source] = f
		}
	}
	for _, t := range transfers {
		if f, ok := flows[t.FromSource]; ok {
			f.TransferredOut = f.TransferredOut.Add(t.Amount)
			flows[t.FromSource] = f
		}
		if f, ok := flows[t.ToSource]; ok {
			f.TransferredIn = f.TransferredIn.Add(t.Amount)
			flows[t.ToSource] = f
		}
	}
	return flows
}

// Balances holds the balance of each pool. Either may be negative.
type Balances struct {
	Wallet core.Money `json:"wallet"`
	Bank   core.Money `json:"bank"`
}

func (b Balances) Of(s core.Source) core.Money {
	if s == core.Bank {
		return b.Bank
	}
	return b.Wallet
}

// Total is the sum of both pools. Transfers cancel out of it.
func (b Balances) Total() core.Money { return b.Wallet.Add(b.Bank) }

func ComputeBalances(income []core.IncomeEntry, expenses []core.ExpenseEntry, transfers []core.TransferEntry) Balances {
	flows := ComputeFlows(income, expenses, transfers)
	return Balances{
		Wallet: flows[core.Wallet].Balance(),
		Bank:   flows[core.Bank].Balance(),
	}
}
