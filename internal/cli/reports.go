package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"pennywise/internal/aggregate"
	"pennywise/internal/chart"
	"pennywise/internal/core"
	"pennywise/internal/period"
)

type balanceCmd struct {
	app  *App
	json bool
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show wallet and bank balances" }
func (*balanceCmd) Usage() string {
	return `balance [-json]

  Prints the current balance of each pool and their total.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print JSON.")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	b := l.Balances()
	if c.json {
		return c.app.writeJSON(struct {
			Wallet core.Money `json:"wallet"`
			Bank   core.Money `json:"bank"`
			Total  core.Money `json:"total"`
		}{b.Wallet, b.Bank, b.Total()})
	}

	tw := tabwriter.NewWriter(c.app.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Wallet\t%s\t\n", c.app.money(b.Wallet))
	fmt.Fprintf(tw, "Bank\t%s\t\n", c.app.money(b.Bank))
	fmt.Fprintf(tw, "Total\t%s\t\n", c.app.money(b.Total()))
	if err := tw.Flush(); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	app *App
	periodFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "income, expenses and net of a period" }
func (*summaryCmd) Usage() string {
	return `summary [period flags]

  Totals income and expenses inside the period, then lists spending per
  category, largest first.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.periodFlags.register(f) }

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	win, err := c.window(c.app)
	if err != nil {
		return c.app.fail(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	s := aggregate.Summarize(apply(win, l.Income()), apply(win, l.Expenses()))
	c.app.printf("%s\n\n", win.label)
	tw := tabwriter.NewWriter(c.app.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", c.app.money(s.Income))
	fmt.Fprintf(tw, "Expenses\t%s\n", c.app.money(s.Expenses))
	fmt.Fprintf(tw, "Net\t%s\n", c.app.money(s.Net))
	if len(s.Categories) > 0 {
		fmt.Fprintln(tw, "\t")
		for _, g := range s.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Key, c.app.money(g.Total), share(g.Total, s.Expenses))
		}
	}
	if err := tw.Flush(); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

// share renders part/whole as a percentage with one decimal.
func share(part, whole core.Money) string {
	if whole.IsZero() {
		return "0.0%"
	}
	pct := part.Decimal().Mul(decimal.NewFromInt(100)).Div(whole.Decimal())
	return pct.StringFixed(1) + "%"
}

// grouping is a breakdown dimension.
type grouping struct {
	kind     core.Kind
	by       string
	category string
}

func (g grouping) slices(ctx context.Context, app *App, win window) ([]chart.Slice, []row, error) {
	l, err := app.Ledger(ctx)
	if err != nil {
		return nil, nil, err
	}
	switch g.kind {
	case core.KindExpense:
		entries := apply(win, l.Expenses())
		key := aggregate.ByCategory
		switch {
		case g.category != "":
			entries = aggregate.InCategory(entries, g.category)
			key = aggregate.BySubcategory
		case g.by == "subcategory":
			key = aggregate.BySubcategory
		case g.by == "source":
			key = aggregate.ByExpenseSource
		case g.by == "" || g.by == "category":
		default:
			return nil, nil, usagef("expenses group by category, subcategory or source, not %q", g.by)
		}
		groups := aggregate.By(entries, key)
		return chart.FromGroups(groups), rows(groups, aggregate.Total(entries)), nil
	case core.KindIncome:
		entries := apply(win, l.Income())
		key := aggregate.ByIncomeSource
		switch g.by {
		case "", "source":
		case "subcategory":
			key = aggregate.ByIncomeSubcategory
		default:
			return nil, nil, usagef("income groups by source or subcategory, not %q", g.by)
		}
		groups := aggregate.By(entries, key)
		return chart.FromGroups(groups), rows(groups, aggregate.Total(entries)), nil
	default:
		entries := apply(win, l.Transfers())
		key := aggregate.ByTransferRoute
		switch g.by {
		case "", "route":
		case "source":
			key = aggregate.ByTransferSource
		default:
			return nil, nil, usagef("transfers group by route or source, not %q", g.by)
		}
		groups := aggregate.By(entries, key)
		return chart.FromGroups(groups), rows(groups, aggregate.Total(entries)), nil
	}
}

type row struct {
	key   string
	total core.Money
	count int
	share string
}

func rows[E core.Amounted](groups []aggregate.Group[E], total core.Money) []row {
	out := make([]row, 0, len(groups))
	for _, g := range groups {
		out = append(out, row{key: g.Key, total: g.Total, count: len(g.Entries), share: share(g.Total, total)})
	}
	return out
}

type breakdownCmd struct {
	app      *App
	kind     string
	by       string
	category string
	periodFlags
}

func (*breakdownCmd) Name() string     { return "breakdown" }
func (*breakdownCmd) Synopsis() string { return "group a period's entries and total each group" }
func (*breakdownCmd) Usage() string {
	return `breakdown [-kind <kind>] [-by <dimension>] [-category <name>] [period flags]

  Groups entries and prints each group's total, largest first.
  Expenses: category (default), subcategory, source.
  Income: source (default), subcategory. Transfers: route (default), source.
  -category drills into one expense category by subcategory.
`
}

func (c *breakdownCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind, core.KindExpense)
	f.StringVar(&c.by, "by", "", "Grouping dimension.")
	f.StringVar(&c.category, "category", "", "Drill into one expense category.")
	c.periodFlags.register(f)
}

func (c *breakdownCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	win, err := c.window(c.app)
	if err != nil {
		return c.app.fail(err)
	}
	_, rs, err := grouping{kind: kind, by: strings.ToLower(c.by), category: c.category}.slices(ctx, c.app, win)
	if err != nil {
		return c.app.fail(err)
	}

	c.app.printf("%s\n\n", win.label)
	if len(rs) == 0 {
		c.app.printf("No entries\n")
		return subcommands.ExitSuccess
	}
	tw := tabwriter.NewWriter(c.app.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.key, c.app.money(r.total), r.share, r.count)
	}
	if err := tw.Flush(); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

type monthsCmd struct {
	app *App
}

func (*monthsCmd) Name() string     { return "months" }
func (*monthsCmd) Synopsis() string { return "list the months that have entries" }
func (*monthsCmd) Usage() string {
	return `months

  Prints every YYYY-MM with at least one income or expense, newest first.
`
}

func (*monthsCmd) SetFlags(*flag.FlagSet) {}

func (c *monthsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	for _, m := range period.MonthsWithData(l.Income(), l.Expenses(), c.app.location()) {
		c.app.printf("%s\n", m)
	}
	return subcommands.ExitSuccess
}

type chartCmd struct {
	app      *App
	kind     string
	by       string
	category string
	style    string
	out      string
	periodFlags
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render a breakdown as a PNG chart" }
func (*chartCmd) Usage() string {
	return `chart -o <file.png> [-type bar|pie] [breakdown flags] [period flags]

  Renders the same groups as breakdown into a bar or pie chart.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind, core.KindExpense)
	f.StringVar(&c.by, "by", "", "Grouping dimension.")
	f.StringVar(&c.category, "category", "", "Drill into one expense category.")
	f.StringVar(&c.style, "type", "pie", "Chart type: bar or pie.")
	f.StringVar(&c.out, "o", "chart.png", "Output file.")
	c.periodFlags.register(f)
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	render := chart.RenderPie
	switch strings.ToLower(c.style) {
	case "pie":
	case "bar":
		render = chart.RenderBar
	default:
		return c.app.fail(usagef("unknown chart type %q", c.style))
	}
	win, err := c.window(c.app)
	if err != nil {
		return c.app.fail(err)
	}
	slices, _, err := grouping{kind: kind, by: strings.ToLower(c.by), category: c.category}.slices(ctx, c.app, win)
	if err != nil {
		return c.app.fail(err)
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s, %s", strings.ToUpper(kind.String()[:1])+kind.String()[1:], win.label)
	if err := render(&buf, title, slices); err != nil {
		return c.app.fail(err)
	}
	if err := os.WriteFile(c.out, buf.Bytes(), 0o644); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Wrote %s\n", c.out)
	return subcommands.ExitSuccess
}
