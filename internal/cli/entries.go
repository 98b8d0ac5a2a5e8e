package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"pennywise/internal/aggregate"
	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// entryFlags holds the fields shared by add and update. set records which
// flags the user actually passed.
type entryFlags struct {
	kind        string
	amount      string
	source      string
	from        string
	to          string
	category    string
	subcategory string
	description string
	date        string

	set map[string]bool
}

func (e *entryFlags) register(f *flag.FlagSet) {
	kindFlag(f, &e.kind, core.KindExpense)
	f.StringVar(&e.amount, "amount", "", "Amount, strictly positive (12.50 or 12,50).")
	f.StringVar(&e.source, "source", "", "Pool for income and expenses: wallet or bank.")
	f.StringVar(&e.from, "from", "", "Transfer origin pool.")
	f.StringVar(&e.to, "to", "", "Transfer destination pool.")
	f.StringVar(&e.category, "category", "", "Expense category.")
	f.StringVar(&e.subcategory, "subcategory", "", "Optional subcategory.")
	f.StringVar(&e.description, "description", "", "Optional free-text description.")
	f.StringVar(&e.date, "date", "", "Entry date (YYYY-MM-DD or ISO-8601). Defaults to now.")
}

func (e *entryFlags) collect(f *flag.FlagSet) {
	e.set = map[string]bool{}
	f.Visit(func(fl *flag.Flag) { e.set[fl.Name] = true })
}

func (e *entryFlags) has(name string) bool { return e.set[name] }

func pool(s string) core.Source {
	return core.Source(strings.ToLower(strings.TrimSpace(s)))
}

func (a *App) parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, usagef("invalid -amount %q", s)
	}
	return m, nil
}

func (a *App) parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return a.Now(), nil
	}
	t, err := core.ParseDateIn(s, a.location())
	if err != nil {
		return time.Time{}, usagef("invalid -date %q", s)
	}
	return t, nil
}

// applyIncome copies the flags the user set onto d. Fields left
// unset keep their values, which makes update a patch at the command line
// while the ledger still receives a complete record.
func (e *entryFlags) applyIncome(a *App, d *core.IncomeDraft) error {
	var err error
	if e.has("amount") || d.Amount.IsZero() {
		if d.Amount, err = a.parseAmount(e.amount); err != nil {
			return err
		}
	}
	if e.has("date") || d.Date.IsZero() {
		if d.Date, err = a.parseDate(e.date); err != nil {
			return err
		}
	}
	if e.has("source") {
		d.Source = pool(e.source)
	}
	if e.has("subcategory") {
		d.Subcategory = e.subcategory
	}
	if e.has("description") {
		d.Description = e.description
	}
	return nil
}

func (e *entryFlags) applyExpense(a *App, d *core.ExpenseDraft) error {
	var err error
	if e.has("amount") || d.Amount.IsZero() {
		if d.Amount, err = a.parseAmount(e.amount); err != nil {
			return err
		}
	}
	if e.has("date") || d.Date.IsZero() {
		if d.Date, err = a.parseDate(e.date); err != nil {
			return err
		}
	}
	if e.has("source") {
		d.Source = pool(e.source)
	}
	if e.has("category") {
		d.Category = e.category
	}
	if e.has("subcategory") {
		d.Subcategory = e.subcategory
	}
	if e.has("description") {
		d.Description = e.description
	}
	return nil
}

func (e *entryFlags) applyTransfer(a *App, d *core.TransferDraft) error {
	var err error
	if e.has("amount") || d.Amount.IsZero() {
		if d.Amount, err = a.parseAmount(e.amount); err != nil {
			return err
		}
	}
	if e.has("date") || d.Date.IsZero() {
		if d.Date, err = a.parseDate(e.date); err != nil {
			return err
		}
	}
	if e.has("from") {
		d.FromSource = pool(e.from)
	}
	if e.has("to") {
		d.ToSource = pool(e.to)
	}
	if e.has("description") {
		d.Description = e.description
	}
	return nil
}

type addCmd struct {
	app *App
	entryFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income, expense or transfer" }
func (*addCmd) Usage() string {
	return `add -kind <income|expense|transfer> -amount <amount> [flags]

  Records a new entry. Income and expenses need -source, expenses also
  need -category, transfers need -from and -to on different pools.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.collect(f)
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	var (
		id     string
		amount core.Money
	)
	switch kind {
	case core.KindIncome:
		var d core.IncomeDraft
		if err := c.applyIncome(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		e, err := l.AddIncome(ctx, d)
		if err != nil {
			return c.app.fail(err)
		}
		id, amount = e.ID, e.Amount
	case core.KindExpense:
		var d core.ExpenseDraft
		if err := c.applyExpense(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		e, err := l.AddExpense(ctx, d)
		if err != nil {
			return c.app.fail(err)
		}
		id, amount = e.ID, e.Amount
	case core.KindTransfer:
		var d core.TransferDraft
		if err := c.applyTransfer(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		e, err := l.AddTransfer(ctx, d)
		if err != nil {
			return c.app.fail(err)
		}
		id, amount = e.ID, e.Amount
	}

	c.app.printf("Added %s %s (%s)\n", kind, id, c.app.money(amount))
	return subcommands.ExitSuccess
}

type updateCmd struct {
	app *App
	id  string
	entryFlags
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change an existing entry" }
func (*updateCmd) Usage() string {
	return `update -kind <income|expense|transfer> -id <id> [flags]

  Rewrites the entry with the given id. Flags that are not passed keep the
  entry's current values.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.id, "id", "", "Id of the entry to update.")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.collect(f)
	if c.id == "" {
		return c.app.fail(usagef("-id is required"))
	}
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	notFound := fmt.Errorf("%w: %s %s", ledger.ErrNotFound, kind, c.id)
	switch kind {
	case core.KindIncome:
		cur, ok := l.FindIncome(c.id)
		if !ok {
			return c.app.fail(notFound)
		}
		d := cur.Draft()
		if err := c.applyIncome(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		_, err = l.UpdateIncome(ctx, c.id, d)
	case core.KindExpense:
		cur, ok := l.FindExpense(c.id)
		if !ok {
			return c.app.fail(notFound)
		}
		d := cur.Draft()
		if err := c.applyExpense(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		_, err = l.UpdateExpense(ctx, c.id, d)
	case core.KindTransfer:
		cur, ok := l.FindTransfer(c.id)
		if !ok {
			return c.app.fail(notFound)
		}
		d := cur.Draft()
		if err := c.applyTransfer(c.app, &d); err != nil {
			return c.app.fail(err)
		}
		_, err = l.UpdateTransfer(ctx, c.id, d)
	}
	if err != nil {
		return c.app.fail(err)
	}

	c.app.printf("Updated %s %s\n", kind, c.id)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	app  *App
	kind string
	id   string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove an entry" }
func (*deleteCmd) Usage() string {
	return `delete -kind <income|expense|transfer> -id <id>

  Removes the entry. Deleting an id that does not exist changes nothing.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind, core.KindExpense)
	f.StringVar(&c.id, "id", "", "Id of the entry to delete.")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.fail(usagef("-id is required"))
	}
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	var removed bool
	switch kind {
	case core.KindIncome:
		removed = l.DeleteIncome(ctx, c.id)
	case core.KindExpense:
		removed = l.DeleteExpense(ctx, c.id)
	case core.KindTransfer:
		removed = l.DeleteTransfer(ctx, c.id)
	}

	if removed {
		c.app.printf("Deleted %s %s\n", kind, c.id)
	} else {
		c.app.printf("No %s with id %s, nothing to delete\n", kind, c.id)
	}
	return subcommands.ExitSuccess
}

type listCmd struct {
	app      *App
	kind     string
	sort     string
	category string
	json     bool
	periodFlags
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list entries of a period" }
func (*listCmd) Usage() string {
	return `list [-kind <kind>] [period flags] [-sort <order>] [-category <name>] [-json]

  Lists the entries of one kind inside the selected period.
  Orders: date_desc (default), date_asc, amount_desc, amount_asc.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind, core.KindExpense)
	c.periodFlags.register(f)
	f.StringVar(&c.sort, "sort", "date_desc", "Sort order.")
	f.StringVar(&c.category, "category", "", "Only expenses of this category.")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of a table.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := parseKind(c.kind)
	if err != nil {
		return c.app.fail(err)
	}
	order, err := aggregate.ParseSortOption(c.sort)
	if err != nil {
		return c.app.fail(usageError{msg: err.Error()})
	}
	win, err := c.window(c.app)
	if err != nil {
		return c.app.fail(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	loc := c.app.location()
	tw := tabwriter.NewWriter(c.app.Stdout, 0, 4, 2, ' ', 0)
	switch kind {
	case core.KindIncome:
		entries := aggregate.Sorted(apply(win, l.Income()), order)
		if c.json {
			return c.app.writeJSON(entries)
		}
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tSOURCE\tSUBCATEGORY\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.In(loc).Format(time.DateOnly),
				c.app.money(e.Amount), e.Source.Label(), e.Subcategory, e.Description)
		}
	case core.KindExpense:
		entries := apply(win, l.Expenses())
		if c.category != "" {
			entries = aggregate.InCategory(entries, c.category)
		}
		entries = aggregate.Sorted(entries, order)
		if c.json {
			return c.app.writeJSON(entries)
		}
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tSUBCATEGORY\tSOURCE\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.In(loc).Format(time.DateOnly),
				c.app.money(e.Amount), e.Category, e.Subcategory, e.Source.Label(), e.Description)
		}
	case core.KindTransfer:
		entries := aggregate.Sorted(apply(win, l.Transfers()), order)
		if c.json {
			return c.app.writeJSON(entries)
		}
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tROUTE\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.In(loc).Format(time.DateOnly),
				c.app.money(e.Amount), aggregate.ByTransferRoute(e), e.Description)
		}
	}
	if err := tw.Flush(); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}
