package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"pennywise/internal/backup"
	"pennywise/internal/sheets"
	gsheet "pennywise/internal/sheets/google"
	"pennywise/internal/worker"
)

type exportCmd struct {
	app *App
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a JSON backup of the whole ledger" }
func (*exportCmd) Usage() string {
	return `export [-o <file>|-]

  Writes every income, expense and transfer to a JSON backup. Without -o
  the file is named pennywise_backup_YYYYMMDD_HHMMSS.json; "-" writes to
  standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file, or - for stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	now := c.app.Now()
	file := backup.Export(l.Snapshot(), now)

	if c.out == "-" {
		if err := backup.Write(c.app.Stdout, file); err != nil {
			return c.app.fail(err)
		}
		return subcommands.ExitSuccess
	}

	name := c.out
	if name == "" {
		name = backup.FileName(now)
	}
	f, err := os.Create(name)
	if err != nil {
		return c.app.fail(err)
	}
	if err := backup.Write(f, file); err != nil {
		f.Close()
		return c.app.fail(err)
	}
	if err := f.Close(); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Exported %d income, %d expense and %d transfer entries to %s\n",
		len(file.IncomeEntries), len(file.ExpenseEntries), len(file.TransferEntries), name)
	return subcommands.ExitSuccess
}

type importCmd struct {
	app *App
	yes bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger with a JSON backup" }
func (*importCmd) Usage() string {
	return `import [-yes] <file|->

  Replaces all three collections with the valid records of the backup.
  Invalid records are skipped and counted. A malformed file leaves the
  ledger unchanged. Without -yes the command asks before replacing
  anything; when it cannot ask it only reports what the backup holds.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Replace the ledger without asking.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.app.fail(usagef("import takes exactly one file"))
	}
	name := f.Arg(0)
	var r io.Reader = c.app.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return c.app.fail(err)
		}
		defer file.Close()
		r = file
	}
	if r == nil {
		return c.app.fail(usagef("no standard input to import from"))
	}

	d, err := backup.Decode(r, c.app.location())
	if errors.Is(err, backup.ErrMalformedImportFile) {
		return c.app.fail(fmt.Errorf("%w, nothing was imported", err))
	}
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Backup holds %d income, %d expense and %d transfer entries (%d invalid)\n",
		len(d.Income), len(d.Expenses), len(d.Transfers), d.Rejected())

	// Stdin carries the backup itself when name is "-".
	if !c.yes && (name == "-" || !c.app.confirm("Importing will REPLACE all current income, expense and transfer entries. Continue? [y/N] ")) {
		c.app.printf("Nothing was imported. Pass -yes to replace the ledger.\n")
		return subcommands.ExitSuccess
	}

	l, err := c.app.Ledger(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	report := backup.Apply(ctx, l, d)
	c.app.printf("Imported %d income, %d expense and %d transfer entries\n",
		report.Income.Accepted, report.Expenses.Accepted, report.Transfers.Accepted)
	if n := report.Rejected(); n > 0 {
		c.app.printf("Some entries were invalid and have been filtered: %d skipped\n", n)
	}
	return subcommands.ExitSuccess
}

type mirrorCmd struct {
	app *App
}

func (*mirrorCmd) Name() string     { return "mirror" }
func (*mirrorCmd) Synopsis() string { return "copy the ledger to the configured Google spreadsheet" }
func (*mirrorCmd) Usage() string {
	return `mirror

  Writes income, expenses, transfers and balances to their tabs of
  GOOGLE_SPREADSHEET_ID, replacing what was there.
`
}

func (*mirrorCmd) SetFlags(*flag.FlagSet) {}

func (c *mirrorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	writer, err := c.app.mirrorWriter(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	store, err := c.app.Persister(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if _, err := worker.NewMirrorWorker(store, writer, c.app.Logger.Logger).Sync(ctx); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Mirrored ledger to spreadsheet\n")
	return subcommands.ExitSuccess
}

func (a *App) mirrorWriter(ctx context.Context) (sheets.SnapshotWriter, error) {
	if a.Mirror != nil {
		return a.Mirror, nil
	}
	if !a.Config.MirrorEnabled() {
		return nil, usagef("no spreadsheet configured, set GOOGLE_SPREADSHEET_ID")
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   a.Config.GoogleSpreadsheetID,
		CredentialsJSON: a.Config.GoogleServiceAccountJSON,
		CredentialsFile: a.Config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
