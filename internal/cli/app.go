package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"pennywise/internal/backend"
	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
	"pennywise/internal/sheets"
)

// App is the state shared by the subcommands of one invocation. The ledger
// is opened on first use and closed by Close.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
	// Mirror overrides the spreadsheet writer built from Config.
	Mirror sheets.SnapshotWriter

	backend *backend.BackendResult
	ledger  *ledger.Ledger
}

// NewApp returns an App writing to the process's standard streams.
func NewApp(cfg *config.Config, logger *log.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.WithComponent(log.ComponentCLI),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Now:    time.Now,
	}
}

// Commands lists every subcommand bound to app.
func Commands(app *App) map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"entries": {
			&addCmd{app: app},
			&updateCmd{app: app},
			&deleteCmd{app: app},
			&listCmd{app: app},
		},
		"reports": {
			&balanceCmd{app: app},
			&summaryCmd{app: app},
			&breakdownCmd{app: app},
			&monthsCmd{app: app},
			&chartCmd{app: app},
		},
		"backup": {
			&exportCmd{app: app},
			&importCmd{app: app},
			&mirrorCmd{app: app},
		},
	}
}

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	cmds := Commands(app)
	for _, group := range []string{"entries", "reports", "backup"} {
		for _, cmd := range cmds[group] {
			c.Register(cmd, group)
		}
	}
}

// Ledger opens the configured ledger once per App.
func (a *App) Ledger(ctx context.Context) (*ledger.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	bc, err := backend.FromAppConfig(a.Config)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(a.Logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Open(ctx, res.Persister,
		ledger.WithNotifier(res.Notifier),
		ledger.WithLogger(a.Logger.WithComponent(log.ComponentLedger).Logger),
		ledger.WithClock(a.Now),
	)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	a.backend, a.ledger = res, l
	return l, nil
}

// Persister exposes the store behind the opened ledger.
func (a *App) Persister(ctx context.Context) (ledger.Persister, error) {
	if _, err := a.Ledger(ctx); err != nil {
		return nil, err
	}
	return a.backend.Persister, nil
}

func (a *App) Close() error {
	a.ledger = nil
	err := a.backend.Close()
	a.backend = nil
	return err
}

func (a *App) location() *time.Location { return a.Config.Location() }

func (a *App) currency() string { return a.Config.Currency }

func (a *App) money(m core.Money) string { return m.Format(a.currency()) }

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Stdout, format, args...)
}

// confirm asks on Stderr and reads one answer from Stdin. Anything but y or
// yes, including end of input, is a no.
func (a *App) confirm(prompt string) bool {
	if a.Stdin == nil {
		return false
	}
	fmt.Fprint(a.Stderr, prompt)
	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// fail reports err on stderr and maps it to an exit status. Usage mistakes
// get ExitUsageError, everything else ExitFailure.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.Stderr, "Error:", err)
	var usage usageError
	if errors.As(err, &usage) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func (a *App) writeJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return a.fail(err)
	}
	return subcommands.ExitSuccess
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// kindFlag binds the common -kind flag.
func kindFlag(f *flag.FlagSet, dst *string, def core.Kind) {
	f.StringVar(dst, "kind", string(def), "Entry kind: income, expense or transfer.")
}

func parseKind(s string) (core.Kind, error) {
	k, err := core.ParseKind(s)
	if err != nil {
		return "", usagef("%v", err)
	}
	return k, nil
}
