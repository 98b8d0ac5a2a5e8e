package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pennywise/internal/ledger"
	ports "pennywise/internal/sheets"
)

// Client mirrors ledger snapshots into one spreadsheet, one tab per
// collection plus a balances tab.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          ports.TabNames
	limiter       *rate.Limiter
}

// The Sheets API allows 60 write requests per minute per user. A snapshot
// costs two requests per tab, so the burst covers one full snapshot.
const (
	defaultRequestsPerSecond = 1
	defaultBurst             = 8
)

var _ ports.SnapshotWriter = (*Client)(nil)

// Options configures a Client. Empty tab names fall back to the defaults.
type Options struct {
	SpreadsheetID string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	Tabs            ports.TabNames
	// RequestsPerSecond caps API calls; zero means the default quota.
	RequestsPerSecond float64
}

// NewFromEnv creates a client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Options{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: file,
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		tabs:          withDefaults(opts.Tabs),
		limiter:       newLimiter(opts.RequestsPerSecond),
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst)
	}
	burst := int(rps) * 2
	if burst < 2 {
		burst = 2
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case opts.CredentialsJSON != "":
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func withDefaults(t ports.TabNames) ports.TabNames {
	d := ports.DefaultTabNames()
	if t.Income == "" {
		t.Income = d.Income
	}
	if t.Expenses == "" {
		t.Expenses = d.Expenses
	}
	if t.Transfers == "" {
		t.Transfers = d.Transfers
	}
	if t.Balances == "" {
		t.Balances = d.Balances
	}
	return t
}

// WriteSnapshot clears every tab and writes the snapshot, tabs in
// parallel. A failed tab does not undo the others.
func (c *Client) WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, table := range ports.BuildTables(snap, c.tabs) {
		table := table
		g.Go(func() error { return c.writeTable(gctx, table) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger mirrored to Google Sheets",
		"income", len(snap.Income),
		"expenses", len(snap.Expenses),
		"transfers", len(snap.Transfers))
	return nil
}

func (c *Client) writeTable(ctx context.Context, t ports.Table) error {
	rng := sheetRange(t.Name)
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: t.Values()}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetRange(t.Name)+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	return nil
}

// sheetRange quotes a tab name for A1 notation.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
