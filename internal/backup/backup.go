// Package backup reads and writes the ledger's JSON backup file.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// ErrMalformedImportFile rejects a whole backup file before any entry is
// looked at.
var ErrMalformedImportFile = errors.New("malformed import file")

// maxFileSize bounds how much of an import is read.
const maxFileSize = 64 << 20

// File is the on-disk backup format.
type File struct {
	IncomeEntries   []IncomeRecord   `json:"incomeEntries"`
	ExpenseEntries  []ExpenseRecord  `json:"expenseEntries"`
	TransferEntries []TransferRecord `json:"transferEntries"`
	ExportedAt      string           `json:"exportedAt"`
}

type IncomeRecord struct {
	ID          string      `json:"id"`
	Amount      core.Money  `json:"amount"`
	Source      core.Source `json:"source"`
	Subcategory string      `json:"subcategory"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

type ExpenseRecord struct {
	ID          string      `json:"id"`
	Amount      core.Money  `json:"amount"`
	Category    string      `json:"category"`
	Subcategory string      `json:"subcategory"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Source      core.Source `json:"source"`
}

type TransferRecord struct {
	ID          string      `json:"id"`
	Amount      core.Money  `json:"amount"`
	FromSource  core.Source `json:"fromSource"`
	ToSource    core.Source `json:"toSource"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

// Export captures the ledger's current state.
func Export(snap ledger.Snapshot, now time.Time) File {
	f := File{
		IncomeEntries:   make([]IncomeRecord, 0, len(snap.Income)),
		ExpenseEntries:  make([]ExpenseRecord, 0, len(snap.Expenses)),
		TransferEntries: make([]TransferRecord, 0, len(snap.Transfers)),
		ExportedAt:      core.FormatDate(now),
	}
	for _, e := range snap.Income {
		f.IncomeEntries = append(f.IncomeEntries, IncomeRecord{
			ID: e.ID, Amount: e.Amount, Source: e.Source, Subcategory: e.Subcategory,
			Description: e.Description, Date: core.FormatDate(e.Date),
		})
	}
	for _, e := range snap.Expenses {
		f.ExpenseEntries = append(f.ExpenseEntries, ExpenseRecord{
			ID: e.ID, Amount: e.Amount, Category: e.Category, Subcategory: e.Subcategory,
			Description: e.Description, Date: core.FormatDate(e.Date), Source: e.Source,
		})
	}
	for _, e := range snap.Transfers {
		f.TransferEntries = append(f.TransferEntries, TransferRecord{
			ID: e.ID, Amount: e.Amount, FromSource: e.FromSource, ToSource: e.ToSource,
			Date: core.FormatDate(e.Date), Description: e.Description,
		})
	}
	return f
}

// Write encodes f with two-space indentation.
func Write(w io.Writer, f File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// FileName is the suggested name of a backup taken at now.
func FileName(now time.Time) string {
	return "pennywise_backup_" + now.Format("20060102_150405") + ".json"
}

// Rejection is a record dropped from an import.
type Rejection struct {
	Index  int
	Result core.Result
}

// Decoded is the content of a backup file that passed the file-level check.
// Records failing the per-record schema are already left out and listed in
// the rejection fields.
type Decoded struct {
	Income    []core.IncomeEntry
	Expenses  []core.ExpenseEntry
	Transfers []core.TransferEntry
	// ExportedAt is zero when the file did not carry a readable timestamp.
	ExportedAt time.Time

	RejectedIncome    []Rejection
	RejectedExpenses  []Rejection
	RejectedTransfers []Rejection
}

// Decode reads a backup file. Dates without a zone are read in loc, UTC when
// loc is nil. It fails with ErrMalformedImportFile when the file is not JSON
// or any of the three entry arrays is missing.
func Decode(r io.Reader, loc *time.Location) (*Decoded, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImportFile, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedImportFile)
	}

	var arrays [3][]json.RawMessage
	for i, name := range []string{"incomeEntries", "expenseEntries", "transferEntries"} {
		raw, ok := top[name]
		if !ok || isNull(raw) {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedImportFile, name)
		}
		if err := json.Unmarshal(raw, &arrays[i]); err != nil {
			return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedImportFile, name)
		}
	}

	d := &Decoded{}
	d.Income, d.RejectedIncome = decodeRecords(arrays[0], incomeSchema, loc, func(r IncomeRecord, date time.Time) core.IncomeEntry {
		return core.IncomeEntry{ID: r.ID, Amount: r.Amount, Source: r.Source, Subcategory: r.Subcategory, Description: r.Description, Date: date}
	})
	d.Expenses, d.RejectedExpenses = decodeRecords(arrays[1], expenseSchema, loc, func(r ExpenseRecord, date time.Time) core.ExpenseEntry {
		return core.ExpenseEntry{ID: r.ID, Amount: r.Amount, Category: r.Category, Subcategory: r.Subcategory, Description: r.Description, Date: date, Source: r.Source}
	})
	d.Transfers, d.RejectedTransfers = decodeRecords(arrays[2], transferSchema, loc, func(r TransferRecord, date time.Time) core.TransferEntry {
		return core.TransferEntry{ID: r.ID, Amount: r.Amount, FromSource: r.FromSource, ToSource: r.ToSource, Date: date, Description: r.Description}
	})

	if raw, ok := top["exportedAt"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			d.ExportedAt, _ = core.ParseDateIn(s, loc)
		}
	}
	return d, nil
}

// Rejected is the number of records that failed the schema.
func (d *Decoded) Rejected() int {
	return len(d.RejectedIncome) + len(d.RejectedExpenses) + len(d.RejectedTransfers)
}

type record interface {
	IncomeRecord | ExpenseRecord | TransferRecord
}

func recordDate[R record](r R) string {
	switch v := any(r).(type) {
	case IncomeRecord:
		return v.Date
	case ExpenseRecord:
		return v.Date
	case TransferRecord:
		return v.Date
	}
	return ""
}

func decodeRecords[R record, E core.Entry](raw []json.RawMessage, s schema, loc *time.Location, build func(R, time.Time) E) ([]E, []Rejection) {
	entries := make([]E, 0, len(raw))
	var rejected []Rejection
	for i, item := range raw {
		res := s.check(item)
		var rec R
		if res.Valid() {
			if err := json.Unmarshal(item, &rec); err != nil {
				res.Issues = append(res.Issues, core.Issue{Err: core.ErrWrongType})
			}
		}
		if !res.Valid() {
			rejected = append(rejected, Rejection{Index: i, Result: res})
			continue
		}
		// The schema already proved the date parses.
		date, _ := core.ParseDateIn(recordDate(rec), loc)
		entries = append(entries, build(rec, date))
	}
	return entries, rejected
}

// Counts reports how many records of one kind were kept and dropped.
type Counts struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type Report struct {
	Income    Counts `json:"income"`
	Expenses  Counts `json:"expenses"`
	Transfers Counts `json:"transfers"`
}

// Rejected is the number of records dropped over all three kinds.
func (r Report) Rejected() int {
	return r.Income.Rejected + r.Expenses.Rejected + r.Transfers.Rejected
}

// Import replaces the ledger's three collections with the valid records of
// the backup in r, reading zoneless dates in loc. A malformed file leaves
// the ledger untouched.
func Import(ctx context.Context, l *ledger.Ledger, r io.Reader, loc *time.Location) (Report, error) {
	d, err := Decode(r, loc)
	if err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return Apply(ctx, l, d), nil
}

// Apply replaces the ledger's collections with decoded content.
func Apply(ctx context.Context, l *ledger.Ledger, d *Decoded) Report {
	in := l.ReplaceAllIncome(ctx, d.Income)
	ex := l.ReplaceAllExpenses(ctx, d.Expenses)
	tr := l.ReplaceAllTransfers(ctx, d.Transfers)
	return Report{
		Income:    Counts{Accepted: len(in.Accepted), Rejected: len(d.RejectedIncome) + in.RejectedCount()},
		Expenses:  Counts{Accepted: len(ex.Accepted), Rejected: len(d.RejectedExpenses) + ex.RejectedCount()},
		Transfers: Counts{Accepted: len(tr.Accepted), Rejected: len(d.RejectedTransfers) + tr.RejectedCount()},
	}
}
