package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Wallet Source = "wallet"
	Bank   Source = "bank"
)

const (
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

type (
	// Source identifies one of the two money pools.
	Source string

	// Kind names one of the three entry collections.
	Kind string

	IncomeEntry struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Source      Source    `json:"source"`
		Subcategory string    `json:"subcategory"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
	}

	ExpenseEntry struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Subcategory string    `json:"subcategory"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		Source      Source    `json:"source"`
	}

	TransferEntry struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		FromSource  Source    `json:"fromSource"`
		ToSource    Source    `json:"toSource"`
		Date        time.Time `json:"date"`
		Description string    `json:"description"`
	}

	// Drafts carry every field of an entry except its ID. They are the input
	// of add and update; optional strings left empty stay empty.
	IncomeDraft struct {
		Amount      Money
		Source      Source
		Subcategory string
		Description string
		Date        time.Time
	}

	ExpenseDraft struct {
		Amount      Money
		Category    string
		Subcategory string
		Description string
		Date        time.Time
		Source      Source
	}

	TransferDraft struct {
		Amount      Money
		FromSource  Source
		ToSource    Source
		Date        time.Time
		Description string
	}
)

// Dated is implemented by anything placed on the calendar.
type Dated interface {
	EntryDate() time.Time
}

// Amounted is implemented by anything carrying an amount.
type Amounted interface {
	EntryAmount() Money
}

// Entry is the common view of income, expense and transfer entries.
type Entry interface {
	Dated
	Amounted
	EntryID() string
}

var (
	ErrValidation    = errors.New("validation failed")
	ErrEmptyID       = errors.New("empty id")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidSource = errors.New("invalid source")
	ErrSameSource    = errors.New("transfer source and destination must differ")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidKind   = errors.New("invalid entry kind")
	ErrMissingField  = errors.New("missing required field")
	ErrWrongType     = errors.New("wrong field type")
)

// ParseSource accepts "wallet" or "bank", case-insensitively.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
	return src, nil
}

func (s Source) Valid() bool {
	return s == Wallet || s == Bank
}

// Label returns the capitalised display name ("Wallet", "Bank").
func (s Source) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Source) String() string { return string(s) }

// Sources lists the pools in display order.
func Sources() []Source { return []Source{Wallet, Bank} }

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIncome, KindExpense, KindTransfer:
		return k, nil
	case "expenses":
		return KindExpense, nil
	case "transfers":
		return KindTransfer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) String() string { return string(k) }

func (e IncomeEntry) EntryID() string        { return e.ID }
func (e IncomeEntry) EntryDate() time.Time   { return e.Date }
func (e IncomeEntry) EntryAmount() Money     { return e.Amount }
func (e ExpenseEntry) EntryID() string       { return e.ID }
func (e ExpenseEntry) EntryDate() time.Time  { return e.Date }
func (e ExpenseEntry) EntryAmount() Money    { return e.Amount }
func (e TransferEntry) EntryID() string      { return e.ID }
func (e TransferEntry) EntryDate() time.Time { return e.Date }
func (e TransferEntry) EntryAmount() Money   { return e.Amount }

// WithID builds the stored entry for this draft.
func (d IncomeDraft) WithID(id string) IncomeEntry {
	return IncomeEntry{
		ID:          id,
		Amount:      d.Amount,
		Source:      d.Source,
		Subcategory: d.Subcategory,
		Description: d.Description,
		Date:        d.Date.UTC(),
	}
}

func (d ExpenseDraft) WithID(id string) ExpenseEntry {
	return ExpenseEntry{
		ID:          id,
		Amount:      d.Amount,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		Description: d.Description,
		Date:        d.Date.UTC(),
		Source:      d.Source,
	}
}

func (d TransferDraft) WithID(id string) TransferEntry {
	return TransferEntry{
		ID:          id,
		Amount:      d.Amount,
		FromSource:  d.FromSource,
		ToSource:    d.ToSource,
		Date:        d.Date.UTC(),
		Description: d.Description,
	}
}

// Draft returns the editable part of the entry.
func (e IncomeEntry) Draft() IncomeDraft {
	return IncomeDraft{Amount: e.Amount, Source: e.Source, Subcategory: e.Subcategory, Description: e.Description, Date: e.Date}
}

func (e ExpenseEntry) Draft() ExpenseDraft {
	return ExpenseDraft{Amount: e.Amount, Category: e.Category, Subcategory: e.Subcategory, Description: e.Description, Date: e.Date, Source: e.Source}
}

func (e TransferEntry) Draft() TransferDraft {
	return TransferDraft{Amount: e.Amount, FromSource: e.FromSource, ToSource: e.ToSource, Date: e.Date, Description: e.Description}
}
