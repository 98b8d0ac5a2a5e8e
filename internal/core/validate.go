package core

import (
	"errors"
	"fmt"
	"strings"
)

// Issue is one failed rule on one field.
type Issue struct {
	Field string
	Err   error
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Err.Error()
	}
	return i.Field + ": " + i.Err.Error()
}

// Result is the outcome of validating one record.
type Result struct {
	Kind   Kind
	Issues []Issue
}

func (r Result) Valid() bool { return len(r.Issues) == 0 }

// Err returns nil for a valid result, a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Kind: r.Kind, Issues: r.Issues}
}

// ValidationError reports every issue found on a record. It matches
// ErrValidation and each issue's error with errors.Is.
type ValidationError struct {
	Kind   Kind
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("invalid %s entry: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, is := range e.Issues {
		errs[i] = is.Err
	}
	return errs
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Rule is a named constraint on one field. Check returns true when the
// record satisfies it.
type Rule[T any] struct {
	Field string
	Err   error
	Check func(T) bool
}

// Validator is the enumerated rule set for one record type.
type Validator[T any] struct {
	Kind  Kind
	Rules []Rule[T]
}

// Validate runs every rule and collects all failures.
func (v Validator[T]) Validate(x T) Result {
	res := Result{Kind: v.Kind}
	for _, r := range v.Rules {
		if !r.Check(x) {
			res.Issues = append(res.Issues, Issue{Field: r.Field, Err: r.Err})
		}
	}
	return res
}

func nonEmpty(s string) bool { return strings.TrimSpace(s) != "" }

var IncomeValidator = Validator[IncomeEntry]{
	Kind: KindIncome,
	Rules: []Rule[IncomeEntry]{
		{Field: "id", Err: ErrEmptyID, Check: func(e IncomeEntry) bool { return nonEmpty(e.ID) }},
		{Field: "amount", Err: ErrInvalidAmount, Check: func(e IncomeEntry) bool { return e.Amount.IsPositive() }},
		{Field: "source", Err: ErrInvalidSource, Check: func(e IncomeEntry) bool { return e.Source.Valid() }},
		{Field: "date", Err: ErrInvalidDate, Check: func(e IncomeEntry) bool { return !e.Date.IsZero() }},
	},
}

var ExpenseValidator = Validator[ExpenseEntry]{
	Kind: KindExpense,
	Rules: []Rule[ExpenseEntry]{
		{Field: "id", Err: ErrEmptyID, Check: func(e ExpenseEntry) bool { return nonEmpty(e.ID) }},
		{Field: "amount", Err: ErrInvalidAmount, Check: func(e ExpenseEntry) bool { return e.Amount.IsPositive() }},
		{Field: "category", Err: ErrEmptyCategory, Check: func(e ExpenseEntry) bool { return nonEmpty(e.Category) }},
		{Field: "source", Err: ErrInvalidSource, Check: func(e ExpenseEntry) bool { return e.Source.Valid() }},
		{Field: "date", Err: ErrInvalidDate, Check: func(e ExpenseEntry) bool { return !e.Date.IsZero() }},
	},
}

var TransferValidator = Validator[TransferEntry]{
	Kind: KindTransfer,
	Rules: []Rule[TransferEntry]{
		{Field: "id", Err: ErrEmptyID, Check: func(e TransferEntry) bool { return nonEmpty(e.ID) }},
		{Field: "amount", Err: ErrInvalidAmount, Check: func(e TransferEntry) bool { return e.Amount.IsPositive() }},
		{Field: "fromSource", Err: ErrInvalidSource, Check: func(e TransferEntry) bool { return e.FromSource.Valid() }},
		{Field: "toSource", Err: ErrInvalidSource, Check: func(e TransferEntry) bool { return e.ToSource.Valid() }},
		{Field: "toSource", Err: ErrSameSource, Check: func(e TransferEntry) bool { return e.FromSource != e.ToSource }},
		{Field: "date", Err: ErrInvalidDate, Check: func(e TransferEntry) bool { return !e.Date.IsZero() }},
	},
}
