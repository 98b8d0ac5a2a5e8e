// Package period selects the entries that fall inside a calendar window.
//
// Calendar arithmetic happens in the location of the reference date, so a
// caller that wants local-time days passes a local reference. Entry dates
// are compared as instants.
package period

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pennywise/internal/core"
)

type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
	Custom  Kind = "custom"
	AllTime Kind = "allTime"
)

var (
	ErrInvalidKind  = errors.New("invalid period")
	ErrNoReference  = errors.New("missing reference date")
	ErrInvalidRange = errors.New("invalid custom range")
)

const (
	monthKeyLayout   = "2006-01"
	customDateLayout = "Jan 2, 2006"
)

var kinds = []Kind{Daily, Weekly, Monthly, Yearly, Custom, AllTime}

// Kinds lists every period kind.
func Kinds() []Kind { return slices.Clone(kinds) }

// ParseKind is case-insensitive and also accepts "all" and "all-time".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	case "custom":
		return Custom, nil
	case "alltime", "all", "all-time":
		return AllTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Window is an inclusive time range. An unbounded window matches every
// dated entry.
type Window struct {
	From, To  time.Time
	Unbounded bool
}

// Contains reports whether t lies inside the window. The zero time never
// matches.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if w.Unbounded {
		return true
	}
	return !t.Before(w.From) && !t.After(w.To)
}

// Selection is a period choice as made by a user.
type Selection struct {
	Kind      Kind
	Reference time.Time
	// Start and End bound a Custom selection.
	Start, End time.Time
}

// Window resolves the selection. A Custom selection with a missing bound or
// with Start on a later day than End yields ErrInvalidRange. Custom days are
// counted in Start's location.
func (s Selection) Window() (Window, error) {
	switch s.Kind {
	case AllTime:
		return Window{Unbounded: true}, nil
	case Custom:
		if s.Start.IsZero() || s.End.IsZero() {
			return Window{}, ErrInvalidRange
		}
		from, to := startOfDay(s.Start), startOfDay(s.End.In(s.Start.Location()))
		if from.After(to) {
			return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
				from.Format(time.DateOnly), to.Format(time.DateOnly))
		}
		return Window{From: from, To: endOf(to.AddDate(0, 0, 1))}, nil
	case Daily, Weekly, Monthly, Yearly:
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidKind, s.Kind)
	}

	if s.Reference.IsZero() {
		return Window{}, ErrNoReference
	}
	ref := s.Reference
	switch s.Kind {
	case Daily:
		from := startOfDay(ref)
		return Window{From: from, To: endOf(from.AddDate(0, 0, 1))}, nil
	case Weekly:
		from := StartOfWeek(ref)
		return Window{From: from, To: endOf(from.AddDate(0, 0, 7))}, nil
	case Monthly:
		from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return Window{From: from, To: endOf(from.AddDate(0, 1, 0))}, nil
	default:
		from := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
		return Window{From: from, To: endOf(from.AddDate(1, 0, 0))}, nil
	}
}

// Label renders the selection for headings, e.g. "Week of March 4".
func (s Selection) Label() string {
	switch s.Kind {
	case Daily:
		return s.Reference.Format("January 2, 2006")
	case Weekly:
		return "Week of " + StartOfWeek(s.Reference).Format("January 2")
	case Monthly:
		return s.Reference.Format("January 2006")
	case Yearly:
		return s.Reference.Format("2006")
	case Custom:
		if s.Start.IsZero() || s.End.IsZero() {
			return "Custom range"
		}
		return s.Start.Format(customDateLayout) + " - " + s.End.Format(customDateLayout)
	case AllTime:
		return "All Time"
	}
	return string(s.Kind)
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOf returns the last representable instant before next.
func endOf(next time.Time) time.Time { return next.Add(-time.Nanosecond) }

// Filter keeps the entries inside sel's window, in their original order. An
// unresolvable selection matches nothing.
func Filter[E core.Dated](entries []E, sel Selection) []E {
	w, err := sel.Window()
	if err != nil {
		return []E{}
	}
	return within(entries, w.Contains)
}

// ByPeriod filters by one of the reference-anchored kinds.
func ByPeriod[E core.Dated](entries []E, kind Kind, reference time.Time) []E {
	return Filter(entries, Selection{Kind: kind, Reference: reference})
}

// ByCustomRange keeps entries from the start of start's day to the end of
// end's day.
func ByCustomRange[E core.Dated](entries []E, start, end time.Time) []E {
	return Filter(entries, Selection{Kind: Custom, Start: start, End: end})
}

// BySpecificMonth matches on the calendar year and month of anchor.
func BySpecificMonth[E core.Dated](entries []E, anchor time.Time) []E {
	if anchor.IsZero() {
		return []E{}
	}
	y, m := anchor.Year(), anchor.Month()
	loc := anchor.Location()
	return within(entries, func(t time.Time) bool {
		if t.IsZero() {
			return false
		}
		t = t.In(loc)
		return t.Year() == y && t.Month() == m
	})
}

// BySpecificYear matches on the calendar year of anchor.
func BySpecificYear[E core.Dated](entries []E, anchor time.Time) []E {
	if anchor.IsZero() {
		return []E{}
	}
	y, loc := anchor.Year(), anchor.Location()
	return within(entries, func(t time.Time) bool {
		return !t.IsZero() && t.In(loc).Year() == y
	})
}

func within[E core.Dated](entries []E, keep func(time.Time) bool) []E {
	out := make([]E, 0, len(entries))
	for _, e := range entries {
		if keep(e.EntryDate()) {
			out = append(out, e)
		}
	}
	return out
}

// MonthsWithData lists the distinct "yyyy-MM" months that have at least one
// income or expense entry, newest first. Months are taken in loc.
func MonthsWithData(income []core.IncomeEntry, expenses []core.ExpenseEntry, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	seen := map[string]struct{}{}
	add := func(t time.Time) {
		if !t.IsZero() {
			seen[t.In(loc).Format(monthKeyLayout)] = struct{}{}
		}
	}
	for _, e := range income {
		add(e.Date)
	}
	for _, e := range expenses {
		add(e.Date)
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	slices.Sort(months)
	slices.Reverse(months)
	return months
}

// ParseMonth reads a "yyyy-MM" key as the first day of that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(monthKeyLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}
