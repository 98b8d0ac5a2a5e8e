package cli

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/period"
)

// periodFlags selects the time range a command works on. -month and -year
// pick a specific calendar month or year; -from/-to a custom range;
// otherwise -period relative to -date.
type periodFlags struct {
	period string
	date   string
	from   string
	to     string
	month  string
	year   string
}

func (p *periodFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.period, "period", string(period.Monthly), "Period: daily, weekly, monthly, yearly or allTime.")
	f.StringVar(&p.date, "date", "", "Reference date for -period. Defaults to today.")
	f.StringVar(&p.from, "from", "", "Start of a custom range (inclusive).")
	f.StringVar(&p.to, "to", "", "End of a custom range (inclusive).")
	f.StringVar(&p.month, "month", "", "A specific month, as YYYY-MM.")
	f.StringVar(&p.year, "year", "", "A specific year, as YYYY.")
}

// window is a resolved period choice.
type window struct {
	label string
	month time.Time
	year  time.Time
	sel   period.Selection
}

func (p *periodFlags) window(a *App) (window, error) {
	loc := a.location()
	switch {
	case p.month != "":
		m, err := period.ParseMonth(p.month, loc)
		if err != nil {
			return window{}, usagef("invalid -month %q, want YYYY-MM", p.month)
		}
		return window{label: m.Format("January 2006"), month: m}, nil
	case p.year != "":
		y, err := strconv.Atoi(strings.TrimSpace(p.year))
		if err != nil || y < 1 {
			return window{}, usagef("invalid -year %q", p.year)
		}
		anchor := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return window{label: strconv.Itoa(y), year: anchor}, nil
	case p.from != "" || p.to != "":
		start, err := p.parse(p.from, loc)
		if err != nil {
			return window{}, usagef("invalid -from %q", p.from)
		}
		end, err := p.parse(p.to, loc)
		if err != nil {
			return window{}, usagef("invalid -to %q", p.to)
		}
		sel := period.Selection{Kind: period.Custom, Start: start, End: end}
		if _, err := sel.Window(); err != nil {
			return window{}, usagef("%v", err)
		}
		return window{label: sel.Label(), sel: sel}, nil
	}

	kind, err := period.ParseKind(p.period)
	if err != nil {
		return window{}, usagef("%v", err)
	}
	if kind == period.Custom {
		return window{}, usagef("custom periods need -from and -to")
	}
	ref := a.Now().In(loc)
	if p.date != "" {
		if ref, err = p.parse(p.date, loc); err != nil {
			return window{}, usagef("invalid -date %q", p.date)
		}
	}
	sel := period.Selection{Kind: kind, Reference: ref}
	return window{label: sel.Label(), sel: sel}, nil
}

// parse reads a date in loc and keeps it there, so calendar boundaries are
// those of the configured zone.
func (p *periodFlags) parse(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDateIn(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func apply[E core.Dated](w window, entries []E) []E {
	switch {
	case !w.month.IsZero():
		return period.BySpecificMonth(entries, w.month)
	case !w.year.IsZero():
		return period.BySpecificYear(entries, w.year)
	default:
		return period.Filter(entries, w.sel)
	}
}
