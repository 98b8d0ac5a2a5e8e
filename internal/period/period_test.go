package period

import (
	"errors"
	"slices"
	"testing"
	"time"

	"pennywise/internal/core"
)

type dated struct {
	name string
	at   time.Time
}

func (d dated) EntryDate() time.Time { return d.at }

func names(ds []dated) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.name
	}
	return out
}

func utc(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

func TestBySpecificMonthAcrossYearBoundary(t *testing.T) {
	entries := []dated{
		{"jan1", utc(2024, time.January, 1, 9)},
		{"dec31", utc(2023, time.December, 31, 23)},
	}
	got := BySpecificMonth(entries, utc(2024, time.January, 15, 0))
	if !slices.Equal(names(got), []string{"jan1"}) {
		t.Fatalf("got %v", names(got))
	}
	if got := BySpecificYear(entries, utc(2023, time.June, 1, 0)); !slices.Equal(names(got), []string{"dec31"}) {
		t.Fatalf("year filter got %v", names(got))
	}
}

func TestMonthlyMatchesYearAndMonthExactly(t *testing.T) {
	ref := utc(2024, time.February, 10, 0)
	var entries []dated
	for d := utc(2023, time.December, 1, 12); d.Before(utc(2024, time.April, 1, 0)); d = d.AddDate(0, 0, 3) {
		entries = append(entries, dated{d.Format(time.DateOnly), d})
	}
	entries = append(entries, dated{"last-year-feb", utc(2023, time.February, 10, 0)})

	got := ByPeriod(entries, Monthly, ref)
	want := BySpecificMonth(entries, ref)
	if len(got) == 0 || !slices.Equal(names(got), names(want)) {
		t.Fatalf("monthly %v != specific month %v", names(got), names(want))
	}
	for _, e := range got {
		if e.at.Year() != 2024 || e.at.Month() != time.February {
			t.Fatalf("%s outside February 2024", e.name)
		}
	}
}

func TestWeekStartsOnMonday(t *testing.T) {
	// 2024-03-10 is a Sunday.
	sunday := utc(2024, time.March, 10, 15)
	if got := StartOfWeek(sunday); !got.Equal(utc(2024, time.March, 4, 0)) {
		t.Fatalf("start of week = %v", got)
	}
	entries := []dated{
		{"sun-before", utc(2024, time.March, 3, 23)},
		{"mon", utc(2024, time.March, 4, 0)},
		{"sun", utc(2024, time.March, 10, 23)},
		{"next-mon", utc(2024, time.March, 11, 0)},
	}
	if got := ByPeriod(entries, Weekly, sunday); !slices.Equal(names(got), []string{"mon", "sun"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestPeriodsNest(t *testing.T) {
	var entries []dated
	for d := utc(2023, time.December, 20, 7); d.Before(utc(2024, time.February, 10, 0)); d = d.Add(17 * time.Hour) {
		entries = append(entries, dated{d.Format(time.DateTime), d})
	}
	for _, ref := range []time.Time{
		utc(2024, time.January, 17, 10),
		utc(2024, time.January, 1, 0),
		utc(2023, time.December, 31, 22),
	} {
		daily := names(ByPeriod(entries, Daily, ref))
		weekly := names(ByPeriod(entries, Weekly, ref))
		monthly := names(ByPeriod(entries, Monthly, ref))
		yearly := names(ByPeriod(entries, Yearly, ref))
		subset(t, daily, weekly)
		subset(t, daily, monthly)
		subset(t, monthly, yearly)
		subset(t, yearly, names(ByPeriod(entries, AllTime, ref)))
	}
}

func subset(t *testing.T, inner, outer []string) {
	t.Helper()
	for _, n := range inner {
		if !slices.Contains(outer, n) {
			t.Fatalf("%s in %v but not in %v", n, inner, outer)
		}
	}
}

func TestCustomRange(t *testing.T) {
	entries := []dated{
		{"a", utc(2024, time.May, 1, 0)},
		{"b", utc(2024, time.May, 3, 23)},
		{"c", utc(2024, time.May, 4, 0)},
		{"zero", time.Time{}},
	}
	tests := []struct {
		name       string
		start, end time.Time
		want       []string
	}{
		{"inclusive days", utc(2024, time.May, 1, 18), utc(2024, time.May, 3, 1), []string{"a", "b"}},
		{"single day", utc(2024, time.May, 4, 5), utc(2024, time.May, 4, 5), []string{"c"}},
		{"inverted", utc(2024, time.May, 4, 0), utc(2024, time.May, 1, 0), nil},
		{"missing end", utc(2024, time.May, 1, 0), time.Time{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByCustomRange(entries, tt.start, tt.end)
			if got == nil {
				t.Fatalf("result must be non-nil")
			}
			if !slices.Equal(names(got), tt.want) {
				t.Fatalf("got %v want %v", names(got), tt.want)
			}
		})
	}

	_, err := Selection{Kind: Custom, Start: utc(2024, time.May, 4, 0), End: utc(2024, time.May, 1, 0)}.Window()
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange, got %v", err)
	}
}

func TestCustomRangeCountsDaysInStartLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, est)
	// March 12 02:00 UTC is still March 11 in EST.
	end := utc(2024, time.March, 12, 2)
	entries := []dated{
		{"in", utc(2024, time.March, 12, 1)},
		{"next day", utc(2024, time.March, 12, 6)},
	}
	if got := ByCustomRange(entries, start, end); !slices.Equal(names(got), []string{"in"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestFilterPreservesOrderAndSkipsZeroDates(t *testing.T) {
	entries := []dated{
		{"late", utc(2024, time.June, 30, 0)},
		{"zero", time.Time{}},
		{"early", utc(2024, time.June, 1, 0)},
	}
	if got := ByPeriod(entries, AllTime, time.Time{}); !slices.Equal(names(got), []string{"late", "early"}) {
		t.Fatalf("got %v", names(got))
	}
	if got := ByPeriod(entries, Monthly, time.Time{}); len(got) != 0 {
		t.Fatalf("missing reference should match nothing, got %v", names(got))
	}
}

func TestCalendarUsesReferenceLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 2024-01-31 20:00 UTC is already February 1 in IST.
	entries := []dated{{"edge", utc(2024, time.January, 31, 20)}}
	if got := ByPeriod(entries, Monthly, time.Date(2024, time.February, 5, 0, 0, 0, 0, ist)); len(got) != 1 {
		t.Fatalf("expected entry in February IST")
	}
	if got := ByPeriod(entries, Monthly, utc(2024, time.February, 5, 0)); len(got) != 0 {
		t.Fatalf("expected entry outside February UTC")
	}
}

func TestLabel(t *testing.T) {
	ref := utc(2024, time.March, 6, 0)
	tests := []struct {
		sel  Selection
		want string
	}{
		{Selection{Kind: Daily, Reference: ref}, "March 6, 2024"},
		{Selection{Kind: Weekly, Reference: ref}, "Week of March 4"},
		{Selection{Kind: Monthly, Reference: ref}, "March 2024"},
		{Selection{Kind: Yearly, Reference: ref}, "2024"},
		{Selection{Kind: Custom, Start: ref, End: ref.AddDate(0, 1, 0)}, "Mar 6, 2024 - Apr 6, 2024"},
		{Selection{Kind: AllTime}, "All Time"},
	}
	for _, tt := range tests {
		if got := tt.sel.Label(); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.sel.Kind, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"Weekly": Weekly, "all": AllTime, "allTime": AllTime, " month ": Monthly} {
		if got, err := ParseKind(in); err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("fortnightly"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("want ErrInvalidKind, got %v", err)
	}
}

func TestMonthsWithData(t *testing.T) {
	income := []core.IncomeEntry{{Date: utc(2024, time.January, 5, 0)}, {Date: utc(2023, time.December, 1, 0)}}
	expenses := []core.ExpenseEntry{{Date: utc(2024, time.March, 2, 0)}, {Date: utc(2024, time.January, 20, 0)}}
	got := MonthsWithData(income, expenses, time.UTC)
	if !slices.Equal(got, []string{"2024-03", "2024-01", "2023-12"}) {
		t.Fatalf("got %v", got)
	}
	m, err := ParseMonth(got[0], time.UTC)
	if err != nil || !m.Equal(utc(2024, time.March, 1, 0)) {
		t.Fatalf("ParseMonth = %v, %v", m, err)
	}
}
