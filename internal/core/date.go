package core

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalDateFormat is how entry dates are written to storage and backups.
const CanonicalDateFormat = "2006-01-02T15:04:05.000Z07:00"

// Layouts accepted when reading dates, most specific first. Layouts without an
// offset are interpreted in the caller's location.
var dateLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

// ParseDate parses an ISO-8601 date or timestamp, reading zone-less values in
// the local time zone.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn parses an ISO-8601 date or timestamp, reading zone-less values
// in loc. The result is always in UTC.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders t in the canonical storage representation.
func FormatDate(t time.Time) string {
	return t.UTC().Format(CanonicalDateFormat)
}
