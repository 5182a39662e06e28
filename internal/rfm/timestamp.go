package rfm

import (
	"errors"
	"strings"
	"time"
)

// DefaultTimeLayouts are tried in order when TransactionStartTime arrives as text.
// Fractional seconds are accepted after the seconds field by every layout.
var DefaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errEmptyTimestamp = errors.New("empty value")

// parseTimestamp parses s with the first matching layout. Values without an
// offset are interpreted in loc. The result is always UTC.
func parseTimestamp(s string, loc *time.Location, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// wallClockIn reinterprets the wall clock of a UTC time as a wall clock in loc.
// Used for Arrow timestamps without a time zone.
func wallClockIn(t time.Time, loc *time.Location) time.Time {
	if loc == time.UTC {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC()
}
