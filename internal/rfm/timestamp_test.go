package rfm

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2018-11-15T02:18:49Z", time.Date(2018, 11, 15, 2, 18, 49, 0, time.UTC)},
		{"2018-11-15T02:18:49.250Z", time.Date(2018, 11, 15, 2, 18, 49, 250e6, time.UTC)},
		{"2018-11-15 02:18:49+01:00", time.Date(2018, 11, 15, 1, 18, 49, 0, time.UTC)},
		{"2018-11-15 02:18:49", time.Date(2018, 11, 15, 2, 18, 49, 0, time.UTC)},
		{"2018-11-15T02:18", time.Date(2018, 11, 15, 2, 18, 0, 0, time.UTC)},
		{"2018-11-15", time.Date(2018, 11, 15, 0, 0, 0, 0, time.UTC)},
		{"  2018-11-15  ", time.Date(2018, 11, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in, time.UTC, DefaultTimeLayouts)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "15/11/2018", "yesterday"} {
		if _, err := parseTimestamp(in, time.UTC, DefaultTimeLayouts); err == nil {
			t.Errorf("parseTimestamp(%q) expected error", in)
		}
	}
}
