package market

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 21, 0, 0, 0, time.UTC)
}

func TestNextBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"midweek steps one day", day(2026, time.March, 25), day(2026, time.March, 26)},
		{"friday skips to monday", day(2026, time.March, 27), day(2026, time.March, 30)},
		{"saturday skips to monday", day(2026, time.March, 28), day(2026, time.March, 30)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := nextBusinessDay(tc.from)
			if !got.Equal(tc.want) {
				t.Fatalf("next business day after %s = %s, want %s", tc.from, got, tc.want)
			}
			if got.Hour() != tc.from.Hour() {
				t.Fatalf("clock time not preserved: %s", got)
			}
		})
	}
}

func TestIsQuarterEnd(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"last trading day of march", day(2026, time.March, 31), true},
		{"tuesday march 31 2026", day(2026, time.March, 31), true},
		{"tuesday june 30 2026", day(2026, time.June, 30), true},
		{"dec 31 2027 falls on friday", day(2027, time.December, 31), true},
		{"mid quarter weekday", day(2026, time.March, 30), false},
		{"month end outside dividend months", day(2026, time.April, 30), false},
		{"weekend month end", day(2028, time.December, 31), false},
		{"dec 29 2028 friday closes the quarter", day(2028, time.December, 29), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isQuarterEnd(tc.t); got != tc.want {
				t.Fatalf("isQuarterEnd(%s) = %v, want %v", tc.t.Format("2006-01-02 Mon"), got, tc.want)
			}
		})
	}
}
