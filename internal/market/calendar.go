package market

import "time"

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// nextBusinessDay returns the next weekday after t, preserving clock time.
func nextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for !isBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// isQuarterEnd reports whether t is the last trading day of March, June,
// September or December, the days dividends go out.
func isQuarterEnd(t time.Time) bool {
	switch t.Month() {
	case time.March, time.June, time.September, time.December:
	default:
		return false
	}
	if !isBusinessDay(t) {
		return false
	}
	return nextBusinessDay(t).Month() != t.Month()
}
