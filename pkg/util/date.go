package util

import (
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC. Returns (t, true) if it worked.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as a YYYY-MM-DD calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Today returns the current UTC date truncated to midnight.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// DayFromUnixMilli converts an epoch-milliseconds timestamp to its UTC date string.
func DayFromUnixMilli(ms int64) string {
	return FormatDate(time.UnixMilli(ms))
}
