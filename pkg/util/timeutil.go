package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatEmailTimestamp renders the timestamp shown in the summary email.
// If raw parses as RFC 3339 it is reformatted; otherwise it is shown as-is
// so caller-supplied display strings survive untouched.
func FormatEmailTimestamp(raw string, fallback time.Time) string {
	if raw == "" {
		return fallback.Format("Jan 2, 2006 at 15:04 MST")
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.Format("Jan 2, 2006 at 15:04 MST")
	}
	return raw
}
