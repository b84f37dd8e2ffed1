package cloudsync

import (
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts the shapes a row's last-modified column comes back
// in from either side: driver time values, SQLite text and unix epochs.
// Integers above 1e12 are read as milliseconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		return parseTimestampString(t)
	case []byte:
		return parseTimestampString(string(t))
	case int64:
		return fromEpoch(t), t > 0
	case int:
		return fromEpoch(int64(t)), t > 0
	case int32:
		return fromEpoch(int64(t)), t > 0
	case float64:
		return fromEpoch(int64(t)), t > 0
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return fromEpoch(n), true
	}
	return time.Time{}, false
}

func fromEpoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// compareTimestamps returns -1, 0 or 1 as a is older, equal or newer than b.
// ok is false when either side cannot be read, which callers treat as a tie.
func compareTimestamps(a, b any) (cmp int, ok bool) {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	if !okA || !okB {
		return 0, false
	}
	return ta.Compare(tb), true
}
