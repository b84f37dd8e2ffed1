package cloudsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
	}{
		{"time value", want},
		{"rfc3339", "2025-03-01T10:30:00Z"},
		{"rfc3339 nano", "2025-03-01T10:30:00.000Z"},
		{"sqlite text", "2025-03-01 10:30:00"},
		{"iso without zone", "2025-03-01T10:30:00"},
		{"unix seconds", want.Unix()},
		{"unix millis", want.UnixMilli()},
		{"bytes", []byte("2025-03-01 10:30:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.in)
			assert.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestamp_Unreadable(t *testing.T) {
	for _, in := range []any{nil, "", "yesterday", time.Time{}, true} {
		_, ok := parseTimestamp(in)
		assert.False(t, ok, "%v", in)
	}
}

func TestCompareTimestamps(t *testing.T) {
	cmp, ok := compareTimestamps("2025-03-02 10:00:00", "2025-03-01T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 1, cmp)

	cmp, ok = compareTimestamps("2025-03-01 10:00:00", "2025-03-01T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 0, cmp)

	_, ok = compareTimestamps("2025-03-01 10:00:00", nil)
	assert.False(t, ok)
}
