package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime_Roundtrip(t *testing.T) {
	want := time.Date(2025, time.September, 10, 12, 30, 0, 0, time.UTC)
	got := parseTime(formatTime(want))
	assert.True(t, got.Equal(want))
}

func TestParseTime_CorruptedCellYieldsZeroTime(t *testing.T) {
	// A corrupted timestamp cell must not abort a scan; it degrades to the
	// zero time and is logged for tracing.
	got := parseTime("not-a-timestamp")
	assert.True(t, got.IsZero())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
