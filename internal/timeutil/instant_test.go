package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Time() time.Time { return f.at }

func TestToInstantNil(t *testing.T) {
	_, ok := ToInstant(nil)
	assert.False(t, ok)
}

func TestToInstantConvertible(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	got, ok := ToInstant(fixedClock{at: at})
	require.True(t, ok)
	assert.Equal(t, at, got)
}

func TestToInstantNativeTime(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := ToInstant(at)
	require.True(t, ok)
	assert.Equal(t, at, got)

	got, ok = ToInstant(&at)
	require.True(t, ok)
	assert.Equal(t, at, got)

	var absent *time.Time
	_, ok = ToInstant(absent)
	assert.False(t, ok)
}

func TestToInstantEpochSeconds(t *testing.T) {
	got, ok := ToInstant(int64(1700000000))
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000*1000).UTC(), got)
}

func TestToInstantEpochMillis(t *testing.T) {
	got, ok := ToInstant(int64(1700000000000))
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), got)
}

func TestToInstantEpochBoundary(t *testing.T) {
	// 999999999999 sits below the millisecond floor and is scaled as seconds;
	// one more and the value is already milliseconds.
	below, ok := ToInstant(int64(999999999999))
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(999999999999000).UTC(), below)

	at, ok := ToInstant(int64(1000000000000))
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1000000000000).UTC(), at)

	assert.NotEqual(t, below, at)
}

func TestToInstantSecondsScaleToMillis(t *testing.T) {
	secs, ok := ToInstant(int64(1700000000))
	require.True(t, ok)
	millis, ok := ToInstant(int64(1700000000000))
	require.True(t, ok)
	assert.Equal(t, secs, millis)
}

func TestToInstantJSONNumber(t *testing.T) {
	got, ok := ToInstant(json.Number("1700000000"))
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), got)

	_, ok = ToInstant(json.Number("not-a-number"))
	assert.False(t, ok)
}

func TestToInstantStrings(t *testing.T) {
	got, ok := ToInstant("2025-03-01T12:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), got)

	got, ok = ToInstant("2025-03-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = ToInstant("not-a-date")
	assert.False(t, ok)
}

func TestToInstantUnsupportedType(t *testing.T) {
	_, ok := ToInstant(struct{ X int }{X: 1})
	assert.False(t, ok)
}
