package nightscout

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

func normalizeJSON(t *testing.T, payload string, unit bloodsugar.Unit) ([]bloodsugar.Reading, NormalizeStats, error) {
	t.Helper()
	records, err := DecodeEntries([]byte(payload))
	require.NoError(t, err)
	return NormalizeWithStats(records, unit)
}

func TestNormalizeEndToEnd(t *testing.T) {
	payload := `[
		{"date": 3000, "sgv": 13, "previousSGVNotActive": 1},
		{"date": 2000, "sgv": 100, "previousSGV": 90},
		{"date": 1000, "sgv": 90}
	]`

	readings, stats, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	require.NoError(t, err)
	require.Len(t, readings, 1)

	r := readings[0]
	assert.Equal(t, 100, r.RawValue)
	require.NotNil(t, r.RawPreviousValue)
	assert.Equal(t, 90, *r.RawPreviousValue)
	assert.Equal(t, int64(2000), r.Timestamp.UnixMilli())
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 0, stats.SensorError)
}

func TestNormalizeOrderingAndTrend(t *testing.T) {
	base := int64(1705887600000)
	minute := int64(time.Minute / time.Millisecond)
	payload := []Record{
		{Date: floatPtr(base + 15*minute), SGV: 124, HasSGV: true},
		{Date: floatPtr(base + 10*minute), SGV: 112, HasSGV: true},
		{Date: floatPtr(base + 5*minute), SGV: 100, HasSGV: true},
		{Date: floatPtr(base), SGV: 100, HasSGV: true},
	}

	readings, err := Normalize(payload, bloodsugar.MgdL)
	require.NoError(t, err)
	require.Len(t, readings, 3)

	for i := 1; i < len(readings); i++ {
		assert.True(t, readings[i-1].Timestamp.After(readings[i].Timestamp), "output must be newest-first")
	}
	for _, r := range readings {
		_, ok := r.Delta()
		assert.True(t, ok, "every exposed reading has a delta")
	}

	assert.Equal(t, bloodsugar.TrendSingleUp, readings[0].TrendSymbol)
	assert.Equal(t, bloodsugar.TrendSingleUp, readings[1].TrendSymbol)
	assert.Equal(t, bloodsugar.TrendFlat, readings[2].TrendSymbol)
	assert.Equal(t, 112, *readings[0].RawPreviousValue)
}

func TestNormalizeSkipsSensorErrorsAndInactive(t *testing.T) {
	payload := `[
		{"date": 6000, "sgv": 110},
		{"date": 5000, "sgv": 12},
		{"date": 4000, "sgv": 5},
		{"date": 3000, "sgv": 105, "previousSGVNotActive": null},
		{"date": 2000, "sgv": "100"},
		{"date": 1000, "sgv": 95}
	]`

	readings, stats, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	require.NoError(t, err)
	require.Len(t, readings, 1)

	// Skipped records never act as the back-fill predecessor.
	assert.Equal(t, 110, readings[0].RawValue)
	assert.Equal(t, 95, *readings[0].RawPreviousValue)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 3, stats.SensorError)
	assert.Equal(t, 4, stats.Skipped())
}

func TestNormalizeDeduplicatesTimestamps(t *testing.T) {
	payload := `[
		{"date": 3000, "sgv": 130},
		{"date": 2000, "sgv": 125},
		{"date": 2000, "sgv": 120},
		{"date": 1000, "sgv": 110}
	]`

	readings, stats, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	// The first of the duplicates in oldest-first order is kept.
	assert.Equal(t, 130, readings[0].RawValue)
	assert.Equal(t, 120, readings[1].RawValue)
	assert.Equal(t, 120, *readings[0].RawPreviousValue)
	assert.Equal(t, 1, stats.Duplicate)
	assert.NotEqual(t, readings[0].Timestamp, readings[1].Timestamp)
}

func TestNormalizeMissingDateFailsBatch(t *testing.T) {
	payload := `[
		{"date": 3000, "sgv": 130},
		{"sgv": 120},
		{"date": 1000, "sgv": 110}
	]`

	readings, _, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	assert.True(t, errors.Is(err, ErrInvalidData))
	assert.Nil(t, readings)

	payload = `[{"date": "3000", "sgv": 130}]`
	_, _, err = normalizeJSON(t, payload, bloodsugar.MgdL)
	assert.True(t, errors.Is(err, ErrInvalidData))
}

func TestNormalizeMissingDateOnSkippedRecordIsIgnored(t *testing.T) {
	payload := `[
		{"date": 2000, "sgv": 130},
		{"sgv": 10},
		{"date": 1000, "sgv": 110}
	]`

	readings, _, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}

func TestNormalizeDisplayUnit(t *testing.T) {
	payload := `[
		{"date": 600000, "sgv": 180, "previousSGV": 171},
		{"date": 300000, "sgv": 171}
	]`

	readings, _, err := normalizeJSON(t, payload, bloodsugar.MmolL)
	require.NoError(t, err)
	require.Len(t, readings, 1)

	assert.Equal(t, bloodsugar.MmolL, readings[0].DisplayUnit)
	assert.InDelta(t, 10.0, readings[0].Value(), 1e-9)
	assert.Equal(t, 180, readings[0].RawValue)
	assert.Equal(t, bloodsugar.TrendFortyFiveUp, readings[0].TrendSymbol)
}

func TestNormalizeIgnoresFeedDirection(t *testing.T) {
	payload := `[
		{"date": 600000, "sgv": 100, "direction": "DoubleUp"},
		{"date": 300000, "sgv": 100, "direction": "DoubleUp"}
	]`

	readings, _, err := normalizeJSON(t, payload, bloodsugar.MgdL)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, bloodsugar.TrendFlat, readings[0].TrendSymbol)
}

func TestNormalizeEmptyAndSingle(t *testing.T) {
	readings, err := Normalize(nil, bloodsugar.MgdL)
	require.NoError(t, err)
	assert.Empty(t, readings)

	readings, err = Normalize([]Record{{Date: floatPtr(1000), SGV: 100, HasSGV: true}}, bloodsugar.MgdL)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func floatPtr(ms int64) *float64 {
	f := float64(ms)
	return &f
}
