package bloodsugar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var formatNow = time.Date(2026, 1, 22, 10, 30, 0, 0, time.UTC)

func fixedFormatter(lang string) *Formatter {
	return NewFormatter(lang).WithClock(func() time.Time { return formatNow })
}

func intPtr(v int) *int { return &v }

func TestCleanString(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{100, "100"},
		{100.5, "100.5"},
		{5.3, "5.3"},
		{5.26, "5.3"},
		{5.96, "6.0"},
		{0, "0"},
		{-2, "-2"},
		{-0.5, "-0.5"},
		{10.0 / 18.0, "0.6"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanString(tt.value), "CleanString(%v)", tt.value)
	}
}

func TestComposeExamples(t *testing.T) {
	f := fixedFormatter("en")

	assert.Equal(t, "100 (+5.3) ↗", f.compose(100, 5.3, true, TrendFortyFiveUp, formatNow, true, false))
	assert.Equal(t, "100.5 (0) →", f.compose(100.5, 0, true, TrendFlat, formatNow, true, false))
	assert.Equal(t, "100 (-2) ↘", f.compose(100, -2, true, TrendFortyFiveDown, formatNow, true, false))
	assert.Equal(t, "100 (?) ↘", f.compose(100, 0, false, TrendFortyFiveDown, formatNow, true, false))
}

func TestFormatOptions(t *testing.T) {
	f := fixedFormatter("en")
	r := NewReading(formatNow.Add(-7*time.Minute-30*time.Second), 120, intPtr(110), TrendSingleUp, MgdL)

	assert.Equal(t, "120 ↑", f.Format(r, false, false))
	assert.Equal(t, "120 (+10) ↑", f.Format(r, true, false))
	assert.Equal(t, "120 ↑ (7 min ago)", f.Format(r, false, true))
	assert.Equal(t, "120 (+10) ↑ (7 min ago)", f.Format(r, true, true))
}

func TestFormatEmptyTrendHasNoDoubleSpaces(t *testing.T) {
	f := fixedFormatter("en")
	r := NewReading(formatNow.Add(-3*time.Minute), 120, nil, "", MgdL)

	assert.Equal(t, "120", f.Format(r, false, false))
	assert.Equal(t, "120 (?) (3 min ago)", f.Format(r, true, true))
	assert.NotContains(t, f.Format(r, true, true), "  ")
}

func TestFormatMmol(t *testing.T) {
	f := fixedFormatter("en")
	r := NewReading(formatNow, 180, intPtr(171), TrendFlat, MmolL)

	assert.Equal(t, "10 (+0.5) →", f.Format(r, true, false))

	r = NewReading(formatNow, 100, intPtr(109), TrendFortyFiveDown, MmolL)
	assert.Equal(t, "5.6 (-0.5) ↘", f.Format(r, true, false))
}

func TestFormatLocalizedElapsed(t *testing.T) {
	r := NewReading(formatNow.Add(-12*time.Minute), 120, intPtr(120), TrendFlat, MgdL)

	assert.Equal(t, "120 → (vor 12 Min.)", fixedFormatter("de").Format(r, false, true))
	assert.Equal(t, "120 → (hace 12 min)", fixedFormatter("es").Format(r, false, true))
	assert.Equal(t, "120 → (12 min ago)", fixedFormatter("not a tag!").Format(r, false, true))
}

func TestDeltaString(t *testing.T) {
	assert.Equal(t, "+10", DeltaString(NewReading(formatNow, 120, intPtr(110), "", MgdL)))
	assert.Equal(t, "-10", DeltaString(NewReading(formatNow, 110, intPtr(120), "", MgdL)))
	assert.Equal(t, "0", DeltaString(NewReading(formatNow, 110, intPtr(110), "", MgdL)))
	assert.Equal(t, "?", DeltaString(NewReading(formatNow, 110, nil, "", MgdL)))
}

func TestMinutesAgo(t *testing.T) {
	f := fixedFormatter("en")
	r := NewReading(formatNow.Add(-59*time.Second), 120, nil, "", MgdL)
	assert.Equal(t, 0, f.MinutesAgo(r))

	r = NewReading(formatNow.Add(-61*time.Minute), 120, nil, "", MgdL)
	assert.Equal(t, 61, f.MinutesAgo(r))
}
