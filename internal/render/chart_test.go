package render

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/stretchr/testify/assert"
)

func TestSparklineTooFewReadings(t *testing.T) {
	assert.Empty(t, Sparkline(nil))
	assert.Empty(t, Sparkline(testReadings(1)))
}

func TestSparklineRising(t *testing.T) {
	line := Sparkline(testReadings(7))

	assert.Equal(t, 7, utf8.RuneCountInString(line))
	runes := []rune(line)
	// Oldest reading is on the left and lowest.
	assert.Less(t, runes[0], runes[len(runes)-1])
}

func TestSparklineFlat(t *testing.T) {
	readings := []bloodsugar.Reading{
		bloodsugar.NewReading(testNow, 100, intPtr(100), bloodsugar.TrendFlat, bloodsugar.MgdL),
		bloodsugar.NewReading(testNow.Add(-5*time.Minute), 100, nil, bloodsugar.TrendFlat, bloodsugar.MgdL),
	}

	line := []rune(Sparkline(readings))
	assert.Len(t, line, 2)
	assert.Equal(t, line[0], line[1])
}

func TestCalculateDataRange(t *testing.T) {
	// Narrow data is widened to at least 30 mg/dL plus padding.
	minG, maxG := calculateDataRange(testReadings(2), 15)
	assert.Equal(t, 88, minG)
	assert.Equal(t, 147, maxG)

	low := []bloodsugar.Reading{bloodsugar.NewReading(testNow, 45, nil, "", bloodsugar.MgdL)}
	minG, _ = calculateDataRange(low, 15)
	assert.Equal(t, 40, minG)
}

func TestGlucoseToLevel(t *testing.T) {
	assert.Equal(t, 0, glucoseToLevel(50, 100, 200, 8))
	assert.Equal(t, 7, glucoseToLevel(250, 100, 200, 8))
	assert.Equal(t, 0, glucoseToLevel(100, 100, 100, 8))
}
