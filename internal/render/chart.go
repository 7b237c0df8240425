package render

import (
	"math"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// sparkBlocks are the bar glyphs from lowest to highest.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// chartPadding is the padding in mg/dL above/below the data range.
const chartPadding = 15

// Sparkline renders readings (newest first) as a left-to-right bar chart,
// oldest reading on the left. Fewer than two readings render nothing.
func Sparkline(readings []bloodsugar.Reading) string {
	if len(readings) < 2 {
		return ""
	}

	minGlucose, maxGlucose := calculateDataRange(readings, chartPadding)
	bars := make([]rune, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		level := glucoseToLevel(readings[i].RawValue, minGlucose, maxGlucose, len(sparkBlocks))
		bars = append(bars, sparkBlocks[level])
	}
	return string(bars)
}

// calculateDataRange computes the min/max glucose with padding.
func calculateDataRange(readings []bloodsugar.Reading, padding int) (int, int) {
	if len(readings) == 0 {
		return bloodsugar.ThresholdLow, bloodsugar.ThresholdHigh
	}

	dataMin := readings[0].RawValue
	dataMax := readings[0].RawValue
	for _, r := range readings[1:] {
		if r.RawValue < dataMin {
			dataMin = r.RawValue
		}
		if r.RawValue > dataMax {
			dataMax = r.RawValue
		}
	}

	// Ensure minimum range of 30 mg/dL
	const minRange = 30
	rawRange := dataMax - dataMin
	extraPadding := 0
	if rawRange < minRange {
		extraPadding = (minRange - rawRange) / 2
	}

	minGlucose := dataMin - padding - extraPadding
	maxGlucose := dataMax + padding + extraPadding

	// Clamp to reasonable bounds
	if minGlucose < 40 {
		minGlucose = 40
	}
	if maxGlucose > 400 {
		maxGlucose = 400
	}

	return minGlucose, maxGlucose
}

// glucoseToLevel maps a glucose value onto 0..levels-1.
func glucoseToLevel(glucose, minGlucose, maxGlucose, levels int) int {
	glucoseRange := maxGlucose - minGlucose
	if glucoseRange <= 0 || levels <= 1 {
		return 0
	}

	if glucose < minGlucose {
		glucose = minGlucose
	}
	if glucose > maxGlucose {
		glucose = maxGlucose
	}

	normalized := float64(glucose-minGlucose) / float64(glucoseRange)
	return int(math.Round(normalized * float64(levels-1)))
}
