package bloodsugar

import "math"

// Trend symbols, from fastest rise to fastest fall.
const (
	TrendDoubleUp      = "⇈"
	TrendSingleUp      = "↑"
	TrendFortyFiveUp   = "↗"
	TrendFlat          = "→"
	TrendFortyFiveDown = "↘"
	TrendSingleDown    = "↓"
	TrendDoubleDown    = "⇊"
)

// trendBands are evaluated top-down; the first band whose threshold the rate
// exceeds wins. Rates at or below the last threshold are TrendDoubleDown.
var trendBands = []struct {
	above  float64
	symbol string
}{
	{3, TrendDoubleUp},
	{2, TrendSingleUp},
	{1, TrendFortyFiveUp},
	{-1, TrendFlat},
	{-2, TrendFortyFiveDown},
	{-3, TrendSingleDown},
}

// ClassifyTrend returns the trend symbol for a change of deltaRaw mg/dL over
// elapsedMinutes. It returns "" when the elapsed time is zero or not finite.
func ClassifyTrend(elapsedMinutes float64, deltaRaw int) string {
	if elapsedMinutes == 0 || math.IsNaN(elapsedMinutes) || math.IsInf(elapsedMinutes, 0) {
		return ""
	}

	rate := float64(deltaRaw) / elapsedMinutes
	for _, band := range trendBands {
		if rate > band.above {
			return band.symbol
		}
	}
	return TrendDoubleDown
}
