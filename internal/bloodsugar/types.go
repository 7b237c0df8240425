// Package bloodsugar holds the glucose domain: units, trend classification,
// normalized readings and their display formatting.
package bloodsugar

import "time"

// RangeStatus represents the glucose range classification.
type RangeStatus string

const (
	RangeUrgentLow RangeStatus = "urgentLow"
	RangeLow       RangeStatus = "low"
	RangeNormal    RangeStatus = "normal"
	RangeHigh      RangeStatus = "high"
	RangeVeryHigh  RangeStatus = "veryHigh"
)

// Glucose thresholds in mg/dL.
const (
	ThresholdUrgentLow = 55
	ThresholdLow       = 70
	ThresholdHigh      = 180
	ThresholdVeryHigh  = 250
)

// SensorErrorMax is the highest raw value the uploader uses as a sensor error
// sentinel (5 and 12 are sent when communication is lost). Values at or below
// it are not physiological readings.
const SensorErrorMax = 12

// StaleThreshold is how old a reading can be before it's considered stale.
const StaleThreshold = 10 * time.Minute

// ClassifyRange determines the range status for a glucose value.
func ClassifyRange(mgdl int) RangeStatus {
	if mgdl < ThresholdUrgentLow {
		return RangeUrgentLow
	}
	if mgdl < ThresholdLow {
		return RangeLow
	}
	if mgdl <= ThresholdHigh {
		return RangeNormal
	}
	if mgdl <= ThresholdVeryHigh {
		return RangeHigh
	}
	return RangeVeryHigh
}

// IsStaleAt checks if a reading taken at ts is stale at now.
func IsStaleAt(ts, now time.Time) bool {
	return now.Sub(ts) >= StaleThreshold
}

// IsSensorError reports whether a raw value is a sensor error sentinel.
func IsSensorError(mgdl int) bool {
	return mgdl <= SensorErrorMax
}
