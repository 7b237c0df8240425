package bloodsugar

import (
	"fmt"
	"time"
)

// Reading is a single normalized glucose observation.
//
// RawValue and RawPreviousValue are always mg/dL. The derived quantities
// (Value, PreviousValue, Delta) are computed in DisplayUnit at read time, so
// switching DisplayUnit never changes the raw values or TrendSymbol.
type Reading struct {
	Timestamp        time.Time
	RawValue         int
	RawPreviousValue *int
	TrendSymbol      string
	DisplayUnit      Unit
}

// NewReading creates a reading. prev may be nil for the earliest reading of a batch.
func NewReading(ts time.Time, raw int, prev *int, trend string, unit Unit) Reading {
	var p *int
	if prev != nil {
		v := *prev
		p = &v
	}
	return Reading{
		Timestamp:        ts,
		RawValue:         raw,
		RawPreviousValue: p,
		TrendSymbol:      trend,
		DisplayUnit:      unit,
	}
}

// Value returns the glucose value in the display unit.
func (r Reading) Value() float64 {
	return Convert(r.RawValue, r.DisplayUnit)
}

// PreviousValue returns the predecessor's value in the display unit.
func (r Reading) PreviousValue() (float64, bool) {
	if r.RawPreviousValue == nil {
		return 0, false
	}
	return Convert(*r.RawPreviousValue, r.DisplayUnit), true
}

// Delta returns Value minus PreviousValue in the display unit.
func (r Reading) Delta() (float64, bool) {
	prev, ok := r.PreviousValue()
	if !ok {
		return 0, false
	}
	return r.Value() - prev, true
}

// WithUnit returns a copy of the reading rendered in another display unit.
func (r Reading) WithUnit(u Unit) Reading {
	r.DisplayUnit = u
	return r
}

// Range classifies the raw value.
func (r Reading) Range() RangeStatus {
	return ClassifyRange(r.RawValue)
}

// IsStale reports whether the reading is older than StaleThreshold at now.
func (r Reading) IsStale(now time.Time) bool {
	return IsStaleAt(r.Timestamp, now)
}

func (r Reading) String() string {
	prev := "nil"
	if r.RawPreviousValue != nil {
		prev = fmt.Sprintf("%d", *r.RawPreviousValue)
	}
	return fmt.Sprintf("Reading(time: %s, unit: %s, raw: %d, rawPrevious: %s, trend: %q)",
		r.Timestamp.Format(time.RFC3339), r.DisplayUnit, r.RawValue, prev, r.TrendSymbol)
}

// WithUnit re-renders a batch of readings in another display unit.
func WithUnit(readings []Reading, u Unit) []Reading {
	out := make([]Reading, len(readings))
	for i, r := range readings {
		out[i] = r.WithUnit(u)
	}
	return out
}
