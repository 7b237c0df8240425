package nightscout

import (
	"fmt"
	"math"
	"time"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// NormalizeStats counts the records a normalization pass skipped.
type NormalizeStats struct {
	Inactive    int
	SensorError int
	Duplicate   int
}

// Skipped returns the total number of skipped records.
func (s NormalizeStats) Skipped() int {
	return s.Inactive + s.SensorError + s.Duplicate
}

// Normalize turns newest-first feed records into newest-first readings.
func Normalize(records []Record, unit bloodsugar.Unit) ([]bloodsugar.Reading, error) {
	readings, _, err := NormalizeWithStats(records, unit)
	return readings, err
}

// NormalizeWithStats is Normalize plus skip counts.
//
// Records are walked oldest-first. Inactive-marker records, missing or
// sensor-error values and repeated timestamps are skipped. A missing date
// fails the whole batch. Each accepted reading gets its predecessor value
// (reported or back-filled) and a trend computed against the previous
// accepted reading. The oldest accepted reading has neither, so it is
// dropped before the result is returned newest-first.
func NormalizeWithStats(records []Record, unit bloodsugar.Unit) ([]bloodsugar.Reading, NormalizeStats, error) {
	var stats NormalizeStats
	accepted := make([]bloodsugar.Reading, 0, len(records))

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]

		if rec.PreviousSGVNotActive {
			stats.Inactive++
			continue
		}
		if !rec.HasSGV || bloodsugar.IsSensorError(rec.SGV) {
			stats.SensorError++
			continue
		}
		if rec.Date == nil {
			return nil, stats, fmt.Errorf("%w: entry %d has no numeric date", ErrInvalidData, i)
		}

		ts := millisToTime(*rec.Date)

		var last *bloodsugar.Reading
		if n := len(accepted); n > 0 {
			last = &accepted[n-1]
		}
		if last != nil && last.Timestamp.Equal(ts) {
			stats.Duplicate++
			continue
		}

		prev := rec.PreviousSGV
		if prev == nil && last != nil {
			prev = &last.RawValue
		}

		trend := ""
		if last != nil {
			trend = bloodsugar.ClassifyTrend(ts.Sub(last.Timestamp).Minutes(), rec.SGV-last.RawValue)
		}

		accepted = append(accepted, bloodsugar.NewReading(ts, rec.SGV, prev, trend, unit))
	}

	if len(accepted) == 0 {
		return []bloodsugar.Reading{}, stats, nil
	}

	out := make([]bloodsugar.Reading, 0, len(accepted)-1)
	for i := len(accepted) - 1; i >= 1; i-- {
		out = append(out, accepted[i])
	}
	return out, stats, nil
}

func millisToTime(ms float64) time.Time {
	whole := math.Floor(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration((ms - whole) * float64(time.Millisecond)))
}
