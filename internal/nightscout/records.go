package nightscout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Feed record field names.
const (
	fieldDate                 = "date"
	fieldSGV                  = "sgv"
	fieldPreviousSGV          = "previousSGV"
	fieldPreviousSGVNotActive = "previousSGVNotActive"
	fieldDirection            = "direction"
	fieldDevice               = "device"
	fieldType                 = "type"
)

// Record is one entry of the feed, decoded without trusting its types.
type Record struct {
	// Date is milliseconds since the epoch, nil when absent or not a number.
	Date *float64

	// SGV is the glucose value in mg/dL; HasSGV is false when the field is
	// absent or not an integer.
	SGV    int
	HasSGV bool

	// PreviousSGV is the uploader-reported predecessor value, if any.
	PreviousSGV *int

	// PreviousSGVNotActive is set when the marker key is present at all,
	// even with a null value.
	PreviousSGVNotActive bool

	// Informational only. Direction is never used for the trend.
	Direction string
	Device    string
	Type      string
}

// DecodeEntries decodes an entries.json payload. The top level must be an
// array of objects; anything else is ErrInvalidData.
func DecodeEntries(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode entries: %v", ErrInvalidData, err)
	}
	if raw == nil {
		// Top-level null decodes to a nil slice without error.
		return nil, fmt.Errorf("%w: entries payload is not an array", ErrInvalidData)
	}

	records := make([]Record, 0, len(raw))
	for i, elem := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrInvalidData, i)
		}
		records = append(records, decodeRecord(fields))
	}
	return records, nil
}

func decodeRecord(fields map[string]json.RawMessage) Record {
	var r Record

	if v, ok := fields[fieldDate]; ok {
		if f, ok := jsonNumber(v); ok {
			r.Date = &f
		}
	}
	if v, ok := fields[fieldSGV]; ok {
		r.SGV, r.HasSGV = jsonInt(v)
	}
	if v, ok := fields[fieldPreviousSGV]; ok {
		if n, ok := jsonInt(v); ok {
			r.PreviousSGV = &n
		}
	}
	_, r.PreviousSGVNotActive = fields[fieldPreviousSGVNotActive]

	r.Direction = jsonString(fields[fieldDirection])
	r.Device = jsonString(fields[fieldDevice])
	r.Type = jsonString(fields[fieldType])
	return r
}

// jsonNumber accepts only JSON numbers; strings and booleans are rejected.
func jsonNumber(v json.RawMessage) (float64, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || (v[0] != '-' && (v[0] < '0' || v[0] > '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, false
	}
	return f, true
}

// jsonInt accepts JSON numbers with no fractional part.
func jsonInt(v json.RawMessage) (int, bool) {
	f, ok := jsonNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func jsonString(v json.RawMessage) string {
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
