package nightscout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntriesFields(t *testing.T) {
	payload := `[{
		"_id": "abc",
		"date": 1705887600000,
		"sgv": 120,
		"previousSGV": 115,
		"direction": "Flat",
		"device": "xDrip",
		"type": "sgv"
	}]`

	records, err := DecodeEntries([]byte(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	require.NotNil(t, r.Date)
	assert.Equal(t, 1705887600000.0, *r.Date)
	assert.True(t, r.HasSGV)
	assert.Equal(t, 120, r.SGV)
	require.NotNil(t, r.PreviousSGV)
	assert.Equal(t, 115, *r.PreviousSGV)
	assert.False(t, r.PreviousSGVNotActive)
	assert.Equal(t, "Flat", r.Direction)
	assert.Equal(t, "xDrip", r.Device)
	assert.Equal(t, "sgv", r.Type)
}

func TestDecodeEntriesLooseTypes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		hasSGV    bool
		sgv       int
		hasDate   bool
		hasPrev   bool
		notActive bool
	}{
		{"string sgv", `[{"date": 1, "sgv": "120"}]`, false, 0, true, false, false},
		{"fractional sgv", `[{"date": 1, "sgv": 120.5}]`, false, 0, true, false, false},
		{"whole float sgv", `[{"date": 1, "sgv": 120.0}]`, true, 120, true, false, false},
		{"bool sgv", `[{"date": 1, "sgv": true}]`, false, 0, true, false, false},
		{"null sgv", `[{"date": 1, "sgv": null}]`, false, 0, true, false, false},
		{"string date", `[{"date": "1", "sgv": 120}]`, true, 120, false, false, false},
		{"missing date", `[{"sgv": 120}]`, true, 120, false, false, false},
		{"string previous", `[{"date": 1, "sgv": 120, "previousSGV": "100"}]`, true, 120, true, false, false},
		{"null inactive marker", `[{"date": 1, "sgv": 120, "previousSGVNotActive": null}]`, true, 120, true, false, true},
		{"false inactive marker", `[{"date": 1, "sgv": 120, "previousSGVNotActive": false}]`, true, 120, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeEntries([]byte(tt.payload))
			require.NoError(t, err)
			require.Len(t, records, 1)

			r := records[0]
			assert.Equal(t, tt.hasSGV, r.HasSGV)
			assert.Equal(t, tt.sgv, r.SGV)
			assert.Equal(t, tt.hasDate, r.Date != nil)
			assert.Equal(t, tt.hasPrev, r.PreviousSGV != nil)
			assert.Equal(t, tt.notActive, r.PreviousSGVNotActive)
		})
	}
}

func TestDecodeEntriesInvalidShape(t *testing.T) {
	for _, payload := range []string{
		`{"date": 1, "sgv": 120}`,
		`"entries"`,
		`null`,
		`[1, 2, 3]`,
		`[{"date": 1}, "x"]`,
		`[null]`,
		`not json`,
		``,
	} {
		_, err := DecodeEntries([]byte(payload))
		assert.True(t, errors.Is(err, ErrInvalidData), "payload %q", payload)
	}
}

func TestDecodeEntriesEmptyArray(t *testing.T) {
	records, err := DecodeEntries([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}
