package bloodsugar

import (
	"fmt"
	"strings"
)

// Unit is a blood glucose unit. Raw feed values are always in MgdL.
type Unit int

const (
	MgdL  Unit = iota // milligrams per deciliter, the base unit
	MmolL             // millimoles per liter
)

// Feed tokens used by the Nightscout status settings.
const (
	TokenMgdL  = "mg/dl"
	TokenMmolL = "mmol"
)

// ConversionFactor returns the factor used to convert from mg/dL.
func (u Unit) ConversionFactor() float64 {
	switch u {
	case MmolL:
		return 1.0 / 18.0
	default:
		return 1.0
	}
}

// String returns the display label of the unit.
func (u Unit) String() string {
	switch u {
	case MmolL:
		return "mmol/L"
	default:
		return "mg/dL"
	}
}

// Token returns the unit's Nightscout settings token.
func (u Unit) Token() string {
	switch u {
	case MmolL:
		return TokenMmolL
	default:
		return TokenMgdL
	}
}

// ParseUnit parses a Nightscout unit token. Display labels are accepted too.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case TokenMgdL:
		return MgdL, nil
	case TokenMmolL, "mmol/l":
		return MmolL, nil
	}
	return MgdL, fmt.Errorf("unknown glucose unit %q", s)
}

// Convert converts a raw mg/dL magnitude to the given unit. No rounding is applied.
func Convert(raw int, to Unit) float64 {
	return float64(raw) * to.ConversionFactor()
}
