package render

import (
	"fmt"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// Color is a 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Blood sugar colors - following Dexcom color scheme
var (
	ColorGlucoseUrgentLow  = Color{255, 0, 0}     // Red - below 55
	ColorGlucoseLow        = Color{255, 100, 100} // Light red - 55-70
	ColorGlucoseNormal     = Color{0, 255, 0}     // Green - 70-180
	ColorGlucoseHigh       = Color{255, 255, 0}   // Yellow - 180-250
	ColorGlucoseUrgentHigh = Color{255, 165, 0}   // Orange - above 250
)

// RangeColor returns the color for a range classification.
func RangeColor(r bloodsugar.RangeStatus) Color {
	switch r {
	case bloodsugar.RangeUrgentLow:
		return ColorGlucoseUrgentLow
	case bloodsugar.RangeLow:
		return ColorGlucoseLow
	case bloodsugar.RangeHigh:
		return ColorGlucoseHigh
	case bloodsugar.RangeVeryHigh:
		return ColorGlucoseUrgentHigh
	default:
		return ColorGlucoseNormal
	}
}

// GetGlucoseColor returns the appropriate color for a glucose value.
func GetGlucoseColor(mgdl int) Color {
	return RangeColor(bloodsugar.ClassifyRange(mgdl))
}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colorize wraps text in a truecolor ANSI foreground escape.
func Colorize(text string, c Color) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", c.R, c.G, c.B, text)
}
