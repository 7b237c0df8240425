package bloodsugar

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// minutesAgoKey is the catalog key for the elapsed-time phrase.
const minutesAgoKey = "(%d min ago)"

func init() {
	translations := map[language.Tag]string{
		language.English: minutesAgoKey,
		language.German:  "(vor %d Min.)",
		language.French:  "(il y a %d min)",
		language.Spanish: "(hace %d min)",
		language.Dutch:   "(%d min geleden)",
		language.Italian: "(%d min fa)",
	}
	for tag, msg := range translations {
		_ = message.SetString(tag, minutesAgoKey, msg)
	}
}

// Formatter renders readings as display strings.
type Formatter struct {
	printer *message.Printer
	now     func() time.Time
}

// NewFormatter creates a formatter for a BCP 47 language tag. Unknown or
// untranslated languages render the English phrase.
func NewFormatter(lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		now:     time.Now,
	}
}

// WithClock returns a copy of the formatter that uses now for elapsed time.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	c := *f
	c.now = now
	return &c
}

var defaultFormatter = NewFormatter("en")

// Format renders a reading with the default English formatter.
func Format(r Reading, includeDelta, includeElapsed bool) string {
	return defaultFormatter.Format(r, includeDelta, includeElapsed)
}

// Format renders a reading as "value [(delta)] [trend] [(N min ago)]".
func (f *Formatter) Format(r Reading, includeDelta, includeElapsed bool) string {
	delta, ok := r.Delta()
	return f.compose(r.Value(), delta, ok, r.TrendSymbol, r.Timestamp, includeDelta, includeElapsed)
}

// MinutesAgo returns the whole minutes elapsed since the reading.
func (f *Formatter) MinutesAgo(r Reading) int {
	return int(f.now().Sub(r.Timestamp).Minutes())
}

func (f *Formatter) compose(value, delta float64, hasDelta bool, trend string, ts time.Time, includeDelta, includeElapsed bool) string {
	parts := []string{CleanString(value)}
	if includeDelta {
		parts = append(parts, "("+deltaString(delta, hasDelta)+")")
	}
	if trend != "" {
		parts = append(parts, trend)
	}
	if includeElapsed {
		minutes := int(f.now().Sub(ts).Minutes())
		parts = append(parts, f.printer.Sprintf(minutesAgoKey, minutes))
	}
	return strings.Join(parts, " ")
}

// DeltaString renders the reading's delta with an explicit sign, or "?" when
// the reading has no predecessor.
func DeltaString(r Reading) string {
	delta, ok := r.Delta()
	return deltaString(delta, ok)
}

func deltaString(delta float64, ok bool) string {
	if !ok {
		return "?"
	}
	if delta > 0 {
		return "+" + CleanString(delta)
	}
	return CleanString(delta)
}

// CleanString renders whole numbers without decimals and everything else
// rounded to one decimal place.
func CleanString(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}
