// Package render turns normalized readings into the text views shown by the
// CLI and the status API.
package render

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// DefaultTitle is shown when there are no readings.
const DefaultTitle = "Nightscout"

// DefaultHistory is how many readings follow the title.
const DefaultHistory = 5

// UpdatedLayout renders the last refresh time, e.g. "Mon 3:04 PM".
const UpdatedLayout = "Mon 3:04 PM"

// MenuOptions controls how the menu is composed.
type MenuOptions struct {
	ShowDelta   bool
	ShowElapsed bool
	History     int
	Formatter   *bloodsugar.Formatter
	Color       bool
	Location    *time.Location
	Now         func() time.Time
}

// Menu is the composed view: a title line, the trailing history and the
// last update label.
type Menu struct {
	Title     string
	Items     []string
	Updated   string
	UpdatedAt time.Time
	Sparkline string
	Stale     bool
}

func (o *MenuOptions) applyDefaults() {
	if o.History <= 0 {
		o.History = DefaultHistory
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Formatter == nil {
		o.Formatter = bloodsugar.NewFormatter("en").WithClock(o.Now)
	}
	if o.Location == nil {
		o.Location = time.Local
	}
}

// ComposeMenu builds the menu for readings ordered newest first. The title
// honors the delta and elapsed toggles; history items always carry elapsed
// time and are listed oldest first.
func ComposeMenu(readings []bloodsugar.Reading, updatedAt time.Time, opts MenuOptions) Menu {
	opts.applyDefaults()

	menu := Menu{Title: DefaultTitle, Items: []string{}}
	if !updatedAt.IsZero() {
		menu.UpdatedAt = updatedAt
		menu.Updated = "Updated " + updatedAt.In(opts.Location).Format(UpdatedLayout)
	}
	if len(readings) == 0 {
		return menu
	}

	latest := readings[0]
	menu.Title = opts.Formatter.Format(latest, opts.ShowDelta, opts.ShowElapsed)
	if opts.Color {
		menu.Title = Colorize(menu.Title, RangeColor(latest.Range()))
	}
	menu.Stale = latest.IsStale(opts.Now())

	rest := readings[1:]
	if len(rest) > opts.History {
		rest = rest[:opts.History]
	}
	for i := len(rest) - 1; i >= 0; i-- {
		item := opts.Formatter.Format(rest[i], opts.ShowDelta, true)
		if opts.Color {
			item = Colorize(item, RangeColor(rest[i].Range()))
		}
		menu.Items = append(menu.Items, item)
	}

	menu.Sparkline = Sparkline(readings)
	return menu
}

// String renders the menu as a block of lines.
func (m Menu) String() string {
	var b strings.Builder
	b.WriteString(m.Title)
	if m.Stale {
		b.WriteString(" [stale]")
	}
	b.WriteString("\n")
	if len(m.Items) > 0 {
		b.WriteString("---\n")
		for _, item := range m.Items {
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	if m.Sparkline != "" {
		b.WriteString(m.Sparkline)
		b.WriteString("\n")
	}
	if m.Updated != "" {
		b.WriteString(m.Updated)
		b.WriteString(" (")
		b.WriteString(humanize.Time(m.UpdatedAt))
		b.WriteString(")\n")
	}
	return b.String()
}
