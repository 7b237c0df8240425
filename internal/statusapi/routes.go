package statusapi

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/render"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, src Source, opts Options) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Formatter == nil {
		opts.Formatter = bloodsugar.NewFormatter("en").WithClock(opts.Now)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		health := src.Health()
		status := "ok"
		if health.ErrorCount > 0 {
			status = "degraded"
		}
		body := fiber.Map{
			"status":      status,
			"state":       src.State().String(),
			"error_count": health.ErrorCount,
			"last_error":  health.LastError,
		}
		if !health.LastRun.IsZero() {
			body["last_run"] = health.LastRun
		}
		return c.JSON(body)
	})

	app.Get("/metrics", metricsHandler(opts.Gatherer))

	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		var q readingsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap := src.Snapshot()
		unit := snap.Unit
		readings := snap.Readings
		if q.Unit != "" {
			parsed, err := bloodsugar.ParseUnit(q.Unit)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			unit = parsed
			readings = bloodsugar.WithUnit(readings, unit)
		}
		if q.Limit > 0 && len(readings) > q.Limit {
			readings = readings[:q.Limit]
		}

		now := opts.Now()
		items := make([]readingResponse, 0, len(readings))
		for _, r := range readings {
			items = append(items, newReadingResponse(r, opts.Formatter, now))
		}

		return c.JSON(fiber.Map{
			"unit":       unit.String(),
			"updated_at": snap.UpdatedAt,
			"readings":   items,
		})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		snap := src.Snapshot()
		body := fiber.Map{
			"unit":  snap.Unit.String(),
			"seq":   snap.Seq,
			"state": src.State().String(),
			"count": len(snap.Readings),
			"title": render.DefaultTitle,
			"stale": false,
		}
		if latest, ok := snap.Latest(); ok {
			body["title"] = opts.Formatter.Format(latest, true, false)
			body["stale"] = latest.IsStale(opts.Now())
		}
		if !snap.UpdatedAt.IsZero() {
			body["updated_at"] = snap.UpdatedAt
			body["updated"] = humanize.RelTime(snap.UpdatedAt, opts.Now(), "ago", "from now")
		}
		return c.JSON(body)
	})
}

// readingsQuery holds query parameters for the readings endpoint.
type readingsQuery struct {
	Unit  string `validate:"omitempty,oneof=mg/dl mmol mg/dL mmol/L"`
	Limit int    `validate:"gte=0,lte=1000"`
}

func (q *readingsQuery) bind(c *fiber.Ctx) error {
	q.Unit = c.Query("unit")
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		q.Limit = limit
	}
	return nil
}

type readingResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	RawValue   int       `json:"raw_value"`
	Delta      *float64  `json:"delta"`
	DeltaText  string    `json:"delta_text"`
	Trend      string    `json:"trend"`
	Text       string    `json:"text"`
	Range      string    `json:"range"`
	Color      string    `json:"color"`
	Stale      bool      `json:"stale"`
	MinutesAgo int       `json:"minutes_ago"`
}

func newReadingResponse(r bloodsugar.Reading, f *bloodsugar.Formatter, now time.Time) readingResponse {
	resp := readingResponse{
		Timestamp:  r.Timestamp,
		Value:      round1(r.Value()),
		RawValue:   r.RawValue,
		DeltaText:  bloodsugar.DeltaString(r),
		Trend:      r.TrendSymbol,
		Text:       f.Format(r, true, true),
		Range:      string(r.Range()),
		Color:      render.RangeColor(r.Range()).Hex(),
		Stale:      r.IsStale(now),
		MinutesAgo: f.MinutesAgo(r),
	}
	if delta, ok := r.Delta(); ok {
		d := round1(delta)
		resp.Delta = &d
	}
	return resp
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
