// Package pipeline fetches a Nightscout feed and holds the latest normalized
// reading window.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/logger"
	"github.com/jwulff/nightscout-go/internal/nightscout"
	"github.com/jwulff/nightscout-go/internal/storage"
)

// DefaultSettingsTimeout bounds the unit settings fetch.
const DefaultSettingsTimeout = 5 * time.Second

// Source is where raw feed data comes from. *nightscout.Client implements it.
type Source interface {
	FetchEntries(ctx context.Context, count int) ([]byte, error)
	FetchUnit(ctx context.Context) (bloodsugar.Unit, error)
}

// Recorder receives refresh metrics.
type Recorder interface {
	RecordRefresh(outcome string)
	RecordSkipped(reason string, n int)
	RecordSuperseded()
	RecordLastGlucose(mgdl int)
	RecordLatency(op string, seconds float64)
}

// Store persists the last window and refresh bookkeeping.
type Store interface {
	storage.WindowStore
	storage.StateStore
}

// Snapshot is the held result of the newest successful refresh. Readings
// are newest-first and rendered in Unit.
type Snapshot struct {
	Readings  []bloodsugar.Reading
	Unit      bloodsugar.Unit
	UpdatedAt time.Time
	Seq       uint64
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Readings = make([]bloodsugar.Reading, len(s.Readings))
	copy(c.Readings, s.Readings)
	return c
}

// Latest returns the newest reading, if any.
func (s Snapshot) Latest() (bloodsugar.Reading, bool) {
	if len(s.Readings) == 0 {
		return bloodsugar.Reading{}, false
	}
	return s.Readings[0], true
}

// Pipeline owns the held snapshot. Refresh may be called concurrently; the
// most recently started run that succeeds wins.
type Pipeline struct {
	src             Source
	store           Store
	recorder        Recorder
	log             *logger.Logger
	count           int
	settingsTimeout time.Duration
	unitLocked      bool
	site            string
	now             func() time.Time
	onState         func(seq uint64, s State)

	seq atomic.Uint64

	mu       sync.RWMutex
	snap     Snapshot
	state    State
	stateSeq uint64
	health   storage.RefreshState

	saveMu   sync.Mutex
	savedSeq uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore caches every published window and the refresh state.
func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithCount sets how many feed entries are requested per refresh.
func WithCount(n int) Option {
	return func(p *Pipeline) { p.count = n }
}

func WithSettingsTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.settingsTimeout = d }
}

// WithUnit sets the display unit used until the site reports one.
func WithUnit(u bloodsugar.Unit) Option {
	return func(p *Pipeline) { p.snap.Unit = u }
}

// WithUnitLocked skips the settings fetch and keeps the configured unit.
func WithUnitLocked(locked bool) Option {
	return func(p *Pipeline) { p.unitLocked = locked }
}

// WithSite names the site in logs and persisted refresh state.
func WithSite(site string) Option {
	return func(p *Pipeline) { p.site = site }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithStateHook is called on every state transition of the newest run.
func WithStateHook(fn func(seq uint64, s State)) Option {
	return func(p *Pipeline) { p.onState = fn }
}

// New creates a pipeline reading from src.
func New(src Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:             src,
		recorder:        nopRecorder{},
		log:             logger.Nop(),
		count:           nightscout.DefaultCount,
		settingsTimeout: DefaultSettingsTimeout,
		now:             time.Now,
		snap:            Snapshot{Readings: []bloodsugar.Reading{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.health.Site = p.site
	return p
}

// Refresh fetches the feed and the unit settings concurrently, normalizes
// the feed and publishes the result. On error nothing is published. It
// always returns the snapshot held after the call.
func (p *Pipeline) Refresh(ctx context.Context) (Snapshot, error) {
	seq := p.seq.Add(1)
	log := p.log.With(logger.String("run_id", uuid.NewString()), logger.Int64("seq", int64(seq)))
	start := p.now()
	defer func() {
		p.recorder.RecordLatency("refresh", p.now().Sub(start).Seconds())
		p.setState(seq, StateIdle)
	}()

	p.setState(seq, StateFetching)
	log.Debug("refresh started")

	var (
		payload     []byte
		fetchedUnit bloodsugar.Unit
		unitFetched bool
	)
	g, gctx := errgroup.WithContext(ctx)
	if !p.unitLocked {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, p.settingsTimeout)
			defer cancel()
			u, err := p.src.FetchUnit(sctx)
			if err != nil {
				log.Warn("settings fetch failed, keeping previous unit", logger.Error(err))
				return nil
			}
			fetchedUnit, unitFetched = u, true
			return nil
		})
	}
	g.Go(func() error {
		data, err := p.src.FetchEntries(gctx, p.count)
		if err != nil {
			return err
		}
		payload = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(ctx, seq, log, fmt.Errorf("failed to fetch entries: %w", err))
	}

	p.setState(seq, StateNormalizing)
	records, err := nightscout.DecodeEntries(payload)
	if err != nil {
		return p.fail(ctx, seq, log, err)
	}
	readings, stats, err := nightscout.NormalizeWithStats(records, fetchedUnit)
	if err != nil {
		return p.fail(ctx, seq, log, err)
	}
	p.recordStats(stats)

	snap, published := p.publish(Snapshot{
		Readings:  readings,
		Unit:      fetchedUnit,
		UpdatedAt: p.now(),
		Seq:       seq,
	}, unitFetched)

	p.setState(seq, StateReady)
	p.recordSuccess(ctx, log)

	if !published {
		p.recorder.RecordRefresh("superseded")
		p.recorder.RecordSuperseded()
		log.Info("discarding superseded refresh", logger.Int64("held_seq", int64(snap.Seq)))
		return snap, nil
	}

	p.recorder.RecordRefresh("success")
	if latest, ok := snap.Latest(); ok {
		p.recorder.RecordLastGlucose(latest.RawValue)
	}
	log.Info("refresh complete",
		logger.Int("readings", len(snap.Readings)),
		logger.String("unit", snap.Unit.String()),
		logger.Int("skipped", stats.Skipped()),
		logger.Duration("took", p.now().Sub(start)),
	)
	p.saveWindow(ctx, log, snap)
	return snap, nil
}

// publish swaps in s when it is newer than the held snapshot. When the run
// did not learn a unit, its readings are rendered in the held unit.
func (p *Pipeline) publish(s Snapshot, unitFetched bool) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Seq <= p.snap.Seq {
		return p.snap.clone(), false
	}
	if !unitFetched {
		s.Unit = p.snap.Unit
		s.Readings = bloodsugar.WithUnit(s.Readings, s.Unit)
	}
	p.snap = s
	return p.snap.clone(), true
}

func (p *Pipeline) fail(ctx context.Context, seq uint64, log *logger.Logger, err error) (Snapshot, error) {
	p.setState(seq, StateFailed)
	p.recorder.RecordRefresh("failure")

	p.mu.Lock()
	p.health.LastRun = p.now()
	p.health.RecordError(err)
	health := p.health
	p.mu.Unlock()

	fields := []logger.Field{logger.Error(err), logger.Int("consecutive_errors", health.ErrorCount)}
	if nightscout.IsTransient(err) {
		log.Debug("refresh failed", fields...)
	} else {
		log.Warn("refresh failed", fields...)
	}
	p.saveHealth(ctx, log, health)
	return p.Snapshot(), err
}

func (p *Pipeline) recordSuccess(ctx context.Context, log *logger.Logger) {
	p.mu.Lock()
	p.health.RecordSuccess(p.now())
	health := p.health
	p.mu.Unlock()
	p.saveHealth(ctx, log, health)
}

func (p *Pipeline) recordStats(stats nightscout.NormalizeStats) {
	p.recorder.RecordSkipped("inactive", stats.Inactive)
	p.recorder.RecordSkipped("sensor_error", stats.SensorError)
	p.recorder.RecordSkipped("duplicate", stats.Duplicate)
}

func (p *Pipeline) saveWindow(ctx context.Context, log *logger.Logger, snap Snapshot) {
	if p.store == nil {
		return
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if snap.Seq <= p.savedSeq {
		return
	}
	p.savedSeq = snap.Seq

	err := p.store.SaveWindow(ctx, &storage.Window{
		Readings:  snap.Readings,
		Unit:      snap.Unit,
		FetchedAt: snap.UpdatedAt,
	})
	if err != nil {
		log.Warn("failed to cache window", logger.Error(err))
	}
}

func (p *Pipeline) saveHealth(ctx context.Context, log *logger.Logger, health storage.RefreshState) {
	if p.store == nil || health.Site == "" {
		return
	}
	if err := p.store.SaveRefreshState(ctx, &health); err != nil {
		log.Warn("failed to save refresh state", logger.Error(err))
	}
}

// Restore seeds the held snapshot from the cached window. The restored
// snapshot has sequence number 0, so any real refresh replaces it.
func (p *Pipeline) Restore(ctx context.Context) error {
	if p.store == nil {
		return nil
	}

	if p.site != "" {
		state, err := p.store.GetRefreshState(ctx, p.site)
		switch {
		case err == nil:
			p.mu.Lock()
			p.health = *state
			p.mu.Unlock()
		case !storage.IsNotFound(err):
			return fmt.Errorf("failed to load refresh state: %w", err)
		}
	}

	window, err := p.store.LoadWindow(ctx)
	if storage.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cached window: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap.Seq != 0 {
		return nil
	}
	unit := window.Unit
	if p.unitLocked {
		unit = p.snap.Unit
	}
	p.snap = Snapshot{
		Readings:  bloodsugar.WithUnit(window.Readings, unit),
		Unit:      unit,
		UpdatedAt: window.FetchedAt,
	}
	p.log.Info("restored cached window", logger.Int("readings", len(window.Readings)))
	return nil
}

// Snapshot returns a copy of the held snapshot.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.clone()
}

// Readings returns a copy of the held newest-first readings.
func (p *Pipeline) Readings() []bloodsugar.Reading {
	return p.Snapshot().Readings
}

// Unit returns the current display unit.
func (p *Pipeline) Unit() bloodsugar.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.Unit
}

// SetUnit re-renders the held readings in u. Unless the unit is locked, the
// next refresh that reaches the settings endpoint replaces it.
func (p *Pipeline) SetUnit(u bloodsugar.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Unit = u
	p.snap.Readings = bloodsugar.WithUnit(p.snap.Readings, u)
}

// Health returns the refresh bookkeeping.
func (p *Pipeline) Health() storage.RefreshState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

type nopRecorder struct{}

func (nopRecorder) RecordRefresh(string)          {}
func (nopRecorder) RecordSkipped(string, int)     {}
func (nopRecorder) RecordSuperseded()             {}
func (nopRecorder) RecordLastGlucose(int)         {}
func (nopRecorder) RecordLatency(string, float64) {}
