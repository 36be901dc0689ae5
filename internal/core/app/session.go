package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aspectwatch/internal/core/config"
	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/core/ports"
	"aspectwatch/internal/data/history"
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/ephemeris"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
	"aspectwatch/internal/shared/observability"
	"aspectwatch/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Trigger sources, used as rate limiter keys and log fields.
const (
	TriggerStartup = "startup"
	TriggerConfig  = "config"
	TriggerNudge   = "nudge"
	TriggerFilter  = "filter"
	TriggerMoment  = "moment"
)

// Update is emitted after every trigger, successful or not. Snapshot is the
// current (possibly retained) snapshot and Err the failure of this trigger.
type Update struct {
	Snapshot *Snapshot
	Status   string
	Err      error
}

// settings is the derived, validated form of a Config.
type settings struct {
	cfg        *config.Config
	rules      aspects.RuleSet
	filter     *aspects.BodyFilter
	calculator *ephemeris.Calculator
	closeAt    float64
}

// Session owns the interactive state: the last known-good configuration, the
// current moment and the last snapshot. Triggers are serialized.
type Session struct {
	mu       sync.Mutex
	id       string
	current  *settings
	moment   time.Time
	pinned   bool // moment set by Nudge or SetMoment
	snapshot *Snapshot
	status   string
	lastErr  error
	lastRun  time.Time

	clock    ports.Clock
	history  ports.HistoryStore
	provider ephemeris.PositionProvider
	limiter  *util.TriggerLimiter

	updateMu sync.RWMutex
	onUpdate func(Update)
}

type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(clock ports.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithHistory enables the snapshot journal.
func WithHistory(store ports.HistoryStore) Option {
	return func(s *Session) { s.history = store }
}

// WithProvider pins the position provider, ignoring provider settings in the
// configuration.
func WithProvider(provider ephemeris.PositionProvider) Option {
	return func(s *Session) { s.provider = provider }
}

// New builds a session from a validated configuration. No computation happens
// until Recompute is called.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	s := &Session{
		id:    history.NewSessionID(),
		clock: ports.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}

	next, err := s.derive(cfg)
	if err != nil {
		return nil, err
	}
	moment, err := cfg.Moment(s.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid session moment")
	}

	s.current = next
	s.moment = moment
	s.limiter = util.NewTriggerLimiter(cfg.Watch.RateLimit, cfg.Watch.Burst)
	s.status = "ready"
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) SetUpdateHandler(handler func(Update)) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	s.onUpdate = handler
}

func (s *Session) emitUpdate(update Update) {
	s.updateMu.RLock()
	handler := s.onUpdate
	s.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// Snapshot returns the last successful snapshot, or nil before the first one.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Config returns the last known-good configuration.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.cfg
}

// Moment returns the moment the next recomputation will use.
func (s *Session) Moment() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moment
}

// Recompute runs the full pipeline for the current moment and settings.
func (s *Session) Recompute(ctx context.Context) error {
	s.mu.Lock()
	err := s.recomputeLocked(ctx, TriggerStartup, s.current, s.moment)
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return err
}

// ApplyConfig is the config watcher callback. A load error or a configuration
// that fails to produce a snapshot leaves the previous configuration and
// snapshot in place.
func (s *Session) ApplyConfig(ctx context.Context, cfg *config.Config, loadErr error) error {
	s.mu.Lock()
	err := s.applyConfigLocked(ctx, cfg, loadErr)
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return err
}

func (s *Session) applyConfigLocked(ctx context.Context, cfg *config.Config, loadErr error) error {
	if loadErr != nil {
		return loadErr
	}
	if cfg == nil {
		return errors.New(errors.CodeValidationError, "config is required")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	next, err := s.derive(cfg)
	if err != nil {
		return err
	}

	// A changed moment setting resets any nudge. An unchanged "now" follows
	// the clock until the user moves the moment explicitly.
	moment, pinned := s.moment, s.pinned
	switch {
	case cfg.Session.Moment != s.current.cfg.Session.Moment:
		pinned = false
		if moment, err = cfg.Moment(s.clock.Now()); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid session moment")
		}
	case !pinned && config.IsNowMoment(cfg.Session.Moment):
		moment = s.clock.Now().UTC()
	}

	if err := s.recomputeLocked(ctx, TriggerConfig, next, moment); err != nil {
		return err
	}
	s.current = next
	s.moment = moment
	s.pinned = pinned
	s.limiter = util.NewTriggerLimiter(cfg.Watch.RateLimit, cfg.Watch.Burst)
	return nil
}

// Nudge shifts the moment by steps times the configured nudge interval and
// recomputes. It reports false when the trigger was dropped by the limiter.
func (s *Session) Nudge(ctx context.Context, steps int) (bool, error) {
	s.mu.Lock()
	if !s.limiter.Allow(TriggerNudge) {
		s.mu.Unlock()
		observability.RecomputeThrottledTotal.Inc()
		slog.Debug("nudge throttled", "steps", steps)
		return false, nil
	}
	moment := s.moment.Add(time.Duration(steps) * s.current.cfg.Session.Nudge)
	err := s.recomputeLocked(ctx, TriggerNudge, s.current, moment)
	if err == nil {
		s.moment = moment
		s.pinned = true
	}
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return true, err
}

// SetMoment recomputes for an explicit moment.
func (s *Session) SetMoment(ctx context.Context, moment time.Time) error {
	s.mu.Lock()
	moment = moment.UTC()
	err := s.recomputeLocked(ctx, TriggerMoment, s.current, moment)
	if err == nil {
		s.moment = moment
		s.pinned = true
	}
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return err
}

// SetFilter narrows the aspect list to bodies matching pattern. Positions are
// not recomputed.
func (s *Session) SetFilter(pattern string) error {
	s.mu.Lock()
	err := s.setFilterLocked(pattern)
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return err
}

func (s *Session) setFilterLocked(pattern string) error {
	filter, err := aspects.NewBodyFilter(pattern)
	if err != nil {
		return err
	}
	next := *s.current
	next.filter = filter
	s.current = &next
	if s.snapshot != nil {
		s.snapshot = s.snapshot.withFilter(filter, next.closeAt)
	}
	slog.Debug("filter applied", "trigger", TriggerFilter, "filter", filter.Pattern())
	return nil
}

// filterCycle is the order CycleFilter steps through.
var filterCycle = append([]string{aspects.AllBodies}, bodyNames()...)

func bodyNames() []string {
	names := make([]string, 0, len(sky.Bodies))
	for _, b := range sky.Bodies {
		names = append(names, string(b))
	}
	return names
}

// CycleFilter advances the filter through All and then every body. A custom
// glob filter restarts the cycle at All.
func (s *Session) CycleFilter() (string, error) {
	s.mu.Lock()
	current := s.current.filter.Pattern()
	next := filterCycle[0]
	for i, name := range filterCycle {
		if name == current {
			next = filterCycle[(i+1)%len(filterCycle)]
			break
		}
	}
	err := s.setFilterLocked(next)
	update := s.updateLocked(err)
	s.mu.Unlock()

	s.emitUpdate(update)
	return next, err
}

func (s *Session) updateLocked(err error) Update {
	s.lastErr = err
	switch {
	case err != nil && s.snapshot != nil:
		s.status = fmt.Sprintf("Error: %v (showing last good result)", err)
	case err != nil:
		s.status = fmt.Sprintf("Error: %v", err)
	default:
		s.status = s.snapshot.StatusLine()
	}
	return Update{Snapshot: s.snapshot, Status: s.status, Err: err}
}

// derive turns a configuration into matcher and calculator inputs.
func (s *Session) derive(cfg *config.Config) (*settings, error) {
	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid aspect rules")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	filter, err := aspects.NewBodyFilter(cfg.Session.Filter)
	if err != nil {
		return nil, err
	}

	provider := s.provider
	if provider == nil {
		provider, err = providerFor(cfg)
		if err != nil {
			return nil, err
		}
	}

	for _, r := range aspects.UnreachableSpecific(rules.Table, rules.Specific) {
		slog.Warn("specific rule angle is not in the rule table and can never apply",
			"a", r.A, "b", r.B, "angle", r.Angle)
	}

	return &settings{
		cfg:        cfg,
		rules:      rules,
		filter:     filter,
		calculator: ephemeris.NewCalculator(provider, cfg.Observer()),
		closeAt:    cfg.CloseThreshold(),
	}, nil
}

func providerFor(cfg *config.Config) (ephemeris.PositionProvider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderStatic:
		longitudes, err := cfg.StaticLongitudes()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid static provider")
		}
		return ephemeris.NewStaticProvider(longitudes), nil
	case config.ProviderAnalytic, "":
		return ephemeris.NewAnalyticProvider(), nil
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unknown provider kind %q", cfg.Provider.Kind)
	}
}

// recomputeLocked runs the pipeline and, on success, replaces the snapshot.
func (s *Session) recomputeLocked(ctx context.Context, trigger string, set *settings, moment time.Time) error {
	ctx, span := observability.Tracer.Start(ctx, "session.Recompute",
		trace.WithAttributes(
			attribute.String("trigger", trigger),
			attribute.String("moment", moment.UTC().Format(time.RFC3339)),
		))
	defer span.End()

	start := time.Now()
	snap, err := compute(ctx, set, moment)
	observability.RecomputeDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		observability.RecomputeTotal.WithLabelValues("error").Inc()
		slog.Warn("recompute failed", "trigger", trigger, "moment", moment, "code", errors.CodeOf(err), "error", err)
		return err
	}
	observability.RecomputeTotal.WithLabelValues("ok").Inc()

	snap.ComputedAt = s.clock.Now().UTC()
	s.snapshot = snap
	s.lastRun = snap.ComputedAt

	totals := snap.Totals()
	observability.AspectsCurrent.WithLabelValues(string(aspects.Positive)).Set(float64(totals.Positive))
	observability.AspectsCurrent.WithLabelValues(string(aspects.Negative)).Set(float64(totals.Negative))
	observability.AspectsCurrent.WithLabelValues(string(aspects.Neutral)).Set(float64(totals.Neutral))

	if n := len(snap.Overlaps); n > 0 {
		first := snap.Overlaps[0]
		slog.Debug("rule windows overlap, first match in table order wins",
			"pairs", n, "first", first.First.Name, "second", first.Second.Name, "orb", snap.Orb)
	}
	slog.Info("recomputed", "trigger", trigger, "moment", snap.Moment, "aspects", totals.Total, "close", len(snap.Close))

	s.journal(snap)
	return nil
}

func compute(ctx context.Context, set *settings, moment time.Time) (*Snapshot, error) {
	frame := ephemeris.FrameAt(moment)

	stage := time.Now()
	positions, err := set.calculator.Compute(ctx, frame.Moment)
	if err != nil {
		return nil, err
	}
	observability.RecomputeDuration.WithLabelValues("positions").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	matched, err := aspects.Match(positions, set.rules)
	if err != nil {
		return nil, err
	}
	observability.RecomputeDuration.WithLabelValues("match").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	sum := summary.Aggregate(matched)
	observability.RecomputeDuration.WithLabelValues("summary").Observe(time.Since(stage).Seconds())

	snap := &Snapshot{
		Moment:    frame.Moment,
		JulianDay: frame.JulianDay,
		Ayanamsa:  frame.Ayanamsa,
		Orb:       set.rules.Orb,
		Positions: positions,
		Aspects:   matched,
		Summary:   sum,
		Overlaps:  aspects.OverlappingWindows(set.rules.Table, set.rules.Orb),
	}
	return snap.withFilter(set.filter, set.closeAt), nil
}

func (s *Session) journal(snap *Snapshot) {
	if s.history == nil {
		return
	}
	totals := snap.Totals()
	err := s.history.SaveSnapshot(s.id, history.Snapshot{
		Timestamp:     snap.ComputedAt,
		Moment:        snap.Moment,
		JulianDay:     snap.JulianDay,
		Ayanamsa:      snap.Ayanamsa,
		Orb:           snap.Orb,
		Filter:        snap.Filter,
		AspectCount:   totals.Total,
		PositiveCount: totals.Positive,
		NegativeCount: totals.Negative,
		NeutralCount:  totals.Neutral,
		CloseCount:    len(snap.Close),
	})
	if err != nil {
		observability.HistoryWritesTotal.WithLabelValues("error").Inc()
		slog.Warn("failed to journal snapshot", "session", s.id, "error", err)
		return
	}
	observability.HistoryWritesTotal.WithLabelValues("ok").Inc()
}
