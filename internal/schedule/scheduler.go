// Package schedule implements the temperature scheduling engine: the
// fixed-clock and sun-relative day/night models and the background
// control loop that applies their output through a gamma backend.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sundown-sh/sundown/internal/backend"
	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/events"
	"github.com/sundown-sh/sundown/internal/location"
)

// Config carries the scheduling parameters. It is immutable for the
// lifetime of a Scheduler instance.
type Config struct {
	DayTemp        int
	NightTemp      int
	UpdateInterval time.Duration
	Transition     time.Duration
	Location       *location.Location // nil means fixed-clock only
}

// withDefaults fills zero fields with the daemon defaults.
func (c Config) withDefaults() Config {
	if c.DayTemp == 0 {
		c.DayTemp = config.DefaultDayTemp
	}
	if c.NightTemp == 0 {
		c.NightTemp = config.DefaultNightTemp
	}
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = config.DefaultUpdateInterval
	}
	if c.Transition <= 0 {
		c.Transition = config.DefaultTransition
	}
	return c
}

// Scheduler owns the control loop. It periodically recomputes the target
// temperature (sun-relative when a location is configured, fixed-clock
// otherwise), applies it through the backend only on change, and
// notifies the registered observer.
//
// Applies are strictly sequential for one instance: the periodic tick
// and SetTemperatureNow share a single serialized apply path. The
// observer runs synchronously on the applying goroutine and must not
// block, or it delays the next cycle.
type Scheduler struct {
	cfg     Config
	backend backend.Backend
	sun     *SunModel // nil without a location
	logger  *slog.Logger

	applyMu sync.Mutex // serializes the whole apply path

	mu         sync.Mutex // guards the fields below
	running    bool
	current    int
	hasCurrent bool
	onChange   func(kelvin int)
	bus        *events.Bus
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a scheduler. provider is only consulted when cfg.Location
// is set; pass CalcProvider{} for astronomical sun events.
func New(cfg Config, b backend.Backend, provider SunProvider, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	s := &Scheduler{
		cfg:     cfg,
		backend: b,
		logger:  logger,
	}
	if cfg.Location != nil && provider != nil {
		s.sun = NewSunModel(cfg.DayTemp, cfg.NightTemp, cfg.Transition, *cfg.Location, provider, logger)
	}
	return s
}

// Config returns the scheduling parameters the instance was built with.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// SetOnChange registers the change observer. Replacing it while running
// is permitted and takes effect on the next apply.
func (s *Scheduler) SetOnChange(fn func(kelvin int)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetEventBus wires an event bus; lifecycle and temperature changes are
// published alongside the observer callback.
func (s *Scheduler) SetEventBus(bus *events.Bus) {
	s.mu.Lock()
	s.bus = bus
	s.mu.Unlock()
	if s.sun != nil {
		s.sun.SetEventBus(bus)
	}
}

// SunTimes returns the cached sun events when a sun model is active and
// has computed a day.
func (s *Scheduler) SunTimes() (SunEvents, bool) {
	if s.sun == nil {
		return SunEvents{}, false
	}
	return s.sun.CachedEvents()
}

// IsRunning reports whether the control loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CurrentTemperature returns the last applied value; ok is false until
// the first apply. The value reflects intent, not confirmed hardware
// state: a failed backend apply is still recorded.
func (s *Scheduler) CurrentTemperature() (kelvin int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasCurrent
}

// Start applies the current target synchronously and launches the
// periodic loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stop, done := s.stopCh, s.doneCh
	bus := s.bus
	s.mu.Unlock()

	s.logger.Info("scheduler: starting",
		"day_temp", s.cfg.DayTemp,
		"night_temp", s.cfg.NightTemp,
		"update_interval", s.cfg.UpdateInterval,
		"transition", s.cfg.Transition,
		"sun_relative", s.sun != nil,
	)
	if bus != nil {
		bus.Publish(events.NewEvent(events.SchedulerStarted, nil))
	}

	// Immediate apply so callers observe an up-to-date temperature as
	// soon as Start returns.
	s.applyTemperature(s.target(time.Now()))

	go s.loop(stop, done)
}

// Stop signals the loop and waits for it to exit, bounded by the update
// interval plus one second. The wait is best-effort: if the loop is
// stuck in a slow backend apply, Stop returns anyway.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stopCh, s.doneCh
	bus := s.bus
	s.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-time.After(s.cfg.UpdateInterval + time.Second):
		s.logger.Warn("scheduler: loop did not exit within shutdown bound")
	}

	s.logger.Info("scheduler: stopped")
	if bus != nil {
		bus.Publish(events.NewEvent(events.SchedulerStopped, nil))
	}
}

// Run starts the scheduler, blocks until ctx is done, and stops it on
// all exit paths.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()
	defer s.Stop()
	<-ctx.Done()
}

// SetTemperatureNow overrides the schedule immediately. The override
// goes through the shared apply path; the next periodic tick resumes
// normal scheduling.
func (s *Scheduler) SetTemperatureNow(kelvin int) {
	s.applyTemperature(kelvin)
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.applyTemperature(s.target(time.Now()))
		}
	}
}

// target computes the scheduled temperature for now.
func (s *Scheduler) target(now time.Time) int {
	if s.sun != nil {
		return s.sun.Temperature(now)
	}
	return TemperatureForHour(hourOfDay(now), s.cfg.DayTemp, s.cfg.NightTemp)
}

// applyTemperature applies temp through the backend when it differs from
// the current value. The value is recorded and the observer notified
// even when the backend reports failure; failures are not retried until
// the schedule produces a different target.
func (s *Scheduler) applyTemperature(temp int) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.hasCurrent && s.current == temp {
		s.mu.Unlock()
		return
	}
	s.current = temp
	s.hasCurrent = true
	onChange := s.onChange
	bus := s.bus
	s.mu.Unlock()

	if err := s.backend.Apply(temp); err != nil {
		s.logger.Warn("scheduler: backend apply failed", "kelvin", temp, "error", err)
	} else {
		s.logger.Debug("scheduler: applied", "kelvin", temp)
	}

	if onChange != nil {
		onChange(temp)
	}
	if bus != nil {
		bus.Publish(events.NewEvent(events.TemperatureChanged, map[string]int{"kelvin": temp}))
	}
}
