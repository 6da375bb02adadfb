package schedule

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sundown-sh/sundown/internal/events"
	"github.com/sundown-sh/sundown/internal/location"
)

// SunEvents holds the sunrise and sunset instants for one calendar day.
type SunEvents struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// SunProvider computes sun events for the calendar day containing date
// (interpreted in the location's timezone). It may fail for unsupported
// coordinates or polar day/night.
type SunProvider interface {
	SunTimes(date time.Time, loc location.Location) (SunEvents, error)
}

// SunModel computes the target temperature from today's sunrise and
// sunset. Sun events are cached per calendar day in the location's
// timezone and recomputed automatically after a date rollover. When the
// provider fails the model falls back to the fixed clock schedule for
// that call only; the provider is retried fresh on the next call.
//
// The transition length is clamped to half the sunrise-to-sunset span,
// so the morning window can never cross the evening window on short
// high-latitude days.
type SunModel struct {
	day        int
	night      int
	transition time.Duration
	loc        location.Location
	provider   SunProvider
	logger     *slog.Logger
	bus        *events.Bus

	mu        sync.Mutex
	cacheDate string // YYYY-MM-DD in the location's timezone
	cache     SunEvents
}

// NewSunModel creates a sun-relative temperature model.
func NewSunModel(dayTemp, nightTemp int, transition time.Duration, loc location.Location, provider SunProvider, logger *slog.Logger) *SunModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &SunModel{
		day:        dayTemp,
		night:      nightTemp,
		transition: transition,
		loc:        loc,
		provider:   provider,
		logger:     logger,
	}
}

// SetEventBus wires an event bus; the model publishes SunTimesRefreshed
// whenever the per-day cache is recomputed.
func (m *SunModel) SetEventBus(bus *events.Bus) {
	m.mu.Lock()
	m.bus = bus
	m.mu.Unlock()
}

// CachedEvents returns the cached sun events, if any day has been
// computed yet. The events may belong to a previous calendar day.
func (m *SunModel) CachedEvents() (SunEvents, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache, m.cacheDate != ""
}

// Temperature computes the target temperature for the given instant.
func (m *SunModel) Temperature(now time.Time) int {
	tz := m.loc.TZ()
	local := now.In(tz)
	hour := hourOfDay(local)

	ev, err := m.sunTimes(local)
	if err != nil {
		m.logger.Debug("schedule: sun lookup failed, using fixed clock", "error", err)
		return TemperatureForHour(hour, m.day, m.night)
	}

	sunrise := hourOfDay(ev.Sunrise.In(tz))
	sunset := hourOfDay(ev.Sunset.In(tz))

	trans := m.transition.Hours()
	if half := (sunset - sunrise) / 2; trans > half {
		trans = half
	}

	morningStart := sunrise
	morningEnd := sunrise + trans
	eveningStart := sunset - trans
	eveningEnd := sunset

	switch {
	case hour >= morningEnd && hour < eveningStart:
		return m.day
	case hour < morningStart || hour >= eveningEnd:
		return m.night
	case hour >= morningStart && hour < morningEnd:
		p := easeCosine((hour - morningStart) / trans)
		return int(float64(m.night) + float64(m.day-m.night)*p)
	default:
		p := easeCosine((hour - eveningStart) / trans)
		return int(float64(m.day) + float64(m.night-m.day)*p)
	}
}

// sunTimes returns today's sun events, computing and caching them when
// the cached day no longer matches.
func (m *SunModel) sunTimes(local time.Time) (SunEvents, error) {
	date := local.Format("2006-01-02")

	m.mu.Lock()
	if m.cacheDate == date {
		ev := m.cache
		m.mu.Unlock()
		return ev, nil
	}
	m.mu.Unlock()

	// Provider call happens outside the lock; it may be slow.
	ev, err := m.provider.SunTimes(local, m.loc)
	if err != nil {
		return SunEvents{}, err
	}

	m.mu.Lock()
	m.cache = ev
	m.cacheDate = date
	bus := m.bus
	m.mu.Unlock()

	m.logger.Info("schedule: sun times refreshed",
		"date", date,
		"sunrise", ev.Sunrise.In(m.loc.TZ()).Format(time.TimeOnly),
		"sunset", ev.Sunset.In(m.loc.TZ()).Format(time.TimeOnly),
	)
	if bus != nil {
		bus.Publish(events.NewEvent(events.SunTimesRefreshed, ev))
	}
	return ev, nil
}

// easeCosine maps linear progress in [0, 1] to a cosine ease-in-out
// curve, giving slow-start/slow-end transitions.
func easeCosine(p float64) float64 {
	return (1 - math.Cos(p*math.Pi)) / 2
}
