package schedule

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundown-sh/sundown/internal/events"
	"github.com/sundown-sh/sundown/internal/location"
)

type fakeProvider struct {
	events SunEvents
	err    error
	calls  int
}

func (p *fakeProvider) SunTimes(date time.Time, loc location.Location) (SunEvents, error) {
	p.calls++
	if p.err != nil {
		return SunEvents{}, p.err
	}
	return p.events, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func utcLocation(t *testing.T) location.Location {
	t.Helper()
	loc, err := location.New(40.71, -74.01, "UTC")
	require.NoError(t, err)
	return loc
}

// summerDay returns a provider with sunrise 06:00 and sunset 20:00 UTC
// on 2026-06-15.
func summerDay() *fakeProvider {
	return &fakeProvider{events: SunEvents{
		Sunrise: time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC),
		Sunset:  time.Date(2026, 6, 15, 20, 0, 0, 0, time.UTC),
	}}
}

func TestSunModelFullDay(t *testing.T) {
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), summerDay(), testLogger())

	noon := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 6500, m.Temperature(noon))
}

func TestSunModelFullNight(t *testing.T) {
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), summerDay(), testLogger())

	midnight := time.Date(2026, 6, 15, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, 3400, m.Temperature(midnight))

	lateEvening := time.Date(2026, 6, 15, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 3400, m.Temperature(lateEvening))
}

func TestSunModelMorningTransitionEased(t *testing.T) {
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), summerDay(), testLogger())

	// Midpoint of the 06:00-08:00 window: eased progress is exactly 0.5.
	mid := time.Date(2026, 6, 15, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, 4950, m.Temperature(mid))

	// Quarter point: the cosine ease lags behind linear progress.
	quarter := time.Date(2026, 6, 15, 6, 30, 0, 0, time.UTC)
	got := m.Temperature(quarter)
	assert.Greater(t, got, 3400)
	assert.Less(t, got, 3400+3100/4, "eased progress should trail linear at the quarter point")
}

func TestSunModelEveningTransitionEased(t *testing.T) {
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), summerDay(), testLogger())

	// Evening window is 18:00-20:00 (sunset minus transition to sunset).
	mid := time.Date(2026, 6, 15, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, 4950, m.Temperature(mid))
}

func TestSunModelTransitionMonotonic(t *testing.T) {
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), summerDay(), testLogger())

	prev := m.Temperature(time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC))
	for min := 5; min <= 120; min += 5 {
		ts := time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
		cur := m.Temperature(ts)
		assert.GreaterOrEqual(t, cur, prev, "morning not monotonic at +%dmin", min)
		prev = cur
	}
}

func TestSunModelFallbackMatchesFixedClock(t *testing.T) {
	provider := &fakeProvider{err: errors.New("coordinates unsupported")}
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), provider, testLogger())

	for hour := 0; hour < 24; hour++ {
		ts := time.Date(2026, 6, 15, hour, 17, 0, 0, time.UTC)
		want := TemperatureForHour(hourOfDay(ts), 6500, 3400)
		assert.Equal(t, want, m.Temperature(ts), "fallback mismatch at hour %d", hour)
	}

	// The fallback is retried fresh on every call, never cached.
	assert.Equal(t, 24, provider.calls)
}

func TestSunModelCachesPerDay(t *testing.T) {
	provider := summerDay()
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), provider, testLogger())

	m.Temperature(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC))
	m.Temperature(time.Date(2026, 6, 15, 15, 0, 0, 0, time.UTC))
	m.Temperature(time.Date(2026, 6, 15, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, provider.calls, "same-day calls must reuse the cache")

	// Date rollover invalidates the cache.
	m.Temperature(time.Date(2026, 6, 16, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, provider.calls)

	ev, ok := m.CachedEvents()
	assert.True(t, ok)
	assert.Equal(t, provider.events.Sunrise, ev.Sunrise)
}

func TestSunModelClampsOverlappingWindows(t *testing.T) {
	// A 20-hour transition would cross the opposite window on a 14-hour
	// day; it is clamped to half the sunrise-to-sunset span (7h), so the
	// two windows meet exactly at 13:00 without overlapping.
	m := NewSunModel(6500, 3400, 20*time.Hour, utcLocation(t), summerDay(), testLogger())

	atMeet := m.Temperature(time.Date(2026, 6, 15, 13, 0, 0, 0, time.UTC))
	assert.Equal(t, 6500, atMeet)

	// Sunrise boundary still starts at night temperature.
	assert.Equal(t, 3400, m.Temperature(time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC)))
	// Sunset boundary has fully reached night temperature.
	assert.Equal(t, 3400, m.Temperature(time.Date(2026, 6, 15, 20, 0, 0, 0, time.UTC)))

	// Monotonic all the way up to the meeting point.
	prev := m.Temperature(time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC))
	for min := 10; min <= 7*60; min += 10 {
		ts := time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
		cur := m.Temperature(ts)
		assert.GreaterOrEqual(t, cur, prev, "clamped morning not monotonic at +%dmin", min)
		prev = cur
	}
}

func TestSunModelPublishesRefreshEvents(t *testing.T) {
	provider := summerDay()
	m := NewSunModel(6500, 3400, 2*time.Hour, utcLocation(t), provider, testLogger())

	bus := events.NewBus()
	var refreshes int
	bus.Subscribe(func(e events.Event) {
		if e.Type == events.SunTimesRefreshed {
			refreshes++
		}
	})
	m.SetEventBus(bus)

	m.Temperature(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC))
	m.Temperature(time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, refreshes)

	m.Temperature(time.Date(2026, 6, 16, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, refreshes)
}
