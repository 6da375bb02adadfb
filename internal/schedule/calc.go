package schedule

import (
	"fmt"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/sundown-sh/sundown/internal/location"
)

// CalcProvider computes sun events astronomically via suncalc.
// It needs no network access and works for any coordinates that have a
// sunrise and a sunset on the requested day; polar day and polar night
// produce an error so callers can fall back to the fixed schedule.
type CalcProvider struct{}

func (CalcProvider) SunTimes(date time.Time, loc location.Location) (SunEvents, error) {
	tz := loc.TZ()
	local := date.In(tz)
	// Anchor the computation at local noon so the surrounding events
	// land on the requested calendar day regardless of UTC offset.
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, tz)

	times := suncalc.GetTimes(noon, loc.Latitude, loc.Longitude)
	sunrise := times[suncalc.Sunrise].Value.In(tz)
	sunset := times[suncalc.Sunset].Value.In(tz)

	if !validSunEvent(sunrise, noon) || !validSunEvent(sunset, noon) || !sunset.After(sunrise) {
		return SunEvents{}, fmt.Errorf("no sunrise/sunset at %.2f, %.2f on %s (polar day or night)",
			loc.Latitude, loc.Longitude, noon.Format("2006-01-02"))
	}

	return SunEvents{Sunrise: sunrise, Sunset: sunset}, nil
}

// validSunEvent rejects the degenerate instants suncalc produces when an
// event does not occur: zero values or times far away from the anchor
// day. Comparisons stay on time.Time to avoid Duration overflow on the
// extreme values NaN julian dates convert to.
func validSunEvent(t, anchor time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.After(anchor.AddDate(0, 0, -2)) && t.Before(anchor.AddDate(0, 0, 2))
}
