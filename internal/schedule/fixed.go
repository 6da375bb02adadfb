package schedule

import "time"

// Fixed transition windows in fractional hours, used when no location is
// configured or sun-event lookup fails.
const (
	fixedMorningStart = 6.0
	fixedMorningEnd   = 8.0
	fixedEveningStart = 18.0
	fixedEveningEnd   = 20.0
)

// TemperatureForHour computes the target temperature for a wall-clock
// hour using the fixed schedule: day between 08:00 and 18:00, night
// between 20:00 and 06:00, with linear two-hour transitions in between.
// dayTemp and nightTemp may be in either numeric order; interpolation
// follows the configured values.
func TemperatureForHour(hour float64, dayTemp, nightTemp int) int {
	switch {
	case hour >= fixedMorningEnd && hour < fixedEveningStart:
		return dayTemp
	case hour < fixedMorningStart || hour >= fixedEveningEnd:
		return nightTemp
	case hour >= fixedMorningStart && hour < fixedMorningEnd:
		progress := (hour - fixedMorningStart) / (fixedMorningEnd - fixedMorningStart)
		return int(float64(nightTemp) + float64(dayTemp-nightTemp)*progress)
	default:
		progress := (hour - fixedEveningStart) / (fixedEveningEnd - fixedEveningStart)
		return int(float64(dayTemp) + float64(nightTemp-dayTemp)*progress)
	}
}

// hourOfDay converts an instant to fractional hours in its own location.
func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
}
