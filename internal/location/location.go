// Package location holds the geographic position and timezone used by the
// sun-relative schedule, plus resolvers that build one from user input.
package location

import (
	"fmt"
	"time"

	"github.com/sundown-sh/sundown/internal/errors"
)

// Location is an immutable geographic position with an optional IANA
// timezone name. An empty Timezone means "unresolved"; consumers fall
// back to the system-local zone.
type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Name      string
}

// New validates coordinates and the timezone name (when given) and
// returns a Location. The timezone must be loadable via the IANA database.
func New(latitude, longitude float64, timezone string) (Location, error) {
	if latitude < -90 || latitude > 90 {
		return Location{}, errors.InvalidInputf("latitude %.4f out of range [-90, 90]", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Location{}, errors.InvalidInputf("longitude %.4f out of range [-180, 180]", longitude)
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return Location{}, errors.InvalidInputf("unknown timezone %q", timezone)
		}
	}
	return Location{
		Latitude:  latitude,
		Longitude: longitude,
		Timezone:  timezone,
		Name:      fmt.Sprintf("%.2f, %.2f", latitude, longitude),
	}, nil
}

// TZ returns the IANA location for the configured timezone, or the
// system-local zone when the timezone is empty or fails to load.
func (l Location) TZ() *time.Location {
	if l.Timezone == "" {
		return time.Local
	}
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.Local
	}
	return tz
}
