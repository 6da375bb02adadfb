// Package backend abstracts the device interface that applies a color
// temperature to one or more displays.
package backend

import (
	"log/slog"

	"github.com/sundown-sh/sundown/internal/gamma"
)

// Backend applies a color temperature to all target displays.
// A non-nil error means at least one display failed; the scheduler treats
// this as non-fatal and does not retry until the target changes.
type Backend interface {
	Apply(kelvin int) error
}

// RampDevice is a display device driven by a per-channel gamma ramp
// rather than a temperature value.
type RampDevice interface {
	SetRamp(ramp gamma.Ramp) error
}

type rampBackend struct {
	dev  RampDevice
	size int
}

// ForRampDevice adapts a ramp-driven device into a Backend. The ramp
// size is dictated by the device contract; use config.DefaultRampSize
// unless the device says otherwise.
func ForRampDevice(dev RampDevice, size int) Backend {
	return &rampBackend{dev: dev, size: size}
}

func (b *rampBackend) Apply(kelvin int) error {
	rgb := gamma.KelvinToRGB(kelvin)
	return b.dev.SetRamp(gamma.BuildRamp(rgb, b.size))
}

// Log is a dry-run backend that records nothing on any display and only
// logs the temperatures it is asked to apply.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a dry-run backend.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Apply(kelvin int) error {
	rgb := gamma.KelvinToRGB(kelvin)
	l.logger.Info("backend: dry-run apply",
		"kelvin", kelvin,
		"red", rgb.R,
		"green", rgb.G,
		"blue", rgb.B,
	)
	return nil
}
