package backend

import (
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/errors"
)

// wl-gammarelay-rs DBus surface.
const (
	gammaRelayBusName  = "rs.wl-gammarelay"
	gammaRelayPath     = dbus.ObjectPath("/")
	gammaRelayProperty = "rs.wl.gammarelay.Temperature"
)

// GammaRelay drives displays through the wl-gammarelay session-bus
// service, which owns the Wayland gamma-control protocol on behalf of
// its clients. The service accepts temperatures in [1000, 10000]; values
// outside that range are clamped before the property write.
type GammaRelay struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewGammaRelay connects to the session bus and verifies the
// wl-gammarelay service is reachable.
func NewGammaRelay(logger *slog.Logger) (*GammaRelay, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.BackendUnavailablef("session bus connect failed: %v", err)
	}

	var owner string
	if err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, gammaRelayBusName).Store(&owner); err != nil {
		return nil, errors.BackendUnavailablef("wl-gammarelay not running on session bus: %v", err)
	}

	logger.Debug("backend: wl-gammarelay connected", "owner", owner)
	return &GammaRelay{conn: conn, logger: logger}, nil
}

func (g *GammaRelay) Apply(kelvin int) error {
	kelvin = config.ClampTemperature(kelvin)

	obj := g.conn.Object(gammaRelayBusName, gammaRelayPath)
	if err := obj.SetProperty(gammaRelayProperty, dbus.MakeVariant(uint16(kelvin))); err != nil {
		return errors.LogErrorAndReturn(
			g.logger,
			errors.BackendUnavailablef("temperature property write failed: %v", err),
			"backend: wl-gammarelay apply failed",
			"kelvin", kelvin,
		)
	}

	g.logger.Debug("backend: wl-gammarelay applied", "kelvin", kelvin)
	return nil
}
