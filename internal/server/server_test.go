package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/location"
	"github.com/sundown-sh/sundown/internal/schedule"
)

type fakeScheduler struct {
	running  bool
	kelvin   int
	hasTemp  bool
	setCalls []int
	sun      schedule.SunEvents
	hasSun   bool
	cfg      schedule.Config
}

func (f *fakeScheduler) IsRunning() bool { return f.running }

func (f *fakeScheduler) CurrentTemperature() (int, bool) { return f.kelvin, f.hasTemp }

func (f *fakeScheduler) SetTemperatureNow(kelvin int) {
	f.setCalls = append(f.setCalls, kelvin)
	f.kelvin = kelvin
	f.hasTemp = true
}

func (f *fakeScheduler) SunTimes() (schedule.SunEvents, bool) { return f.sun, f.hasSun }

func (f *fakeScheduler) Config() schedule.Config { return f.cfg }

func startTestServer(t *testing.T, sched TemperatureScheduler) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "sundownd.sock")
	cfg := &config.Config{}
	cfg.Server.UnixSocket = socketPath

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(logger, cfg, sched, "test")
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	return socketPath
}

// roundTrip sends one request over a fresh connection and decodes the
// response, mirroring how the CLI client talks to the daemon.
func roundTrip(t *testing.T, socketPath, action string, data map[string]any) map[string]any {
	t.Helper()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	req := map[string]any{"action": action}
	if data != nil {
		req["data"] = data
	}
	require.NoError(t, json.NewEncoder(conn).Encode(req))

	var resp map[string]any
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	return resp
}

func TestServerPing(t *testing.T) {
	socketPath := startTestServer(t, &fakeScheduler{})

	resp := roundTrip(t, socketPath, "ping", nil)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "pong", resp["message"])
}

func TestServerGetStatus(t *testing.T) {
	loc, err := location.New(40.71, -74.01, "UTC")
	require.NoError(t, err)

	sched := &fakeScheduler{
		running: true,
		kelvin:  4800,
		hasTemp: true,
		hasSun:  true,
		sun: schedule.SunEvents{
			Sunrise: time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC),
			Sunset:  time.Date(2026, 6, 15, 20, 0, 0, 0, time.UTC),
		},
		cfg: schedule.Config{
			DayTemp:        6500,
			NightTemp:      3400,
			UpdateInterval: 30 * time.Second,
			Transition:     time.Hour,
			Location:       &loc,
		},
	}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "get_status", nil)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["running"])
	assert.Equal(t, float64(4800), resp["kelvin"])
	assert.Equal(t, float64(6500), resp["day_temp"])
	assert.Equal(t, float64(3400), resp["night_temp"])
	assert.Equal(t, true, resp["sun_relative"])
	assert.Equal(t, "UTC", resp["timezone"])
	assert.Equal(t, "2026-06-15T06:00:00Z", resp["sunrise"])
	assert.Equal(t, "2026-06-15T20:00:00Z", resp["sunset"])
}

func TestServerGetStatusFixedClock(t *testing.T) {
	sched := &fakeScheduler{cfg: schedule.Config{DayTemp: 6500, NightTemp: 3400}}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "get_status", nil)
	assert.Equal(t, false, resp["sun_relative"])
	assert.NotContains(t, resp, "sunrise")
	assert.NotContains(t, resp, "latitude")
}

func TestServerGetTemperature(t *testing.T) {
	sched := &fakeScheduler{kelvin: 3400, hasTemp: true}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "get_temperature", nil)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["applied"])
	assert.Equal(t, float64(3400), resp["kelvin"])
}

func TestServerSetTemperature(t *testing.T) {
	sched := &fakeScheduler{}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "set_temperature", map[string]any{"kelvin": 5200})
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, []int{5200}, sched.setCalls)
}

func TestServerSetTemperatureValidation(t *testing.T) {
	sched := &fakeScheduler{}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "set_temperature", map[string]any{"kelvin": 50})
	assert.Contains(t, resp, "error")

	resp = roundTrip(t, socketPath, "set_temperature", nil)
	assert.Contains(t, resp, "error")

	assert.Empty(t, sched.setCalls)
}

func TestServerReset(t *testing.T) {
	sched := &fakeScheduler{kelvin: 3400, hasTemp: true}
	socketPath := startTestServer(t, sched)

	resp := roundTrip(t, socketPath, "reset", nil)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(6500), resp["kelvin"])
	assert.Equal(t, []int{6500}, sched.setCalls)
}

func TestServerGetVersion(t *testing.T) {
	socketPath := startTestServer(t, &fakeScheduler{})

	resp := roundTrip(t, socketPath, "get_version", nil)
	assert.Equal(t, "test", resp["version"])
}

func TestServerUnknownAction(t *testing.T) {
	socketPath := startTestServer(t, &fakeScheduler{})

	resp := roundTrip(t, socketPath, "frobnicate", nil)
	assert.Contains(t, resp["error"], "unknown action")
}

type panickyScheduler struct {
	fakeScheduler
}

func (p *panickyScheduler) Config() schedule.Config { panic("scheduler state corrupted") }

func TestServerRecoversFromHandlerPanic(t *testing.T) {
	socketPath := startTestServer(t, &panickyScheduler{})

	resp := roundTrip(t, socketPath, "get_status", nil)
	require.Contains(t, resp, "error")
	assert.Contains(t, resp["error"], "internal error")

	// The listener must survive the panicking connection.
	resp = roundTrip(t, socketPath, "ping", nil)
	assert.Equal(t, "pong", resp["message"])
}

func TestServerMultipleRequestsOneConnection(t *testing.T) {
	socketPath := startTestServer(t, &fakeScheduler{})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)
	for i := 0; i < 3; i++ {
		require.NoError(t, enc.Encode(map[string]any{"action": "ping"}))
		var resp map[string]any
		require.NoError(t, dec.Decode(&resp))
		assert.Equal(t, "pong", resp["message"])
	}
}
