package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "sundown"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "sundownd.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "sundownctl.yaml"

	// SocketFilename is the base filename for the Unix socket
	SocketFilename = "sundownd.sock"
)

// Default scheduling parameters
const (
	// DefaultDayTemp is the daytime color temperature in Kelvin
	DefaultDayTemp = 6500

	// DefaultNightTemp is the nighttime color temperature in Kelvin
	DefaultNightTemp = 3400

	// DefaultUpdateInterval is the default cadence of the scheduler loop
	DefaultUpdateInterval = 30 * time.Second

	// DefaultTransition is the default sunrise/sunset transition length
	DefaultTransition = 60 * time.Minute
)

// Temperature constraints
const (
	// MinTemperature is the minimum allowed temperature value (in Kelvin)
	MinTemperature = 1000

	// MaxTemperature is the maximum allowed temperature value (in Kelvin)
	MaxTemperature = 10000
)

// Backend constants
const (
	// DefaultRampSize is the per-channel gamma ramp length most display
	// backends expect; ramp-based devices may override it
	DefaultRampSize = 256

	// BackendGammaRelay selects the wl-gammarelay session-bus backend
	BackendGammaRelay = "gammarelay"

	// BackendLog selects the dry-run logging backend
	BackendLog = "log"
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
