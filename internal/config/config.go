// Package config loads and persists the sundownd configuration through
// viper, following the XDG base directory layout.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Temperature TemperatureConfig
	Schedule    ScheduleConfig
	Location    LocationConfig
	Backend     BackendConfig
	Server      ServerConfig
	Logging     LoggingConfig

	// Internal viper instance
	v *viper.Viper
}

// TemperatureConfig holds the day and night Kelvin targets
type TemperatureConfig struct {
	Day   int
	Night int
}

// ScheduleConfig holds the control loop parameters
type ScheduleConfig struct {
	UpdateIntervalSeconds int     `mapstructure:"update_interval"`
	TransitionMinutes     float64 `mapstructure:"transition_minutes"`
}

// UpdateInterval returns the loop cadence as a duration
func (s ScheduleConfig) UpdateInterval() time.Duration {
	return time.Duration(s.UpdateIntervalSeconds) * time.Second
}

// Transition returns the transition length as a duration
func (s ScheduleConfig) Transition() time.Duration {
	return time.Duration(s.TransitionMinutes * float64(time.Minute))
}

// LocationConfig holds the optional geographic position for the
// sun-relative schedule. Coordinates count as configured only when both
// latitude and longitude appear in the config or flags.
type LocationConfig struct {
	Latitude       float64
	Longitude      float64
	Timezone       string
	Zipcode        string
	Country        string
	HasCoordinates bool
}

// BackendConfig selects and parameterizes the gamma backend
type BackendConfig struct {
	Type     string
	RampSize int `mapstructure:"ramp_size"`
}

// ServerConfig represents the control socket configuration
type ServerConfig struct {
	UnixSocket string `mapstructure:"unix_socket"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from a file and environment variables
func Load(configName, configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	// Set default values
	v.SetDefault("temperature.day", DefaultDayTemp)
	v.SetDefault("temperature.night", DefaultNightTemp)
	v.SetDefault("schedule.update_interval", int(DefaultUpdateInterval.Seconds()))
	v.SetDefault("schedule.transition_minutes", DefaultTransition.Minutes())
	v.SetDefault("location.country", "US")
	v.SetDefault("backend.type", BackendGammaRelay)
	v.SetDefault("backend.ramp_size", DefaultRampSize)
	v.SetDefault("server.unix_socket", GetRuntimeSocketPath())
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)

	// Add config paths
	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Info("Using config file from command line", "path", configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)

		// Create config directory if it doesn't exist
		if err := os.MkdirAll(GetConfigBaseDir(), 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}

		// Only log if config file exists
		if _, err := os.Stat(configPath); err == nil {
			slog.Info("Using default config file", "path", configPath)
		}
	}

	// Read config file - Viper will use defaults if file not found
	v.ReadInConfig()

	// Bind environment variables
	v.SetEnvPrefix("SUNDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{v: v}
	cfg.refresh()
	return cfg, nil
}

// refresh rebuilds the typed fields from the viper state.
func (c *Config) refresh() {
	c.Temperature = TemperatureConfig{
		Day:   c.v.GetInt("temperature.day"),
		Night: c.v.GetInt("temperature.night"),
	}
	c.Schedule = ScheduleConfig{
		UpdateIntervalSeconds: c.v.GetInt("schedule.update_interval"),
		TransitionMinutes:     c.v.GetFloat64("schedule.transition_minutes"),
	}
	c.Location = LocationConfig{
		Latitude:       c.v.GetFloat64("location.latitude"),
		Longitude:      c.v.GetFloat64("location.longitude"),
		Timezone:       c.v.GetString("location.timezone"),
		Zipcode:        c.v.GetString("location.zipcode"),
		Country:        c.v.GetString("location.country"),
		HasCoordinates: c.v.IsSet("location.latitude") && c.v.IsSet("location.longitude"),
	}
	c.Backend = BackendConfig{
		Type:     c.v.GetString("backend.type"),
		RampSize: c.v.GetInt("backend.ramp_size"),
	}
	c.Server = ServerConfig{
		UnixSocket: c.v.GetString("server.unix_socket"),
	}
	c.Logging = LoggingConfig{
		Level:  c.v.GetString("logging.level"),
		Format: c.v.GetString("logging.format"),
	}
}

// Watch re-reads the config file on change and invokes onChange with the
// refreshed configuration. Only fields the daemon can retune live (the
// log level) should be acted on; scheduling parameters are immutable for
// a running scheduler instance.
func (c *Config) Watch(onChange func(*Config)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Debug("Config file changed", "file", e.Name, "op", e.Op.String())
		c.refresh()
		if onChange != nil {
			onChange(c)
		}
	})
	c.v.WatchConfig()
}

// Save saves the configuration to file
func (c *Config) Save(filename string) error {
	logger := slog.Default()
	configPath := GetConfigPath(filename)

	logger.Info("Saving configuration", "path", configPath)

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(GetConfigBaseDir(), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Set config file path
	c.v.SetConfigFile(configPath)

	// Update viper with current values
	c.v.Set("temperature", c.Temperature)
	c.v.Set("schedule", map[string]any{
		"update_interval":    c.Schedule.UpdateIntervalSeconds,
		"transition_minutes": c.Schedule.TransitionMinutes,
	})
	c.v.Set("backend", map[string]any{
		"type":      c.Backend.Type,
		"ramp_size": c.Backend.RampSize,
	})
	c.v.Set("server", map[string]any{"unix_socket": c.Server.UnixSocket})
	c.v.Set("logging", c.Logging)
	if c.Location.HasCoordinates {
		c.v.Set("location", map[string]any{
			"latitude":  c.Location.Latitude,
			"longitude": c.Location.Longitude,
			"timezone":  c.Location.Timezone,
			"country":   c.Location.Country,
		})
	}

	// Write config - Viper will create the file if it doesn't exist
	if err := c.v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	logger.Info("Configuration saved successfully", "path", configPath)
	return nil
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// Set sets a value in the configuration
func (c *Config) Set(key string, value interface{}) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
	c.refresh()
}
