package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sundown-sh/sundown/internal/backend"
	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/errors"
	"github.com/sundown-sh/sundown/internal/events"
	"github.com/sundown-sh/sundown/internal/location"
	"github.com/sundown-sh/sundown/internal/schedule"
	"github.com/sundown-sh/sundown/internal/server"
	"github.com/sundown-sh/sundown/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set up Viper for configuration
	v := viper.New()
	v.SetEnvPrefix("SUNDOWN")
	v.AutomaticEnv()

	// Set up command line flags
	pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "text", "Log format (text, json)")
	pflag.String("config", "", "Path to config file")
	pflag.Int("day-temp", config.DefaultDayTemp, "Daytime temperature in Kelvin")
	pflag.Int("night-temp", config.DefaultNightTemp, "Nighttime temperature in Kelvin")
	pflag.Float64("latitude", 0, "Latitude for the sun-relative schedule")
	pflag.Float64("longitude", 0, "Longitude for the sun-relative schedule")
	pflag.String("zipcode", "", "US-style zipcode to resolve into coordinates")
	pflag.String("country", "US", "Country code for zipcode resolution")
	pflag.String("timezone", "", "IANA timezone name (defaults to system local)")
	pflag.Float64("transition", config.DefaultTransition.Minutes(), "Transition length in minutes")
	pflag.Int("update-interval", int(config.DefaultUpdateInterval.Seconds()), "Update interval in seconds")
	pflag.String("backend", "", "Gamma backend (gammarelay, log)")
	pflag.Parse()

	// Bind flags to Viper - this ensures flags take precedence
	v.BindPFlag("logging.level", pflag.Lookup("log-level"))
	v.BindPFlag("logging.format", pflag.Lookup("log-format"))

	// Load configuration
	cfg, err := config.Load(config.DaemonConfigFilename, v.GetString("config"))
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	// Set up logging with configured level - Viper will use flag value if set
	logger := utils.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format"))
	utils.SetAsDefaultLogger(logger)

	logger.Info("Starting sundownd",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	b, err := selectBackend(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}

	loc, err := resolveLocation(cfg, logger)
	if err != nil && !errors.IsNoLocation(err) {
		logger.Error("Failed to resolve location", "error", err)
		os.Exit(1)
	}

	schedCfg := schedule.Config{
		DayTemp:        cfg.Temperature.Day,
		NightTemp:      cfg.Temperature.Night,
		UpdateInterval: cfg.Schedule.UpdateInterval(),
		Transition:     cfg.Schedule.Transition(),
		Location:       loc,
	}
	var provider schedule.SunProvider
	if loc != nil {
		provider = schedule.CalcProvider{}
		logger.Info("Using sun-relative schedule",
			"latitude", loc.Latitude, "longitude", loc.Longitude, "timezone", loc.Timezone)
	} else {
		logger.Info("No location configured, using fixed clock schedule")
	}

	sched := schedule.New(schedCfg, b, provider, logger)

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		logger.Debug("event", "type", e.Type, "data", e.Data)
	})
	sched.SetEventBus(bus)

	srv := server.New(logger, cfg, sched, version)

	sched.Start()

	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", "error", err)
		sched.Stop()
		os.Exit(1)
	}

	// Live log level changes only; scheduling parameters need a restart.
	cfg.Watch(func(c *config.Config) {
		utils.SetLevel(c.Logging.Level)
		logger.Info("Reloaded configuration", "log_level", c.Logging.Level)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")

	sched.Stop()

	// Leave the display neutral on exit.
	if err := b.Apply(config.DefaultDayTemp); err != nil {
		logger.Warn("Failed to reset display on shutdown", "error", err)
	}

	srv.Stop()
}

// applyFlagOverrides copies explicitly set scheduling flags over the
// file-based configuration.
func applyFlagOverrides(cfg *config.Config) {
	set := func(flag, key string) {
		if f := pflag.Lookup(flag); f != nil && f.Changed {
			cfg.Set(key, f.Value.String())
		}
	}
	set("day-temp", "temperature.day")
	set("night-temp", "temperature.night")
	set("latitude", "location.latitude")
	set("longitude", "location.longitude")
	set("zipcode", "location.zipcode")
	set("country", "location.country")
	set("timezone", "location.timezone")
	set("transition", "schedule.transition_minutes")
	set("update-interval", "schedule.update_interval")
	set("backend", "backend.type")
}

// selectBackend builds the configured gamma backend.
func selectBackend(cfg *config.Config, logger *slog.Logger) (backend.Backend, error) {
	switch cfg.Backend.Type {
	case config.BackendGammaRelay:
		return backend.NewGammaRelay(logger)
	case config.BackendLog:
		return backend.NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}
}

// resolveLocation turns the location configuration into coordinates,
// consulting the zipcode service when no explicit coordinates are set.
// Returns ErrNoLocation when neither coordinates nor a zipcode are
// configured; callers treat that as "use the fixed clock schedule".
func resolveLocation(cfg *config.Config, logger *slog.Logger) (*location.Location, error) {
	if cfg.Location.HasCoordinates {
		loc, err := location.New(cfg.Location.Latitude, cfg.Location.Longitude, cfg.Location.Timezone)
		if err != nil {
			return nil, err
		}
		return &loc, nil
	}

	if cfg.Location.Zipcode == "" {
		return nil, errors.ErrNoLocation
	}

	resolver := location.NewZipcodeResolver(location.DefaultZipcodeBaseURL, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	loc, err := resolver.Resolve(ctx, cfg.Location.Zipcode, cfg.Location.Country)
	if err != nil {
		return nil, fmt.Errorf("resolving zipcode %q: %w", cfg.Location.Zipcode, err)
	}
	loc.Timezone = cfg.Location.Timezone
	if _, err := location.New(loc.Latitude, loc.Longitude, loc.Timezone); err != nil {
		return nil, err
	}
	logger.Info("Resolved zipcode to coordinates",
		"zipcode", cfg.Location.Zipcode, "latitude", loc.Latitude, "longitude", loc.Longitude, "name", loc.Name)

	// Persist the resolved coordinates so later starts skip the lookup.
	cfg.Location.Latitude = loc.Latitude
	cfg.Location.Longitude = loc.Longitude
	cfg.Location.HasCoordinates = true
	if err := cfg.Save(config.DaemonConfigFilename); err != nil {
		logger.Warn("Failed to persist resolved coordinates", "error", err)
	}

	return &loc, nil
}
