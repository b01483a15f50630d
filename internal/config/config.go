package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Station  StationConfig  `toml:"station"`
	LiveFeed LiveFeedConfig `toml:"live_feed"`
	Schedule ScheduleConfig `toml:"schedule_feed"`
	Tracking TrackingConfig `toml:"tracking"`
	Airlines AirlinesConfig `toml:"airlines"`
	Weather  WeatherConfig  `toml:"weather"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// StationConfig describes the airport the tracker is centered on
type StationConfig struct {
	AirportIATA string  `toml:"airport_iata"`
	AirportName string  `toml:"airport_name"`
	Latitude    float64 `toml:"latitude"`
	Longitude   float64 `toml:"longitude"`
	// Bounding box for the live-position query: south, north, west, east
	BBoxSouth float64 `toml:"bbox_south"`
	BBoxNorth float64 `toml:"bbox_north"`
	BBoxWest  float64 `toml:"bbox_west"`
	BBoxEast  float64 `toml:"bbox_east"`
}

// LiveFeedConfig holds the live-position (ADS-B aggregator) feed settings
type LiveFeedConfig struct {
	BaseURL string `toml:"base_url"`
	// Anonymous-tier refresh limit of the aggregator is 10s
	PollIntervalSeconds   int `toml:"poll_interval_seconds"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// ScheduleConfig holds the scheduled-flights feed settings
type ScheduleConfig struct {
	BaseURL               string `toml:"base_url"`
	APIKey                string `toml:"api_key"`
	PollIntervalMinutes   int    `toml:"poll_interval_minutes"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// TrackingConfig holds correlation engine tuning
type TrackingConfig struct {
	TrailMaxPoints int `toml:"trail_max_points"`
	// Trail entries for aircraft absent from this many consecutive live
	// ticks are evicted
	EvictAfterMissedTicks int `toml:"evict_after_missed_ticks"`
}

// AirlinesConfig maps 3-letter callsign prefixes to operator names
type AirlinesConfig struct {
	UnknownLabel string            `toml:"unknown_label"`
	Prefixes     map[string]string `toml:"prefixes"`
}

// WeatherConfig holds the station weather snapshot settings
type WeatherConfig struct {
	APIBaseURL             string `toml:"api_base_url"`
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration, centered on Asturias
// Airport (OVD) and the Cantabrian Sea approach corridor.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
		},
		Station: StationConfig{
			AirportIATA: "OVD",
			AirportName: "Aeropuerto de Asturias",
			Latitude:    43.5636,
			Longitude:   -6.0347,
			BBoxSouth:   43.0,
			BBoxNorth:   44.5,
			BBoxWest:    -7.5,
			BBoxEast:    -4.5,
		},
		LiveFeed: LiveFeedConfig{
			BaseURL:               "https://opensky-network.org/api",
			PollIntervalSeconds:   10,
			RequestTimeoutSeconds: 8,
		},
		Schedule: ScheduleConfig{
			BaseURL:               "http://api.aviationstack.com/v1",
			PollIntervalMinutes:   30,
			RequestTimeoutSeconds: 15,
		},
		Tracking: TrackingConfig{
			TrailMaxPoints:        10,
			EvictAfterMissedTicks: 30,
		},
		Airlines: AirlinesConfig{
			UnknownLabel: "Private / Unknown",
			Prefixes: map[string]string{
				"VLG": "Vueling",
				"RYR": "Ryanair",
				"IBE": "Iberia",
				"IBS": "Iberia Express",
				"ANE": "Air Nostrum",
				"AEA": "Air Europa",
				"EZY": "EasyJet",
				"BAW": "British Airways",
				"DLH": "Lufthansa",
				"VOE": "Volotea",
				"TAP": "TAP Portugal",
				"TRA": "Transavia",
			},
		},
		Weather: WeatherConfig{
			APIBaseURL:             "https://api.open-meteo.com/v1",
			RefreshIntervalMinutes: 10,
			RequestTimeoutSeconds:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration from the given TOML file, layered over the
// defaults. A missing file is not an error; defaults are used as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if c.Station.AirportIATA == "" {
		return fmt.Errorf("station.airport_iata must be set")
	}
	if c.LiveFeed.PollIntervalSeconds <= 0 {
		return fmt.Errorf("live_feed.poll_interval_seconds must be positive")
	}
	if c.Schedule.PollIntervalMinutes <= 0 {
		return fmt.Errorf("schedule_feed.poll_interval_minutes must be positive")
	}
	if c.Tracking.TrailMaxPoints <= 0 {
		return fmt.Errorf("tracking.trail_max_points must be positive")
	}
	if c.Tracking.EvictAfterMissedTicks <= 0 {
		return fmt.Errorf("tracking.evict_after_missed_ticks must be positive")
	}
	return nil
}

// LivePollInterval returns the live feed cadence as a duration
func (c *Config) LivePollInterval() time.Duration {
	return time.Duration(c.LiveFeed.PollIntervalSeconds) * time.Second
}

// SchedulePollInterval returns the schedule feed cadence as a duration
func (c *Config) SchedulePollInterval() time.Duration {
	return time.Duration(c.Schedule.PollIntervalMinutes) * time.Minute
}
