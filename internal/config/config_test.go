package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "OVD", cfg.Station.AirportIATA)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Tracking.TrailMaxPoints)
	assert.Equal(t, 30, cfg.Tracking.EvictAfterMissedTicks)
	assert.Equal(t, "Vueling", cfg.Airlines.Prefixes["VLG"])
	assert.Equal(t, 10*time.Second, cfg.LivePollInterval())
	assert.Equal(t, 30*time.Minute, cfg.SchedulePollInterval())
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[station]
airport_iata = "SCQ"
airport_name = "Santiago de Compostela"

[live_feed]
poll_interval_seconds = 15

[airlines.prefixes]
VLG = "Vueling Airlines"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "SCQ", cfg.Station.AirportIATA)
	assert.Equal(t, 15*time.Second, cfg.LivePollInterval())
	assert.Equal(t, "Vueling Airlines", cfg.Airlines.Prefixes["VLG"])

	// Untouched sections keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Schedule.PollIntervalMinutes)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[station\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty airport", func(c *Config) { c.Station.AirportIATA = "" }},
		{"zero live interval", func(c *Config) { c.LiveFeed.PollIntervalSeconds = 0 }},
		{"negative schedule interval", func(c *Config) { c.Schedule.PollIntervalMinutes = -1 }},
		{"zero trail cap", func(c *Config) { c.Tracking.TrailMaxPoints = 0 }},
		{"zero eviction window", func(c *Config) { c.Tracking.EvictAfterMissedTicks = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
