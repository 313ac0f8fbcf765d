package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
mastery:
  gain: 0.2
session:
  final:
    name: final
    new_ratio: 0.05
    review_ratio: 0.55
    practice_ratio: 0.4
    daily_minutes: 180
    sessions_per_day: 12
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Mastery.Gain)
	assert.Equal(t, 180, cfg.Session.Final.DailyMinutes)
	assert.Equal(t, 12, cfg.Session.Final.SessionsPerDay)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Gates, cfg.Gates)
	assert.Equal(t, Default().Session.Foundation, cfg.Session.Foundation)
}

func TestLoadRejectsInvalidOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
session:
  foundation:
    name: foundation
    new_ratio: 0.9
    review_ratio: 0.5
    practice_ratio: 0.2
    daily_minutes: 90
    sessions_per_day: 6
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "ratios sum")
}

func TestValidateCatchesBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero gain", func(c *Config) { c.Mastery.Gain = 0 }},
		{"easiness floor too low", func(c *Config) { c.SpacedRep.MinEasiness = 0.5 }},
		{"no sessions", func(c *Config) { c.Session.Revision.SessionsPerDay = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
