package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
channels: 4
sample_rate: 2.0e6
max_age_ms: 25
nco_sync:
  mode: master
  master: 2
frame:
  subcarriers: 128
  cyclic_prefix: 32
  taper_len: 8
  payload_symbols: 2
source:
  type: pipe
  path: /tmp/rx_%d
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Channels)
	assert.Equal(t, 2.0e6, cfg.SampleRate)
	assert.Equal(t, 25*time.Millisecond, cfg.MaxAge())
	assert.Equal(t, "master", cfg.NcoSync.Mode)
	assert.Equal(t, 2, cfg.NcoSync.Master)
	assert.Equal(t, 128, cfg.FrameParams().Subcarriers)
	assert.Equal(t, "pipe", cfg.Source.Type)

	// untouched fields keep their defaults
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Equal(t, "cfr.parquet", cfg.Export.CfrFile)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zeroChannels", func(c *Config) { c.Channels = 0 }},
		{"negativeSampleRate", func(c *Config) { c.SampleRate = -1 }},
		{"zeroBlockSize", func(c *Config) { c.BlockSize = 0 }},
		{"badResampleRate", func(c *Config) { c.ResampleRate = 0 }},
		{"negativeMaxAge", func(c *Config) { c.MaxAgeMs = -1 }},
		{"unknownSyncMode", func(c *Config) { c.NcoSync.Mode = "chaos" }},
		{"masterOutOfRange", func(c *Config) { c.NcoSync.Mode = "master"; c.NcoSync.Master = 5 }},
		{"unknownSource", func(c *Config) { c.Source.Type = "carrier-pigeon" }},
		{"zeroPayloadSymbols", func(c *Config) { c.Frame.PayloadSymbols = 0 }},
		{"badSubcarriers", func(c *Config) { c.Frame.Subcarriers = 48 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
