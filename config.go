package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/F-L-X-S/WLAN-CSI/pkg/ofdm"
)

// Config is the capture session configuration, loadable from a YAML file.
type Config struct {
	Channels     int     `yaml:"channels" json:"channels"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
	BlockSize    int     `yaml:"block_size" json:"block_size"`
	ResampleRate float64 `yaml:"resample_rate" json:"resample_rate"`
	MaxAgeMs     float64 `yaml:"max_age_ms" json:"max_age_ms"`

	Frame   FrameConfig   `yaml:"frame" json:"frame"`
	Trigger TriggerConfig `yaml:"trigger" json:"trigger"`
	NcoSync NcoSyncConfig `yaml:"nco_sync" json:"nco_sync"`
	Source  SourceConfig  `yaml:"source" json:"source"`
	Export  ExportConfig  `yaml:"export" json:"export"`
}

type FrameConfig struct {
	Subcarriers    int `yaml:"subcarriers" json:"subcarriers"`
	CyclicPrefix   int `yaml:"cyclic_prefix" json:"cyclic_prefix"`
	TaperLen       int `yaml:"taper_len" json:"taper_len"`
	PayloadSymbols int `yaml:"payload_symbols" json:"payload_symbols"`
}

type TriggerConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	PowerThreshold uint16 `yaml:"power_threshold" json:"power_threshold"`
	WindowSize     uint16 `yaml:"window_size" json:"window_size"`
	SkipSamples    uint32 `yaml:"skip_samples" json:"skip_samples"`
}

// NcoSyncConfig selects how oscillators are re-aligned after each pass:
// "average" sets every channel to the cross-channel mean, "master" copies
// one designated channel onto the others.
type NcoSyncConfig struct {
	Mode   string `yaml:"mode" json:"mode"`
	Master int    `yaml:"master" json:"master"`
}

type SourceConfig struct {
	Type string `yaml:"type" json:"type"` // "sim" or "pipe"
	Path string `yaml:"path" json:"path"` // named-pipe path template, %d = channel
}

type ExportConfig struct {
	CfrFile    string `yaml:"cfr_file" json:"cfr_file"`
	SymbolFile string `yaml:"symbol_file" json:"symbol_file"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Channels:     2,
		SampleRate:   1e6,
		BlockSize:    4096,
		ResampleRate: 1.0,
		MaxAgeMs:     50,
		Frame: FrameConfig{
			Subcarriers:    64,
			CyclicPrefix:   16,
			TaperLen:       4,
			PayloadSymbols: 4,
		},
		Trigger: TriggerConfig{
			Enabled:        false,
			PowerThreshold: 100,
			WindowSize:     80,
			SkipSamples:    5000000,
		},
		NcoSync: NcoSyncConfig{Mode: "average"},
		Source:  SourceConfig{Type: "sim", Path: "/tmp/rxchan_%d"},
		Export: ExportConfig{
			CfrFile:    "cfr.parquet",
			SymbolFile: "symbols.parquet",
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the parameter combination before the pipeline starts.
func (c Config) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("config: channels must be positive, got %d", c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %g", c.SampleRate)
	}
	if c.BlockSize < 1 {
		return fmt.Errorf("config: block_size must be positive, got %d", c.BlockSize)
	}
	if c.ResampleRate <= 0 {
		return fmt.Errorf("config: resample_rate must be positive, got %g", c.ResampleRate)
	}
	if c.MaxAgeMs < 0 {
		return fmt.Errorf("config: max_age_ms must not be negative, got %g", c.MaxAgeMs)
	}
	switch c.NcoSync.Mode {
	case "average":
	case "master":
		if c.NcoSync.Master < 0 || c.NcoSync.Master >= c.Channels {
			return fmt.Errorf("config: nco_sync master %d out of range [0, %d)", c.NcoSync.Master, c.Channels)
		}
	case "off":
	default:
		return fmt.Errorf("config: unknown nco_sync mode %q", c.NcoSync.Mode)
	}
	switch c.Source.Type {
	case "sim", "pipe":
	default:
		return fmt.Errorf("config: unknown source type %q", c.Source.Type)
	}
	if c.Frame.PayloadSymbols < 1 {
		return fmt.Errorf("config: payload_symbols must be positive, got %d", c.Frame.PayloadSymbols)
	}
	return c.FrameParams().Validate()
}

// MaxAge returns the aggregation window as a duration.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMs * float64(time.Millisecond))
}

// FrameParams returns the OFDM frame parameters.
func (c Config) FrameParams() ofdm.Params {
	return ofdm.Params{
		Subcarriers:  c.Frame.Subcarriers,
		CyclicPrefix: c.Frame.CyclicPrefix,
		TaperLen:     c.Frame.TaperLen,
	}
}
