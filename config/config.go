// Package config loads CLI configuration: a TOML file with environment
// variable overrides and typed defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime configuration for the fmsynth CLI.
type Config struct {
	// ModulePath is a filesystem path or http(s) URL for the audio
	// module payload.
	ModulePath string `toml:"module_path"`

	SampleRate float64 `toml:"sample_rate"`
	BlockSize  int     `toml:"block_size"`

	// StorePath is the SQLite patch database location.
	StorePath string `toml:"store_path"`

	// AckTimeout bounds the wait for the engine's initialized
	// acknowledgment, e.g. "10s".
	AckTimeout duration `toml:"ack_timeout"`
}

type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// AckTimeoutDuration returns the timeout as a time.Duration.
func (c Config) AckTimeoutDuration() time.Duration { return time.Duration(c.AckTimeout) }

// Defaults returns the built-in configuration.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ModulePath: "synth.wasm",
		SampleRate: 44100,
		BlockSize:  128,
		StorePath:  filepath.Join(home, ".fmsynth", "patches.db"),
		AckTimeout: duration(10 * time.Second),
	}
}

// Load reads path (when non-empty and present) over the defaults, then
// applies environment overrides: FMSYNTH_MODULE, FMSYNTH_SAMPLE_RATE,
// FMSYNTH_BLOCK_SIZE, FMSYNTH_STORE.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if v := os.Getenv("FMSYNTH_MODULE"); v != "" {
		cfg.ModulePath = v
	}
	if v := os.Getenv("FMSYNTH_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("FMSYNTH_SAMPLE_RATE: %w", err)
		}
		cfg.SampleRate = f
	}
	if v := os.Getenv("FMSYNTH_BLOCK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("FMSYNTH_BLOCK_SIZE: %w", err)
		}
		cfg.BlockSize = n
	}
	if v := os.Getenv("FMSYNTH_STORE"); v != "" {
		cfg.StorePath = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate %g must be positive", c.SampleRate)
	}
	if c.BlockSize <= 0 || c.BlockSize > 8192 {
		return fmt.Errorf("block_size %d outside 1..8192", c.BlockSize)
	}
	if c.ModulePath == "" {
		return fmt.Errorf("module_path must not be empty")
	}
	return nil
}
