package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajbucci/rustfmsynth-sub000/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %g, want 44100", cfg.SampleRate)
	}
	if cfg.BlockSize != 128 {
		t.Errorf("BlockSize = %d, want 128", cfg.BlockSize)
	}
	if cfg.AckTimeoutDuration() != 10*time.Second {
		t.Errorf("AckTimeout = %s, want 10s", cfg.AckTimeoutDuration())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmsynth.toml")
	content := `
module_path = "/opt/synth/module.wasm"
sample_rate = 48000.0
block_size = 256
ack_timeout = "3s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModulePath != "/opt/synth/module.wasm" {
		t.Errorf("ModulePath = %q", cfg.ModulePath)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %g, want 48000", cfg.SampleRate)
	}
	if cfg.BlockSize != 256 {
		t.Errorf("BlockSize = %d, want 256", cfg.BlockSize)
	}
	if cfg.AckTimeoutDuration() != 3*time.Second {
		t.Errorf("AckTimeout = %s, want 3s", cfg.AckTimeoutDuration())
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BlockSize != 128 {
		t.Errorf("BlockSize = %d, want default", cfg.BlockSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FMSYNTH_MODULE", "https://example.com/synth.wasm")
	t.Setenv("FMSYNTH_BLOCK_SIZE", "64")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModulePath != "https://example.com/synth.wasm" {
		t.Errorf("ModulePath = %q", cfg.ModulePath)
	}
	if cfg.BlockSize != 64 {
		t.Errorf("BlockSize = %d, want 64", cfg.BlockSize)
	}
}

func TestRejectsBadValues(t *testing.T) {
	t.Setenv("FMSYNTH_BLOCK_SIZE", "0")
	if _, err := config.Load(""); err == nil {
		t.Error("block size 0 should be rejected")
	}

	t.Setenv("FMSYNTH_BLOCK_SIZE", "not-a-number")
	if _, err := config.Load(""); err == nil {
		t.Error("non-numeric block size should be rejected")
	}
}
