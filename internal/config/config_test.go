package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xtxerr/swath/config"
	"github.com/xtxerr/swath/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	if cfg.Codec.HeadroomDivisor != config.DefaultHeadroomDivisor {
		t.Errorf("headroom_divisor = %v", cfg.Codec.HeadroomDivisor)
	}

	if cfg.Limits.MaxBeams != config.DefaultMaxBeams {
		t.Errorf("max_beams = %d", cfg.Limits.MaxBeams)
	}

	if cfg.Workers <= 0 {
		t.Error("expected positive workers")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero headroom", func(c *Config) { c.Codec.HeadroomDivisor = 0 }},
		{"headroom above int16", func(c *Config) { c.Codec.HeadroomDivisor = 40000 }},
		{"negative min scale", func(c *Config) { c.Codec.MinScale = -1 }},
		{"zero max beams", func(c *Config) { c.Limits.MaxBeams = 0 }},
		{"bad compression", func(c *Config) { c.Export.Compression = "brotli-ish" }},
		{"zero row group", func(c *Config) { c.Export.RowGroupSize = 0 }},
		{"no memory limit", func(c *Config) { c.Query.MemoryLimit = "" }},
		{"zero timeout", func(c *Config) { c.Query.Timeout = 0 }},
		{"accuracy", func(c *Config) { c.Inventory.PercentileAccuracy = 1.5 }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"workers", func(c *Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swath.yaml")

	data := []byte(`
codec:
  headroom_divisor: 20000
limits:
  max_beams: 512
export:
  compression: snappy
query:
  timeout: 5s
logging:
  level: debug
  json: true
workers: 2
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Codec.HeadroomDivisor != 20000 {
		t.Errorf("headroom_divisor = %v, want 20000", cfg.Codec.HeadroomDivisor)
	}
	if cfg.Codec.MinScale != config.DefaultMinScale {
		t.Errorf("min_scale = %v, want default", cfg.Codec.MinScale)
	}
	if cfg.Limits.MaxBeams != 512 {
		t.Errorf("max_beams = %d, want 512", cfg.Limits.MaxBeams)
	}
	if cfg.Export.Compression != "snappy" {
		t.Errorf("compression = %q", cfg.Export.Compression)
	}
	if cfg.Query.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Query.Timeout)
	}
	if !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Workers)
	}

	opts := cfg.DriverOptions()
	if opts.MaxBeams != 512 || opts.Codec.HeadroomDivisor != 20000 {
		t.Errorf("DriverOptions() = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("workers: [1, 2"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("workers: -3\n"), 0644)
	if _, err := Load(invalid); !errors.IsValidation(err) {
		t.Errorf("Load(invalid) error = %v, want validation error", err)
	}
}
