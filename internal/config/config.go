// Package config loads the swath YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/xtxerr/swath/config"
	"github.com/xtxerr/swath/internal/codec"
	"github.com/xtxerr/swath/internal/driver"
	"gopkg.in/yaml.v3"
)

// Config represents the complete swath configuration.
type Config struct {
	// Codec tunes scale derivation for quantizing formats.
	Codec CodecConfig `yaml:"codec"`

	// Limits bound the per-stream arrays.
	Limits LimitsConfig `yaml:"limits"`

	// Export configures Parquet export.
	Export ExportConfig `yaml:"export"`

	// Query configures the DuckDB query service.
	Query QueryConfig `yaml:"query"`

	// Inventory configures file statistics.
	Inventory InventoryConfig `yaml:"inventory"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Workers is the number of files processed concurrently.
	Workers int `yaml:"workers"`
}

// CodecConfig tunes scale derivation.
type CodecConfig struct {
	// HeadroomDivisor maps a ping's extreme onto this many counts.
	HeadroomDivisor float64 `yaml:"headroom_divisor"`

	// MinScale is the smallest linear scale.
	MinScale float64 `yaml:"min_scale"`
}

// LimitsConfig bounds the per-stream arrays.
type LimitsConfig struct {
	MaxBeams      int `yaml:"max_beams"`
	MaxAmplitudes int `yaml:"max_amplitudes"`
	MaxPixels     int `yaml:"max_pixels"`

	// MaxRecordSize rejects larger framed records before allocation.
	MaxRecordSize int `yaml:"max_record_size"`

	// BufferSize is the stream buffer size.
	BufferSize int `yaml:"buffer_size"`
}

// ExportConfig configures Parquet export.
type ExportConfig struct {
	// Compression is the compression algorithm: snappy, zstd, gzip, lz4, none.
	Compression string `yaml:"compression"`

	// RowGroupSize is the number of rows per row group.
	RowGroupSize int `yaml:"row_group_size"`

	// IncludeNull exports null beams as rows.
	IncludeNull bool `yaml:"include_null"`
}

// QueryConfig configures the query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit.
	MemoryLimit string `yaml:"memory_limit"`

	// Timeout is the query timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRows is the maximum number of rows returned.
	MaxRows int `yaml:"max_rows"`
}

// InventoryConfig configures file statistics.
type InventoryConfig struct {
	// PercentileAccuracy is the DDSketch relative accuracy (0.01 = 1% error).
	PercentileAccuracy float64 `yaml:"percentile_accuracy"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON selects the JSON handler instead of text.
	JSON bool `yaml:"json"`
}

// Load loads configuration from a YAML file. Fields absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Codec: CodecConfig{
			HeadroomDivisor: config.DefaultHeadroomDivisor,
			MinScale:        config.DefaultMinScale,
		},
		Limits: LimitsConfig{
			MaxBeams:      config.DefaultMaxBeams,
			MaxAmplitudes: config.DefaultMaxAmplitudes,
			MaxPixels:     config.DefaultMaxPixels,
			MaxRecordSize: config.DefaultMaxRecordSize,
			BufferSize:    config.DefaultBufferSize,
		},
		Export: ExportConfig{
			Compression:  config.DefaultCompression,
			RowGroupSize: config.DefaultRowGroupSize,
		},
		Query: QueryConfig{
			MemoryLimit: config.DefaultQueryMemoryLimit,
			Timeout:     config.DefaultQueryTimeout,
			MaxRows:     config.DefaultQueryMaxRows,
		},
		Inventory: InventoryConfig{
			PercentileAccuracy: config.DefaultPercentileAccuracy,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Workers: config.DefaultWorkers,
	}
}

// DriverOptions returns the per-stream options for opening sessions.
func (c *Config) DriverOptions() driver.Options {
	return driver.Options{
		Codec: codec.Params{
			HeadroomDivisor: c.Codec.HeadroomDivisor,
			MinScale:        c.Codec.MinScale,
		},
		MaxBeams:      c.Limits.MaxBeams,
		MaxAmplitudes: c.Limits.MaxAmplitudes,
		MaxPixels:     c.Limits.MaxPixels,
		MaxRecordSize: c.Limits.MaxRecordSize,
		BufferSize:    c.Limits.BufferSize,
	}
}
