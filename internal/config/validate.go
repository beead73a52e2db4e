package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	swerrors "github.com/xtxerr/swath/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Codec.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}

	if err := c.Limits.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("limits: %w", err))
	}

	if err := c.Export.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("export: %w", err))
	}

	if err := c.Query.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("query: %w", err))
	}

	if a := c.Inventory.PercentileAccuracy; a <= 0 || a >= 1 {
		errs = append(errs, swerrors.NewValidation("inventory.percentile_accuracy", "must be between 0 and 1"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, swerrors.NewValidation("logging.level", "must be one of: debug, info, warn, error"))
	}

	if c.Workers <= 0 {
		errs = append(errs, swerrors.NewValidation("workers", "must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the codec configuration.
func (c *CodecConfig) Validate() error {
	var errs []error

	// Below 1 a single count would span more than the extreme itself.
	if c.HeadroomDivisor < 1 || c.HeadroomDivisor > math.MaxInt16 {
		errs = append(errs, swerrors.NewValidation("headroom_divisor", "must be between 1 and 32767"))
	}

	if c.MinScale <= 0 {
		errs = append(errs, swerrors.NewValidation("min_scale", "must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the limits configuration.
func (c *LimitsConfig) Validate() error {
	var errs []error

	for _, l := range []struct {
		name  string
		value int
	}{
		{"max_beams", c.MaxBeams},
		{"max_amplitudes", c.MaxAmplitudes},
		{"max_pixels", c.MaxPixels},
		{"max_record_size", c.MaxRecordSize},
		{"buffer_size", c.BufferSize},
	} {
		if l.value <= 0 {
			errs = append(errs, swerrors.NewValidation(l.name, "must be positive"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the export configuration.
func (c *ExportConfig) Validate() error {
	var errs []error

	validAlgorithms := map[string]bool{
		"snappy": true,
		"zstd":   true,
		"gzip":   true,
		"lz4":    true,
		"none":   true,
		"":       true, // empty means uncompressed
	}
	if !validAlgorithms[strings.ToLower(c.Compression)] {
		errs = append(errs, swerrors.NewValidation("compression", "must be one of: snappy, zstd, gzip, lz4, none"))
	}

	if c.RowGroupSize <= 0 {
		errs = append(errs, swerrors.NewValidation("row_group_size", "must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the query configuration.
func (c *QueryConfig) Validate() error {
	var errs []error

	if c.MemoryLimit == "" {
		errs = append(errs, swerrors.NewMissingField("memory_limit"))
	}

	if c.Timeout <= 0 {
		errs = append(errs, swerrors.NewValidation("timeout", "must be positive"))
	}

	if c.MaxRows <= 0 {
		errs = append(errs, swerrors.NewValidation("max_rows", "must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
