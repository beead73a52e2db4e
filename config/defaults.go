// Package config provides configuration defaults and utilities
// for the swath toolkit.
//
// This package defines all configurable constants with documented defaults.
// Users can override most of these values via swath.yaml.
package config

import "time"

// =============================================================================
// Codec Defaults
// =============================================================================

const (
	// DefaultHeadroomDivisor maps a ping's largest value onto this many
	// integer counts. 30000 of the 32767 available int16 counts leaves room
	// for outliers inserted after the scale was chosen.
	// Override via config: codec.headroom_divisor
	DefaultHeadroomDivisor = 30000.0

	// DefaultMinScale is the smallest linear scale (meters per count).
	// Pings with tiny or no values quantize at millimeter resolution.
	// Override via config: codec.min_scale
	DefaultMinScale = 0.001

	// AmplitudeScale is the fixed quantum used for amplitudes in the generic
	// format. The layout has no per-ping amplitude scale field.
	AmplitudeScale = 0.1

	// MaxSidescanCount is the largest magnitude an int16 sidescan sample
	// holds before the power-of-two scale is applied.
	MaxSidescanCount = 32767
)

// =============================================================================
// Record Defaults
// =============================================================================

const (
	// MaxCommentLen is the fixed comment record size in bytes, including the
	// terminating NUL. Longer comments are silently truncated.
	MaxCommentLen = 1944

	// DefaultBeamWidth is reported for both beam-width axes when a format
	// carries no native beam width (degrees).
	DefaultBeamWidth = 2.0
)

// =============================================================================
// Stream Limits
// =============================================================================

const (
	// DefaultMaxBeams bounds the bathymetry array of one stream.
	// Inserting a ping with more beams fails the stream with ErrAlloc.
	// Override via config: limits.max_beams
	DefaultMaxBeams = 65535

	// DefaultMaxAmplitudes bounds the amplitude array of one stream.
	// Override via config: limits.max_amplitudes
	DefaultMaxAmplitudes = 65535

	// DefaultMaxPixels bounds the sidescan array of one stream.
	// Override via config: limits.max_pixels
	DefaultMaxPixels = 65535

	// DefaultMaxRecordSize rejects framed records larger than this before
	// any allocation happens.
	DefaultMaxRecordSize = 64 * 1024 * 1024
)

// =============================================================================
// Stream I/O Defaults
// =============================================================================

const (
	// DefaultBufferSize is the size of the buffered reader/writer wrapped
	// around each stream.
	DefaultBufferSize = 64 * 1024
)

// =============================================================================
// Service Defaults
// =============================================================================

const (
	// DefaultWorkers is the number of files processed concurrently by
	// multi-file commands. Each file gets its own session.
	// Override via config: workers
	DefaultWorkers = 4

	// DefaultQueryTimeout bounds a single DuckDB query.
	// Override via config: query.timeout
	DefaultQueryTimeout = 30 * time.Second

	// DefaultPercentileAccuracy is the DDSketch relative accuracy used by
	// the inventory (0.01 = 1%).
	// Override via config: inventory.percentile_accuracy
	DefaultPercentileAccuracy = 0.01

	// DefaultQueryMemoryLimit is the DuckDB memory limit.
	// Override via config: query.memory_limit
	DefaultQueryMemoryLimit = "1GB"

	// DefaultQueryMaxRows caps the rows an ad-hoc query returns.
	// Override via config: query.max_rows
	DefaultQueryMaxRows = 100000
)

// =============================================================================
// Export Defaults
// =============================================================================

const (
	// DefaultCompression is the Parquet compression codec for exports.
	// Override via config: export.compression
	DefaultCompression = "zstd"

	// DefaultRowGroupSize is the number of beam rows per Parquet row group.
	// Override via config: export.row_group_size
	DefaultRowGroupSize = 128 * 1024
)
