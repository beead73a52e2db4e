// Package driver defines the contract every swath format implements and
// the Session through which callers use it.
//
// A driver must implement Driver. Everything else is optional and declared
// by implementing one of the capability interfaces below. Callers never
// test for capabilities themselves: Session resolves them and substitutes a
// format-agnostic neutral value when a driver lacks one, so a missing
// capability looks exactly like a present one that has nothing to report.
package driver

import (
	"io"

	"github.com/xtxerr/swath/config"
	"github.com/xtxerr/swath/internal/codec"
	"github.com/xtxerr/swath/internal/swath"
)

// Info describes a format.
type Info struct {
	// Name is the registry key, e.g. "generic".
	Name string

	// ID is the numeric format identifier.
	ID int

	// Description is a one-line summary for listings.
	Description string

	// FixedBeams is the beam count of fixed-geometry formats, 0 if variable.
	FixedBeams int
}

// Options configures the per-stream state a driver allocates.
type Options struct {
	// Codec tunes scale derivation for quantizing formats.
	Codec codec.Params

	// MaxBeams, MaxAmplitudes and MaxPixels bound the per-stream arrays.
	// Inserting a larger ping fails the stream with ErrAlloc.
	MaxBeams      int
	MaxAmplitudes int
	MaxPixels     int

	// MaxRecordSize rejects oversized framed records before allocation.
	MaxRecordSize int

	// BufferSize is the size of the session's buffered reader or writer.
	BufferSize int
}

// DefaultOptions returns default driver options.
func DefaultOptions() Options {
	return Options{
		Codec:         codec.DefaultParams(),
		MaxBeams:      config.DefaultMaxBeams,
		MaxAmplitudes: config.DefaultMaxAmplitudes,
		MaxPixels:     config.DefaultMaxPixels,
		MaxRecordSize: config.DefaultMaxRecordSize,
		BufferSize:    config.DefaultBufferSize,
	}
}

// Normalize fills unset fields with defaults.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.Codec.HeadroomDivisor <= 0 {
		o.Codec.HeadroomDivisor = d.Codec.HeadroomDivisor
	}
	if o.Codec.MinScale <= 0 {
		o.Codec.MinScale = d.Codec.MinScale
	}
	if o.MaxBeams <= 0 {
		o.MaxBeams = d.MaxBeams
	}
	if o.MaxAmplitudes <= 0 {
		o.MaxAmplitudes = d.MaxAmplitudes
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = d.MaxPixels
	}
	if o.MaxRecordSize <= 0 {
		o.MaxRecordSize = d.MaxRecordSize
	}
	if o.BufferSize <= 0 {
		o.BufferSize = d.BufferSize
	}
	return o
}

// =============================================================================
// Mandatory contract
// =============================================================================

// Driver is the per-stream state of one format. A Driver value is created
// by its Format's New function, used by exactly one Session, and released
// by Close.
type Driver interface {
	// Info describes the format.
	Info() Info

	// ReadRecord reads and decodes the next raw record into the driver's
	// own struct. It returns io.EOF only at a clean record boundary.
	ReadRecord(r io.Reader) error

	// Kind returns the kind of the current record.
	Kind() swath.Kind

	// Dimensions returns the array sizes of the current record without a
	// full decode. Counts are zero for non-Survey kinds.
	Dimensions() swath.Dims

	// Extract translates the current record into p, overwriting all of it.
	Extract(p *swath.Ping) error

	// Close releases the per-stream state.
	Close() error
}

// =============================================================================
// Optional capabilities
// =============================================================================

// Inserter is implemented by writable formats.
type Inserter interface {
	// Insert translates p into the driver's struct, replacing it.
	Insert(p *swath.Ping) error

	// WriteRecord encodes the current struct onto w.
	WriteRecord(w io.Writer) error
}

// HeaderReader is implemented by formats with a file header.
type HeaderReader interface {
	ReadHeader(r io.Reader) error
}

// HeaderWriter is implemented by writable formats with a file header.
type HeaderWriter interface {
	WriteHeader(w io.Writer) error
}

// TravelTimer is implemented by formats carrying per-beam travel times.
type TravelTimer interface {
	TravelTimes() swath.TravelTimes
}

// Detector is implemented by formats recording the detection method.
type Detector interface {
	Detects() []swath.Detect
}

// AltitudeExtractor is implemented by formats with their own altitude logic.
type AltitudeExtractor interface {
	ExtractAltitude() (sensorDepth, altitude float64)
}

// AltitudeInserter is implemented by formats that can update altitude in place.
type AltitudeInserter interface {
	InsertAltitude(sensorDepth, altitude float64) error
}

// NavExtractor is implemented by formats that can report navigation cheaply.
type NavExtractor interface {
	ExtractNav() swath.Nav
}

// NavInserter is implemented by formats that can update navigation in place.
type NavInserter interface {
	InsertNav(n swath.Nav) error
}

// SVPExtractor is implemented by formats carrying sound velocity profiles.
type SVPExtractor interface {
	ExtractSVP() swath.SVP
}

// SVPInserter is implemented by formats that can store sound velocity profiles.
type SVPInserter interface {
	InsertSVP(svp swath.SVP) error
}

// RawSidescanExtractor is implemented by formats carrying raw sidescan.
type RawSidescanExtractor interface {
	ExtractRawSidescan() swath.RawSidescan
}

// RawSidescanInserter is implemented by formats that can store raw sidescan.
type RawSidescanInserter interface {
	InsertRawSidescan(ss swath.RawSidescan) error
}

// Copier is implemented by formats that copy their struct directly.
// CopyFrom returns ErrUnsupported for a src of another format, in which
// case the session copies through the canonical ping instead.
type Copier interface {
	CopyFrom(src Driver) error
}
