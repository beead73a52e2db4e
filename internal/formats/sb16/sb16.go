// Package sb16 reads a legacy fixed-geometry echosounder format with 16
// beams per ping. The format is read-only and carries bathymetry and
// navigation only; everything else reaches callers as the session's
// neutral defaults.
package sb16

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// FormatID is the numeric identifier of the format.
const FormatID = 16

// Name is the registry name of the format.
const Name = "sb16"

// Beams is the fixed beam count; beam Nadir is vertical.
const (
	Beams = 16
	Nadir = 8
)

// Record layout (binary, big-endian):
//   - sync (2 bytes, 0x5342 "SB")
//   - epoch seconds (4 bytes, unsigned)
//   - lon, lat (2 x 4 bytes, signed, 1e-7 degrees)
//   - heading (2 bytes, 0.01 degrees)
//   - speed (2 bytes, 0.01 km/h)
//   - depths (16 x 2 bytes, signed meters, 0 = no sounding)
//   - across-track distances (16 x 2 bytes, signed meters)
const (
	Sync       = 0x5342
	RecordSize = 2 + 4 + 4 + 4 + 2 + 2 + Beams*2 + Beams*2

	degreeScale  = 1e-7
	headingScale = 0.01
	speedScale   = 0.01
)

func init() {
	driver.Register(driver.Format{
		Info: info,
		New:  func(opts driver.Options) driver.Driver { return New() },
	})
}

var info = driver.Info{
	Name:        Name,
	ID:          FormatID,
	Description: "legacy 16-beam echosounder (read-only)",
	FixedBeams:  Beams,
}

// Record is one decoded ping.
type Record struct {
	Epoch   uint32
	Lon     int32
	Lat     int32
	Heading uint16
	Speed   uint16
	Depth   [Beams]int16
	Across  [Beams]int16
}

// Reader is the per-stream state.
type Reader struct {
	rec  Record
	have bool
	raw  [RecordSize]byte
}

// New allocates the per-stream state. Records have a fixed size, so no
// option applies.
func New() *Reader {
	return &Reader{}
}

// Info implements driver.Driver.
func (r *Reader) Info() driver.Info { return info }

// ReadRecord implements driver.Driver.
func (r *Reader) ReadRecord(src io.Reader) error {
	if _, err := io.ReadFull(src, r.raw[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read record: %w: %w", errors.ErrShortRead, err)
	}

	b := r.raw[:]
	if sync := binary.BigEndian.Uint16(b[0:2]); sync != Sync {
		return fmt.Errorf("sync %#04x: %w", sync, errors.ErrBadRecord)
	}

	rec := Record{
		Epoch:   binary.BigEndian.Uint32(b[2:6]),
		Lon:     int32(binary.BigEndian.Uint32(b[6:10])),
		Lat:     int32(binary.BigEndian.Uint32(b[10:14])),
		Heading: binary.BigEndian.Uint16(b[14:16]),
		Speed:   binary.BigEndian.Uint16(b[16:18]),
	}
	off := 18
	for i := range rec.Depth {
		rec.Depth[i] = int16(binary.BigEndian.Uint16(b[off:]))
		off += 2
	}
	for i := range rec.Across {
		rec.Across[i] = int16(binary.BigEndian.Uint16(b[off:]))
		off += 2
	}

	r.rec = rec
	r.have = true
	return nil
}

// Kind implements driver.Driver. Every record is a survey ping.
func (r *Reader) Kind() swath.Kind {
	if !r.have {
		return swath.KindUnknown
	}
	return swath.KindSurvey
}

// Dimensions implements driver.Driver.
func (r *Reader) Dimensions() swath.Dims {
	if !r.have {
		return swath.Dims{}
	}
	return swath.Dims{Kind: swath.KindSurvey, Beams: Beams}
}

// Extract implements driver.Driver.
func (r *Reader) Extract(p *swath.Ping) error {
	p.Reset(r.Kind())
	if !r.have {
		return nil
	}

	rec := &r.rec
	if rec.Epoch != 0 {
		p.Time = time.Unix(int64(rec.Epoch), 0).UTC()
	}
	p.Lon = float64(rec.Lon) * degreeScale
	p.Lat = float64(rec.Lat) * degreeScale
	p.Heading = float64(rec.Heading) * headingScale
	p.Speed = float64(rec.Speed) * speedScale

	p.Resize(Beams, 0, 0)
	for i := range p.Beams {
		if rec.Depth[i] == 0 {
			p.Beams[i] = swath.Beam{Flag: swath.FlagNull}
			continue
		}
		p.Beams[i] = swath.Beam{
			Depth:       float64(rec.Depth[i]),
			AcrossTrack: float64(rec.Across[i]),
		}
	}
	return nil
}

// Close implements driver.Driver.
func (r *Reader) Close() error {
	r.have = false
	return nil
}

// AppendRecord encodes rec in the on-disk layout. It exists for fixtures
// and tools that synthesize legacy files; the driver itself never writes.
func AppendRecord(b []byte, rec *Record) []byte {
	b = binary.BigEndian.AppendUint16(b, Sync)
	b = binary.BigEndian.AppendUint32(b, rec.Epoch)
	b = binary.BigEndian.AppendUint32(b, uint32(rec.Lon))
	b = binary.BigEndian.AppendUint32(b, uint32(rec.Lat))
	b = binary.BigEndian.AppendUint16(b, rec.Heading)
	b = binary.BigEndian.AppendUint16(b, rec.Speed)
	for _, d := range rec.Depth {
		b = binary.BigEndian.AppendUint16(b, uint16(d))
	}
	for _, a := range rec.Across {
		b = binary.BigEndian.AppendUint16(b, uint16(a))
	}
	return b
}

var _ driver.Driver = (*Reader)(nil)
