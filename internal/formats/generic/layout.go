package generic

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/xtxerr/swath/config"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// Record layout (binary, little-endian):
//
// Every record starts with a one-byte kind tag.
//
// Survey and Nav records:
//   - time, lon, lat, sensor depth, altitude, heading, speed,
//     roll, pitch, heave, beam width along, beam width across (12 x f64)
//   - beam, amplitude and pixel counts (3 x u16)
//   - depth scale, distance scale (2 x f32)
//   - sidescan scale power (i8)
//   - sonar type (i16)
//   - beams: count x {flag i8, depth i16, across i16, along i16}
//   - amplitudes: count x i16
//   - pixels: count x {intensity i16, across i16, along i16}
//
// Nav records always carry zero counts.
//
// Comment records:
//   - MaxCommentLen bytes of text, NUL-terminated and NUL-padded
const (
	tagSurvey  byte = 1
	tagComment byte = 2
	tagNav     byte = 3

	headerSize = 12*8 + 3*2 + 2*4 + 1 + 2
	beamSize   = 7
	ampSize    = 2
	pixelSize  = 6
)

// readErr classifies a failed read as a short read.
func readErr(what string, err error) error {
	return fmt.Errorf("read %s: %w: %w", what, errors.ErrShortRead, err)
}

// ReadRecord implements driver.Driver.
func (s *Store) ReadRecord(r io.Reader) error {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return readErr("kind tag", err)
	}

	switch tag[0] {
	case tagSurvey:
		return s.readSurvey(r, swath.KindSurvey)
	case tagNav:
		return s.readSurvey(r, swath.KindNav)
	case tagComment:
		return s.readComment(r)
	default:
		return fmt.Errorf("kind tag %#x: %w", tag[0], errors.ErrBadRecord)
	}
}

func (s *Store) readSurvey(r io.Reader, kind swath.Kind) error {
	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return readErr("header", err)
	}

	d := decoder{b: hb[:]}
	h := header{
		time:            d.f64(),
		lon:             d.f64(),
		lat:             d.f64(),
		sensorDepth:     d.f64(),
		altitude:        d.f64(),
		heading:         d.f64(),
		speed:           d.f64(),
		roll:            d.f64(),
		pitch:           d.f64(),
		heave:           d.f64(),
		beamWidthAlong:  d.f64(),
		beamWidthAcross: d.f64(),
	}
	nb, na, np := int(d.u16()), int(d.u16()), int(d.u16())
	h.depthScale = d.f32()
	h.distanceScale = d.f32()
	h.ssPower = int8(d.u8())
	h.sonarType = int16(d.u16())

	if kind == swath.KindNav && nb+na+np != 0 {
		return fmt.Errorf("nav record with %d/%d/%d samples: %w", nb, na, np, errors.ErrBadRecord)
	}
	if err := s.checkLimits(nb, na, np); err != nil {
		return err
	}

	bodySize := nb*beamSize + na*ampSize + np*pixelSize
	s.raw.Resize(bodySize)
	if _, err := io.ReadFull(r, s.raw.Slice()); err != nil {
		return readErr("body", err)
	}

	s.kind = kind
	s.hdr = h
	s.comment = ""

	d = decoder{b: s.raw.Slice()}

	s.bath.Resize(nb)
	bath := s.bath.Slice()
	for i := range bath {
		bath[i] = beam{
			flag:   swath.Flag(d.u8()),
			depth:  int16(d.u16()),
			across: int16(d.u16()),
			along:  int16(d.u16()),
		}
	}

	s.amp.Resize(na)
	amp := s.amp.Slice()
	for i := range amp {
		amp[i] = int16(d.u16())
	}

	s.ss.Resize(np)
	ss := s.ss.Slice()
	for i := range ss {
		ss[i] = pixel{
			intensity: int16(d.u16()),
			across:    int16(d.u16()),
			along:     int16(d.u16()),
		}
	}
	return nil
}

func (s *Store) readComment(r io.Reader) error {
	s.raw.Resize(config.MaxCommentLen)
	b := s.raw.Slice()
	if _, err := io.ReadFull(r, b); err != nil {
		return readErr("comment", err)
	}

	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}

	s.kind = swath.KindComment
	s.comment = string(b[:n])
	s.bath.Resize(0)
	s.amp.Resize(0)
	s.ss.Resize(0)
	return nil
}

// WriteRecord implements driver.Inserter.
func (s *Store) WriteRecord(w io.Writer) error {
	buf := s.out[:0]

	switch s.kind {
	case swath.KindSurvey, swath.KindNav:
		buf = s.appendSurvey(buf)
	case swath.KindComment:
		buf = append(buf, tagComment)
		start := len(buf)
		buf = append(buf, make([]byte, config.MaxCommentLen)...)
		copy(buf[start:start+config.MaxCommentLen-1], s.comment)
	default:
		return fmt.Errorf("write %s record: %w", s.kind, errors.ErrNoRecord)
	}
	s.out = buf

	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("write record: %w: %w", errors.ErrShortWrite, err)
	}
	if n < len(buf) {
		return fmt.Errorf("write record: %d of %d bytes: %w", n, len(buf), errors.ErrShortWrite)
	}
	return nil
}

func (s *Store) appendSurvey(buf []byte) []byte {
	tag := tagSurvey
	if s.kind == swath.KindNav {
		tag = tagNav
	}
	buf = append(buf, tag)

	h := &s.hdr
	for _, v := range [...]float64{
		h.time, h.lon, h.lat, h.sensorDepth, h.altitude, h.heading,
		h.speed, h.roll, h.pitch, h.heave, h.beamWidthAlong, h.beamWidthAcross,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(s.bath.Len()))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(s.amp.Len()))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(s.ss.Len()))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h.depthScale))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h.distanceScale))
	buf = append(buf, byte(h.ssPower))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.sonarType))

	for _, b := range s.bath.Slice() {
		buf = append(buf, byte(b.flag))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(b.depth))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(b.across))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(b.along))
	}
	for _, a := range s.amp.Slice() {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(a))
	}
	for _, px := range s.ss.Slice() {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(px.intensity))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(px.across))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(px.along))
	}
	return buf
}

// decoder reads little-endian fields from a buffer already known to be
// long enough.
type decoder struct {
	b   []byte
	off int
}

func (d *decoder) u8() uint8 {
	v := d.b[d.off]
	d.off++
	return v
}

func (d *decoder) u16() uint16 {
	v := binary.LittleEndian.Uint16(d.b[d.off:])
	d.off += 2
	return v
}

func (d *decoder) f32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(d.b[d.off:]))
	d.off += 4
	return v
}

func (d *decoder) f64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.b[d.off:]))
	d.off += 8
	return v
}
