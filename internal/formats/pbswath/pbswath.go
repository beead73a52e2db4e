// Package pbswath implements the interchange swath format: full-precision
// records with protobuf-encoded payloads in a checksummed framing.
//
// File format:
//   - Header: 8 bytes magic + 4 bytes version
//   - Records: [4 bytes length][4 bytes crc32][payload]
//
// Unlike the generic format it keeps travel times, detection methods,
// sound velocity profiles and raw sidescan, and implements every optional
// capability.
package pbswath

import (
	"fmt"
	"math"

	"github.com/xtxerr/swath/internal/buffer"
	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// FormatID is the numeric identifier of the interchange format.
const FormatID = 72

// Name is the registry name of the interchange format.
const Name = "pbswath"

func init() {
	driver.Register(driver.Format{
		Info: info,
		New:  func(opts driver.Options) driver.Driver { return New(opts) },
	})
}

var info = driver.Info{
	Name:        Name,
	ID:          FormatID,
	Description: "full-precision interchange format (protobuf payloads, crc32 framing)",
}

// record is one decoded record. tt and detects always have one entry per
// beam.
type record struct {
	ping    swath.Ping
	tt      []swath.TravelTime
	detects []swath.Detect
	draft   float64
	ssv     float64
	svp     swath.SVP
	raw     swath.RawSidescan
}

func (r *record) reset(kind swath.Kind) {
	r.ping.Reset(kind)
	r.tt = r.tt[:0]
	r.detects = r.detects[:0]
	r.draft = 0
	r.ssv = 0
	r.svp = swath.SVP{Points: r.svp.Points[:0]}
	r.raw = swath.RawSidescan{Port: r.raw.Port[:0], Starboard: r.raw.Starboard[:0]}
}

// copyFrom deep-copies src into r, reusing r's slices.
func (r *record) copyFrom(src *record) {
	src.ping.CopyTo(&r.ping)
	r.tt = append(r.tt[:0], src.tt...)
	r.detects = append(r.detects[:0], src.detects...)
	r.draft = src.draft
	r.ssv = src.ssv
	r.svp = swath.SVP{Time: src.svp.Time, Points: append(r.svp.Points[:0], src.svp.Points...)}
	r.raw = swath.RawSidescan{
		SampleInterval: src.raw.SampleInterval,
		Port:           append(r.raw.Port[:0], src.raw.Port...),
		Starboard:      append(r.raw.Starboard[:0], src.raw.Starboard...),
	}
}

// Store is the per-stream state of the interchange format. Records are
// decoded into a staging record that replaces the current one only on
// success.
type Store struct {
	opts driver.Options

	cur  *record
	next *record

	enc     encoder
	payload *buffer.Growable[byte]
	out     []byte
}

// New allocates the per-stream state.
func New(opts driver.Options) *Store {
	return &Store{
		opts:    opts.Normalize(),
		cur:     &record{},
		next:    &record{},
		payload: buffer.NewGrowable[byte](0),
	}
}

func (s *Store) limits() limits {
	return limits{
		beams:      s.opts.MaxBeams,
		amplitudes: s.opts.MaxAmplitudes,
		pixels:     s.opts.MaxPixels,
	}
}

func (s *Store) checkLimits(beams, amplitudes, pixels int) error {
	if beams > s.opts.MaxBeams {
		return errors.NewAlloc("beams", beams, s.opts.MaxBeams)
	}
	if amplitudes > s.opts.MaxAmplitudes {
		return errors.NewAlloc("amplitudes", amplitudes, s.opts.MaxAmplitudes)
	}
	if pixels > s.opts.MaxPixels {
		return errors.NewAlloc("pixels", pixels, s.opts.MaxPixels)
	}
	return nil
}

// Info implements driver.Driver.
func (s *Store) Info() driver.Info { return info }

// Kind implements driver.Driver.
func (s *Store) Kind() swath.Kind { return s.cur.ping.Kind }

// Dimensions implements driver.Driver.
func (s *Store) Dimensions() swath.Dims { return s.cur.ping.Dims() }

// Extract implements driver.Driver.
func (s *Store) Extract(p *swath.Ping) error {
	s.cur.ping.CopyTo(p)
	return nil
}

// Close implements driver.Driver.
func (s *Store) Close() error {
	s.cur, s.next = &record{}, &record{}
	s.payload.Reset()
	s.out = nil
	s.enc = encoder{}
	return nil
}

// Insert implements driver.Inserter. Travel times, detects, SVP and raw
// sidescan start out neutral; the matching setters fill them.
func (s *Store) Insert(p *swath.Ping) error {
	switch p.Kind {
	case swath.KindSurvey:
		if err := s.checkLimits(len(p.Beams), len(p.Amplitudes), len(p.Pixels)); err != nil {
			return err
		}
	case swath.KindNav, swath.KindComment:
	default:
		return fmt.Errorf("insert %s record: %w", p.Kind, errors.ErrUnsupported)
	}

	rec := s.cur
	rec.reset(p.Kind)
	p.CopyTo(&rec.ping)
	if p.Kind != swath.KindSurvey {
		rec.ping.Resize(0, 0, 0)
	}
	if p.Kind != swath.KindComment {
		rec.ping.Text = ""
	}
	for i := range rec.ping.Beams {
		if b := &rec.ping.Beams[i]; b.Flag.IsNull() {
			*b = swath.Beam{Flag: b.Flag}
		}
	}

	n := len(rec.ping.Beams)
	rec.tt = append(rec.tt[:0], make([]swath.TravelTime, n)...)
	rec.detects = append(rec.detects[:0], make([]swath.Detect, n)...)
	return nil
}

// SetTravelTimes replaces the travel times of the current Survey record.
// The beam count must match.
func (s *Store) SetTravelTimes(tt swath.TravelTimes) error {
	if s.cur.ping.Kind != swath.KindSurvey {
		return fmt.Errorf("travel times on %s record: %w", s.cur.ping.Kind, errors.ErrKindMismatch)
	}
	if len(tt.Beams) != len(s.cur.ping.Beams) {
		return fmt.Errorf("%d travel times for %d beams: %w", len(tt.Beams), len(s.cur.ping.Beams), errors.ErrBadRecord)
	}
	copy(s.cur.tt, tt.Beams)
	s.cur.draft = tt.DraftOffset
	s.cur.ssv = tt.SSV
	return nil
}

// SetDetects replaces the detection methods of the current Survey record.
func (s *Store) SetDetects(d []swath.Detect) error {
	if s.cur.ping.Kind != swath.KindSurvey {
		return fmt.Errorf("detects on %s record: %w", s.cur.ping.Kind, errors.ErrKindMismatch)
	}
	if len(d) != len(s.cur.ping.Beams) {
		return fmt.Errorf("%d detects for %d beams: %w", len(d), len(s.cur.ping.Beams), errors.ErrBadRecord)
	}
	copy(s.cur.detects, d)
	return nil
}

// TravelTimes implements driver.TravelTimer.
func (s *Store) TravelTimes() swath.TravelTimes {
	rec := s.cur
	if rec.ping.Kind != swath.KindSurvey {
		return swath.NeutralTravelTimes(rec.ping.Kind, 0)
	}
	return swath.TravelTimes{
		Kind:        rec.ping.Kind,
		Beams:       append([]swath.TravelTime(nil), rec.tt...),
		DraftOffset: rec.draft,
		SSV:         rec.ssv,
	}
}

// Detects implements driver.Detector.
func (s *Store) Detects() []swath.Detect {
	if s.cur.ping.Kind != swath.KindSurvey {
		return swath.NeutralDetects(s.cur.ping.Kind, 0)
	}
	return append([]swath.Detect{}, s.cur.detects...)
}

// ExtractAltitude implements driver.AltitudeExtractor.
func (s *Store) ExtractAltitude() (sensorDepth, altitude float64) {
	p := &s.cur.ping
	if p.Kind != swath.KindSurvey {
		return p.SensorDepth, p.Altitude
	}
	return p.SensorDepth, swath.Altitude(p.SensorDepth, p.Altitude, p.Beams)
}

// InsertAltitude implements driver.AltitudeInserter. Depths are absolute
// and stay where they are.
func (s *Store) InsertAltitude(sensorDepth, altitude float64) error {
	if s.cur.ping.Kind == swath.KindComment {
		return nil
	}
	s.cur.ping.SensorDepth = sensorDepth
	s.cur.ping.Altitude = altitude
	return nil
}

// ExtractNav implements driver.NavExtractor.
func (s *Store) ExtractNav() swath.Nav {
	if s.cur.ping.Kind == swath.KindComment {
		return swath.Nav{}
	}
	return s.cur.ping.Nav()
}

// InsertNav implements driver.NavInserter.
func (s *Store) InsertNav(n swath.Nav) error {
	if s.cur.ping.Kind == swath.KindComment {
		return nil
	}
	s.cur.ping.SetNav(n)
	return nil
}

// ExtractSVP implements driver.SVPExtractor.
func (s *Store) ExtractSVP() swath.SVP {
	svp := s.cur.svp
	if len(svp.Points) == 0 {
		return swath.SVP{}
	}
	svp.Points = append([]swath.SVPPoint(nil), svp.Points...)
	return svp
}

// InsertSVP implements driver.SVPInserter.
func (s *Store) InsertSVP(svp swath.SVP) error {
	for i, pt := range svp.Points {
		if math.IsNaN(pt.Depth) || math.IsNaN(pt.Velocity) {
			return fmt.Errorf("svp point %d is NaN: %w", i, errors.ErrBadRecord)
		}
	}
	s.cur.svp = swath.SVP{
		Time:   svp.Time,
		Points: append(s.cur.svp.Points[:0], svp.Points...),
	}
	return nil
}

// ExtractRawSidescan implements driver.RawSidescanExtractor.
func (s *Store) ExtractRawSidescan() swath.RawSidescan {
	raw := s.cur.raw
	if len(raw.Port)+len(raw.Starboard) == 0 {
		return swath.RawSidescan{}
	}
	raw.Port = append([]float64(nil), raw.Port...)
	raw.Starboard = append([]float64(nil), raw.Starboard...)
	return raw
}

// InsertRawSidescan implements driver.RawSidescanInserter.
func (s *Store) InsertRawSidescan(ss swath.RawSidescan) error {
	if n := max(len(ss.Port), len(ss.Starboard)); n > s.opts.MaxPixels {
		return errors.NewAlloc("raw sidescan samples", n, s.opts.MaxPixels)
	}
	s.cur.raw = swath.RawSidescan{
		SampleInterval: ss.SampleInterval,
		Port:           append(s.cur.raw.Port[:0], ss.Port...),
		Starboard:      append(s.cur.raw.Starboard[:0], ss.Starboard...),
	}
	return nil
}

// CopyFrom implements driver.Copier.
func (s *Store) CopyFrom(src driver.Driver) error {
	o, ok := src.(*Store)
	if !ok {
		return errors.NewUnsupported(Name, "copy from "+src.Info().Name)
	}
	d := o.Dimensions()
	if err := s.checkLimits(d.Beams, d.Amplitudes, d.Pixels); err != nil {
		return err
	}
	s.cur.copyFrom(o.cur)
	return nil
}

var (
	_ driver.Driver               = (*Store)(nil)
	_ driver.Inserter             = (*Store)(nil)
	_ driver.HeaderReader         = (*Store)(nil)
	_ driver.HeaderWriter         = (*Store)(nil)
	_ driver.TravelTimer          = (*Store)(nil)
	_ driver.Detector             = (*Store)(nil)
	_ driver.AltitudeExtractor    = (*Store)(nil)
	_ driver.AltitudeInserter     = (*Store)(nil)
	_ driver.NavExtractor         = (*Store)(nil)
	_ driver.NavInserter          = (*Store)(nil)
	_ driver.SVPExtractor         = (*Store)(nil)
	_ driver.SVPInserter          = (*Store)(nil)
	_ driver.RawSidescanExtractor = (*Store)(nil)
	_ driver.RawSidescanInserter  = (*Store)(nil)
	_ driver.Copier               = (*Store)(nil)
)
