// Package generic implements the reference swath format: a compact,
// quantized, little-endian record layout that any other format can be
// converted into without losing its canonical content.
//
// Depths are stored as int16 counts of a per-ping depth scale relative to
// the sensor depth; across- and along-track distances use a per-ping
// distance scale; sidescan intensities use a power-of-two scale. All three
// are derived from the ping's own extremes on insert and travel with the
// record.
package generic

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xtxerr/swath/config"
	"github.com/xtxerr/swath/internal/buffer"
	"github.com/xtxerr/swath/internal/codec"
	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// FormatID is the numeric identifier of the generic format.
const FormatID = 71

// Name is the registry name of the generic format.
const Name = "generic"

func init() {
	driver.Register(driver.Format{
		Info: info,
		New:  func(opts driver.Options) driver.Driver { return New(opts) },
	})
}

var info = driver.Info{
	Name:        Name,
	ID:          FormatID,
	Description: "generic quantized swath format (reference)",
}

// beam is one stored sounding.
type beam struct {
	flag   swath.Flag
	depth  int16
	across int16
	along  int16
}

// pixel is one stored sidescan sample.
type pixel struct {
	intensity int16
	across    int16
	along     int16
}

// header holds the fixed fields of a Survey or Nav record.
type header struct {
	time            float64
	lon             float64
	lat             float64
	sensorDepth     float64
	altitude        float64
	heading         float64
	speed           float64
	roll            float64
	pitch           float64
	heave           float64
	beamWidthAlong  float64
	beamWidthAcross float64

	depthScale    float32
	distanceScale float32
	ssPower       int8
	sonarType     int16
}

// Store is the per-stream state of the generic format.
type Store struct {
	opts driver.Options

	kind    swath.Kind
	hdr     header
	comment string

	bath *buffer.Growable[beam]
	amp  *buffer.Growable[int16]
	ss   *buffer.Growable[pixel]

	// Scratch buffers for encoding and decoding.
	raw     *buffer.Growable[byte]
	out     []byte
	beamBuf *buffer.Growable[swath.Beam]
}

// New allocates the per-stream state.
func New(opts driver.Options) *Store {
	return &Store{
		opts:    opts.Normalize(),
		bath:    buffer.NewGrowable[beam](0),
		amp:     buffer.NewGrowable[int16](0),
		ss:      buffer.NewGrowable[pixel](0),
		raw:     buffer.NewGrowable[byte](0),
		beamBuf: buffer.NewGrowable[swath.Beam](0),
	}
}

// Capacity returns the allocated bathymetry, amplitude and sidescan
// capacities.
func (s *Store) Capacity() (beams, amplitudes, pixels int) {
	return s.bath.Cap(), s.amp.Cap(), s.ss.Cap()
}

// Scales returns the quantization state of the current record.
func (s *Store) Scales() (depthScale, distanceScale float64, ssPower int8) {
	return float64(s.hdr.depthScale), float64(s.hdr.distanceScale), s.hdr.ssPower
}

// Info implements driver.Driver.
func (s *Store) Info() driver.Info { return info }

// Kind implements driver.Driver.
func (s *Store) Kind() swath.Kind { return s.kind }

// Dimensions implements driver.Driver.
func (s *Store) Dimensions() swath.Dims {
	if s.kind != swath.KindSurvey {
		return swath.Dims{Kind: s.kind}
	}
	return swath.Dims{
		Kind:       s.kind,
		Beams:      s.bath.Len(),
		Amplitudes: s.amp.Len(),
		Pixels:     s.ss.Len(),
	}
}

// Close implements driver.Driver.
func (s *Store) Close() error {
	s.bath.Reset()
	s.amp.Reset()
	s.ss.Reset()
	s.raw.Reset()
	s.out = nil
	s.beamBuf.Reset()
	return nil
}

// =============================================================================
// Extract
// =============================================================================

// Extract implements driver.Driver.
func (s *Store) Extract(p *swath.Ping) error {
	p.Reset(s.kind)

	switch s.kind {
	case swath.KindComment:
		p.Text = s.comment
		return nil
	case swath.KindSurvey, swath.KindNav:
	default:
		return nil
	}

	s.extractHeader(p)
	if s.kind != swath.KindSurvey {
		return nil
	}

	p.Resize(s.bath.Len(), s.amp.Len(), s.ss.Len())
	s.dequantizeBeams(p.Beams)

	for i, a := range s.amp.Slice() {
		p.Amplitudes[i] = codec.Dequantize(a, config.AmplitudeScale, 0)
	}

	dist := float64(s.hdr.distanceScale)
	ssScale := codec.PowerScale(s.hdr.ssPower)
	for i, px := range s.ss.Slice() {
		p.Pixels[i] = swath.Pixel{
			Intensity:   codec.Dequantize(px.intensity, ssScale, 0),
			AcrossTrack: codec.Dequantize(px.across, dist, 0),
			AlongTrack:  codec.Dequantize(px.along, dist, 0),
		}
	}
	return nil
}

func (s *Store) extractHeader(p *swath.Ping) {
	h := &s.hdr
	p.Time = swath.SecondsToTime(h.time)
	p.Lon = h.lon
	p.Lat = h.lat
	p.SensorDepth = h.sensorDepth
	p.Altitude = h.altitude
	p.Heading = h.heading
	p.Speed = h.speed
	p.Roll = h.roll
	p.Pitch = h.pitch
	p.Heave = h.heave
	p.BeamWidthAlong = h.beamWidthAlong
	p.BeamWidthAcross = h.beamWidthAcross
	p.SonarType = h.sonarType
}

// dequantizeBeams fills dst, which must have the bathymetry length. Null
// beams always read as zero, whatever their stored counts.
func (s *Store) dequantizeBeams(dst []swath.Beam) {
	depthScale := float64(s.hdr.depthScale)
	dist := float64(s.hdr.distanceScale)
	for i, b := range s.bath.Slice() {
		if b.flag.IsNull() {
			dst[i] = swath.Beam{Flag: b.flag}
			continue
		}
		dst[i] = swath.Beam{
			Flag:        b.flag,
			Depth:       codec.Dequantize(b.depth, depthScale, s.hdr.sensorDepth),
			AcrossTrack: codec.Dequantize(b.across, dist, 0),
			AlongTrack:  codec.Dequantize(b.along, dist, 0),
		}
	}
}

// =============================================================================
// Insert
// =============================================================================

// Insert implements driver.Inserter. Limits are checked before the store
// is touched, so a failed insert leaves the previous record intact.
func (s *Store) Insert(p *swath.Ping) error {
	switch p.Kind {
	case swath.KindSurvey:
		if err := s.checkLimits(len(p.Beams), len(p.Amplitudes), len(p.Pixels)); err != nil {
			return err
		}
		s.kind = swath.KindSurvey
		s.comment = ""
		s.insertHeader(p)
		s.insertSurvey(p)
	case swath.KindNav:
		s.kind = swath.KindNav
		s.comment = ""
		s.insertHeader(p)
		s.hdr.depthScale = 0
		s.hdr.distanceScale = 0
		s.hdr.ssPower = 0
		s.bath.Resize(0)
		s.amp.Resize(0)
		s.ss.Resize(0)
	case swath.KindComment:
		s.kind = swath.KindComment
		s.comment = truncateComment(p.Text)
		s.bath.Resize(0)
		s.amp.Resize(0)
		s.ss.Resize(0)
	default:
		return fmt.Errorf("insert %s record: %w", p.Kind, errors.ErrUnsupported)
	}
	return nil
}

func (s *Store) checkLimits(beams, amplitudes, pixels int) error {
	if limit := min(s.opts.MaxBeams, math.MaxUint16); beams > limit {
		return errors.NewAlloc("beams", beams, limit)
	}
	if limit := min(s.opts.MaxAmplitudes, math.MaxUint16); amplitudes > limit {
		return errors.NewAlloc("amplitudes", amplitudes, limit)
	}
	if limit := min(s.opts.MaxPixels, math.MaxUint16); pixels > limit {
		return errors.NewAlloc("pixels", pixels, limit)
	}
	return nil
}

func (s *Store) insertHeader(p *swath.Ping) {
	s.hdr = header{
		time:            swath.TimeToSeconds(p.Time),
		lon:             p.Lon,
		lat:             p.Lat,
		sensorDepth:     p.SensorDepth,
		altitude:        p.Altitude,
		heading:         p.Heading,
		speed:           p.Speed,
		roll:            p.Roll,
		pitch:           p.Pitch,
		heave:           p.Heave,
		beamWidthAlong:  p.BeamWidthAlong,
		beamWidthAcross: p.BeamWidthAcross,
		sonarType:       p.SonarType,
	}
}

func (s *Store) insertSurvey(p *swath.Ping) {
	// Derive this ping's scales from its own extremes. Flagged beams count
	// so that unflagging them later cannot reveal a saturated value.
	var depthMax, distMax, ssMax codec.MaxAbs
	for i := range p.Beams {
		b := &p.Beams[i]
		if b.Flag.IsNull() {
			continue
		}
		depthMax.Add(b.Depth - p.SensorDepth)
		distMax.Add(b.AcrossTrack)
		distMax.Add(b.AlongTrack)
	}
	for i := range p.Pixels {
		px := &p.Pixels[i]
		ssMax.Add(px.Intensity)
		distMax.Add(px.AcrossTrack)
		distMax.Add(px.AlongTrack)
	}

	// Scales are stored as float32; quantize with the stored value so
	// extract reproduces exactly what was written.
	s.hdr.depthScale = float32(codec.LinearScale(depthMax.Max(), s.opts.Codec))
	s.hdr.distanceScale = float32(codec.LinearScale(distMax.Max(), s.opts.Codec))
	s.hdr.ssPower = codec.SidescanPower(ssMax.Max())

	depthScale := float64(s.hdr.depthScale)
	dist := float64(s.hdr.distanceScale)
	ssScale := codec.PowerScale(s.hdr.ssPower)

	s.bath.Resize(len(p.Beams))
	bath := s.bath.Slice()
	for i := range p.Beams {
		b := &p.Beams[i]
		if b.Flag.IsNull() {
			bath[i] = beam{flag: b.Flag}
			continue
		}
		bath[i] = beam{
			flag:   b.Flag,
			depth:  codec.Quantize(b.Depth, depthScale, p.SensorDepth),
			across: codec.Quantize(b.AcrossTrack, dist, 0),
			along:  codec.Quantize(b.AlongTrack, dist, 0),
		}
	}

	s.amp.Resize(len(p.Amplitudes))
	amp := s.amp.Slice()
	for i, a := range p.Amplitudes {
		amp[i] = codec.Quantize(a, config.AmplitudeScale, 0)
	}

	s.ss.Resize(len(p.Pixels))
	ss := s.ss.Slice()
	for i := range p.Pixels {
		px := &p.Pixels[i]
		ss[i] = pixel{
			intensity: codec.Quantize(px.Intensity, ssScale, 0),
			across:    codec.Quantize(px.AcrossTrack, dist, 0),
			along:     codec.Quantize(px.AlongTrack, dist, 0),
		}
	}
}

// truncateComment cuts text at the first NUL and to MaxCommentLen-1 bytes,
// backing off to a rune boundary.
func truncateComment(text string) string {
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	n := config.MaxCommentLen - 1
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// =============================================================================
// Optional capabilities
// =============================================================================

// TravelTimes implements driver.TravelTimer. The format stores no travel
// times, so every beam reports zeros.
func (s *Store) TravelTimes() swath.TravelTimes {
	d := s.Dimensions()
	return swath.NeutralTravelTimes(d.Kind, d.Beams)
}

// Detects implements driver.Detector. Every beam reports DetectUnknown.
func (s *Store) Detects() []swath.Detect {
	d := s.Dimensions()
	return swath.NeutralDetects(d.Kind, d.Beams)
}

// ExtractAltitude implements driver.AltitudeExtractor. The fallback over
// the beams is recomputed on every call because flags may have changed.
func (s *Store) ExtractAltitude() (sensorDepth, altitude float64) {
	sensorDepth = s.hdr.sensorDepth
	if s.kind != swath.KindSurvey {
		return sensorDepth, s.hdr.altitude
	}
	s.beamBuf.Resize(s.bath.Len())
	beams := s.beamBuf.Slice()
	s.dequantizeBeams(beams)
	return sensorDepth, swath.Altitude(sensorDepth, s.hdr.altitude, beams)
}

// InsertAltitude implements driver.AltitudeInserter. Depths are stored
// relative to the sensor, so the soundings move with a new sensor depth.
func (s *Store) InsertAltitude(sensorDepth, altitude float64) error {
	s.hdr.sensorDepth = sensorDepth
	s.hdr.altitude = altitude
	return nil
}

// ExtractNav implements driver.NavExtractor.
func (s *Store) ExtractNav() swath.Nav {
	h := &s.hdr
	if s.kind == swath.KindComment {
		return swath.Nav{}
	}
	return swath.Nav{
		Time:        swath.SecondsToTime(h.time),
		Lon:         h.lon,
		Lat:         h.lat,
		Speed:       h.speed,
		Heading:     h.heading,
		SensorDepth: h.sensorDepth,
		Roll:        h.roll,
		Pitch:       h.pitch,
		Heave:       h.heave,
	}
}

// InsertNav implements driver.NavInserter.
func (s *Store) InsertNav(n swath.Nav) error {
	if s.kind == swath.KindComment {
		return nil
	}
	h := &s.hdr
	h.time = swath.TimeToSeconds(n.Time)
	h.lon = n.Lon
	h.lat = n.Lat
	h.speed = n.Speed
	h.heading = n.Heading
	h.sensorDepth = n.SensorDepth
	h.roll = n.Roll
	h.pitch = n.Pitch
	h.heave = n.Heave
	return nil
}

// CopyFrom implements driver.Copier. The destination arrays are sized to
// the source's current counts.
func (s *Store) CopyFrom(src driver.Driver) error {
	o, ok := src.(*Store)
	if !ok {
		return errors.NewUnsupported(Name, "copy from "+src.Info().Name)
	}
	if err := s.checkLimits(o.bath.Len(), o.amp.Len(), o.ss.Len()); err != nil {
		return err
	}
	s.kind = o.kind
	s.hdr = o.hdr
	s.comment = o.comment
	s.bath.CopyFrom(o.bath)
	s.amp.CopyFrom(o.amp)
	s.ss.CopyFrom(o.ss)
	return nil
}

var (
	_ driver.Driver            = (*Store)(nil)
	_ driver.Inserter          = (*Store)(nil)
	_ driver.TravelTimer       = (*Store)(nil)
	_ driver.Detector          = (*Store)(nil)
	_ driver.AltitudeExtractor = (*Store)(nil)
	_ driver.AltitudeInserter  = (*Store)(nil)
	_ driver.NavExtractor      = (*Store)(nil)
	_ driver.NavInserter       = (*Store)(nil)
	_ driver.Copier            = (*Store)(nil)
)
