package swath

import (
	"math"
	"time"

	"github.com/xtxerr/swath/config"
)

// Kind discriminates records within a stream.
type Kind uint8

const (
	// KindUnknown is reported before the first record has been read.
	KindUnknown Kind = iota
	// KindSurvey is a full ping: navigation, attitude, beams, amplitudes, sidescan.
	KindSurvey
	// KindComment carries free text only.
	KindComment
	// KindNav carries navigation and attitude without beams.
	KindNav
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindSurvey:
		return "survey"
	case KindComment:
		return "comment"
	case KindNav:
		return "nav"
	default:
		return "unknown"
	}
}

// Flag classifies one beam. The low two bits select good, null or flagged;
// the remaining bits record why a beam was flagged. Drivers copy flags
// byte for byte.
type Flag uint8

const (
	FlagGood    Flag = 0x00
	FlagNull    Flag = 0x01
	FlagFlagged Flag = 0x02

	// Reasons, only meaningful together with FlagFlagged.
	FlagManual Flag = 0x04
	FlagFilter Flag = 0x08
	FlagSonar  Flag = 0x10
)

// IsNull reports a beam without data.
func (f Flag) IsNull() bool { return f&FlagNull != 0 }

// IsFlagged reports a rejected beam that still carries its values.
func (f Flag) IsFlagged() bool { return f&FlagNull == 0 && f&FlagFlagged != 0 }

// IsGood reports a usable beam.
func (f Flag) IsGood() bool { return f&(FlagNull|FlagFlagged) == 0 }

// String returns a human-readable representation of the Flag.
func (f Flag) String() string {
	switch {
	case f.IsNull():
		return "null"
	case f.IsFlagged():
		return "flagged"
	default:
		return "good"
	}
}

// Beam is one bathymetric sounding. Depth is positive down, in meters;
// across-track is positive to starboard.
type Beam struct {
	Flag        Flag
	Depth       float64
	AcrossTrack float64
	AlongTrack  float64
}

// Pixel is one sidescan sample.
type Pixel struct {
	Intensity   float64
	AcrossTrack float64
	AlongTrack  float64
}

// Dims are the array sizes of the current record.
type Dims struct {
	Kind       Kind
	Beams      int
	Amplitudes int
	Pixels     int
}

// Ping is the canonical record. The caller that owns a Ping owns its
// slices; drivers fill it in place, reusing slice capacity, and never keep
// a reference to it.
type Ping struct {
	Kind Kind

	// Navigation
	Time    time.Time
	Lon     float64 // degrees
	Lat     float64 // degrees
	Speed   float64 // km/h
	Heading float64 // degrees

	// Attitude
	Roll  float64 // degrees
	Pitch float64 // degrees
	Heave float64 // meters

	SensorDepth float64 // meters below the surface
	Altitude    float64 // meters above the seafloor, <= 0 when unknown

	BeamWidthAlong  float64 // degrees
	BeamWidthAcross float64 // degrees

	SonarType int16

	Beams      []Beam
	Amplitudes []float64
	Pixels     []Pixel

	// Text is only set for KindComment.
	Text string
}

// Dims returns the array sizes of p.
func (p *Ping) Dims() Dims {
	if p.Kind != KindSurvey {
		return Dims{Kind: p.Kind}
	}
	return Dims{
		Kind:       p.Kind,
		Beams:      len(p.Beams),
		Amplitudes: len(p.Amplitudes),
		Pixels:     len(p.Pixels),
	}
}

// Reset clears p for a new record of the given kind, keeping slice
// capacity for reuse.
func (p *Ping) Reset(kind Kind) {
	beams, amps, pixels := p.Beams[:0], p.Amplitudes[:0], p.Pixels[:0]
	*p = Ping{
		Kind:            kind,
		BeamWidthAlong:  config.DefaultBeamWidth,
		BeamWidthAcross: config.DefaultBeamWidth,
		Beams:           beams,
		Amplitudes:      amps,
		Pixels:          pixels,
	}
}

// Resize sets the array lengths of p, reusing capacity where possible.
// Element values are unspecified afterwards; callers overwrite them.
func (p *Ping) Resize(beams, amplitudes, pixels int) {
	p.Beams = resize(p.Beams, beams)
	p.Amplitudes = resize(p.Amplitudes, amplitudes)
	p.Pixels = resize(p.Pixels, pixels)
}

// Clone returns a deep copy of p that shares no memory with it.
func (p *Ping) Clone() *Ping {
	c := *p
	c.Beams = append([]Beam(nil), p.Beams...)
	c.Amplitudes = append([]float64(nil), p.Amplitudes...)
	c.Pixels = append([]Pixel(nil), p.Pixels...)
	return &c
}

// CopyTo copies p into dst, reusing dst's slice capacity.
func (p *Ping) CopyTo(dst *Ping) {
	beams, amps, pixels := dst.Beams, dst.Amplitudes, dst.Pixels
	*dst = *p
	dst.Beams = append(beams[:0], p.Beams...)
	dst.Amplitudes = append(amps[:0], p.Amplitudes...)
	dst.Pixels = append(pixels[:0], p.Pixels...)
}

// Nav returns the navigation portion of p.
func (p *Ping) Nav() Nav {
	return Nav{
		Time:        p.Time,
		Lon:         p.Lon,
		Lat:         p.Lat,
		Speed:       p.Speed,
		Heading:     p.Heading,
		SensorDepth: p.SensorDepth,
		Roll:        p.Roll,
		Pitch:       p.Pitch,
		Heave:       p.Heave,
	}
}

// SetNav overwrites the navigation portion of p.
func (p *Ping) SetNav(n Nav) {
	p.Time = n.Time
	p.Lon = n.Lon
	p.Lat = n.Lat
	p.Speed = n.Speed
	p.Heading = n.Heading
	p.SensorDepth = n.SensorDepth
	p.Roll = n.Roll
	p.Pitch = n.Pitch
	p.Heave = n.Heave
}

func resize[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}

// TimeToSeconds converts t to seconds since the Unix epoch. The zero time
// maps to 0.
func TimeToSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// SecondsToTime is the inverse of TimeToSeconds. It returns UTC times, and
// the zero time for 0.
func SecondsToTime(sec float64) time.Time {
	if sec == 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}
	}
	whole := math.Floor(sec)
	nsec := math.Round((sec - whole) * 1e9)
	return time.Unix(int64(whole), int64(nsec)).UTC()
}
