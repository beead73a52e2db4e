package swath

import "time"

// Nav is the navigation and attitude of one record.
type Nav struct {
	Time        time.Time
	Lon         float64
	Lat         float64
	Speed       float64
	Heading     float64
	SensorDepth float64
	Roll        float64
	Pitch       float64
	Heave       float64
}

// TravelTime is the per-beam acoustic geometry some formats carry.
// Angles are in degrees, times in seconds, offsets in meters.
type TravelTime struct {
	TTime            float64
	Angle            float64
	AngleForward     float64
	AngleNull        float64
	HeaveOffset      float64
	AlongtrackOffset float64
}

// TravelTimes holds the travel-time data of one ping.
type TravelTimes struct {
	Kind        Kind
	Beams       []TravelTime
	DraftOffset float64
	SSV         float64 // surface sound velocity, m/s
}

// NeutralTravelTimes returns n zeroed entries. Formats without native travel
// times report this so shape-only callers need no special case.
func NeutralTravelTimes(kind Kind, n int) TravelTimes {
	if kind != KindSurvey {
		n = 0
	}
	return TravelTimes{Kind: kind, Beams: make([]TravelTime, n)}
}

// Detect is the bottom detection method of one beam.
type Detect uint8

const (
	DetectUnknown Detect = iota
	DetectAmplitude
	DetectPhase
)

// String returns a human-readable representation of the Detect.
func (d Detect) String() string {
	switch d {
	case DetectAmplitude:
		return "amplitude"
	case DetectPhase:
		return "phase"
	default:
		return "unknown"
	}
}

// NeutralDetects returns n DetectUnknown entries.
func NeutralDetects(kind Kind, n int) []Detect {
	if kind != KindSurvey {
		n = 0
	}
	return make([]Detect, n)
}

// SVPPoint is one sample of a sound velocity profile.
type SVPPoint struct {
	Depth    float64 // meters
	Velocity float64 // m/s
}

// SVP is a sound velocity profile. The zero value is the empty profile.
type SVP struct {
	Time   time.Time
	Points []SVPPoint
}

// RawSidescan is sidescan as recorded, before any across-track layout.
// The zero value is the empty record.
type RawSidescan struct {
	SampleInterval float64 // seconds
	Port           []float64
	Starboard      []float64
}
