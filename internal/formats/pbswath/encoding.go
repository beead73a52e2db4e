package pbswath

import (
	"fmt"
	"math"

	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
	"google.golang.org/protobuf/encoding/protowire"
)

// Record payload, protobuf wire format. Zero scalars are omitted and
// unknown fields are skipped, so fields can be added without a version
// bump.
//
//	message Record {
//	  uint32 kind = 1;
//	  double time = 2;            // seconds since the Unix epoch, 0 = unset
//	  double lon = 3;
//	  double lat = 4;
//	  double speed = 5;
//	  double heading = 6;
//	  double roll = 7;
//	  double pitch = 8;
//	  double heave = 9;
//	  double sensor_depth = 10;
//	  double altitude = 11;
//	  double beam_width_along = 12;
//	  double beam_width_across = 13;
//	  sint32 sonar_type = 14;
//	  string text = 15;
//	  repeated Beam beams = 16;
//	  repeated double amplitudes = 17 [packed = true];
//	  repeated Pixel pixels = 18;
//	  double draft_offset = 19;
//	  double ssv = 20;
//	  SVP svp = 21;
//	  RawSidescan raw_sidescan = 22;
//	}
//
//	message Beam {
//	  uint32 flag = 1;
//	  double depth = 2;
//	  double across = 3;
//	  double along = 4;
//	  double ttime = 5;
//	  double angle = 6;
//	  double angle_forward = 7;
//	  double angle_null = 8;
//	  double heave_offset = 9;
//	  double alongtrack_offset = 10;
//	  uint32 detect = 11;
//	}
//
//	message Pixel { double intensity = 1; double across = 2; double along = 3; }
//	message SVP { double time = 1; repeated Point points = 2; }
//	message Point { double depth = 1; double velocity = 2; }
//	message RawSidescan {
//	  double sample_interval = 1;
//	  repeated double port = 2 [packed = true];
//	  repeated double starboard = 3 [packed = true];
//	}
const (
	fKind            protowire.Number = 1
	fTime            protowire.Number = 2
	fLon             protowire.Number = 3
	fLat             protowire.Number = 4
	fSpeed           protowire.Number = 5
	fHeading         protowire.Number = 6
	fRoll            protowire.Number = 7
	fPitch           protowire.Number = 8
	fHeave           protowire.Number = 9
	fSensorDepth     protowire.Number = 10
	fAltitude        protowire.Number = 11
	fBeamWidthAlong  protowire.Number = 12
	fBeamWidthAcross protowire.Number = 13
	fSonarType       protowire.Number = 14
	fText            protowire.Number = 15
	fBeams           protowire.Number = 16
	fAmplitudes      protowire.Number = 17
	fPixels          protowire.Number = 18
	fDraftOffset     protowire.Number = 19
	fSSV             protowire.Number = 20
	fSVP             protowire.Number = 21
	fRawSidescan     protowire.Number = 22
)

const (
	fBeamFlag             protowire.Number = 1
	fBeamDepth            protowire.Number = 2
	fBeamAcross           protowire.Number = 3
	fBeamAlong            protowire.Number = 4
	fBeamTTime            protowire.Number = 5
	fBeamAngle            protowire.Number = 6
	fBeamAngleForward     protowire.Number = 7
	fBeamAngleNull        protowire.Number = 8
	fBeamHeaveOffset      protowire.Number = 9
	fBeamAlongtrackOffset protowire.Number = 10
	fBeamDetect           protowire.Number = 11
)

// =============================================================================
// Encoding
// =============================================================================

// encoder appends a record payload, reusing scratch space for nested
// messages.
type encoder struct {
	sub []byte
}

func (e *encoder) appendRecord(b []byte, rec *record) []byte {
	p := &rec.ping

	b = appendVarint(b, fKind, uint64(p.Kind))
	b = appendDouble(b, fTime, swath.TimeToSeconds(p.Time))
	b = appendDouble(b, fLon, p.Lon)
	b = appendDouble(b, fLat, p.Lat)
	b = appendDouble(b, fSpeed, p.Speed)
	b = appendDouble(b, fHeading, p.Heading)
	b = appendDouble(b, fRoll, p.Roll)
	b = appendDouble(b, fPitch, p.Pitch)
	b = appendDouble(b, fHeave, p.Heave)
	b = appendDouble(b, fSensorDepth, p.SensorDepth)
	b = appendDouble(b, fAltitude, p.Altitude)
	// An absent width decodes as the default, so zero is written too.
	b = appendDoubleAlways(b, fBeamWidthAlong, p.BeamWidthAlong)
	b = appendDoubleAlways(b, fBeamWidthAcross, p.BeamWidthAcross)
	b = appendVarint(b, fSonarType, protowire.EncodeZigZag(int64(p.SonarType)))
	if p.Text != "" {
		b = protowire.AppendTag(b, fText, protowire.BytesType)
		b = protowire.AppendString(b, p.Text)
	}

	for i := range p.Beams {
		sub := e.sub[:0]
		sub = appendBeam(sub, &p.Beams[i], &rec.tt[i], rec.detects[i])
		b = protowire.AppendTag(b, fBeams, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
		e.sub = sub
	}

	b = appendPacked(b, fAmplitudes, p.Amplitudes)

	for _, px := range p.Pixels {
		sub := e.sub[:0]
		sub = appendDouble(sub, 1, px.Intensity)
		sub = appendDouble(sub, 2, px.AcrossTrack)
		sub = appendDouble(sub, 3, px.AlongTrack)
		b = protowire.AppendTag(b, fPixels, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
		e.sub = sub
	}

	b = appendDouble(b, fDraftOffset, rec.draft)
	b = appendDouble(b, fSSV, rec.ssv)

	if len(rec.svp.Points) > 0 {
		sub := appendDouble(e.sub[:0], 1, swath.TimeToSeconds(rec.svp.Time))
		for _, pt := range rec.svp.Points {
			var point []byte
			point = appendDouble(point, 1, pt.Depth)
			point = appendDouble(point, 2, pt.Velocity)
			sub = protowire.AppendTag(sub, 2, protowire.BytesType)
			sub = protowire.AppendBytes(sub, point)
		}
		b = protowire.AppendTag(b, fSVP, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
		e.sub = sub
	}

	if raw := &rec.raw; len(raw.Port)+len(raw.Starboard) > 0 {
		sub := appendDouble(e.sub[:0], 1, raw.SampleInterval)
		sub = appendPacked(sub, 2, raw.Port)
		sub = appendPacked(sub, 3, raw.Starboard)
		b = protowire.AppendTag(b, fRawSidescan, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
		e.sub = sub
	}
	return b
}

func appendBeam(b []byte, beam *swath.Beam, tt *swath.TravelTime, d swath.Detect) []byte {
	b = appendVarint(b, fBeamFlag, uint64(beam.Flag))
	b = appendDouble(b, fBeamDepth, beam.Depth)
	b = appendDouble(b, fBeamAcross, beam.AcrossTrack)
	b = appendDouble(b, fBeamAlong, beam.AlongTrack)
	b = appendDouble(b, fBeamTTime, tt.TTime)
	b = appendDouble(b, fBeamAngle, tt.Angle)
	b = appendDouble(b, fBeamAngleForward, tt.AngleForward)
	b = appendDouble(b, fBeamAngleNull, tt.AngleNull)
	b = appendDouble(b, fBeamHeaveOffset, tt.HeaveOffset)
	b = appendDouble(b, fBeamAlongtrackOffset, tt.AlongtrackOffset)
	b = appendVarint(b, fBeamDetect, uint64(d))
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if math.Float64bits(v) == 0 {
		return b
	}
	return appendDoubleAlways(b, num, v)
}

func appendDoubleAlways(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendPacked(b []byte, num protowire.Number, vs []float64) []byte {
	if len(vs) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(8*len(vs)))
	for _, v := range vs {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

// =============================================================================
// Decoding
// =============================================================================

// limits bounds the arrays a decoded record may grow.
type limits struct {
	beams, amplitudes, pixels int
}

// walk calls fn for every field of a message. fn consumes the field value
// from b and returns its length, or a negative protowire error code.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeDouble(typ protowire.Type, b []byte, dst *float64) int {
	if typ != protowire.Fixed64Type {
		return -1
	}
	v, n := protowire.ConsumeFixed64(b)
	if n >= 0 {
		*dst = math.Float64frombits(v)
	}
	return n
}

func consumeVarint(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.VarintType {
		return -1
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

// consumePacked appends packed doubles to *dst, refusing to grow it past
// limit.
func consumePacked(what string, typ protowire.Type, b []byte, dst *[]float64, limit int) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	if len(v)%8 != 0 {
		return 0, fmt.Errorf("%s: packed length %d: %w", what, len(v), errors.ErrBadRecord)
	}
	if total := len(*dst) + len(v)/8; total > limit {
		return 0, errors.NewAlloc(what, total, limit)
	}
	for ; len(v) > 0; v = v[8:] {
		u, _ := protowire.ConsumeFixed64(v)
		*dst = append(*dst, math.Float64frombits(u))
	}
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte) ([]byte, int) {
	if typ != protowire.BytesType {
		return nil, -1
	}
	return protowire.ConsumeBytes(b)
}

// decodeRecord parses payload into rec, which must be reset.
func decodeRecord(payload []byte, rec *record, lim limits) error {
	p := &rec.ping
	var kind, sonarType uint64
	var t float64

	err := walk(payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fKind:
			return consumeVarint(typ, b, &kind), nil
		case fTime:
			return consumeDouble(typ, b, &t), nil
		case fLon:
			return consumeDouble(typ, b, &p.Lon), nil
		case fLat:
			return consumeDouble(typ, b, &p.Lat), nil
		case fSpeed:
			return consumeDouble(typ, b, &p.Speed), nil
		case fHeading:
			return consumeDouble(typ, b, &p.Heading), nil
		case fRoll:
			return consumeDouble(typ, b, &p.Roll), nil
		case fPitch:
			return consumeDouble(typ, b, &p.Pitch), nil
		case fHeave:
			return consumeDouble(typ, b, &p.Heave), nil
		case fSensorDepth:
			return consumeDouble(typ, b, &p.SensorDepth), nil
		case fAltitude:
			return consumeDouble(typ, b, &p.Altitude), nil
		case fBeamWidthAlong:
			return consumeDouble(typ, b, &p.BeamWidthAlong), nil
		case fBeamWidthAcross:
			return consumeDouble(typ, b, &p.BeamWidthAcross), nil
		case fSonarType:
			return consumeVarint(typ, b, &sonarType), nil
		case fText:
			if typ != protowire.BytesType {
				return -1, nil
			}
			v, n := protowire.ConsumeString(b)
			p.Text = v
			return n, nil
		case fBeams:
			msg, n := consumeMessage(typ, b)
			if n < 0 {
				return n, nil
			}
			if len(p.Beams) >= lim.beams {
				return 0, errors.NewAlloc("beams", len(p.Beams)+1, lim.beams)
			}
			return n, decodeBeam(msg, rec)
		case fAmplitudes:
			return consumePacked("amplitudes", typ, b, &p.Amplitudes, lim.amplitudes)
		case fPixels:
			msg, n := consumeMessage(typ, b)
			if n < 0 {
				return n, nil
			}
			if len(p.Pixels) >= lim.pixels {
				return 0, errors.NewAlloc("pixels", len(p.Pixels)+1, lim.pixels)
			}
			return n, decodePixel(msg, p)
		case fDraftOffset:
			return consumeDouble(typ, b, &rec.draft), nil
		case fSSV:
			return consumeDouble(typ, b, &rec.ssv), nil
		case fSVP:
			msg, n := consumeMessage(typ, b)
			if n < 0 {
				return n, nil
			}
			return n, decodeSVP(msg, &rec.svp)
		case fRawSidescan:
			msg, n := consumeMessage(typ, b)
			if n < 0 {
				return n, nil
			}
			return n, decodeRawSidescan(msg, &rec.raw, lim.pixels)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return err
	}

	switch k := swath.Kind(kind); k {
	case swath.KindSurvey:
	case swath.KindNav, swath.KindComment:
		if len(p.Beams)+len(p.Amplitudes)+len(p.Pixels) != 0 {
			return fmt.Errorf("%s record with samples: %w", k, errors.ErrBadRecord)
		}
	default:
		return fmt.Errorf("record kind %d: %w", kind, errors.ErrBadRecord)
	}

	p.Kind = swath.Kind(kind)
	p.Time = swath.SecondsToTime(t)
	p.SonarType = int16(protowire.DecodeZigZag(sonarType))
	return nil
}

func decodeBeam(msg []byte, rec *record) error {
	var beam swath.Beam
	var tt swath.TravelTime
	var flag, detect uint64

	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fBeamFlag:
			return consumeVarint(typ, b, &flag), nil
		case fBeamDepth:
			return consumeDouble(typ, b, &beam.Depth), nil
		case fBeamAcross:
			return consumeDouble(typ, b, &beam.AcrossTrack), nil
		case fBeamAlong:
			return consumeDouble(typ, b, &beam.AlongTrack), nil
		case fBeamTTime:
			return consumeDouble(typ, b, &tt.TTime), nil
		case fBeamAngle:
			return consumeDouble(typ, b, &tt.Angle), nil
		case fBeamAngleForward:
			return consumeDouble(typ, b, &tt.AngleForward), nil
		case fBeamAngleNull:
			return consumeDouble(typ, b, &tt.AngleNull), nil
		case fBeamHeaveOffset:
			return consumeDouble(typ, b, &tt.HeaveOffset), nil
		case fBeamAlongtrackOffset:
			return consumeDouble(typ, b, &tt.AlongtrackOffset), nil
		case fBeamDetect:
			return consumeVarint(typ, b, &detect), nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return fmt.Errorf("beam %d: %w", len(rec.ping.Beams), err)
	}

	beam.Flag = swath.Flag(flag)
	if beam.Flag.IsNull() {
		beam = swath.Beam{Flag: beam.Flag}
	}
	rec.ping.Beams = append(rec.ping.Beams, beam)
	rec.tt = append(rec.tt, tt)
	rec.detects = append(rec.detects, swath.Detect(detect))
	return nil
}

func decodePixel(msg []byte, p *swath.Ping) error {
	var px swath.Pixel
	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &px.Intensity), nil
		case 2:
			return consumeDouble(typ, b, &px.AcrossTrack), nil
		case 3:
			return consumeDouble(typ, b, &px.AlongTrack), nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return fmt.Errorf("pixel %d: %w", len(p.Pixels), err)
	}
	p.Pixels = append(p.Pixels, px)
	return nil
}

func decodeSVP(msg []byte, svp *swath.SVP) error {
	var t float64
	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &t), nil
		case 2:
			point, n := consumeMessage(typ, b)
			if n < 0 {
				return n, nil
			}
			var pt swath.SVPPoint
			err := walk(point, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					return consumeDouble(typ, b, &pt.Depth), nil
				case 2:
					return consumeDouble(typ, b, &pt.Velocity), nil
				default:
					return protowire.ConsumeFieldValue(num, typ, b), nil
				}
			})
			svp.Points = append(svp.Points, pt)
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return fmt.Errorf("svp: %w", err)
	}
	svp.Time = swath.SecondsToTime(t)
	return nil
}

func decodeRawSidescan(msg []byte, raw *swath.RawSidescan, limit int) error {
	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &raw.SampleInterval), nil
		case 2:
			return consumePacked("raw port samples", typ, b, &raw.Port, limit)
		case 3:
			return consumePacked("raw starboard samples", typ, b, &raw.Starboard, limit)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return fmt.Errorf("raw sidescan: %w", err)
	}
	return nil
}
