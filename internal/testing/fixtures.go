package testing

import (
	"math"
	"time"

	"github.com/xtxerr/swath/internal/swath"
)

// Epoch is the time of the first fixture ping.
var Epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// FixtureSensorDepth is the sensor depth of every fixture ping.
const FixtureSensorDepth = 4.5

// SurveyPing returns a deterministic survey ping. seq shifts time,
// position and the depth profile; every 7th beam is null and every 11th
// is flagged manually.
func SurveyPing(seq, beams, amplitudes, pixels int) *swath.Ping {
	p := &swath.Ping{}
	p.Reset(swath.KindSurvey)
	fillNav(p, seq)
	p.Altitude = 0
	p.SonarType = 1

	p.Resize(beams, amplitudes, pixels)

	center := float64(beams-1) / 2
	for i := range p.Beams {
		x := float64(i) - center
		b := swath.Beam{
			Depth:       FixtureSensorDepth + 40 + 5*math.Cos(float64(i+seq)/5) + 0.01*x*x,
			AcrossTrack: 2.5 * x,
			AlongTrack:  0.1 * float64(i%3),
		}
		switch {
		case i%7 == 6:
			b = swath.Beam{Flag: swath.FlagNull}
		case i%11 == 10:
			b.Flag = swath.FlagFlagged | swath.FlagManual
		}
		p.Beams[i] = b
	}

	for i := range p.Amplitudes {
		p.Amplitudes[i] = 50 + float64((i+seq)%40)
	}

	half := float64(pixels) / 2
	for i := range p.Pixels {
		p.Pixels[i] = swath.Pixel{
			Intensity:   100 + float64((i*13+seq)%200),
			AcrossTrack: 0.5 * (float64(i) - half),
		}
	}
	return p
}

// NavPing returns a deterministic navigation-only ping.
func NavPing(seq int) *swath.Ping {
	p := &swath.Ping{}
	p.Reset(swath.KindNav)
	fillNav(p, seq)
	return p
}

// CommentPing returns a comment record.
func CommentPing(text string) *swath.Ping {
	p := &swath.Ping{}
	p.Reset(swath.KindComment)
	p.Text = text
	return p
}

// Stream returns a comment followed by n survey pings, with a nav record
// after every fourth survey ping.
func Stream(n, beams int) []*swath.Ping {
	out := []*swath.Ping{CommentPing("fixture stream")}
	for i := 0; i < n; i++ {
		out = append(out, SurveyPing(i, beams, beams, 2*beams))
		if i%4 == 3 {
			out = append(out, NavPing(i))
		}
	}
	return out
}

func fillNav(p *swath.Ping, seq int) {
	p.Time = Epoch.Add(time.Duration(seq) * 250 * time.Millisecond)
	p.Lon = -70.5 + 1e-5*float64(seq)
	p.Lat = 41.25 + 2e-5*float64(seq)
	p.Speed = 9.5
	p.Heading = math.Mod(45+0.5*float64(seq), 360)
	p.Roll = 0.5 * math.Sin(float64(seq))
	p.Pitch = 0.25 * math.Cos(float64(seq))
	p.Heave = 0.1
	p.SensorDepth = FixtureSensorDepth
}
