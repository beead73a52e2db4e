package swath

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFlagClassification(t *testing.T) {
	tests := []struct {
		flag                Flag
		good, null, flagged bool
		name                string
	}{
		{FlagGood, true, false, false, "good"},
		{FlagNull, false, true, false, "null"},
		{FlagFlagged, false, false, true, "flagged"},
		{FlagFlagged | FlagManual, false, false, true, "flagged"},
		{FlagNull | FlagFlagged, false, true, false, "null"},
	}

	for _, tt := range tests {
		if tt.flag.IsGood() != tt.good || tt.flag.IsNull() != tt.null || tt.flag.IsFlagged() != tt.flagged {
			t.Errorf("flag %#x: good=%v null=%v flagged=%v", uint8(tt.flag),
				tt.flag.IsGood(), tt.flag.IsNull(), tt.flag.IsFlagged())
		}
		if tt.flag.String() != tt.name {
			t.Errorf("flag %#x: String() = %q, want %q", uint8(tt.flag), tt.flag.String(), tt.name)
		}
	}
}

func TestDims(t *testing.T) {
	p := &Ping{
		Kind:       KindSurvey,
		Beams:      make([]Beam, 8),
		Amplitudes: make([]float64, 8),
		Pixels:     make([]Pixel, 1024),
	}
	want := Dims{Kind: KindSurvey, Beams: 8, Amplitudes: 8, Pixels: 1024}
	if diff := cmp.Diff(want, p.Dims()); diff != "" {
		t.Errorf("Dims() mismatch (-want +got):\n%s", diff)
	}

	p.Kind = KindComment
	if d := p.Dims(); d.Beams != 0 || d.Amplitudes != 0 || d.Pixels != 0 {
		t.Errorf("comment should report zero counts, got %+v", d)
	}
}

func TestResetKeepsCapacity(t *testing.T) {
	p := &Ping{Kind: KindSurvey, Beams: make([]Beam, 50), Text: "x"}
	p.Reset(KindComment)

	if p.Kind != KindComment || p.Text != "" {
		t.Errorf("unexpected ping after reset: %+v", p)
	}
	if len(p.Beams) != 0 || cap(p.Beams) != 50 {
		t.Errorf("beams len=%d cap=%d, want 0/50", len(p.Beams), cap(p.Beams))
	}
	if p.BeamWidthAlong != 2.0 || p.BeamWidthAcross != 2.0 {
		t.Errorf("reset should apply default beam widths, got %v/%v", p.BeamWidthAlong, p.BeamWidthAcross)
	}

	p.Resize(10, 0, 3)
	if len(p.Beams) != 10 || cap(p.Beams) != 50 {
		t.Errorf("resize should reuse capacity: len=%d cap=%d", len(p.Beams), cap(p.Beams))
	}
	if len(p.Pixels) != 3 {
		t.Errorf("pixels len=%d, want 3", len(p.Pixels))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := &Ping{
		Kind:  KindSurvey,
		Time:  time.Unix(1700000000, 0).UTC(),
		Beams: []Beam{{Flag: FlagGood, Depth: 10}},
	}
	c := p.Clone()
	c.Beams[0].Depth = 99

	if p.Beams[0].Depth != 10 {
		t.Error("clone shares beam memory with the original")
	}

	var dst Ping
	p.CopyTo(&dst)
	if diff := cmp.Diff(*p, dst); diff != "" {
		t.Errorf("CopyTo mismatch (-want +got):\n%s", diff)
	}
}

func TestNavRoundTrip(t *testing.T) {
	n := Nav{
		Time:        time.Unix(1700000123, 500000000).UTC(),
		Lon:         -70.5,
		Lat:         41.25,
		Speed:       12,
		Heading:     271,
		SensorDepth: 4.2,
		Roll:        1.5,
		Pitch:       -0.5,
		Heave:       0.1,
	}
	var p Ping
	p.SetNav(n)
	if diff := cmp.Diff(n, p.Nav()); diff != "" {
		t.Errorf("nav mismatch (-want +got):\n%s", diff)
	}
}

func TestNeutralValues(t *testing.T) {
	tt := NeutralTravelTimes(KindSurvey, 8)
	if len(tt.Beams) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(tt.Beams))
	}
	for i, b := range tt.Beams {
		if b != (TravelTime{}) {
			t.Errorf("entry %d not zero: %+v", i, b)
		}
	}

	if got := NeutralTravelTimes(KindComment, 8); len(got.Beams) != 0 {
		t.Errorf("comment should have no travel times, got %d", len(got.Beams))
	}

	d := NeutralDetects(KindSurvey, 8)
	for i, v := range d {
		if v != DetectUnknown {
			t.Errorf("detect %d = %v, want unknown", i, v)
		}
	}
}

func TestSecondsToTime(t *testing.T) {
	ts := time.Date(2024, 5, 17, 13, 45, 12, 250000000, time.UTC)
	got := SecondsToTime(TimeToSeconds(ts))
	if d := got.Sub(ts); d > time.Microsecond || d < -time.Microsecond {
		t.Errorf("round trip drifted by %v", d)
	}

	if !SecondsToTime(TimeToSeconds(time.Time{})).IsZero() {
		t.Error("zero time should survive the round trip")
	}
}
