package swath

import "testing"

func TestAltitude(t *testing.T) {
	tests := []struct {
		name        string
		sensorDepth float64
		native      float64
		beams       []Beam
		want        float64
	}{
		{
			name:        "native altitude wins",
			sensorDepth: 10,
			native:      55,
			beams:       []Beam{{Depth: 42}},
			want:        55,
		},
		{
			name:        "fallback to center beam",
			sensorDepth: 10,
			native:      0,
			beams: []Beam{
				{Flag: FlagNull},
				{Flag: FlagGood, Depth: 42, AcrossTrack: 0.5},
				{Flag: FlagGood, Depth: 60, AcrossTrack: 30},
			},
			want: 32,
		},
		{
			name:        "flagged beams are skipped",
			sensorDepth: 0,
			native:      0,
			beams: []Beam{
				{Flag: FlagFlagged | FlagManual, Depth: 5, AcrossTrack: 0},
				{Flag: FlagGood, Depth: 20, AcrossTrack: -3},
			},
			want: 20,
		},
		{
			name:        "overhang when no positive depth",
			sensorDepth: -2,
			native:      0,
			beams: []Beam{
				{Flag: FlagGood, Depth: -8, AcrossTrack: 12},
				{Flag: FlagGood, Depth: -6, AcrossTrack: 4},
			},
			want: -4,
		},
		{
			name:        "positive depth preferred over nearer overhang",
			sensorDepth: 0,
			native:      0,
			beams: []Beam{
				{Flag: FlagGood, Depth: -6, AcrossTrack: 0},
				{Flag: FlagGood, Depth: 30, AcrossTrack: 50},
			},
			want: 30,
		},
		{
			name:        "all null keeps native",
			sensorDepth: 10,
			native:      -1,
			beams:       []Beam{{Flag: FlagNull}, {Flag: FlagNull}},
			want:        -1,
		},
		{
			name:        "no beams keeps native",
			sensorDepth: 10,
			native:      7,
			want:        7,
		},
		{
			name:        "tie resolves to lowest index",
			sensorDepth: 0,
			native:      0,
			beams: []Beam{
				{Flag: FlagGood, Depth: 100, AcrossTrack: -5},
				{Flag: FlagGood, Depth: 200, AcrossTrack: 5},
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Altitude(tt.sensorDepth, tt.native, tt.beams)
			if got != tt.want {
				t.Errorf("Altitude() = %v, want %v", got, tt.want)
			}
		})
	}
}
