package codec

import (
	"math"
	"testing"
)

func TestQuantizeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		scale  float64
		offset float64
	}{
		{"depth below sensor", 1234.567, 0.05, 10.0},
		{"negative across-track", -812.3, 0.03, 0},
		{"zero", 0, 0.001, 0},
		{"at sensor", 7.5, 0.01, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Quantize(tt.value, tt.scale, tt.offset)
			got := Dequantize(q, tt.scale, tt.offset)
			if math.Abs(got-tt.value) > tt.scale/2+1e-9 {
				t.Errorf("round trip %v -> %d -> %v exceeds half scale %v", tt.value, q, got, tt.scale/2)
			}
		})
	}
}

func TestQuantizeSaturates(t *testing.T) {
	if q := Quantize(1e9, 1, 0); q != math.MaxInt16 {
		t.Errorf("expected saturation at %d, got %d", math.MaxInt16, q)
	}
	if q := Quantize(-1e9, 1, 0); q != math.MinInt16 {
		t.Errorf("expected saturation at %d, got %d", math.MinInt16, q)
	}
	if q := Quantize(math.NaN(), 1, 0); q != 0 {
		t.Errorf("NaN should quantize to 0, got %d", q)
	}
	if q := Quantize(5, 0, 0); q != 5 {
		t.Errorf("zero scale should behave as 1, got %d", q)
	}
}

func TestLinearScale(t *testing.T) {
	p := DefaultParams()

	if s := LinearScale(0, p); s != p.MinScale {
		t.Errorf("empty ping should use min scale, got %v", s)
	}
	if s := LinearScale(3.0, p); s != p.MinScale {
		t.Errorf("small extreme should hit the floor, got %v", s)
	}

	s := LinearScale(3000, p)
	if want := 3000 / p.HeadroomDivisor; math.Abs(s-want) > 1e-12 {
		t.Errorf("LinearScale(3000) = %v, want %v", s, want)
	}
	if q := Quantize(3000, s, 0); q < 29000 {
		t.Errorf("extreme should use most of the range, got %d", q)
	}

	if s := LinearScale(-3000, p); math.Abs(s-3000/p.HeadroomDivisor) > 1e-12 {
		t.Errorf("negative extreme should use magnitude, got %v", s)
	}
}

func TestLinearScaleMonotonic(t *testing.T) {
	p := DefaultParams()
	base := LinearScale(250, p)
	for _, k := range []float64{2, 3.5, 10, 40} {
		got := LinearScale(250*k, p)
		if math.Abs(got-k*base) > 1e-9*k*base {
			t.Errorf("scale for %vx extreme = %v, want %v", k, got, k*base)
		}
	}
}

func TestLinearScaleNormalizesParams(t *testing.T) {
	s := LinearScale(3000, Params{})
	if want := LinearScale(3000, DefaultParams()); s != want {
		t.Errorf("zero params should use defaults: got %v, want %v", s, want)
	}
}

func TestSidescanPower(t *testing.T) {
	tests := []struct {
		extreme float64
		want    int8
	}{
		{0, 0},
		{math.NaN(), 0},
		{32767, 0},
		{32768, 1},
		{65534, 1},
		{65535, 2},
		{1, -14},
	}

	for _, tt := range tests {
		if got := SidescanPower(tt.extreme); got != tt.want {
			t.Errorf("SidescanPower(%v) = %d, want %d", tt.extreme, got, tt.want)
		}
	}

	k := SidescanPower(1e6)
	if v := 1e6 / PowerScale(k); v > math.MaxInt16 {
		t.Errorf("power %d leaves %v counts", k, v)
	}
}

func TestMaxAbs(t *testing.T) {
	var m MaxAbs
	if m.Max() != 0 || m.Count() != 0 {
		t.Fatal("zero value should be empty")
	}
	for _, v := range []float64{3, -7.5, math.Inf(1), math.NaN(), 2} {
		m.Add(v)
	}
	if m.Max() != 7.5 {
		t.Errorf("Max() = %v, want 7.5", m.Max())
	}
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
}
