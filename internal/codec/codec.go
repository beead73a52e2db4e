// Package codec maps real sample values onto fixed-width integers.
//
// Values are stored as int16 counts of a per-ping scale. The scale is
// derived from the ping's own extremes so that the largest value uses most,
// but not all, of the integer range:
//
//	stored = round((value - offset) / scale)
//	value  = offset + stored * scale
//
// Sidescan uses a power-of-two scale 2^k instead, which covers a wide
// dynamic range with a single signed byte of state.
package codec

import (
	"math"

	"github.com/xtxerr/swath/config"
)

// Params tunes the linear scale derivation.
type Params struct {
	// HeadroomDivisor is the number of counts the extreme value maps onto.
	HeadroomDivisor float64

	// MinScale is the scale floor. It keeps the scale positive when a ping
	// holds only zeros or no valid samples at all.
	MinScale float64
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		HeadroomDivisor: config.DefaultHeadroomDivisor,
		MinScale:        config.DefaultMinScale,
	}
}

// normalize replaces unset or nonsensical fields with defaults.
func (p Params) normalize() Params {
	d := DefaultParams()
	if !(p.HeadroomDivisor > 0) || math.IsInf(p.HeadroomDivisor, 0) {
		p.HeadroomDivisor = d.HeadroomDivisor
	}
	if !(p.MinScale > 0) || math.IsInf(p.MinScale, 0) {
		p.MinScale = d.MinScale
	}
	return p
}

// Quantize converts value to an int16 count of scale relative to offset.
// Results outside the int16 range saturate; NaN maps to 0. A non-positive
// scale is treated as 1.
func Quantize(value, scale, offset float64) int16 {
	if !(scale > 0) {
		scale = 1
	}
	q := math.Round((value - offset) / scale)
	switch {
	case math.IsNaN(q):
		return 0
	case q > math.MaxInt16:
		return math.MaxInt16
	case q < math.MinInt16:
		return math.MinInt16
	}
	return int16(q)
}

// Dequantize converts a stored count back to a real value.
func Dequantize(stored int16, scale, offset float64) float64 {
	return offset + float64(stored)*scale
}

// LinearScale derives a per-ping scale from the largest magnitude the ping
// must represent.
func LinearScale(extreme float64, p Params) float64 {
	p = p.normalize()
	e := math.Abs(extreme)
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return p.MinScale
	}
	return math.Max(e/p.HeadroomDivisor, p.MinScale)
}

// SidescanPower derives k such that extreme/2^k fits the int16 range.
// It returns 0 when there is no positive finite extreme.
func SidescanPower(extreme float64) int8 {
	e := math.Abs(extreme)
	if !(e > 0) || math.IsInf(e, 0) {
		return 0
	}
	k := math.Ceil(math.Log2(e / config.MaxSidescanCount))
	switch {
	case k > math.MaxInt8:
		return math.MaxInt8
	case k < math.MinInt8:
		return math.MinInt8
	}
	return int8(k)
}

// PowerScale returns 2^k.
func PowerScale(k int8) float64 {
	return math.Ldexp(1, int(k))
}

// MaxAbs tracks the largest magnitude seen. The zero value is ready to use.
type MaxAbs struct {
	max float64
	n   int
}

// Add records v. NaN and infinite values are ignored.
func (m *MaxAbs) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.n++
	if a := math.Abs(v); a > m.max {
		m.max = a
	}
}

// Max returns the largest magnitude, or 0 when nothing was added.
func (m *MaxAbs) Max() float64 { return m.max }

// Count returns the number of finite values added.
func (m *MaxAbs) Count() int { return m.n }
