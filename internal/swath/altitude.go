package swath

import "math"

// Altitude returns the height of the sensor above the seafloor.
//
// A positive native altitude is returned as is when the ping has beams.
// Otherwise the good beam nearest to nadir (smallest |across-track|) with a
// positive depth is used; failing that, the nearest good beam with a
// negative depth (seafloor above the datum, e.g. an overhang). The altitude
// is then depth - sensorDepth. With no usable beam the native value is
// returned unchanged, even if it is not physical.
//
// Equidistant beams resolve to the lowest index.
func Altitude(sensorDepth, native float64, beams []Beam) float64 {
	if native > 0 && len(beams) > 0 {
		return native
	}

	i := nearestToNadir(beams, func(d float64) bool { return d > 0 })
	if i < 0 {
		i = nearestToNadir(beams, func(d float64) bool { return d < 0 })
	}
	if i < 0 {
		return native
	}
	return beams[i].Depth - sensorDepth
}

func nearestToNadir(beams []Beam, accept func(depth float64) bool) int {
	best := -1
	minAcross := math.Inf(1)
	for i := range beams {
		b := &beams[i]
		if !b.Flag.IsGood() || !accept(b.Depth) {
			continue
		}
		if a := math.Abs(b.AcrossTrack); a < minAcross {
			minAcross = a
			best = i
		}
	}
	return best
}
