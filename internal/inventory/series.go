package inventory

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Series maintains running statistics for one quantity, with percentiles
// from a DDSketch. It is not safe for concurrent use.
type Series struct {
	count int64
	sum   float64
	min   float64
	max   float64

	// nil if the sketch could not be created
	sketch *ddsketch.DDSketch
}

// Summary is the result of a Series.
type Summary struct {
	Count int64
	Min   float64
	Max   float64
	Mean  float64

	// Percentiles, nil when the series is empty or has no sketch.
	P50 *float64
	P90 *float64
	P95 *float64
	P99 *float64
}

// HasPercentiles reports whether percentiles are set.
func (s Summary) HasPercentiles() bool {
	return s.P50 != nil
}

// NewSeries creates a Series whose percentiles have the given relative
// accuracy (0.01 = 1% error).
func NewSeries(accuracy float64) *Series {
	s := &Series{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
	if sketch, err := ddsketch.NewDefaultDDSketch(accuracy); err == nil {
		s.sketch = sketch
	}
	return s
}

// Add adds a value.
func (s *Series) Add(v float64) {
	s.count++
	s.sum += v
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	if s.sketch != nil {
		s.sketch.Add(v)
	}
}

// Count returns the number of values added.
func (s *Series) Count() int64 {
	return s.count
}

// Merge folds other into s.
func (s *Series) Merge(other *Series) {
	if other == nil || other.count == 0 {
		return
	}
	s.count += other.count
	s.sum += other.sum
	if other.min < s.min {
		s.min = other.min
	}
	if other.max > s.max {
		s.max = other.max
	}
	if s.sketch != nil && other.sketch != nil {
		s.sketch.MergeWith(other.sketch)
	}
}

// Summary returns the statistics gathered so far.
func (s *Series) Summary() Summary {
	r := Summary{Count: s.count}
	if s.count == 0 {
		return r
	}
	r.Min = s.min
	r.Max = s.max
	r.Mean = s.sum / float64(s.count)

	if s.sketch != nil {
		qs, err := s.sketch.GetValuesAtQuantiles([]float64{0.50, 0.90, 0.95, 0.99})
		if err == nil {
			r.P50, r.P90, r.P95, r.P99 = &qs[0], &qs[1], &qs[2], &qs[3]
		}
	}
	return r
}
