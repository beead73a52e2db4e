// Package inventory gathers per-file statistics from swath streams in a
// single pass.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/swath"
)

// BBox is a geographic bounding box in degrees.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// Valid reports whether the box holds at least one position.
func (b BBox) Valid() bool {
	return b.MinLon <= b.MaxLon && b.MinLat <= b.MaxLat
}

func emptyBBox() BBox {
	return BBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
}

func (b *BBox) extend(lon, lat float64) {
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLon = math.Max(b.MaxLon, lon)
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
}

func (b *BBox) merge(o BBox) {
	if !o.Valid() {
		return
	}
	b.extend(o.MinLon, o.MinLat)
	b.extend(o.MaxLon, o.MaxLat)
}

// Report is the inventory of one or more streams.
type Report struct {
	Path   string
	Format string

	Records  int64
	Surveys  int64
	Navs     int64
	Comments int64

	GoodBeams    int64
	FlaggedBeams int64
	NullBeams    int64
	MaxBeams     int

	Amplitudes int64
	Pixels     int64

	Depth    Summary
	Altitude Summary

	BBox  BBox
	First time.Time
	Last  time.Time
}

// Beams returns the total beam count.
func (r *Report) Beams() int64 {
	return r.GoodBeams + r.FlaggedBeams + r.NullBeams
}

// Duration returns the time span covered.
func (r *Report) Duration() time.Duration {
	if r.First.IsZero() {
		return 0
	}
	return r.Last.Sub(r.First)
}

// Collector accumulates a Report ping by ping.
type Collector struct {
	report   Report
	depth    *Series
	altitude *Series
}

// NewCollector creates a Collector with the given percentile accuracy.
func NewCollector(accuracy float64) *Collector {
	return &Collector{
		report:   Report{BBox: emptyBBox()},
		depth:    NewSeries(accuracy),
		altitude: NewSeries(accuracy),
	}
}

// Add records one ping. altitude is the resolved altitude of the ping;
// values <= 0 are not counted.
func (c *Collector) Add(p *swath.Ping, altitude float64) {
	r := &c.report
	r.Records++

	switch p.Kind {
	case swath.KindComment:
		r.Comments++
		return
	case swath.KindNav:
		r.Navs++
	case swath.KindSurvey:
		r.Surveys++
	}

	if !p.Time.IsZero() {
		if r.First.IsZero() || p.Time.Before(r.First) {
			r.First = p.Time
		}
		if p.Time.After(r.Last) {
			r.Last = p.Time
		}
	}
	if p.Lon != 0 || p.Lat != 0 {
		r.BBox.extend(p.Lon, p.Lat)
	}

	if p.Kind != swath.KindSurvey {
		return
	}

	if altitude > 0 {
		c.altitude.Add(altitude)
	}
	r.MaxBeams = max(r.MaxBeams, len(p.Beams))
	r.Amplitudes += int64(len(p.Amplitudes))
	r.Pixels += int64(len(p.Pixels))

	for _, b := range p.Beams {
		switch {
		case b.Flag.IsNull():
			r.NullBeams++
		case b.Flag.IsFlagged():
			r.FlaggedBeams++
		default:
			r.GoodBeams++
			c.depth.Add(b.Depth)
		}
	}
}

// Merge folds another collector into c. The result keeps c's path and
// format.
func (c *Collector) Merge(o *Collector) {
	r, or := &c.report, &o.report
	r.Records += or.Records
	r.Surveys += or.Surveys
	r.Navs += or.Navs
	r.Comments += or.Comments
	r.GoodBeams += or.GoodBeams
	r.FlaggedBeams += or.FlaggedBeams
	r.NullBeams += or.NullBeams
	r.MaxBeams = max(r.MaxBeams, or.MaxBeams)
	r.Amplitudes += or.Amplitudes
	r.Pixels += or.Pixels
	r.BBox.merge(or.BBox)
	if !or.First.IsZero() && (r.First.IsZero() || or.First.Before(r.First)) {
		r.First = or.First
	}
	if or.Last.After(r.Last) {
		r.Last = or.Last
	}
	c.depth.Merge(o.depth)
	c.altitude.Merge(o.altitude)
}

// Report returns the statistics gathered so far.
func (c *Collector) Report() *Report {
	r := c.report
	r.Depth = c.depth.Summary()
	r.Altitude = c.altitude.Summary()
	return &r
}

// Scan reads s to the end and returns its inventory. A stream that fails
// part way returns the partial report together with the error.
func Scan(ctx context.Context, s *driver.Session, accuracy float64) (*Report, error) {
	c := NewCollector(accuracy)
	err := c.Scan(ctx, s)
	return c.Report(), err
}

// Scan adds every remaining record of s to c. The first scanned session
// names the report.
func (c *Collector) Scan(ctx context.Context, s *driver.Session) error {
	if c.report.Path == "" && c.report.Format == "" {
		c.report.Path = s.Context().Path
		c.report.Format = s.Info().Name
	}

	var p swath.Ping
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.Extract(&p); err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		_, alt, err := s.Altitude()
		if err != nil {
			return fmt.Errorf("altitude: %w", err)
		}
		c.Add(&p, alt)
	}
}
