package inventory

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/xtxerr/swath/internal/driver"
	_ "github.com/xtxerr/swath/internal/formats/pbswath"
	"github.com/xtxerr/swath/internal/swath"
	fixtures "github.com/xtxerr/swath/internal/testing"
)

func TestSeries_Basic(t *testing.T) {
	s := NewSeries(0.01)

	if got := s.Summary(); got.Count != 0 || got.HasPercentiles() {
		t.Errorf("empty series summary = %+v", got)
	}

	for i := 1; i <= 100; i++ {
		s.Add(float64(i))
	}

	got := s.Summary()
	if got.Count != 100 {
		t.Errorf("expected count=100, got %d", got.Count)
	}
	if got.Min != 1 || got.Max != 100 {
		t.Errorf("expected min=1 max=100, got %f %f", got.Min, got.Max)
	}
	if math.Abs(got.Mean-50.5) > 0.001 {
		t.Errorf("expected mean=50.5, got %f", got.Mean)
	}
	if !got.HasPercentiles() {
		t.Fatal("should have percentiles")
	}
	if math.Abs(*got.P50-50) > 2 {
		t.Errorf("expected P50 near 50, got %f", *got.P50)
	}
	if math.Abs(*got.P99-99) > 2 {
		t.Errorf("expected P99 near 99, got %f", *got.P99)
	}
}

func TestSeries_Merge(t *testing.T) {
	a, b := NewSeries(0.01), NewSeries(0.01)
	for i := 0; i < 10; i++ {
		a.Add(float64(i))
		b.Add(float64(100 + i))
	}
	a.Merge(b)
	a.Merge(nil)

	got := a.Summary()
	if got.Count != 20 || got.Min != 0 || got.Max != 109 {
		t.Errorf("merged summary = %+v", got)
	}
}

func TestCollector_Add(t *testing.T) {
	c := NewCollector(0.01)
	c.Add(fixtures.CommentPing("hello"), 0)

	p := fixtures.SurveyPing(0, 22, 5, 7)
	c.Add(p, swath.Altitude(p.SensorDepth, p.Altitude, p.Beams))
	c.Add(fixtures.NavPing(4), 0)

	r := c.Report()
	if r.Records != 3 || r.Comments != 1 || r.Surveys != 1 || r.Navs != 1 {
		t.Errorf("kinds = %d/%d/%d/%d", r.Records, r.Comments, r.Surveys, r.Navs)
	}
	// 22 beams: 6, 13, 20 null; 10, 21 flagged.
	if r.NullBeams != 3 || r.FlaggedBeams != 2 || r.GoodBeams != 17 {
		t.Errorf("beams = good %d flagged %d null %d", r.GoodBeams, r.FlaggedBeams, r.NullBeams)
	}
	if r.Beams() != 22 || r.MaxBeams != 22 {
		t.Errorf("Beams() = %d MaxBeams = %d", r.Beams(), r.MaxBeams)
	}
	if r.Amplitudes != 5 || r.Pixels != 7 {
		t.Errorf("amplitudes %d pixels %d", r.Amplitudes, r.Pixels)
	}
	if r.Depth.Count != 17 {
		t.Errorf("depth count = %d, want 17", r.Depth.Count)
	}
	if r.Altitude.Count != 1 || r.Altitude.Min <= 0 {
		t.Errorf("altitude = %+v", r.Altitude)
	}
	if r.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", r.Duration())
	}
	if !r.BBox.Valid() || r.BBox.MinLon >= r.BBox.MaxLon {
		t.Errorf("BBox = %+v", r.BBox)
	}
}

func TestCollector_Empty(t *testing.T) {
	r := NewCollector(0.01).Report()
	if r.BBox.Valid() {
		t.Errorf("empty BBox is valid: %+v", r.BBox)
	}
	if r.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0", r.Duration())
	}
}

func TestCollector_Merge(t *testing.T) {
	a, b := NewCollector(0.01), NewCollector(0.01)
	a.Add(fixtures.SurveyPing(8, 10, 0, 0), 0)
	b.Add(fixtures.SurveyPing(0, 30, 0, 0), 0)

	total := NewCollector(0.01)
	total.Merge(a)
	total.Merge(b)

	r := total.Report()
	if r.Surveys != 2 || r.MaxBeams != 30 {
		t.Errorf("surveys %d maxBeams %d", r.Surveys, r.MaxBeams)
	}
	if !r.First.Equal(fixtures.Epoch) || r.Duration() != 2*time.Second {
		t.Errorf("span %v + %v", r.First, r.Duration())
	}
	if r.Depth.Count != a.Report().Depth.Count+b.Report().Depth.Count {
		t.Errorf("depth count = %d", r.Depth.Count)
	}
}

func TestScan(t *testing.T) {
	var buf bytes.Buffer
	w, err := driver.NewWriter(&buf, "pbswath", driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, p := range fixtures.Stream(8, 16) {
		if err := w.Put(p); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	w.Close()

	r, err := driver.NewReader(bytes.NewReader(buf.Bytes()), "pbswath", driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	rep, err := Scan(context.Background(), r, 0.01)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if rep.Format != "pbswath" {
		t.Errorf("Format = %q", rep.Format)
	}
	if rep.Records != 11 || rep.Surveys != 8 || rep.Navs != 2 || rep.Comments != 1 {
		t.Errorf("kinds = %d/%d/%d/%d", rep.Records, rep.Surveys, rep.Navs, rep.Comments)
	}
	// 16 beams: 6, 13 null; 10 flagged.
	if rep.NullBeams != 16 || rep.FlaggedBeams != 8 || rep.GoodBeams != 8*13 {
		t.Errorf("beams = %d/%d/%d", rep.GoodBeams, rep.FlaggedBeams, rep.NullBeams)
	}
	if rep.Altitude.Count != 8 {
		t.Errorf("altitude count = %d, want 8", rep.Altitude.Count)
	}
}

func TestScanTruncated(t *testing.T) {
	var buf bytes.Buffer
	w, err := driver.NewWriter(&buf, "pbswath", driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, p := range fixtures.Stream(3, 8) {
		w.Put(p)
	}
	w.Close()

	data := buf.Bytes()
	r, err := driver.NewReader(bytes.NewReader(data[:len(data)-5]), "pbswath", driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	rep, err := Scan(context.Background(), r, 0.01)
	if err == nil {
		t.Fatal("expected error for truncated stream")
	}
	if rep.Records != 3 {
		t.Errorf("partial report has %d records, want 3", rep.Records)
	}
}

func TestScanCanceled(t *testing.T) {
	var buf bytes.Buffer
	w, _ := driver.NewWriter(&buf, "pbswath", driver.DefaultOptions())
	w.Put(fixtures.SurveyPing(0, 4, 0, 0))
	w.Close()

	r, err := driver.NewReader(&buf, "pbswath", driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, r, 0.01); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan error = %v, want context.Canceled", err)
	}
}
