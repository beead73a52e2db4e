package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/logging"
	"github.com/xtxerr/swath/internal/swath"
)

// PingRow is one survey or nav record.
type PingRow struct {
	Source      string  `parquet:"source,dict,zstd"`
	Record      int64   `parquet:"record"`
	Kind        string  `parquet:"kind,dict"`
	TimeUs      int64   `parquet:"time_us"`
	Lon         float64 `parquet:"lon"`
	Lat         float64 `parquet:"lat"`
	Speed       float64 `parquet:"speed"`
	Heading     float64 `parquet:"heading"`
	Roll        float64 `parquet:"roll"`
	Pitch       float64 `parquet:"pitch"`
	Heave       float64 `parquet:"heave"`
	SensorDepth float64 `parquet:"sensor_depth"`
	Altitude    float64 `parquet:"altitude"`
	SonarType   int32   `parquet:"sonar_type"`
	Beams       int32   `parquet:"beams"`
	Amplitudes  int32   `parquet:"amplitudes"`
	Pixels      int32   `parquet:"pixels"`
}

// BeamRow is one sounding, positioned by its ping.
type BeamRow struct {
	Source      string  `parquet:"source,dict,zstd"`
	Record      int64   `parquet:"record"`
	Beam        int32   `parquet:"beam"`
	TimeUs      int64   `parquet:"time_us"`
	Lon         float64 `parquet:"lon"`
	Lat         float64 `parquet:"lat"`
	Flag        int32   `parquet:"flag"`
	Status      string  `parquet:"status,dict"`
	Depth       float64 `parquet:"depth"`
	AcrossTrack float64 `parquet:"across_track"`
	AlongTrack  float64 `parquet:"along_track"`
}

// Result summarizes one export.
type Result struct {
	PingsPath string
	BeamsPath string
	Records   int64
	Pings     int64
	Beams     int64
	Comments  int64
	Duration  time.Duration
}

// batchSize is the number of beam rows buffered before a write.
const batchSize = 8192

// Exporter writes sessions to Parquet.
type Exporter struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	return &Exporter{
		opts:   opts,
		logger: logging.Component("export"),
	}
}

// PathsFor returns the ping and beam file names for an input under dir.
func PathsFor(dir, input string) (pings, beams string) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+".pings.parquet"), filepath.Join(dir, base+".beams.parquet")
}

// Export reads s to the end and writes one ping file and one beam file
// under dir. source names the input in every row. Comments are counted
// but not written.
func (e *Exporter) Export(ctx context.Context, s *driver.Session, dir, source string) (*Result, error) {
	start := time.Now()
	res := &Result{}
	res.PingsPath, res.BeamsPath = PathsFor(dir, source)

	meta := map[string]string{
		"swath.source": source,
		"swath.format": s.Info().Name,
	}

	pw, err := NewWriter[PingRow](res.PingsPath, e.opts, meta)
	if err != nil {
		return nil, err
	}
	defer pw.Close()

	bw, err := NewWriter[BeamRow](res.BeamsPath, e.opts, meta)
	if err != nil {
		return nil, err
	}
	defer bw.Close()

	var (
		ping  swath.Ping
		pings []PingRow
		beams []BeamRow
	)

	flush := func() error {
		if err := pw.Write(pings); err != nil {
			return err
		}
		if err := bw.Write(beams); err != nil {
			return err
		}
		pings, beams = pings[:0], beams[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", source, err)
		}
		res.Records++

		if s.Kind() == swath.KindComment {
			res.Comments++
			continue
		}

		if err := s.Extract(&ping); err != nil {
			return nil, fmt.Errorf("export %s: %w", source, err)
		}
		_, alt, err := s.Altitude()
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", source, err)
		}

		record := res.Records - 1
		pings = append(pings, pingRow(source, record, &ping, alt))
		res.Pings++

		for i, b := range ping.Beams {
			if b.Flag.IsNull() && !e.opts.IncludeNull {
				continue
			}
			beams = append(beams, beamRow(source, record, i, &ping, b))
			res.Beams++
		}

		if len(beams) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	e.logger.Info("exported",
		"source", source,
		"records", res.Records,
		"pings", res.Pings,
		"beams", res.Beams,
		"duration", res.Duration)
	return res, nil
}

func timeUs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func pingRow(source string, record int64, p *swath.Ping, altitude float64) PingRow {
	return PingRow{
		Source:      source,
		Record:      record,
		Kind:        p.Kind.String(),
		TimeUs:      timeUs(p.Time),
		Lon:         p.Lon,
		Lat:         p.Lat,
		Speed:       p.Speed,
		Heading:     p.Heading,
		Roll:        p.Roll,
		Pitch:       p.Pitch,
		Heave:       p.Heave,
		SensorDepth: p.SensorDepth,
		Altitude:    altitude,
		SonarType:   int32(p.SonarType),
		Beams:       int32(len(p.Beams)),
		Amplitudes:  int32(len(p.Amplitudes)),
		Pixels:      int32(len(p.Pixels)),
	}
}

func beamRow(source string, record int64, i int, p *swath.Ping, b swath.Beam) BeamRow {
	return BeamRow{
		Source:      source,
		Record:      record,
		Beam:        int32(i),
		TimeUs:      timeUs(p.Time),
		Lon:         p.Lon,
		Lat:         p.Lat,
		Flag:        int32(b.Flag),
		Status:      b.Flag.String(),
		Depth:       b.Depth,
		AcrossTrack: b.AcrossTrack,
		AlongTrack:  b.AlongTrack,
	}
}
