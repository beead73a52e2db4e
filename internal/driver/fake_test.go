package driver

import (
	"io"

	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// Two fake formats exercise the session without any real format package.
//
// "minimal" is read-only and implements nothing beyond Driver. Each record
// is one byte holding the beam count; 0 is a comment.
//
// "writable" uses the same encoding and adds Inserter.

const (
	minimalID  = 9001
	writableID = 9002
)

func init() {
	Register(Format{
		Info: Info{Name: "minimal", ID: minimalID, Description: "read-only test format"},
		New:  func(opts Options) Driver { return &minimal{opts: opts} },
	})
	Register(Format{
		Info: Info{Name: "writable", ID: writableID, Description: "writable test format"},
		New:  func(opts Options) Driver { return &writable{minimal{opts: opts}} },
	})
}

type minimal struct {
	opts  Options
	kind  swath.Kind
	beams int
}

func (m *minimal) Info() Info { return Info{Name: "minimal", ID: minimalID} }

func (m *minimal) ReadRecord(r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.ErrShortRead
	}
	n := int(b[0])
	if n > m.opts.MaxBeams {
		return errors.NewAlloc("beams", n, m.opts.MaxBeams)
	}
	m.beams = n
	m.kind = swath.KindSurvey
	if n == 0 {
		m.kind = swath.KindComment
	}
	return nil
}

func (m *minimal) Kind() swath.Kind { return m.kind }

func (m *minimal) Dimensions() swath.Dims {
	if m.kind != swath.KindSurvey {
		return swath.Dims{Kind: m.kind}
	}
	return swath.Dims{Kind: m.kind, Beams: m.beams}
}

// Extract produces beams 30 m below a 10 m sensor, nadir at the center.
func (m *minimal) Extract(p *swath.Ping) error {
	p.Reset(m.kind)
	if m.kind != swath.KindSurvey {
		p.Text = "comment"
		return nil
	}
	p.SensorDepth = 10
	p.Lon, p.Lat = 7, 54
	p.Resize(m.beams, 0, 0)
	for i := range p.Beams {
		p.Beams[i] = swath.Beam{
			Depth:       40 + float64(i),
			AcrossTrack: float64(2*i - m.beams),
		}
	}
	return nil
}

func (m *minimal) Close() error { return nil }

type writable struct {
	minimal
}

func (w *writable) Info() Info { return Info{Name: "writable", ID: writableID} }

func (w *writable) Insert(p *swath.Ping) error {
	if len(p.Beams) > w.opts.MaxBeams {
		return errors.NewAlloc("beams", len(p.Beams), w.opts.MaxBeams)
	}
	w.kind = p.Kind
	w.beams = len(p.Beams)
	return nil
}

func (w *writable) WriteRecord(out io.Writer) error {
	n := w.beams
	if w.kind != swath.KindSurvey {
		n = 0
	}
	_, err := out.Write([]byte{byte(n)})
	return err
}
