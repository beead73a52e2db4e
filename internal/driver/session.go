package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
)

// Mode is the direction of a session.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// String returns a human-readable representation of the Mode.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Context is the per-stream bookkeeping of a session.
type Context struct {
	ID     string
	Path   string
	Format string
	Mode   Mode

	RecordsRead    int64
	RecordsWritten int64
	BytesRead      int64
	BytesWritten   int64

	// Offset is the byte offset at which the current record started.
	Offset int64

	LastKind swath.Kind
}

// Session binds one driver to one open stream.
//
// A Session is strictly single-threaded: no two goroutines may use it at
// once, and Close must not race an in-flight call. It performs no locking
// of the underlying file; the caller guarantees exclusive access.
type Session struct {
	drv    Driver
	format Format
	opts   Options

	r      *bufio.Reader
	cr     *countingReader
	w      *bufio.Writer
	cw     *countingWriter
	closer io.Closer

	ctx Context

	// scratch is session-owned and only used to compute neutral defaults
	// for drivers lacking a capability. It never escapes the session.
	scratch swath.Ping

	haveRecord bool
	err        error // sticky failure, set by allocation errors
	closed     bool
}

// Open opens path in the given mode using the named format.
// Write mode creates or truncates the file.
func Open(path string, mode Mode, format string, opts Options) (*Session, error) {
	f, err := Lookup(format)
	if err != nil {
		return nil, err
	}

	var file *os.File
	if mode == ModeWrite {
		file, err = os.Create(path)
	} else {
		file, err = os.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var s *Session
	if mode == ModeWrite {
		s, err = newWriter(file, f, opts)
	} else {
		s, err = newReader(file, f, opts)
	}
	if err != nil {
		file.Close()
		return nil, err
	}

	s.closer = file
	s.ctx.Path = path
	return s, nil
}

// NewReader creates a read session over r.
func NewReader(r io.Reader, format string, opts Options) (*Session, error) {
	f, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return newReader(r, f, opts)
}

// NewWriter creates a write session over w. Formats with a file header
// write it immediately.
func NewWriter(w io.Writer, format string, opts Options) (*Session, error) {
	f, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return newWriter(w, f, opts)
}

func newSession(f Format, mode Mode, opts Options) *Session {
	opts = opts.Normalize()
	return &Session{
		drv:    f.New(opts),
		format: f,
		opts:   opts,
		ctx: Context{
			ID:     uuid.NewString(),
			Format: f.Info.Name,
			Mode:   mode,
		},
	}
}

func newReader(r io.Reader, f Format, opts Options) (*Session, error) {
	s := newSession(f, ModeRead, opts)
	s.cr = &countingReader{r: r}
	s.r = bufio.NewReaderSize(s.cr, s.opts.BufferSize)

	if hr, ok := s.drv.(HeaderReader); ok {
		if err := hr.ReadHeader(s.r); err != nil {
			s.drv.Close()
			return nil, fmt.Errorf("read %s header: %w", f.Info.Name, err)
		}
	}
	return s, nil
}

func newWriter(w io.Writer, f Format, opts Options) (*Session, error) {
	s := newSession(f, ModeWrite, opts)
	s.cw = &countingWriter{w: w}
	s.w = bufio.NewWriterSize(s.cw, s.opts.BufferSize)

	if hw, ok := s.drv.(HeaderWriter); ok {
		if err := hw.WriteHeader(s.w); err != nil {
			s.drv.Close()
			return nil, fmt.Errorf("write %s header: %w", f.Info.Name, err)
		}
	}
	return s, nil
}

// check returns the error that prevents any call on s.
func (s *Session) check() error {
	if s.closed {
		return errors.ErrClosed
	}
	return s.err
}

// fail records err as sticky if it is fatal to the stream.
func (s *Session) fail(err error) error {
	if errors.Is(err, errors.ErrAlloc) {
		s.err = err
		s.haveRecord = false
	}
	return err
}

// Info describes the session's format.
func (s *Session) Info() Info {
	return s.format.Info
}

// Context returns a snapshot of the session's bookkeeping.
func (s *Session) Context() Context {
	c := s.ctx
	if s.cr != nil {
		c.BytesRead = s.consumed()
	}
	if s.cw != nil {
		c.BytesWritten = s.cw.n + int64(s.w.Buffered())
	}
	return c
}

// consumed returns the bytes the driver has taken from the stream.
func (s *Session) consumed() int64 {
	return s.cr.n - int64(s.r.Buffered())
}

// =============================================================================
// Records
// =============================================================================

// Next reads the next record. It returns io.EOF at a clean end of stream.
func (s *Session) Next() error {
	if err := s.check(); err != nil {
		return err
	}
	if s.ctx.Mode != ModeRead {
		return fmt.Errorf("next: %w", errors.ErrWrongMode)
	}

	start := s.consumed()
	if err := s.drv.ReadRecord(s.r); err != nil {
		s.haveRecord = false
		if err == io.EOF {
			return io.EOF
		}
		return s.fail(fmt.Errorf("record %d at offset %d: %w", s.ctx.RecordsRead, start, err))
	}

	s.ctx.Offset = start
	s.haveRecord = true
	s.ctx.RecordsRead++
	s.ctx.LastKind = s.drv.Kind()
	return nil
}

// Kind returns the kind of the current record, KindUnknown if there is none.
func (s *Session) Kind() swath.Kind {
	if !s.haveRecord {
		return swath.KindUnknown
	}
	return s.drv.Kind()
}

// Dimensions returns the array sizes of the current record.
func (s *Session) Dimensions() swath.Dims {
	if !s.haveRecord {
		return swath.Dims{}
	}
	return s.drv.Dimensions()
}

// Extract fills p from the current record. p belongs to the caller; the
// session keeps no reference to it.
func (s *Session) Extract(p *swath.Ping) error {
	if err := s.current(); err != nil {
		return err
	}
	return s.drv.Extract(p)
}

// Insert replaces the current record with p.
func (s *Session) Insert(p *swath.Ping) error {
	if err := s.check(); err != nil {
		return err
	}
	ins, ok := s.drv.(Inserter)
	if !ok {
		return errors.NewUnsupported(s.format.Info.Name, "insert")
	}
	if err := ins.Insert(p); err != nil {
		return s.fail(err)
	}
	s.haveRecord = true
	return nil
}

// Write encodes the current record onto the stream.
func (s *Session) Write() error {
	if err := s.current(); err != nil {
		return err
	}
	if s.ctx.Mode != ModeWrite {
		return fmt.Errorf("write: %w", errors.ErrWrongMode)
	}
	ins, ok := s.drv.(Inserter)
	if !ok {
		return errors.NewUnsupported(s.format.Info.Name, "write")
	}

	s.ctx.Offset = s.cw.n + int64(s.w.Buffered())
	if err := ins.WriteRecord(s.w); err != nil {
		return fmt.Errorf("record %d: %w", s.ctx.RecordsWritten, err)
	}
	s.ctx.RecordsWritten++
	s.ctx.LastKind = s.drv.Kind()
	return nil
}

// Put inserts p and writes it.
func (s *Session) Put(p *swath.Ping) error {
	if err := s.Insert(p); err != nil {
		return err
	}
	return s.Write()
}

// CopyTo copies the current record into dst's current record. Drivers of
// the same format copy their structs directly, sized to the source's exact
// counts; otherwise the record goes through the canonical ping.
func (s *Session) CopyTo(dst *Session) error {
	if err := s.current(); err != nil {
		return err
	}
	if err := dst.check(); err != nil {
		return err
	}

	if c, ok := dst.drv.(Copier); ok {
		err := c.CopyFrom(s.drv)
		if err == nil {
			dst.haveRecord = true
			return nil
		}
		if !errors.Is(err, errors.ErrUnsupported) {
			return dst.fail(err)
		}
	}

	if err := s.drv.Extract(&s.scratch); err != nil {
		return err
	}
	return dst.Insert(&s.scratch)
}

// current returns an error unless there is a record to operate on.
func (s *Session) current() error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.haveRecord {
		return errors.ErrNoRecord
	}
	return nil
}

// extractScratch decodes the current record into the session's scratch ping.
func (s *Session) extractScratch() (*swath.Ping, error) {
	if err := s.current(); err != nil {
		return nil, err
	}
	if err := s.drv.Extract(&s.scratch); err != nil {
		return nil, err
	}
	return &s.scratch, nil
}

// =============================================================================
// Capabilities with neutral defaults
// =============================================================================

// TravelTimes returns per-beam travel times. Formats without them report
// one zeroed entry per beam.
func (s *Session) TravelTimes() (swath.TravelTimes, error) {
	if err := s.current(); err != nil {
		return swath.TravelTimes{}, err
	}
	if tt, ok := s.drv.(TravelTimer); ok {
		return tt.TravelTimes(), nil
	}
	d := s.drv.Dimensions()
	return swath.NeutralTravelTimes(d.Kind, d.Beams), nil
}

// Detects returns the per-beam detection method, DetectUnknown when the
// format does not record it.
func (s *Session) Detects() ([]swath.Detect, error) {
	if err := s.current(); err != nil {
		return nil, err
	}
	if d, ok := s.drv.(Detector); ok {
		return d.Detects(), nil
	}
	d := s.drv.Dimensions()
	return swath.NeutralDetects(d.Kind, d.Beams), nil
}

// Altitude returns sensor depth and altitude above the seafloor. Without a
// driver implementation it is recomputed from the beams on every call.
func (s *Session) Altitude() (sensorDepth, altitude float64, err error) {
	if err := s.current(); err != nil {
		return 0, 0, err
	}
	if a, ok := s.drv.(AltitudeExtractor); ok {
		sensorDepth, altitude = a.ExtractAltitude()
		return sensorDepth, altitude, nil
	}
	p, err := s.extractScratch()
	if err != nil {
		return 0, 0, err
	}
	if p.Kind != swath.KindSurvey {
		return p.SensorDepth, p.Altitude, nil
	}
	return p.SensorDepth, swath.Altitude(p.SensorDepth, p.Altitude, p.Beams), nil
}

// SetAltitude updates sensor depth and altitude of the current record.
func (s *Session) SetAltitude(sensorDepth, altitude float64) error {
	if err := s.current(); err != nil {
		return err
	}
	if a, ok := s.drv.(AltitudeInserter); ok {
		return s.fail(a.InsertAltitude(sensorDepth, altitude))
	}
	p, err := s.extractScratch()
	if err != nil {
		return err
	}
	p.SensorDepth = sensorDepth
	p.Altitude = altitude
	return s.Insert(p)
}

// Nav returns the navigation of the current record.
func (s *Session) Nav() (swath.Nav, error) {
	if err := s.current(); err != nil {
		return swath.Nav{}, err
	}
	if n, ok := s.drv.(NavExtractor); ok {
		return n.ExtractNav(), nil
	}
	p, err := s.extractScratch()
	if err != nil {
		return swath.Nav{}, err
	}
	return p.Nav(), nil
}

// SetNav updates the navigation of the current record.
func (s *Session) SetNav(n swath.Nav) error {
	if err := s.current(); err != nil {
		return err
	}
	if ni, ok := s.drv.(NavInserter); ok {
		return s.fail(ni.InsertNav(n))
	}
	p, err := s.extractScratch()
	if err != nil {
		return err
	}
	p.SetNav(n)
	return s.Insert(p)
}

// SVP returns the sound velocity profile of the current record, empty when
// the format carries none.
func (s *Session) SVP() (swath.SVP, error) {
	if err := s.current(); err != nil {
		return swath.SVP{}, err
	}
	if e, ok := s.drv.(SVPExtractor); ok {
		return e.ExtractSVP(), nil
	}
	return swath.SVP{}, nil
}

// SetSVP stores a sound velocity profile. Formats that cannot hold one
// drop it silently.
func (s *Session) SetSVP(svp swath.SVP) error {
	if err := s.current(); err != nil {
		return err
	}
	if i, ok := s.drv.(SVPInserter); ok {
		return s.fail(i.InsertSVP(svp))
	}
	return nil
}

// RawSidescan returns raw sidescan of the current record, empty when the
// format carries none.
func (s *Session) RawSidescan() (swath.RawSidescan, error) {
	if err := s.current(); err != nil {
		return swath.RawSidescan{}, err
	}
	if e, ok := s.drv.(RawSidescanExtractor); ok {
		return e.ExtractRawSidescan(), nil
	}
	return swath.RawSidescan{}, nil
}

// SetRawSidescan stores raw sidescan. Formats that cannot hold it drop it
// silently.
func (s *Session) SetRawSidescan(ss swath.RawSidescan) error {
	if err := s.current(); err != nil {
		return err
	}
	if i, ok := s.drv.(RawSidescanInserter); ok {
		return s.fail(i.InsertRawSidescan(ss))
	}
	return nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close flushes pending output, closes the underlying file if the session
// opened it, and releases the driver's state. Close is idempotent and is
// allowed after any error.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.haveRecord = false

	var errs []error
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush: %w", err))
		}
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	if err := s.drv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release %s: %w", s.format.Info.Name, err))
	}
	return errors.Join(errs...)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Copy reads src to the end and writes every record to dst, like io.Copy.
// It returns the number of records written. ctx is checked between
// records.
func Copy(ctx context.Context, dst, src *Session) (int64, error) {
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := src.CopyTo(dst); err != nil {
			return n, fmt.Errorf("copy record %d: %w", src.ctx.RecordsRead-1, err)
		}
		if err := dst.Write(); err != nil {
			return n, err
		}
		n++
	}
}
