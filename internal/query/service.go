// Package query runs SQL over exported swath Parquet files using DuckDB.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/xtxerr/swath/internal/config"
	"github.com/xtxerr/swath/internal/logging"
)

// ErrNoData is returned when the export directory holds no Parquet files
// of the queried kind.
var ErrNoData = errors.New("no exported data")

// Service provides query capabilities over one export directory. The
// directory is exposed as two views, pings and beams.
type Service struct {
	mu sync.RWMutex

	dir string
	cfg config.QueryConfig
	db  *sql.DB

	havePings bool
	haveBeams bool

	queries atomic.Int64
	rows    atomic.Int64
	errs    atomic.Int64
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// Result is the outcome of an ad-hoc query.
type Result struct {
	Columns []string
	Rows    []map[string]any

	// Truncated is set when more than MaxRows rows were available.
	Truncated bool
}

// SourceSummary aggregates the beams of one exported input.
type SourceSummary struct {
	Source   string
	Beams    int64
	Good     int64
	Flagged  int64
	MinDepth sql.NullFloat64
	AvgDepth sql.NullFloat64
	MaxDepth sql.NullFloat64
	First    time.Time
	Last     time.Time
}

// TrackPoint is one ping position.
type TrackPoint struct {
	Record   int64
	Time     time.Time
	Lon      float64
	Lat      float64
	Heading  float64
	Altitude float64
}

// New opens an in-memory DuckDB database over the Parquet files in dir.
func New(dir string, cfg config.QueryConfig) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.MemoryLimit != "" {
		_, err = db.Exec(fmt.Sprintf("SET memory_limit='%s'", quote(cfg.MemoryLimit)))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	s := &Service{dir: dir, cfg: cfg, db: db}
	if err := s.Refresh(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Refresh rebinds the views to the files currently in the directory.
func (s *Service) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.havePings, err = s.bindView("pings", "*.pings.parquet"); err != nil {
		return err
	}
	if s.haveBeams, err = s.bindView("beams", "*.beams.parquet"); err != nil {
		return err
	}
	logging.Component("query").Debug("views bound",
		"dir", s.dir, "pings", s.havePings, "beams", s.haveBeams)
	return nil
}

func (s *Service) bindView(name, pattern string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return false, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		_, err := s.db.Exec("DROP VIEW IF EXISTS " + name)
		return false, err
	}
	sort.Strings(files)

	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + quote(f) + "'"
	}
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet([%s])",
		name, strings.Join(quoted, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return false, fmt.Errorf("create view %s: %w", name, err)
	}
	return true, nil
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) failed(err error) error {
	s.errs.Add(1)
	return err
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// Summary returns per-source beam statistics. Depth statistics cover good
// beams only.
func (s *Service) Summary(ctx context.Context) ([]SourceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.haveBeams {
		return nil, ErrNoData
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT
			source,
			count(*),
			count(*) FILTER (WHERE status = 'good'),
			count(*) FILTER (WHERE status = 'flagged'),
			min(depth) FILTER (WHERE status = 'good'),
			avg(depth) FILTER (WHERE status = 'good'),
			max(depth) FILTER (WHERE status = 'good'),
			min(time_us),
			max(time_us)
		FROM beams
		GROUP BY source
		ORDER BY source
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.failed(fmt.Errorf("summary: %w", err))
	}
	defer rows.Close()

	var out []SourceSummary
	for rows.Next() {
		var r SourceSummary
		var first, last int64
		if err := rows.Scan(&r.Source, &r.Beams, &r.Good, &r.Flagged,
			&r.MinDepth, &r.AvgDepth, &r.MaxDepth, &first, &last); err != nil {
			return nil, s.failed(fmt.Errorf("scan row: %w", err))
		}
		r.First, r.Last = fromMicros(first), fromMicros(last)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.failed(err)
	}

	s.queries.Add(1)
	s.rows.Add(int64(len(out)))
	return out, nil
}

// Track returns the ping positions of source in record order. limit <= 0
// means MaxRows.
func (s *Service) Track(ctx context.Context, source string, limit int) ([]TrackPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.havePings {
		return nil, ErrNoData
	}
	if limit <= 0 || (s.cfg.MaxRows > 0 && limit > s.cfg.MaxRows) {
		limit = s.cfg.MaxRows
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT record, time_us, lon, lat, heading, altitude
		FROM pings
		WHERE source = ?
		ORDER BY record
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, source, limit)
	if err != nil {
		return nil, s.failed(fmt.Errorf("track: %w", err))
	}
	defer rows.Close()

	var out []TrackPoint
	for rows.Next() {
		var p TrackPoint
		var us int64
		if err := rows.Scan(&p.Record, &us, &p.Lon, &p.Lat, &p.Heading, &p.Altitude); err != nil {
			return nil, s.failed(fmt.Errorf("scan row: %w", err))
		}
		p.Time = fromMicros(us)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.failed(err)
	}

	s.queries.Add(1)
	s.rows.Add(int64(len(out)))
	return out, nil
}

// ExecuteSQL executes a raw SQL query against the pings and beams views.
// At most MaxRows rows are returned.
func (s *Service) ExecuteSQL(ctx context.Context, query string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.failed(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, s.failed(err)
	}

	res := &Result{Columns: columns}
	for rows.Next() {
		if s.cfg.MaxRows > 0 && len(res.Rows) >= s.cfg.MaxRows {
			res.Truncated = true
			break
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, s.failed(err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.failed(err)
	}

	s.queries.Add(1)
	s.rows.Add(int64(len(res.Rows)))
	return res, nil
}

// Stats returns query statistics.
func (s *Service) Stats() Stats {
	return Stats{
		QueriesExecuted: s.queries.Load(),
		RowsReturned:    s.rows.Load(),
		Errors:          s.errs.Load(),
	}
}
