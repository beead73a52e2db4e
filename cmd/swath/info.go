package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/inventory"
	"github.com/xtxerr/swath/internal/logging"
	"golang.org/x/sync/errgroup"
)

func runFormats(_ context.Context, a *app, args []string) error {
	fs := a.newFlags("formats")
	if err := parse(fs, args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODE\tBEAMS\tDESCRIPTION")
	for _, info := range driver.Formats() {
		f, err := driver.Lookup(info.Name)
		if err != nil {
			return err
		}
		mode := "r"
		if f.Writable() {
			mode = "rw"
		}
		beams := "variable"
		if info.FixedBeams > 0 {
			beams = fmt.Sprint(info.FixedBeams)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", info.ID, info.Name, mode, beams, info.Description)
	}
	return tw.Flush()
}

func runInfo(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("info")
	format := fs.String("f", "generic", "input format name or ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errUsage
	}

	collectors := make([]*inventory.Collector, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			c, err := a.scanFile(ctx, path, *format)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			collectors[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := inventory.NewCollector(a.cfg.Inventory.PercentileAccuracy)
	for _, c := range collectors {
		printReport(a.stdout, c.Report())
		total.Merge(c)
	}
	if len(files) > 1 {
		r := total.Report()
		r.Path = fmt.Sprintf("total (%d files)", len(files))
		r.Format = *format
		printReport(a.stdout, r)
	}
	return nil
}

func (a *app) scanFile(ctx context.Context, path, format string) (*inventory.Collector, error) {
	s, err := driver.Open(path, driver.ModeRead, format, a.cfg.DriverOptions())
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ctx = logging.ContextWithPath(ctx, path)
	ctx = logging.ContextWithSessionID(ctx, s.Context().ID)
	ctx = logging.ContextWithFormat(ctx, s.Info().Name)
	log := logging.WithContext(ctx)

	start := time.Now()
	c := inventory.NewCollector(a.cfg.Inventory.PercentileAccuracy)
	if err := c.Scan(ctx, s); err != nil {
		return nil, err
	}
	log.Debug("scanned", "records", s.Context().RecordsRead, "bytes", s.Context().BytesRead,
		"duration", time.Since(start))
	return c, nil
}

func printReport(w io.Writer, r *inventory.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t(%s)\n", r.Path, r.Format)
	fmt.Fprintf(tw, "  records\t%d\tsurvey %d, nav %d, comment %d\n", r.Records, r.Surveys, r.Navs, r.Comments)
	fmt.Fprintf(tw, "  beams\t%d\tgood %d, flagged %d, null %d, max/ping %d\n",
		r.Beams(), r.GoodBeams, r.FlaggedBeams, r.NullBeams, r.MaxBeams)
	fmt.Fprintf(tw, "  sidescan\tamplitudes %d\tpixels %d\n", r.Amplitudes, r.Pixels)
	if !r.First.IsZero() {
		fmt.Fprintf(tw, "  time\t%s\t%s (%s)\n",
			r.First.UTC().Format(time.RFC3339Nano), r.Last.UTC().Format(time.RFC3339Nano), r.Duration())
	}
	if r.BBox.Valid() {
		fmt.Fprintf(tw, "  bbox\tlon %.6f .. %.6f\tlat %.6f .. %.6f\n",
			r.BBox.MinLon, r.BBox.MaxLon, r.BBox.MinLat, r.BBox.MaxLat)
	}
	printSummary(tw, "depth", r.Depth)
	printSummary(tw, "altitude", r.Altitude)
	tw.Flush()
}

func printSummary(w io.Writer, name string, s inventory.Summary) {
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\tmin %.2f, mean %.2f, max %.2f\t", name, s.Min, s.Mean, s.Max)
	if s.HasPercentiles() {
		fmt.Fprintf(w, "p50 %.2f, p90 %.2f, p95 %.2f, p99 %.2f", *s.P50, *s.P90, *s.P95, *s.P99)
	}
	fmt.Fprintln(w)
}
