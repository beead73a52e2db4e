package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xtxerr/swath/internal/query"
)

func runQuery(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("query")
	dir := fs.String("d", ".", "export directory")
	summary := fs.Bool("summary", false, "per-source depth summary")
	track := fs.String("track", "", "print the ping track of a source")
	limit := fs.Int("n", 0, "row limit for -track")
	if err := parse(fs, args); err != nil {
		return err
	}
	sql := strings.Join(fs.Args(), " ")
	if !*summary && *track == "" && sql == "" {
		return errUsage
	}

	svc, err := query.New(*dir, a.cfg.Query)
	if err != nil {
		return err
	}
	defer svc.Close()

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch {
	case *summary:
		rows, err := svc.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "SOURCE\tBEAMS\tGOOD\tFLAGGED\tMIN\tMEAN\tMAX\tFIRST\tLAST")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
				r.Source, r.Beams, r.Good, r.Flagged,
				r.MinDepth.Float64, r.AvgDepth.Float64, r.MaxDepth.Float64,
				r.First.Format(time.RFC3339), r.Last.Format(time.RFC3339))
		}

	case *track != "":
		points, err := svc.Track(ctx, *track, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "RECORD\tTIME\tLON\tLAT\tHEADING\tALTITUDE")
		for _, p := range points {
			fmt.Fprintf(tw, "%d\t%s\t%.7f\t%.7f\t%.1f\t%.2f\n",
				p.Record, p.Time.Format(time.RFC3339Nano), p.Lon, p.Lat, p.Heading, p.Altitude)
		}

	default:
		res, err := svc.ExecuteSQL(ctx, sql)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
		for _, row := range res.Rows {
			vals := make([]string, len(res.Columns))
			for i, col := range res.Columns {
				vals[i] = fmt.Sprint(row[col])
			}
			fmt.Fprintln(tw, strings.Join(vals, "\t"))
		}
		if res.Truncated {
			a.log.Warn("result truncated", "max_rows", a.cfg.Query.MaxRows)
		}
	}
	return nil
}
