package main

import (
	"context"
	"fmt"

	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/export"
	"golang.org/x/sync/errgroup"
)

func runExport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("export")
	format := fs.String("f", "generic", "input format name or ID")
	dir := fs.String("o", ".", "output directory")
	includeNull := fs.Bool("null", a.cfg.Export.IncludeNull, "export null beams")
	if err := parse(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errUsage
	}

	opts := export.DefaultOptions()
	opts.Compression = export.ParseCompressionType(a.cfg.Export.Compression)
	opts.RowGroupSize = a.cfg.Export.RowGroupSize
	opts.IncludeNull = *includeNull
	exp := export.New(opts)

	results := make([]*export.Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			s, err := driver.Open(path, driver.ModeRead, *format, a.cfg.DriverOptions())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := exp.Export(ctx, s, *dir, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(a.stdout, "%s: %d pings, %d beams\n", r.PingsPath, r.Pings, r.Beams)
	}
	return nil
}
