package main

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/swath/internal/driver"
)

func runConvert(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("convert")
	from := fs.String("f", "generic", "input format name or ID")
	to := fs.String("t", "", "output format name or ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *to == "" || fs.NArg() != 2 {
		return errUsage
	}
	srcPath, dstPath := fs.Arg(0), fs.Arg(1)

	opts := a.cfg.DriverOptions()
	src, err := driver.Open(srcPath, driver.ModeRead, *from, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := driver.Open(dstPath, driver.ModeWrite, *to, opts)
	if err != nil {
		return err
	}
	defer dst.Close()

	start := time.Now()
	n, err := driver.Copy(ctx, dst, src)
	if err != nil {
		return fmt.Errorf("%s: %w", srcPath, err)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	c := dst.Context()
	a.log.Info("converted",
		"src", srcPath, "dst", dstPath,
		"records", n, "bytes", c.BytesWritten,
		"duration", time.Since(start))
	fmt.Fprintf(a.stdout, "%s -> %s: %d records, %d bytes\n", srcPath, dstPath, n, c.BytesWritten)
	return nil
}
