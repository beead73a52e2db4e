// swath inspects, converts, exports and queries sonar swath files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/xtxerr/swath/internal/config"
	"github.com/xtxerr/swath/internal/errors"
	_ "github.com/xtxerr/swath/internal/formats/all"
	"github.com/xtxerr/swath/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// errUsage marks command-line mistakes; it maps to exit code 1.
var errUsage = errors.New("usage")

// app is what every subcommand gets.
type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"formats": {"formats", runFormats},
	"info":    {"info [-f format] file...", runInfo},
	"convert": {"convert [-f format] -t format src dst", runConvert},
	"export":  {"export [-f format] [-o dir] file...", runExport},
	"query":   {"query [-d dir] [-summary | -track source | sql]", runQuery},
	"shell":   {"shell [-f format] file", runShell},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("swath", flag.ContinueOnError)
	global.SetOutput(stderr)
	cfgPath := global.String("config", "", "config file path")
	level := global.String("log-level", "", "log level (overrides config)")
	jsonLog := global.Bool("log-json", false, "log as JSON")
	version := global.Bool("version", false, "print version and exit")
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		return int(errors.CodeUnknown)
	}
	if *version {
		fmt.Fprintf(stdout, "swath %s\n", Version)
		return int(errors.CodeOK)
	}

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(stderr, "swath: %v\n", err)
			return int(errors.ErrorToCode(err))
		}
	}
	if *level != "" {
		cfg.Logging.Level = *level
	}
	if *jsonLog {
		cfg.Logging.JSON = true
	}
	logging.InitWriter(stderr, logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return int(errors.CodeUnknown)
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "swath: unknown command %q\n", rest[0])
		global.Usage()
		return int(errors.CodeUnknown)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    logging.Component(rest[0]),
	}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: swath %s\n", cmd.usage)
			return int(errors.CodeUnknown)
		}
		code := errors.ErrorToCode(err)
		a.log.Error("command failed", "error", err, "code", errors.CodeName(code))
		fmt.Fprintf(stderr, "swath %s: %v\n", rest[0], err)
		return int(code)
	}
	return int(errors.CodeOK)
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: swath [flags] command [args]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(w, "\nflags:\n")
	fs.PrintDefaults()
}

// newFlags returns a subcommand flag set whose errors surface as errUsage.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}
