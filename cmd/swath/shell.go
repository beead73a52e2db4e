package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/swath"
	"golang.org/x/term"
)

var shellCommands = []prompt.Suggest{
	{Text: "next", Description: "advance [n] records"},
	{Text: "show", Description: "print the current record"},
	{Text: "beams", Description: "list beams [from [to]]"},
	{Text: "nav", Description: "print navigation"},
	{Text: "altitude", Description: "print sensor depth and altitude"},
	{Text: "tt", Description: "list travel times"},
	{Text: "svp", Description: "print the sound velocity profile"},
	{Text: "stats", Description: "print session counters"},
	{Text: "help", Description: "list commands"},
	{Text: "quit", Description: "leave the shell"},
}

func runShell(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("shell")
	format := fs.String("f", "generic", "input format name or ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	s, err := driver.Open(fs.Arg(0), driver.ModeRead, *format, a.cfg.DriverOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	b := &browser{s: s, out: a.stdout}

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(a.stdout, "%s (%s), type help for commands\n", fs.Arg(0), s.Info().Name)
		p := prompt.New(
			func(line string) { b.exec(line) },
			completer,
			prompt.OptionPrefix("swath> "),
			prompt.OptionTitle("swath shell"),
			prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
				return b.quit || ctx.Err() != nil
			}),
		)
		p.Run()
		return nil
	}

	sc := bufio.NewScanner(a.stdin)
	for !b.quit && sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.exec(sc.Text())
	}
	return sc.Err()
}

func completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(shellCommands, d.GetWordBeforeCursor(), true)
}

// browser walks one read session record by record.
type browser struct {
	s    *driver.Session
	out  io.Writer
	ping swath.Ping
	quit bool
}

func (b *browser) exec(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "next", "n":
		err = b.next(fields[1:])
	case "show":
		err = b.show()
	case "beams":
		err = b.beams(fields[1:])
	case "nav":
		err = b.nav()
	case "altitude":
		err = b.altitude()
	case "tt":
		err = b.travelTimes()
	case "svp":
		err = b.svp()
	case "stats":
		c := b.s.Context()
		fmt.Fprintf(b.out, "records %d, bytes %d, offset %d, last %s\n",
			c.RecordsRead, c.BytesRead, c.Offset, c.LastKind)
	case "help":
		for _, c := range shellCommands {
			fmt.Fprintf(b.out, "  %-9s %s\n", c.Text, c.Description)
		}
	case "quit", "exit", "q":
		b.quit = true
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err != nil {
		fmt.Fprintf(b.out, "error: %v\n", err)
	}
}

func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	return strconv.Atoi(args[i])
}

func (b *browser) next(args []string) error {
	n, err := intArg(args, 0, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := b.s.Next(); err != nil {
			if err == io.EOF {
				fmt.Fprintln(b.out, "end of file")
				return nil
			}
			return err
		}
	}
	return b.show()
}

func (b *browser) show() error {
	if err := b.s.Extract(&b.ping); err != nil {
		return err
	}
	p := &b.ping
	c := b.s.Context()
	fmt.Fprintf(b.out, "record %d at offset %d: %s\n", c.RecordsRead-1, c.Offset, p.Kind)
	if p.Kind == swath.KindComment {
		fmt.Fprintf(b.out, "  %q\n", p.Text)
		return nil
	}
	fmt.Fprintf(b.out, "  time %s  lon %.7f  lat %.7f  heading %.1f\n",
		p.Time.UTC().Format(time.RFC3339Nano), p.Lon, p.Lat, p.Heading)
	d := p.Dims()
	fmt.Fprintf(b.out, "  beams %d  amplitudes %d  pixels %d\n", d.Beams, d.Amplitudes, d.Pixels)
	return nil
}

func (b *browser) beams(args []string) error {
	if err := b.s.Extract(&b.ping); err != nil {
		return err
	}
	beams := b.ping.Beams
	from, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	to, err := intArg(args, 1, len(beams)-1)
	if err != nil {
		return err
	}
	from, to = max(from, 0), min(to, len(beams)-1)

	tw := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BEAM\tFLAG\tDEPTH\tACROSS\tALONG\t")
	for i := from; i <= to; i++ {
		bm := beams[i]
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\t\n", i, bm.Flag, bm.Depth, bm.AcrossTrack, bm.AlongTrack)
	}
	return tw.Flush()
}

func (b *browser) nav() error {
	n, err := b.s.Nav()
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "time %s\nlon %.7f lat %.7f\nspeed %.2f km/h heading %.2f\nroll %.2f pitch %.2f heave %.2f\nsensor depth %.2f\n",
		n.Time.UTC().Format(time.RFC3339Nano), n.Lon, n.Lat, n.Speed, n.Heading,
		n.Roll, n.Pitch, n.Heave, n.SensorDepth)
	return nil
}

func (b *browser) altitude() error {
	depth, alt, err := b.s.Altitude()
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "sensor depth %.3f altitude %.3f\n", depth, alt)
	return nil
}

func (b *browser) travelTimes() error {
	tt, err := b.s.TravelTimes()
	if err != nil {
		return err
	}
	detects, err := b.s.Detects()
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "draft %.3f ssv %.2f\n", tt.DraftOffset, tt.SSV)
	tw := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BEAM\tTTIME\tANGLE\tFORWARD\tNULL\tDETECT\t")
	for i, t := range tt.Beams {
		det := "-"
		if i < len(detects) {
			det = detects[i].String()
		}
		fmt.Fprintf(tw, "%d\t%.6f\t%.3f\t%.3f\t%.3f\t%s\t\n", i, t.TTime, t.Angle, t.AngleForward, t.AngleNull, det)
	}
	return tw.Flush()
}

func (b *browser) svp() error {
	svp, err := b.s.SVP()
	if err != nil {
		return err
	}
	if len(svp.Points) == 0 {
		fmt.Fprintln(b.out, "no sound velocity profile")
		return nil
	}
	fmt.Fprintf(b.out, "profile at %s, %d points\n", svp.Time.UTC().Format(time.RFC3339), len(svp.Points))
	for _, pt := range svp.Points {
		fmt.Fprintf(b.out, "  %8.2f m  %8.2f m/s\n", pt.Depth, pt.Velocity)
	}
	return nil
}
