// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command colorbook runs the coloring engine on image files.
//
// Usage:
//
//	colorbook fill -in page.png -x 50 -y 50 -color #ff0000 -out filled.png
//	colorbook replay -in page.png -actions a.json -actions b.json -out out.png
//	colorbook coverage -in colored.png
//
// Each subcommand accepts -config with a YAML config file; COLORBOOK_*
// environment variables override it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/language"

	"github.com/gogpu/colorbook"
	"github.com/gogpu/colorbook/internal/parallel"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "fill":
		err = runFill(ctx, args[1:], stdout, stderr)
	case "replay":
		err = runReplay(ctx, args[1:], stdout, stderr)
	case "coverage":
		err = runCoverage(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "colorbook: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "colorbook: %v\n", err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: colorbook <fill|replay|coverage> [flags]")
}

// setup loads the config and installs the logger. The returned closer
// flushes the log file, if any.
func setup(path string, stderr io.Writer) (colorbook.Config, io.Closer, error) {
	cfg, err := colorbook.LoadConfig(path)
	if err != nil {
		return colorbook.Config{}, nil, err
	}
	logger, closer := newLogger(cfg.Logging, stderr)
	colorbook.SetLogger(logger)
	return cfg, closer, nil
}

func runFill(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file")
		in         = fs.String("in", "", "template image (png, webp, bmp)")
		out        = fs.String("out", "filled.png", "output PNG")
		x          = fs.Float64("x", 0, "seed x")
		y          = fs.Float64("y", 0, "seed y")
		hex        = fs.String("color", "#ff0000", "fill color")
		tolerance  = fs.Int("tolerance", -1, "per-channel tolerance (default from config)")
		record     = fs.String("record", "", "write the fill as an action record to this file")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("fill: -in is required")
	}

	cfg, closer, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := colorbook.ParseHex(*hex)
	if err != nil {
		return err
	}
	tol := cfg.Fill.Tolerance
	if *tolerance >= 0 {
		if *tolerance > 255 {
			return fmt.Errorf("fill: tolerance %d out of range", *tolerance)
		}
		tol = uint8(*tolerance) //nolint:gosec // G115: range checked above
	}

	img, err := decodeImage(*in)
	if err != nil {
		return err
	}
	b := img.Bounds()
	session := colorbook.NewSession(b.Dx(), b.Dy(), colorbook.WithConfig(cfg))
	session.LoadTemplate(img)

	res, err := session.Fill(ctx, colorbook.FillRequest{Seed: colorbook.Pt(*x, *y), Color: c, Tolerance: tol})
	if err != nil {
		return err
	}
	if res.NoOp != colorbook.NoOpNone {
		fmt.Fprintf(stdout, "no-op: %s\n", res.NoOp)
	} else {
		fmt.Fprintf(stdout, "filled %d pixels in %v\n", res.Changed, res.Bounds)
	}

	if *record != "" {
		data, err := colorbook.EncodeActions(session.History())
		if err != nil {
			return err
		}
		if err := os.WriteFile(*record, data, 0o600); err != nil {
			return err
		}
	}
	return writePNG(*out, session.Surface().Image())
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runReplay(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file")
		in         = fs.String("in", "", "template image; blank canvas when empty")
		width      = fs.Int("width", 1024, "canvas width without a template")
		height     = fs.Int("height", 768, "canvas height without a template")
		out        = fs.String("out", "replay.png", "output PNG; numbered when replaying several files")
		policy     = fs.String("policy", "", "size mismatch policy: strict or lenient (default from config)")
		actions    stringList
	)
	fs.Var(&actions, "actions", "action record file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(actions) == 0 {
		return errors.New("replay: at least one -actions file is required")
	}

	cfg, closer, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	pol := cfg.Replay.Policy
	if *policy != "" {
		if pol, err = colorbook.ParseReplayPolicy(*policy); err != nil {
			return err
		}
	}

	var template image.Image
	w, h := *width, *height
	if *in != "" {
		if template, err = decodeImage(*in); err != nil {
			return err
		}
		w, h = template.Bounds().Dx(), template.Bounds().Dy()
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("replay: invalid canvas size %dx%d", w, h)
	}

	// Each action file replays into its own session; sessions share
	// nothing, so they run in parallel.
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()

	var mu sync.Mutex
	errs := make([]error, len(actions))
	work := make([]func(), len(actions))
	for i, path := range actions {
		dst := numberedPath(*out, i, len(actions))
		work[i] = func() {
			report, err := replayFile(ctx, cfg, template, w, h, path, pol, dst)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return
			}
			mu.Lock()
			fmt.Fprintf(stdout, "%s: applied %d, clamped %d, skipped %d -> %s\n",
				path, report.Applied, report.Clamped, report.Skipped, dst)
			mu.Unlock()
		}
	}
	pool.ExecuteAll(work)
	return errors.Join(errs...)
}

func replayFile(ctx context.Context, cfg colorbook.Config, template image.Image, w, h int,
	path string, policy colorbook.ReplayPolicy, out string,
) (colorbook.ReplayReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return colorbook.ReplayReport{}, err
	}
	actions, err := colorbook.DecodeActions(data)
	if err != nil {
		return colorbook.ReplayReport{}, err
	}

	session := colorbook.NewSession(w, h, colorbook.WithConfig(cfg))
	if template != nil {
		session.LoadTemplate(template)
	}
	report, err := session.Replay(ctx, actions, policy)
	if err != nil {
		return report, err
	}
	colorbook.Logger().Debug("replayed", slog.String("file", path), slog.Float64("coverage", session.Coverage().Percent))
	return report, writePNG(out, session.Surface().Image())
}

// numberedPath returns path unchanged for a single output, else path with
// "-<i>" before the extension.
func numberedPath(path string, i, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}

func runCoverage(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("coverage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file")
		in         = fs.String("in", "", "image to measure")
		lang       = fs.String("lang", "en", "BCP 47 language of the printed percentage")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("coverage: -in is required")
	}

	cfg, closer, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	tag, err := language.Parse(*lang)
	if err != nil {
		return fmt.Errorf("coverage: %w", err)
	}
	img, err := decodeImage(*in)
	if err != nil {
		return err
	}

	b := img.Bounds()
	surface := colorbook.NewSurfaceFromImage(img, b.Dx(), b.Dy())

	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	est := colorbook.NewCoverageEstimator(append(cfg.CoverageOptions(), colorbook.WithWorkerPool(pool))...)
	sample := est.Scan(surface)
	fmt.Fprintf(stdout, "%s (raw %.4f)\n", sample.Label(tag), sample.Raw)
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	colorbook.Logger().Debug("template decoded", "path", path, "format", format, "bounds", img.Bounds().String())
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
