// Command latency-plot windows a JSON timing document and renders the
// per-buffer or between-buffers latencies as a scatter plot, a histogram or a
// summary table.
//
// Usage:
//
//	latency-plot [flags] <kind> <data.json>
//
// where kind is one of per-buffer-scatter, between-buffers-scatter,
// between-buffers-hist, per-buffer-hist or summary.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/rawlog"
	"github.com/banshee-data/bufferbench/internal/report"
	"github.com/banshee-data/bufferbench/internal/security"
	"github.com/banshee-data/bufferbench/internal/timeutil"
	"github.com/banshee-data/bufferbench/internal/version"
	"github.com/banshee-data/bufferbench/internal/window"
)

// Options holds the parsed command line.
type Options struct {
	ConfigPath string
	Format     string
	OutPath    string
	JSONPath   string
	Verbose    bool
	Version    bool

	// overrides, applied only when the flag was given
	StartAt  float64
	Duration float64
	Strict   bool
	Bins     int
}

func main() {
	if err := run(os.Args[1:], fsutil.OSFileSystem{}, timeutil.RealClock{}, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("latency-plot: %v", err)
	}
}

func kindNames() string {
	names := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func run(args []string, fsys fsutil.FileSystem, clock timeutil.Clock, stdout, stderr io.Writer) error {
	var o Options
	fs := flag.NewFlagSet("latency-plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.ConfigPath, "config", "", "Analysis config JSON (defaults apply to anything it leaves out)")
	fs.Float64Var(&o.StartAt, "start-at", 20, "Window start in seconds, skips device setup")
	fs.Float64Var(&o.Duration, "duration", 60, "Window length in seconds")
	fs.BoolVar(&o.Strict, "strict", true, "Reject logs that are not in ascending order")
	fs.IntVar(&o.Bins, "bins", 10, "Histogram bin count")
	fs.StringVar(&o.Format, "format", "", "Plot format: png, svg or html (default from -out extension, else png)")
	fs.StringVar(&o.OutPath, "out", "", "Output path (default <data>_<kind>.<format> next to the data file)")
	fs.StringVar(&o.JSONPath, "json", "", "Also write a JSON summary report to this path")
	fs.BoolVar(&o.Verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.Version, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: latency-plot [flags] <kind> <data.json>\n\n")
		fmt.Fprintf(stderr, "Kinds: %s\n\n", kindNames())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.Version {
		fmt.Fprintln(stdout, version.String("latency-plot"))
		return nil
	}
	monitoring.SetVerbose(o.Verbose)

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected 2 arguments, got %d", fs.NArg())
	}
	kind, err := report.ParseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	dataPath := fs.Arg(1)

	cfg, err := loadConfig(fs, fsys, o)
	if err != nil {
		return err
	}

	w, err := window.New(cfg.GetStartAtSecs(), cfg.GetMaxDurationSecs())
	if err != nil {
		return err
	}

	l, err := rawlog.Load(fsys, dataPath)
	if err != nil {
		return err
	}
	strict := cfg.GetRequireAscending()
	res, err := window.Apply(l, w, window.Options{RequireAscending: strict})
	if err != nil {
		return fmt.Errorf("%s: %w", dataPath, err)
	}

	if kind == report.KindSummary || o.JSONPath != "" {
		rep, err := report.NewReport(dataPath, res, strict, clock)
		if err != nil {
			return err
		}
		if kind == report.KindSummary {
			if err := rep.WriteText(stdout); err != nil {
				return err
			}
		}
		if o.JSONPath != "" {
			if err := writeFile(fsys, o.JSONPath, rep.WriteJSON); err != nil {
				return err
			}
			monitoring.Logf("wrote report %s (run %s)", o.JSONPath, rep.RunID)
		}
		if kind == report.KindSummary {
			return nil
		}
	}

	format, outPath, err := resolveOutput(o, kind, dataPath)
	if err != nil {
		return err
	}
	plotOpts := report.Options{
		WidthInches:  cfg.GetPlotWidthInches(),
		HeightInches: cfg.GetPlotHeightInches(),
		Bins:         cfg.GetHistogramBins(),
	}
	err = writeFile(fsys, outPath, func(out io.Writer) error {
		return report.Render(out, res, kind, format, plotOpts)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", outPath)
	return nil
}

// loadConfig reads the optional config file and layers explicitly given flags
// over it.
func loadConfig(fs *flag.FlagSet, fsys fsutil.FileSystem, o Options) (*config.AnalysisConfig, error) {
	cfg := config.EmptyAnalysisConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(fsys, o.ConfigPath); err != nil {
			return nil, err
		}
		monitoring.Verbosef("loaded config %s", o.ConfigPath)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start-at":
			cfg.StartAtSecs = &o.StartAt
		case "duration":
			cfg.MaxDurationSecs = &o.Duration
		case "strict":
			cfg.RequireAscending = &o.Strict
		case "bins":
			cfg.HistogramBins = &o.Bins
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveOutput(o Options, kind report.Kind, dataPath string) (report.Format, string, error) {
	var format report.Format
	var err error
	switch {
	case o.Format != "":
		format, err = report.ParseFormat(o.Format)
	case o.OutPath != "":
		format, err = report.FormatForPath(o.OutPath)
	default:
		format = report.FormatPNG
	}
	if err != nil {
		return "", "", err
	}

	if o.OutPath != "" {
		return format, o.OutPath, nil
	}
	out, err := security.DerivedOutputPath(dataPath, string(kind), string(format))
	if err != nil {
		return "", "", err
	}
	return format, out, nil
}

// writeFile renders into memory first so a failed render never truncates or
// leaves behind the file at path. Missing parent directories are created.
func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
