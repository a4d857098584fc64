// Command replay-capture writes a captured byte stream to a serial port or
// device, either flat out or one frame at a time with a fixed pause.
//
// Usage:
//
//	replay-capture [flags] <output> <capture> wait <ms>
//	replay-capture [flags] <output> <capture> no-wait
//
// The replay loops over the capture until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/banshee-data/bufferbench/internal/capture"
	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/replay"
	"github.com/banshee-data/bufferbench/internal/serialport"
	"github.com/banshee-data/bufferbench/internal/timeutil"
	"github.com/banshee-data/bufferbench/internal/version"
)

// env carries what run needs from the outside world.
type env struct {
	fsys     fsutil.FileSystem
	clock    timeutil.Clock
	openSink func(fsutil.FileSystem, serialport.Sink) (io.WriteCloser, error)
	stdout   io.Writer
	stderr   io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := env{
		fsys:     fsutil.OSFileSystem{},
		clock:    timeutil.RealClock{},
		openSink: serialport.OpenSink,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	if err := run(ctx, os.Args[1:], e); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("replay-capture: %v", err)
	}
}

func run(ctx context.Context, args []string, e env) error {
	fs := flag.NewFlagSet("replay-capture", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "Analysis config JSON (scan_stride, progress_every)")
	baud := fs.Int("baud", 0, fmt.Sprintf("Open the output as a serial port at this baud rate (default %d when any serial flag is set)", serialport.DefaultBaudRate))
	dataBits := fs.Int("data-bits", 0, "Serial data bits, 5-8 (default 8)")
	stopBits := fs.Int("stop-bits", 0, "Serial stop bits, 1 or 2 (default 1)")
	parity := fs.String("parity", "", "Serial parity: N, E or O (default N)")
	stride := fs.Int("stride", 0, "Bytes to advance after a frame marker match (default 4)")
	progress := fs.Int("progress", 0, "Log progress every N passes over the capture, 0 disables (default 1000)")
	verbose := fs.Bool("v", false, "Verbose output")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: replay-capture [flags] <output> <capture> wait <ms>|no-wait\n\n")
		fmt.Fprintf(e.stderr, "wait writes one frame (starting at FF FF FD 00) at a time and busy-waits <ms>\n")
		fmt.Fprintf(e.stderr, "milliseconds after each; no-wait writes the whole capture back to back.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(e.stdout, version.String("replay-capture"))
		return nil
	}
	monitoring.SetVerbose(*verbose)

	if fs.NArg() < 3 {
		fs.Usage()
		return fmt.Errorf("expected at least 3 arguments, got %d", fs.NArg())
	}
	outPath, capturePath := fs.Arg(0), fs.Arg(1)

	cfg := replay.Config{}
	var err error
	if cfg.Mode, err = replay.ParseMode(fs.Arg(2)); err != nil {
		return err
	}
	switch cfg.Mode {
	case replay.Wait:
		if fs.NArg() != 4 {
			return fmt.Errorf("%w: wait needs a delay in milliseconds", config.ErrInvalidConfiguration)
		}
		if cfg.Delay, err = parseMillis(fs.Arg(3)); err != nil {
			return err
		}
	case replay.NoWait:
		if fs.NArg() != 3 {
			return fmt.Errorf("%w: no-wait takes no delay", config.ErrInvalidConfiguration)
		}
	}

	analysis := config.EmptyAnalysisConfig()
	if *configPath != "" {
		if analysis, err = config.LoadAnalysisConfig(e.fsys, *configPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stride":
			analysis.ScanStride = stride
		case "progress":
			analysis.ProgressEvery = progress
		}
	})
	if err := analysis.Validate(); err != nil {
		return err
	}
	cfg.Stride = analysis.GetScanStride()
	cfg.ProgressEvery = analysis.GetProgressEvery()

	target := serialport.Sink{Path: outPath}
	serialFlags := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "baud", "data-bits", "stop-bits", "parity":
			serialFlags = true
		}
	})
	if serialFlags {
		target.Serial = &serialport.PortOptions{BaudRate: *baud, DataBits: *dataBits, StopBits: *stopBits, Parity: *parity}
	}

	data, _, err := capture.Load(e.fsys, capturePath)
	if err != nil {
		return err
	}

	sink, err := e.openSink(e.fsys, target)
	if err != nil {
		return err
	}
	defer sink.Close()

	r, err := replay.New(data, sink, cfg, replay.WithClock(e.clock))
	if err != nil {
		return err
	}

	err = r.Run(ctx)
	st := r.Stats()
	fmt.Fprintf(e.stdout, "replayed %d cycles, %d writes, %d frames, %d bytes to %s\n",
		st.Cycles, st.Writes, st.Frames, st.Bytes, outPath)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// parseMillis parses a possibly fractional millisecond count.
func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid wait time %q: %v", config.ErrInvalidConfiguration, s, err)
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("%w: invalid wait time %q", config.ErrInvalidConfiguration, s)
	}
	ns := ms * float64(time.Millisecond)
	if ns >= math.MaxInt64 || ns < math.MinInt64 {
		return 0, fmt.Errorf("%w: wait time %q out of range", config.ErrInvalidConfiguration, s)
	}
	return time.Duration(ns), nil
}
