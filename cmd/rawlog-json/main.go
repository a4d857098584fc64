// Command rawlog-json converts a pair of raw device timing logs into the JSON
// interchange document read by latency-plot.
//
// Usage:
//
//	rawlog-json [flags] <per-buffer.bin> <between-buffers.bin> <out.json>
//
// The output file must not exist yet.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/rawlog"
	"github.com/banshee-data/bufferbench/internal/version"
)

func main() {
	if err := run(os.Args[1:], fsutil.OSFileSystem{}, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("rawlog-json: %v", err)
	}
}

func run(args []string, fsys fsutil.FileSystem, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("rawlog-json", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "Print version and exit")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rawlog-json [flags] <per-buffer.bin> <between-buffers.bin> <out.json>\n\n")
		fmt.Fprintf(stderr, "Decodes the per-buffer (start, end) tick log and the between-buffers tick log\n")
		fmt.Fprintf(stderr, "into a JSON document. Refuses to overwrite an existing output file.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("rawlog-json"))
		return nil
	}
	monitoring.SetVerbose(*verbose)

	if fs.NArg() != 3 {
		fs.Usage()
		return fmt.Errorf("expected 3 arguments, got %d", fs.NArg())
	}
	perBufferPath, betweenBuffersPath, outPath := fs.Arg(0), fs.Arg(1), fs.Arg(2)
	if fsys.Exists(outPath) {
		return fmt.Errorf("refusing to overwrite %s: %w", outPath, os.ErrExist)
	}

	l, err := rawlog.DecodeFiles(fsys, perBufferPath, betweenBuffersPath)
	if err != nil {
		return err
	}
	if err := rawlog.Save(fsys, outPath, l); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %d buffer intervals and %d gap marks to %s\n",
		len(l.PerBuffer), len(l.BetweenBuffers), outPath)
	return nil
}
