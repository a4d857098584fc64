// Package report renders windowed latency data as plots and summaries.
//
// Static plots (PNG, SVG) are drawn with gonum/plot; interactive pages (HTML)
// with go-echarts. Summary reports are plain text or JSON.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/window"
)

// Kind selects what to render.
type Kind string

const (
	KindPerBufferScatter      Kind = "per-buffer-scatter"
	KindBetweenBuffersScatter Kind = "between-buffers-scatter"
	KindBetweenBuffersHist    Kind = "between-buffers-hist"
	KindPerBufferHist         Kind = "per-buffer-hist"
	KindSummary               Kind = "summary"
)

// Kinds lists every Kind in the order they are documented.
var Kinds = []Kind{
	KindPerBufferScatter,
	KindBetweenBuffersScatter,
	KindBetweenBuffersHist,
	KindPerBufferHist,
	KindSummary,
}

// ParseKind parses a plot type selector.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown plot type %q", config.ErrInvalidConfiguration, s)
}

// IsScatter reports whether k is a scatter plot.
func (k Kind) IsScatter() bool {
	return k == KindPerBufferScatter || k == KindBetweenBuffersScatter
}

// IsHistogram reports whether k is a histogram.
func (k Kind) IsHistogram() bool {
	return k == KindPerBufferHist || k == KindBetweenBuffersHist
}

// series returns the sequence a plot kind draws and its axis label.
func (k Kind) series(res *window.Result) ([]window.Delta, string) {
	switch k {
	case KindPerBufferScatter, KindPerBufferHist:
		return res.PerBuffer, "time per buffer (ms)"
	default:
		return res.BetweenBuffers, "time between buffers (ms)"
	}
}

// Format is an output encoding for plots.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
)

// ParseFormat parses an output format name, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatPNG, FormatSVG, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format %q, expected png, svg or html", config.ErrInvalidConfiguration, s)
	}
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}
