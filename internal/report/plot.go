package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/bufferbench/internal/stats"
	"github.com/banshee-data/bufferbench/internal/window"
)

var (
	colorMax    = color.RGBA{R: 255, A: 255}
	colorMedian = color.RGBA{R: 100, G: 149, B: 237, A: 255} // cornflower blue
	colorMean   = colorMedian
	colorMin    = color.RGBA{G: 128, A: 255}
)

// Options sizes rendered plots.
type Options struct {
	WidthInches  float64
	HeightInches float64
	Bins         int
}

// DefaultOptions matches the defaults of the analysis configuration.
var DefaultOptions = Options{WidthInches: 10, HeightInches: 6, Bins: 10}

// Render draws a plot kind of res to w.
func Render(w io.Writer, res *window.Result, kind Kind, format Format, opts Options) error {
	deltas, label := kind.series(res)

	switch {
	case kind.IsScatter():
		summary, err := stats.Aggregate(deltas)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if format == FormatHTML {
			return writeHTML(w, scatterChart(deltas, summary, kind, label, opts))
		}
		p, err := ScatterPlot(deltas, summary, label)
		if err != nil {
			return err
		}
		return WritePlot(w, p, format, opts)

	case kind.IsHistogram():
		values := stats.Durations(deltas)
		edges, counts, err := stats.Histogram(values, opts.Bins)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if format == FormatHTML {
			return writeHTML(w, histogramChart(edges, counts, kind, label, opts))
		}
		p, err := HistogramPlot(edges, counts, label)
		if err != nil {
			return err
		}
		return WritePlot(w, p, format, opts)

	default:
		return fmt.Errorf("%s is not a plot", kind)
	}
}

// ScatterPlot plots each delta's duration against its midpoint, with
// horizontal lines at the max, median, mean and min of the durations.
func ScatterPlot(deltas []window.Delta, summary stats.Summary, ylabel string) (*plot.Plot, error) {
	if len(deltas) == 0 {
		return nil, stats.ErrNoData
	}

	pts := make(plotter.XYs, len(deltas))
	for i, d := range deltas {
		pts[i] = plotter.XY{X: d.Midpoint(), Y: d.DurationMs()}
	}

	p := plot.New()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.Black
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(sc)

	xmin, xmax := pts[0].X, pts[len(pts)-1].X
	for _, pt := range pts {
		xmin = min(xmin, pt.X)
		xmax = max(xmax, pt.X)
	}

	refs := []struct {
		name   string
		value  float64
		color  color.Color
		dashed bool
	}{
		{"max", summary.Max, colorMax, false},
		{"median", summary.Median, colorMedian, false},
		{"mean", summary.Mean, colorMean, true},
		{"min", summary.Min, colorMin, false},
	}
	for _, ref := range refs {
		l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: ref.value}, {X: xmax, Y: ref.value}})
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", ref.name, err)
		}
		l.Color = ref.color
		l.Width = vg.Points(1.5)
		if ref.dashed {
			l.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		}
		p.Add(l)
		p.Legend.Add(ref.name, l)
	}

	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = 10

	return p, nil
}

// HistogramPlot draws pre-binned counts. edges has one more entry than counts.
func HistogramPlot(edges, counts []float64, xlabel string) (*plot.Plot, error) {
	h, total, err := histogramBars(edges, counts)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("total count: %d", int(total))
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "count"
	p.Add(h)

	return p, nil
}

// histogramBars builds the green bars of a histogram and returns them with
// the total count.
func histogramBars(edges, counts []float64) (*plotter.Histogram, float64, error) {
	if len(counts) == 0 || len(edges) != len(counts)+1 {
		return nil, 0, fmt.Errorf("histogram: %d edges for %d bins", len(edges), len(counts))
	}

	bins := make([]plotter.HistogramBin, len(counts))
	total := 0.0
	for i, c := range counts {
		bins[i] = plotter.HistogramBin{Min: edges[i], Max: edges[i+1], Weight: c}
		total += c
	}

	return &plotter.Histogram{
		Bins:      bins,
		Width:     edges[1] - edges[0],
		FillColor: colorMin,
		LineStyle: plotter.DefaultLineStyle,
	}, total, nil
}

// WritePlot encodes p as PNG or SVG.
func WritePlot(w io.Writer, p *plot.Plot, format Format, opts Options) error {
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("gonum/plot cannot encode %q", format)
	}
	width := vg.Length(opts.WidthInches) * vg.Inch
	height := vg.Length(opts.HeightInches) * vg.Inch

	wt, err := p.WriterTo(width, height, string(format))
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}
