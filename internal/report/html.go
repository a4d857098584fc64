package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/bufferbench/internal/stats"
	"github.com/banshee-data/bufferbench/internal/window"
)

func pixels(inches float64) string {
	return fmt.Sprintf("%.0fpx", inches*96)
}

func scatterChart(deltas []window.Delta, summary stats.Summary, kind Kind, ylabel string, o Options) *charts.Scatter {
	data := make([]opts.ScatterData, len(deltas))
	for i, d := range deltas {
		data[i] = opts.ScatterData{Value: []interface{}{d.Midpoint(), d.DurationMs()}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: string(kind), Width: pixels(o.WidthInches), Height: pixels(o.HeightInches)}),
		charts.WithTitleOpts(opts.Title{Title: ylabel, Subtitle: fmt.Sprintf("n=%d max=%.3f median=%.3f mean=%.3f min=%.3f", summary.Count, summary.Max, summary.Median, summary.Mean, summary.Min)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10", Bottom: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "time (s)", NameLocation: "middle", NameGap: 25, Min: "dataMin", Max: "dataMax"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: ylabel, NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("samples", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#000000"}),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "max", YAxis: summary.Max},
			opts.MarkLineNameYAxisItem{Name: "median", YAxis: summary.Median},
			opts.MarkLineNameYAxisItem{Name: "mean", YAxis: summary.Mean},
			opts.MarkLineNameYAxisItem{Name: "min", YAxis: summary.Min},
		),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Label: &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
		}),
	)
	return scatter
}

func histogramChart(edges, counts []float64, kind Kind, xlabel string, o Options) *charts.Bar {
	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	total := 0
	for i, c := range counts {
		labels[i] = fmt.Sprintf("%.3f-%.3f", edges[i], edges[i+1])
		data[i] = opts.BarData{Value: int(c)}
		total += int(c)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: string(kind), Width: pixels(o.WidthInches), Height: pixels(o.HeightInches)}),
		charts.WithTitleOpts(opts.Title{Title: xlabel, Subtitle: fmt.Sprintf("total count: %d", total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xlabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	bar.SetXAxis(labels).
		AddSeries("count", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "green"}),
		)
	return bar
}

func writeHTML(w io.Writer, chart components.Charter) error {
	page := components.NewPage()
	page.AddCharts(chart)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
