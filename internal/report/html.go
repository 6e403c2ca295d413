package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"zbench/internal/benchmark"
)

// HTML renders one ratio chart and one time chart per level group.
type HTML struct {
	Baseline string
}

func (h *HTML) Render(w io.Writer, r *benchmark.Report) error {
	page := components.NewPage()
	page.PageTitle = "zbench report"

	names := r.VariantNames()
	for _, g := range benchmark.Groups(r) {
		key := chartKey(g)

		hasRatio := false
		for _, id := range g.IDs {
			res := r.Benchmarks[id]
			if res.InputSize > 0 && len(res.Size) > 0 {
				hasRatio = true
				break
			}
		}
		if hasRatio {
			page.AddCharts(h.chart(r, g, names, "ratio_"+key, "Compression ratio", "output / input",
				func(c benchmark.Comparison) (float64, bool) { return c.Ratio, c.HasRatio }))
		}
		page.AddCharts(h.chart(r, g, names, "time_"+key, "Execution time", "CPU seconds",
			func(c benchmark.Comparison) (float64, bool) { return c.Time.Mean, true }))
	}

	return page.Render(w)
}

func (h *HTML) chart(r *benchmark.Report, g benchmark.Group, names []string, id, title, unit string, value func(benchmark.Comparison) (float64, bool)) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: id}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: g.Label()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	labels := make([]string, len(g.IDs))
	for i, id := range g.IDs {
		file, _, _, err := benchmark.ParseID(id)
		if err != nil {
			file = id
		}
		labels[i] = file
	}
	bar.SetXAxis(labels)

	series := make(map[string][]opts.BarData, len(names))
	for _, id := range g.IDs {
		got := make(map[string]benchmark.Comparison, len(names))
		for _, c := range benchmark.Compare(r.Benchmarks[id], names, h.Baseline) {
			got[c.Variant] = c
		}
		for _, n := range names {
			d := opts.BarData{Name: n, Value: "-"}
			if c, ok := got[n]; ok {
				if v, ok := value(c); ok {
					d.Value = v
				}
			}
			series[n] = append(series[n], d)
		}
	}
	for _, n := range names {
		bar.AddSeries(n, series[n])
	}
	return bar
}

func chartKey(g benchmark.Group) string {
	if g.Level == nil {
		return "no_level"
	}
	return fmt.Sprintf("level_%d", *g.Level)
}
