package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotSeries renders one recorded series as an ASCII line graph.
func PlotSeries(values []float64, caption string, height int) string {
	if len(values) < 2 {
		return "not enough samples to plot"
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Caption(caption))
}

// PlotBodyHeight extracts one body's y column from flattened frame rows
// and plots it over time.
func PlotBodyHeight(frames [][]float64, body int, height int) (string, error) {
	col := body*3 + 1
	series := make([]float64, 0, len(frames))
	for _, f := range frames {
		if col >= len(f) {
			return "", fmt.Errorf("body %d out of range", body)
		}
		series = append(series, f[col])
	}
	return PlotSeries(series, fmt.Sprintf("body %d height", body), height), nil
}

// Downsample thins a series to at most n points so wide runs still fit
// a terminal plot.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, 0, n)
	step := float64(len(values)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, values[int(float64(i)*step)])
	}
	return out
}

// SummaryTable renders metric name/value pairs aligned for terminal
// output.
func SummaryTable(metrics map[string]float64) string {
	width := 0
	for name := range metrics {
		if len(name) > width {
			width = len(name)
		}
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(fmt.Sprintf("  %-*s  %.6f\n", width, name, metrics[name]))
	}
	return b.String()
}
