package viz

import "github.com/guptarohit/asciigraph"

// PlotSeries draws values as an ASCII line chart.
func PlotSeries(values []float64, caption string, height, width int) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
