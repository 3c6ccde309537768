// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

const noData = "No data available"

// RenderLineChart plots one series. Values are resampled to width columns.
func RenderLineChart(data []float64, width, height int, caption string, color asciigraph.AnsiColor) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render(noData)
	}

	width = max(width, 20)
	height = max(height, 3)

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(color),
		asciigraph.Precision(0),
	}
	if caption != "" {
		opts = append(opts, asciigraph.Caption(caption))
	}
	// asciigraph needs two points to draw a line.
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}
	return asciigraph.Plot(data, opts...)
}

// RenderTimeAxis renders first, middle and last bucket labels spread over width.
func RenderTimeAxis(points []shaper.TimePoint, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	first := points[0].Time
	last := points[len(points)-1].Time
	if len(points) == 1 {
		return first
	}
	mid := points[len(points)/2].Time

	gap := max(width-lipgloss.Width(first)-lipgloss.Width(mid)-lipgloss.Width(last), 2)
	left := gap / 2
	line := first + strings.Repeat(" ", left) + mid + strings.Repeat(" ", gap-left) + last
	return ansi.Truncate(line, width, "")
}

// BarRow is one labeled value in a bar chart.
type BarRow struct {
	Label string
	Value int64
}

// RenderBarChart draws horizontal bars scaled to the largest value, with the
// compact count after each bar.
func RenderBarChart(rows []BarRow, width int) string {
	if len(rows) == 0 {
		return styles.HelpStyle.Render(noData)
	}

	maxVal := lo.MaxBy(rows, func(a, b BarRow) bool { return a.Value > b.Value }).Value
	if maxVal <= 0 {
		maxVal = 1
	}
	labelWidth := min(lo.Max(lo.Map(rows, func(r BarRow, _ int) int { return lipgloss.Width(r.Label) })), 24)
	barWidth := max(width-labelWidth-10, 10)

	bar := lipgloss.NewStyle().Foreground(styles.Primary)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		n := max(int(float64(r.Value)/float64(maxVal)*float64(barWidth)), 0)
		if r.Value > 0 && n == 0 {
			n = 1
		}
		label := ansi.Truncate(r.Label, labelWidth, "…")
		lines = append(lines, fmt.Sprintf("%-*s │%s %s",
			labelWidth, label, bar.Render(strings.Repeat("█", n)), shaper.FormatCompactNumber(r.Value)))
	}
	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline renders values as a one-line sparkline at most width wide.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := lo.Max(values)
	if maxVal <= 0 {
		maxVal = 1
	}
	step := max(float64(len(values))/float64(width), 1)

	var b strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		v := values[int(float64(i)*step)]
		idx := int(v / maxVal * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[max(0, min(idx, len(sparkChars)-1))])
	}
	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := lo.Map(items, func(item LegendItem, _ int) string {
		return lipgloss.NewStyle().Foreground(item.Color).Render("■") + " " + item.Label
	})
	return strings.Join(parts, "  ")
}
