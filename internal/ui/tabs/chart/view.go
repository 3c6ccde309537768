package chart

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/components"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

const maxToolBars = 8

// View renders the chart tab.
func (m *Model) View() string {
	if len(m.points) == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderSeries(),
	}
	if snap := m.state.Snapshot(); snap != nil && len(snap.ToolUsage) > 0 {
		sections = append(sections, m.renderTools(snap.ToolUsage))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return lipgloss.NewStyle().Padding(0, 2).Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Usage Chart"),
		styles.HelpStyle.Render("No time series available yet."),
		styles.HelpStyle.Render("Data appears after the first successful refresh."),
	)
	return lipgloss.NewStyle().Padding(0, 2).Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Usage Chart")
	tabs := make([]string, 0, 2)
	for _, mt := range []Metric{MetricTokens, MetricCalls} {
		if mt == m.metric {
			tabs = append(tabs, styles.ButtonActiveStyle.Render(mt.String()))
		} else {
			tabs = append(tabs, styles.ButtonInactiveStyle.Render(mt.String()))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), "")
}

func (m *Model) renderSeries() string {
	cardWidth := max(m.width-6, 40)
	chartWidth := max(cardWidth-14, 20)
	chartHeight := max(min(m.height/3, 14), 5)

	data := m.series()
	color, hex := asciigraph.Yellow, styles.TokensColor
	if m.metric == MetricCalls {
		color, hex = asciigraph.Blue, styles.CallsColor
	}

	total := lo.Sum(data)
	peakIdx := 0
	for i, v := range data {
		if v > data[peakIdx] {
			peakIdx = i
		}
	}

	stats := fmt.Sprintf("Total %s  •  Peak %s at %s  •  %d buckets",
		shaper.FormatCompactNumber(int64(total)),
		shaper.FormatCompactNumber(int64(data[peakIdx])),
		m.points[peakIdx].Time,
		len(m.points))

	rows := []string{
		styles.CardTitleStyle.Render(m.metric.String() + " per hour"),
		styles.HelpStyle.Render(stats),
		"",
		components.RenderLineChart(data, chartWidth, chartHeight, "", color),
		lipgloss.NewStyle().PaddingLeft(cardWidth - chartWidth - 6).Render(components.RenderTimeAxis(m.points, chartWidth)),
		"",
		components.RenderLegend([]components.LegendItem{{Label: m.metric.String(), Color: hex}}),
	}
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTools(tools []models.ToolUsageItem) string {
	cardWidth := max(m.width-6, 40)
	sorted := shaper.SortTools(tools, shaper.ByCount)
	if len(sorted) > maxToolBars {
		sorted = sorted[:maxToolBars]
	}
	rows := lo.Map(sorted, func(t models.ToolUsageItem, _ int) components.BarRow {
		return components.BarRow{Label: t.ToolName, Value: t.UsageCount}
	})
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Top Tools"),
		components.RenderBarChart(rows, cardWidth-6),
	))
}
