package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/components"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

// View renders the dashboard.
func (m *Model) View() string {
	if !m.state.Synced() {
		return m.spinner.Centered(m.width, m.height)
	}

	sections := []string{m.renderTitle()}

	view := m.state.View()
	switch {
	case view.Mode == models.ModeNeedsConfig:
		sections = append(sections, m.renderNeedsConfig(view.LastError))
	case view.Snapshot == nil:
		sections = append(sections, m.renderPlaceholder(view.Mode))
	default:
		if view.LastError != "" {
			sections = append(sections, styles.WarningTextStyle.Render("⚠ Last refresh failed: "+view.LastError), "")
		}
		sections = append(sections, m.renderLimits(view.Snapshot), m.renderUsage(view.Snapshot))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return lipgloss.NewStyle().Padding(0, 2).Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Z.ai Usage")
	summary := strings.ReplaceAll(shaper.TraySummary(m.state.Snapshot()), "\n", "  •  ")
	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(summary), "")
}

func (m *Model) renderNeedsConfig(lastError string) string {
	rows := []string{
		styles.CardTitleStyle.Render("◈ API token required"),
		"",
	}
	if lastError != "" {
		rows = append(rows, styles.ErrorTextStyle.Render("  The token was rejected: "+lastError), "")
	} else {
		rows = append(rows, styles.HelpStyle.Render("  No API token is configured."), "")
	}
	rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Press s or 4 to open Settings, or run `zum setup`"))
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderPlaceholder(mode models.FetchMode) string {
	width := m.cardWidth() - 6
	rows := []string{styles.CardTitleStyle.Render("◈ Quota Limits"), ""}
	if mode == models.ModeLoading {
		rows = append(rows,
			components.UsageBarLoading("Tokens (5h)", width, m.frame),
			components.UsageBarLoading("MCP (1mo)  ", width, m.frame+20),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("  No data yet. Press r to refresh."))
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderLimits(snap *models.Snapshot) string {
	width := m.cardWidth() - 6
	rows := []string{styles.CardTitleStyle.Render("◈ Quota Limits"), ""}

	if len(snap.QuotaLimits) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No quota limits reported"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	summary := shaper.SelectSummaryLimits(snap.QuotaLimits)
	for i, q := range snap.QuotaLimits {
		if i > 0 {
			rows = append(rows, "")
		}
		switch {
		case summary.Token != nil && q.Kind == summary.Token.Kind && q.IsTokenLimit():
			rows = append(rows, m.tokenBar.View(q.Percentage, width))
		case summary.MCP != nil && q.Kind == summary.MCP.Kind && q.IsMCPLimit():
			rows = append(rows, m.mcpBar.View(q.Percentage, width))
		default:
			rows = append(rows, components.SimpleUsageBar(q.Percentage, q.Kind, width))
		}
		rows = append(rows, m.limitDetails(q)...)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) limitDetails(q models.QuotaLimit) []string {
	var lines []string
	now := m.now()

	var facts []string
	if q.CurrentValue != nil && q.Usage != nil {
		facts = append(facts, fmt.Sprintf("Used %s of %s", shaper.FormatCount(*q.CurrentValue), shaper.FormatCount(*q.Usage)))
	}
	if q.Remaining != nil {
		facts = append(facts, "Remaining "+shaper.FormatCount(*q.Remaining))
	}
	if reset := shaper.FormatResetTime(q.NextResetTime, now); reset != "" {
		facts = append(facts, fmt.Sprintf("Resets %s (in %s)", reset, shaper.FormatCountdown(q.NextResetTime, now)))
	}
	if len(facts) > 0 {
		lines = append(lines, styles.HelpStyle.Render("    "+strings.Join(facts, "  •  ")))
	}

	for _, d := range q.UsageDetails {
		lines = append(lines, fmt.Sprintf("    %s %s %s",
			styles.HelpStyle.Render("╰─"),
			styles.LabelStyle.Render(d.ToolName),
			styles.ValueStyle.Render(shaper.FormatCount(d.Usage))))
	}
	return lines
}

func (m *Model) renderUsage(snap *models.Snapshot) string {
	tokens := lo.SumBy(snap.ModelUsage, func(i models.ModelUsageItem) int64 { return i.TokenCount })
	calls := lo.SumBy(snap.ModelUsage, func(i models.ModelUsageItem) int64 { return i.RequestCount })
	toolCalls := lo.SumBy(snap.ToolUsage, func(i models.ToolUsageItem) int64 { return i.UsageCount })

	stat := func(label, value string) string {
		return styles.LabelStyle.Width(14).Render(label) + styles.ValueStyle.Bold(true).Render(value)
	}

	rows := []string{
		styles.CardTitleStyle.Render("◈ Last 24 Hours") + " " + styles.HelpStyle.Render(shaper.DetailsHeader(snap)),
		"",
		stat("Tokens", shaper.FormatCompactNumber(tokens)),
		stat("Model calls", shaper.FormatCount(calls)),
		stat("Tool calls", shaper.FormatCount(toolCalls)),
	}

	if points := shaper.BuildTimeSeriesPoints(snap.ModelUsageTimeSeries); len(points) > 0 {
		spark := components.RenderSparkline(shaper.TokensSeries(points), m.cardWidth()-22)
		rows = append(rows, stat("Token trend", lipgloss.NewStyle().Foreground(styles.TokensColor).Render(spark)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
