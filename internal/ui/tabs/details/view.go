package details

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

// View renders the details tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()

	title := styles.TitleStyle.Render("Usage Details")
	subtitle := styles.HelpStyle.Render(shaper.DetailsHeader(snap))
	sections := []string{lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")}

	if snap == nil {
		sections = append(sections, styles.HelpStyle.Render("No usage data yet."))
		return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	sections = append(sections,
		m.renderPane("Models", "by "+m.modelSort.String(), m.focus == paneModels, m.models.View()),
		m.renderPane("Tools", "by "+m.toolSort.String(), m.focus == paneTools, m.tools.View()),
	)
	if breakdown := m.renderLimitBreakdown(snap); breakdown != "" {
		sections = append(sections, breakdown)
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderPane(name, sort string, focused bool, body string) string {
	cardWidth := max(m.width-6, 40)

	heading := styles.CardTitleStyle.Render(name)
	if !focused {
		heading = styles.BlurredStyle.Render(name)
	}
	heading = fmt.Sprintf("%s %s", heading, styles.HelpStyle.Render("("+sort+")"))

	card := styles.CardStyle.Width(cardWidth)
	if focused {
		card = card.BorderForeground(styles.Primary)
	}
	return card.Render(lipgloss.JoinVertical(lipgloss.Left, heading, body))
}

// renderLimitBreakdown lists the per-tool usage attached to each quota limit.
func (m *Model) renderLimitBreakdown(snap *models.Snapshot) string {
	var rows []string
	for _, q := range snap.QuotaLimits {
		if len(q.UsageDetails) == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s %s",
			styles.SubTitleStyle.Render(q.Kind), styles.UsageStyle(q.Percentage).Render(shaper.FormatPercent(q.Percentage))))
		for _, d := range q.UsageDetails {
			rows = append(rows, fmt.Sprintf("  %-24s %s", d.ToolName, shaper.FormatCount(d.Usage)))
		}
	}
	if len(rows) == 0 {
		return ""
	}
	rows = append([]string{styles.CardTitleStyle.Render("Limit Breakdown")}, rows...)
	return styles.CardStyle.Width(max(m.width-6, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
