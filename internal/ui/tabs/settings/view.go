package settings

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

var labels = [3]string{"API Token", "Base URL", "Refresh interval (minutes, 1-60)"}

// View renders the settings tab.
func (m *Model) View() string {
	cardWidth := min(max(m.width-10, 50), 90)

	rows := []string{
		styles.CardTitleStyle.Render("Settings"),
		styles.HelpStyle.Render("Saved to " + m.configPath()),
		"",
	}

	for i := range m.inputs {
		f := field(i)
		label := styles.BlurredStyle.Render("  " + labels[i] + ":")
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(styles.Subtle).Padding(0, 1)
		if m.focus == f {
			label = styles.FocusedStyle.Render("> " + labels[i] + ":")
			box = box.BorderForeground(styles.Primary)
		}
		rows = append(rows, label, box.Render(m.inputs[i].View()))
		if f == fieldBaseURL {
			rows = append(rows, styles.HelpStyle.Render("  ctrl+n cycles: "+config.DefaultBaseURL+" | "+config.BigModelBaseURL))
		}
		rows = append(rows, "")
	}

	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
		m.button(fieldSave, " Save "),
		m.button(fieldTest, " Save & Test "),
		m.button(fieldReset, " Reset "),
	), "")

	if m.dirty {
		rows = append(rows, styles.WarningTextStyle.Render("Unsaved changes"))
	}
	if m.status.text != "" {
		st := styles.SuccessTextStyle
		switch {
		case m.status.isError:
			st = styles.ErrorTextStyle
		case m.status.pending:
			st = styles.InfoTextStyle
		}
		rows = append(rows, st.Render(m.status.text))
	}

	rows = append(rows, "", styles.HelpStyle.Render("↑/↓ move  •  enter select  •  esc leave field  •  ctrl+t show token"))

	content := styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.NewStyle().Padding(0, 2).Render(content)
}

func (m *Model) button(f field, text string) string {
	if m.focus == f {
		return styles.ButtonActiveStyle.Render(text)
	}
	return styles.ButtonInactiveStyle.Render(text)
}

func (m *Model) configPath() string {
	if p := m.state.ConfigPath(); p != "" {
		return p
	}
	return "config.json"
}
