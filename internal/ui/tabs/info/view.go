package info

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
	"github.com/j-veylop/zai-usage-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	return lipgloss.NewStyle().Padding(0, 2).Render(m.viewport.View())
}

func (m *Model) content() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderFetchCard(),
		m.renderAboutCard(),
	)
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, fetch history and build information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	cfg := m.state.Config()
	rows := []string{
		styles.CardTitleStyle.Render("Configuration"),
		"",
		row("Config File", m.state.ConfigPath()),
	}
	if m.settings != nil {
		rows = append(rows,
			row("Database", m.settings.DatabasePath),
			row("Log File", m.settings.LogPath),
			row("Request Timeout", m.settings.RequestTimeout.String()),
			row("Notifications", onOff(m.settings.Notifications)),
			row("Alert Thresholds", fmt.Sprintf("%.0f%% / %.0f%%", m.settings.WarningThreshold, m.settings.CriticalThreshold)),
		)
	}

	token := cfg.MaskedToken()
	if !cfg.HasToken() {
		token = styles.WarningTextStyle.Render("not set")
	}
	poll := "off"
	if d := m.state.PollInterval(); d > 0 {
		poll = "every " + d.String()
	}
	rows = append(rows,
		row("API Token", token),
		row("Base URL", orDash(cfg.BaseURL)),
		row("Polling", poll),
		row("Status", m.state.Mode().String()),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderFetchCard() string {
	attempts, stats := m.state.FetchLog()

	rows := []string{styles.CardTitleStyle.Render("Recent Fetches"), ""}
	if stats.Total == 0 && len(attempts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No fetch attempts recorded yet."))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	last := "never"
	if !stats.LastSuccess.IsZero() {
		last = humanize.Time(stats.LastSuccess)
	}
	rows = append(rows,
		row("Attempts", fmt.Sprintf("%d (%d ok, %d credential, %d transient)",
			stats.Total, stats.Succeeded, stats.CredentialFails, stats.TransientFails)),
		row("Success Rate", styles.UsageStyle(100-stats.SuccessRate()).Render(fmt.Sprintf("%.1f%%", stats.SuccessRate()))),
		row("Avg Duration", fmt.Sprintf("%.0fms", stats.AvgDurationMs)),
		row("Last Success", last),
		"",
		styles.TableHeaderStyle.Render(fmt.Sprintf("%-8s  %-18s  %-10s  %7s  %s", "Time", "Trigger", "Outcome", "Took", "Error")),
	)

	for _, a := range attempts[:min(len(attempts), maxAttempts)] {
		rows = append(rows, m.attemptRow(a))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) attemptRow(a models.FetchAttempt) string {
	outcome := string(a.Outcome)
	st := styles.SuccessTextStyle
	switch a.Outcome {
	case models.OutcomeCredential:
		st = styles.ErrorTextStyle
	case models.OutcomeTransient:
		st = styles.WarningTextStyle
	case models.OutcomeSkipped:
		st = styles.HelpStyle
	}

	errText := a.Error
	if limit := m.cardWidth() - 60; limit > 3 && len(errText) > limit {
		errText = errText[:limit-3] + "..."
	}

	return fmt.Sprintf("%-8s  %-18s  %s  %7s  %s",
		a.StartedAt.Local().Format("15:04:05"),
		a.Trigger,
		st.Render(fmt.Sprintf("%-10s", outcome)),
		(time.Duration(a.DurationMs) * time.Millisecond).String(),
		styles.HelpStyle.Render(errText),
	)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About"),
		"",
		row("Version", version.GetVersion()),
		row("Commit", version.GetCommit()),
		row("Build Date", version.GetDate()),
		row("Go Version", runtime.Version()),
		row("Platform", runtime.GOOS+"/"+runtime.GOARCH),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return styles.LabelStyle.Width(18).Render(label+":") + " " + styles.ValueStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
