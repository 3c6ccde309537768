package shaper

import (
	"fmt"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// Band is a coarse usage level used to pick colors.
type Band int

const (
	BandOK Band = iota
	BandCaution
	BandWarning
	BandCritical
)

// PercentBand maps a usage percentage onto a Band (50/70/90 thresholds).
func PercentBand(pct float64) Band {
	switch {
	case pct >= 90:
		return BandCritical
	case pct >= 70:
		return BandWarning
	case pct >= 50:
		return BandCaution
	default:
		return BandOK
	}
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatLastUpdated renders how long ago t was: "Never", "12s ago", "4m ago", "2h ago".
func FormatLastUpdated(t, now time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
}

// FormatResetTime renders a reset instant relative to now's local day.
func FormatResetTime(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	lt := t.In(now.Location())
	ny, nm, nd := now.Date()
	ty, tm, td := lt.Date()
	if ny == ty && nm == tm && nd == td {
		return "today at " + lt.Format("15:04")
	}
	return lt.Format("Jan 2 15:04")
}

// FormatCountdown renders the time left until t, e.g. "2h 5m", "45m", "now".
func FormatCountdown(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	d := t.Sub(now)
	if d <= 0 {
		return "now"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm", mins)
	default:
		return "<1m"
	}
}

// TraySummary renders the two-line status used by the status command and header.
func TraySummary(snap *models.Snapshot) string {
	if snap == nil {
		return "Z.ai Usage Monitor"
	}
	limits := SelectSummaryLimits(snap.QuotaLimits)
	var tok, mcp float64
	if limits.Token != nil {
		tok = limits.Token.Percentage
	}
	if limits.MCP != nil {
		mcp = limits.MCP.Percentage
	}
	return fmt.Sprintf("Tokens: %.1f%% | MCP: %.1f%%\nUpdated: %s",
		tok, mcp, snap.UpdatedAt().Format("15:04"))
}

// DetailsHeader summarizes how many rows the details view holds.
func DetailsHeader(snap *models.Snapshot) string {
	if snap == nil {
		return "(0 models, 0 tools)"
	}
	return fmt.Sprintf("(%d models, %d tools)", len(snap.ModelUsage), len(snap.ToolUsage))
}
