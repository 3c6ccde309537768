package shaper

import (
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/models"
)

func TestPercentBand(t *testing.T) {
	tests := map[float64]Band{
		0: BandOK, 49.9: BandOK, 50: BandCaution, 69.9: BandCaution,
		70: BandWarning, 89.9: BandWarning, 90: BandCritical, 140: BandCritical,
	}
	for in, want := range tests {
		if got := PercentBand(in); got != want {
			t.Errorf("PercentBand(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatLastUpdated(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "Never"},
		{now.Add(-12 * time.Second), "12s ago"},
		{now.Add(-59 * time.Second), "59s ago"},
		{now.Add(-4 * time.Minute), "4m ago"},
		{now.Add(-2*time.Hour - 10*time.Minute), "2h ago"},
		{now.Add(time.Second), "0s ago"},
	}
	for _, tt := range tests {
		if got := FormatLastUpdated(tt.at, now); got != tt.want {
			t.Errorf("FormatLastUpdated(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestFormatResetTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	today := time.Date(2026, 3, 10, 17, 45, 0, 0, time.Local)
	later := time.Date(2026, 4, 2, 8, 5, 0, 0, time.Local)

	if got := FormatResetTime(&today, now); got != "today at 17:45" {
		t.Errorf("same day = %q", got)
	}
	if got := FormatResetTime(&later, now); got != "Apr 2 08:05" {
		t.Errorf("other day = %q", got)
	}
	if got := FormatResetTime(nil, now); got != "" {
		t.Errorf("nil = %q", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	at := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	tests := []struct {
		t    *time.Time
		want string
	}{
		{nil, ""},
		{at(-time.Minute), "now"},
		{at(30 * time.Second), "<1m"},
		{at(45 * time.Minute), "45m"},
		{at(2*time.Hour + 5*time.Minute), "2h 5m"},
		{at(50 * time.Hour), "2d 2h"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.t, now); got != tt.want {
			t.Errorf("FormatCountdown() = %q, want %q", got, tt.want)
		}
	}
}

func TestTraySummary(t *testing.T) {
	if got := TraySummary(nil); got != "Z.ai Usage Monitor" {
		t.Errorf("nil snapshot = %q", got)
	}

	ts := time.Date(2026, 3, 10, 14, 5, 0, 0, time.Local)
	snap := &models.Snapshot{
		QuotaLimits: []models.QuotaLimit{
			{Kind: models.TokenLimitKind, Percentage: 42.46},
			{Kind: models.MCPLimitKind, Percentage: 7},
		},
		Timestamp: ts.Unix(),
	}
	want := "Tokens: 42.5% | MCP: 7.0%\nUpdated: 14:05"
	if got := TraySummary(snap); got != want {
		t.Errorf("TraySummary() = %q, want %q", got, want)
	}
}

func TestDetailsHeader(t *testing.T) {
	snap := &models.Snapshot{
		ModelUsage: []models.ModelUsageItem{{}},
		ToolUsage:  []models.ToolUsageItem{{}, {}},
	}
	if got := DetailsHeader(snap); got != "(1 models, 2 tools)" {
		t.Errorf("DetailsHeader() = %q", got)
	}
}
