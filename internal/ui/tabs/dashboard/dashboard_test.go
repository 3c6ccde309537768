package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/ui/components"
)

func ptr[T any](v T) *T { return &v }

func sampleSnapshot(now time.Time) *models.Snapshot {
	return &models.Snapshot{
		QuotaLimits: []models.QuotaLimit{
			{
				Kind:          models.TokenLimitKind,
				Percentage:    72.5,
				CurrentValue:  ptr(int64(7250)),
				Usage:         ptr(int64(10000)),
				NextResetTime: ptr(now.Add(2*time.Hour + 5*time.Minute)),
			},
			{
				Kind:       models.MCPLimitKind,
				Percentage: 12,
				Remaining:  ptr(int64(880)),
				UsageDetails: []models.UsageDetail{
					{ToolName: "search-prime", Usage: 100},
				},
			},
		},
		ModelUsage: []models.ModelUsageItem{{Model: "All Models", TokenCount: 1_500_000, RequestCount: 1234}},
		ToolUsage:  []models.ToolUsageItem{{ToolName: "web-reader", UsageCount: 7}},
		ModelUsageTimeSeries: &models.ModelUsageTimeSeries{
			XTime:          []string{"2026-03-01 10:00", "2026-03-01 11:00"},
			ModelCallCount: []*int64{ptr(int64(1)), nil},
			TokensUsage:    []*int64{ptr(int64(100)), ptr(int64(300))},
		},
		Timestamp: now.Unix(),
	}
}

func newModel(t *testing.T, v quota.StateView) (*Model, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	state := app.NewState()
	state.SetView(v, 5*time.Minute)
	m := New(state)
	m.now = func() time.Time { return now }
	m.SetSize(100, 60)
	return m, now
}

func TestView_NotSynced(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 20)
	if !strings.Contains(ansi.Strip(m.View()), "Waiting for usage data") {
		t.Error("unsynced view should show the spinner label")
	}
}

func TestView_NeedsConfig(t *testing.T) {
	m, _ := newModel(t, quota.StateView{Mode: models.ModeNeedsConfig})
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "API token required") || !strings.Contains(view, "No API token is configured") {
		t.Errorf("needs-config view missing prompt:\n%s", view)
	}

	m, _ = newModel(t, quota.StateView{Mode: models.ModeNeedsConfig, LastError: "HTTP 401 Unauthorized: bad"})
	if !strings.Contains(ansi.Strip(m.View()), "The token was rejected") {
		t.Error("rejected token should be explained")
	}
}

func TestView_Loading(t *testing.T) {
	m, _ := newModel(t, quota.StateView{Mode: models.ModeLoading})
	if !strings.Contains(ansi.Strip(m.View()), "▓") {
		t.Error("loading view should show the shimmer bars")
	}
	if m.Init() == nil {
		t.Error("Init should start the spinner and shimmer")
	}
}

func TestView_Ready(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	m, _ := newModel(t, quota.StateView{Mode: models.ModeReady, Snapshot: sampleSnapshot(now)})

	view := ansi.Strip(m.View())
	for _, want := range []string{
		"Tokens: 72.5% | MCP: 12.0%",
		"72.5%",
		"Used 7,250 of 10,000",
		"Resets today at 14:05 (in 2h 5m)",
		"Remaining 880",
		"search-prime",
		"(1 models, 1 tools)",
		"1.5M",
		"1,234",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("ready view missing %q", want)
		}
	}
	if strings.Contains(view, "Last refresh failed") {
		t.Error("no error should be shown")
	}
}

func TestView_StaleSnapshotShowsError(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	m, _ := newModel(t, quota.StateView{
		Mode:      models.ModeReady,
		Snapshot:  sampleSnapshot(now),
		LastError: errors.New("request failed: timeout").Error(),
	})
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Last refresh failed: request failed: timeout") {
		t.Error("transient error should be shown above the old snapshot")
	}
	if !strings.Contains(view, "72.5%") {
		t.Error("previous snapshot should still be shown")
	}
}

func TestUpdate_SyncAnimatesBars(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	m, _ := newModel(t, quota.StateView{Mode: models.ModeReady, Snapshot: sampleSnapshot(now)})

	_, cmd := m.Update(app.StateSyncedMsg{})
	if cmd == nil {
		t.Fatal("sync should start the bar animation")
	}
	if m.tokenBar.Target() != 72.5 || m.mcpBar.Target() != 12 {
		t.Errorf("targets = %v/%v", m.tokenBar.Target(), m.mcpBar.Target())
	}

	for range 100 {
		m.Update(components.AnimationTickMsg{})
	}
	if m.tokenBar.Percent() != 72.5 {
		t.Errorf("token bar = %v after animation", m.tokenBar.Percent())
	}
}

func TestUpdate_SettingsKey(t *testing.T) {
	m, _ := newModel(t, quota.StateView{Mode: models.ModeNeedsConfig})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if cmd == nil {
		t.Fatal("s should return a command")
	}
	msg, ok := cmd().(app.TabSwitchMsg)
	if !ok || msg.Tab != app.TabSettings {
		t.Errorf("got %#v, want TabSwitchMsg{Settings}", msg)
	}
}

func TestShimmerStopsWhenLoaded(t *testing.T) {
	m, _ := newModel(t, quota.StateView{Mode: models.ModeLoading})
	if cmd := m.startShimmer(); cmd == nil {
		t.Fatal("shimmer should start while loading without data")
	}
	m.state.SetView(quota.StateView{Mode: models.ModeReady, Snapshot: &models.Snapshot{}}, 0)
	if _, cmd := m.Update(shimmerTickMsg{}); cmd != nil {
		t.Error("shimmer should stop once data is present")
	}
	if m.shimmer {
		t.Error("shimmer flag should be cleared")
	}
}

func TestShortHelp(t *testing.T) {
	if len(New(app.NewState()).ShortHelp()) != 3 {
		t.Error("ShortHelp should list 3 bindings")
	}
}
