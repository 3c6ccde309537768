package details

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	t.Setenv("LC_ALL", "en_US.UTF-8")
	state := app.NewState()
	state.SetView(quota.StateView{Mode: models.ModeReady, Snapshot: &models.Snapshot{
		ModelUsage: []models.ModelUsageItem{
			{Model: "glm-4.5-air", TokenCount: 100, RequestCount: 50},
			{Model: "glm-4.6", TokenCount: 2000, RequestCount: 10},
		},
		ToolUsage: []models.ToolUsageItem{
			{ToolName: "zread", UsageCount: 3},
			{ToolName: "apple", UsageCount: 1},
			{ToolName: "web-reader", UsageCount: 9},
		},
		QuotaLimits: []models.QuotaLimit{{
			Kind:         models.MCPLimitKind,
			Percentage:   40,
			UsageDetails: []models.UsageDetail{{ToolName: "search-prime", Usage: 1200}},
		}},
	}}, time.Minute)

	m := New(state)
	m.SetSize(100, 40)
	m.Update(app.StateSyncedMsg{})
	return m
}

func firstColumn(rows []table.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRowsFollowSortOrder(t *testing.T) {
	m := newModel(t)

	got := firstColumn(m.models.Rows())
	if strings.Join(got, ",") != "glm-4.6,glm-4.5-air" {
		t.Errorf("models by tokens = %v", got)
	}
	m.Update(press("m"))
	if m.modelSort != shaper.ByRequests {
		t.Fatalf("modelSort = %v, want requests", m.modelSort)
	}
	got = firstColumn(m.models.Rows())
	if strings.Join(got, ",") != "glm-4.5-air,glm-4.6" {
		t.Errorf("models by requests = %v", got)
	}

	got = firstColumn(m.tools.Rows())
	if strings.Join(got, ",") != "web-reader,zread,apple" {
		t.Errorf("tools by count = %v", got)
	}
	m.Update(press("t"))
	got = firstColumn(m.tools.Rows())
	if strings.Join(got, ",") != "apple,web-reader,zread" {
		t.Errorf("tools by name = %v", got)
	}
}

func TestRowFormatting(t *testing.T) {
	m := newModel(t)
	row := m.models.Rows()[0]
	if row[1] != "2.0K" || row[2] != "10" {
		t.Errorf("row = %v", row)
	}
}

func TestSwitchPane(t *testing.T) {
	m := newModel(t)
	if !m.models.Focused() || m.tools.Focused() {
		t.Fatal("models table should start focused")
	}
	m.Update(press("f"))
	if m.focus != paneTools || !m.tools.Focused() || m.models.Focused() {
		t.Error("f should move focus to the tools table")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.focus != paneModels {
		t.Error("left should move focus back")
	}
}

func TestView(t *testing.T) {
	m := newModel(t)
	view := ansi.Strip(m.View())
	for _, want := range []string{"Usage Details", "(2 models, 3 tools)", "(by tokens)", "(by count)", "glm-4.6", "Limit Breakdown", "search-prime", "1,200"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_NoSnapshot(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 30)
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "(0 models, 0 tools)") || !strings.Contains(view, "No usage data yet.") {
		t.Errorf("empty view = %q", view)
	}
}
