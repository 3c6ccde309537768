package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/zai-usage-tui/internal/shaper"
)

func TestSpinner(t *testing.T) {
	s := NewSpinner("Fetching")
	if !strings.Contains(s.View(), "Fetching") {
		t.Error("View should include the label")
	}

	s.SetLabel("")
	if strings.Contains(s.View(), "Fetching") {
		t.Error("label should be replaced")
	}

	if s.Tick() == nil {
		t.Error("Tick should return a command")
	}
	if _, cmd := s.Update(s.spinner.Tick()); cmd == nil {
		t.Error("Update on a tick should schedule the next one")
	}

	out := NewSpinner("x").Centered(20, 5)
	if lipgloss.Height(out) != 5 {
		t.Errorf("Centered height = %d, want 5", lipgloss.Height(out))
	}
}

func TestUsageBar_Animation(t *testing.T) {
	bar := NewUsageBar("Tokens")
	if cmd := bar.SetPercent(40); cmd == nil {
		t.Fatal("SetPercent should start the animation")
	}
	if bar.Target() != 40 {
		t.Errorf("Target = %v, want 40", bar.Target())
	}

	for range 200 {
		var cmd tea.Cmd
		bar, cmd = bar.Update(AnimationTickMsg{})
		if cmd == nil {
			break
		}
	}
	if bar.Percent() != 40 {
		t.Errorf("Percent after animation = %v, want 40", bar.Percent())
	}

	bar.SetPercent(150)
	if bar.Target() != 100 {
		t.Errorf("Target should clamp to 100, got %v", bar.Target())
	}
	bar.SetPercent(-5)
	if bar.Target() != 0 {
		t.Errorf("Target should clamp to 0, got %v", bar.Target())
	}
}

func TestUsageBar_IgnoresOtherMessages(t *testing.T) {
	bar := NewUsageBar("Tokens")
	bar.SetPercent(50)
	next, cmd := bar.Update("unrelated")
	if cmd != nil || next.Percent() != 0 {
		t.Error("non-animation messages should be ignored")
	}
}

func TestUsageBar_ViewShowsRawPercent(t *testing.T) {
	bar := NewUsageBar("Tokens")
	view := ansi.Strip(bar.View(112.5, 60))
	if !strings.Contains(view, "Tokens") || !strings.Contains(view, "112.5%") {
		t.Errorf("View = %q", view)
	}
}

func TestRenderGradientBar(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		filled  int
	}{
		{0, 10, 0},
		{50, 10, 5},
		{100, 10, 10},
		{150, 10, 10},
		{-10, 10, 0},
	}
	for _, tt := range tests {
		out := ansi.Strip(RenderGradientBar(tt.percent, tt.width))
		if got := strings.Count(out, "█"); got != tt.filled {
			t.Errorf("RenderGradientBar(%v) filled = %d, want %d", tt.percent, got, tt.filled)
		}
		if got := lipgloss.Width(out); got != tt.width {
			t.Errorf("RenderGradientBar(%v) width = %d, want %d", tt.percent, got, tt.width)
		}
	}
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestBlend(t *testing.T) {
	if got := blend(gradientLow, gradientHigh, 0); got != gradientLow {
		t.Errorf("blend at 0 = %s, want %s", got, gradientLow)
	}
	if got := blend(gradientLow, gradientHigh, 1); got != gradientHigh {
		t.Errorf("blend at 1 = %s, want %s", got, gradientHigh)
	}
	if got := blend("nope", gradientHigh, 0.5); got != "nope" {
		t.Errorf("invalid hex should fall back, got %s", got)
	}
}

func TestSimpleUsageBar(t *testing.T) {
	out := ansi.Strip(SimpleUsageBar(42, "MCP", 40))
	if !strings.HasPrefix(out, "MCP [") || !strings.HasSuffix(out, "42.0%") {
		t.Errorf("SimpleUsageBar = %q", out)
	}
}

func TestUsageBarLoading(t *testing.T) {
	a := ansi.Strip(UsageBarLoading("Tokens", 50, 0))
	b := ansi.Strip(UsageBarLoading("Tokens", 50, 30))
	if a == b {
		t.Error("shimmer should move between frames")
	}
	if !strings.Contains(a, "▓") {
		t.Error("loading bar should contain the shimmer")
	}
}

func TestRenderLineChart(t *testing.T) {
	if got := ansi.Strip(RenderLineChart(nil, 40, 5, "", asciigraph.Blue)); got != noData {
		t.Errorf("empty chart = %q", got)
	}
	out := RenderLineChart([]float64{1, 5, 3}, 40, 5, "Calls", asciigraph.Blue)
	if !strings.Contains(out, "Calls") {
		t.Error("chart should include the caption")
	}
	if single := RenderLineChart([]float64{7}, 40, 5, "", asciigraph.Blue); single == "" {
		t.Error("single point should still render")
	}
}

func TestRenderTimeAxis(t *testing.T) {
	points := []shaper.TimePoint{{Time: "10:00"}, {Time: "11:00"}, {Time: "12:00"}}
	out := RenderTimeAxis(points, 40)
	if !strings.HasPrefix(out, "10:00") || !strings.HasSuffix(out, "12:00") || !strings.Contains(out, "11:00") {
		t.Errorf("axis = %q", out)
	}
	if RenderTimeAxis(nil, 40) != "" {
		t.Error("no points should render nothing")
	}
	if got := RenderTimeAxis(points[:1], 40); got != "10:00" {
		t.Errorf("single point axis = %q", got)
	}
}

func TestRenderBarChart(t *testing.T) {
	out := ansi.Strip(RenderBarChart([]BarRow{
		{Label: "glm-4.6", Value: 2000},
		{Label: "glm-4.5-air", Value: 500},
		{Label: "idle", Value: 0},
	}, 60))
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if strings.Count(lines[0], "█") <= strings.Count(lines[1], "█") {
		t.Error("larger value should draw a longer bar")
	}
	if strings.Contains(lines[2], "█") {
		t.Error("zero value should draw no bar")
	}
	if !strings.HasSuffix(lines[0], "2.0K") {
		t.Errorf("first row = %q, want compact count", lines[0])
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 4, 8}, 10); got != "▁▄█" {
		t.Errorf("sparkline = %q", got)
	}
	if got := []rune(RenderSparkline(make([]float64, 50), 10)); len(got) != 10 {
		t.Errorf("sparkline width = %d, want 10", len(got))
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty values should render nothing")
	}
}

func TestRenderLegend(t *testing.T) {
	out := ansi.Strip(RenderLegend([]LegendItem{{Label: "Calls"}, {Label: "Tokens"}}))
	if out != "■ Calls  ■ Tokens" {
		t.Errorf("legend = %q", out)
	}
}
