// Package dashboard provides the quota overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/components"
)

type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(40*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Settings key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "open settings"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	now      func() time.Time
	spinner  components.LoadingSpinner
	keys     keyMap
	viewport viewport.Model
	tokenBar components.UsageBar
	mcpBar   components.UsageBar
	width    int
	height   int
	frame    int
	shimmer  bool
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		now:      time.Now,
		spinner:  components.NewSpinner("Waiting for usage data..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		tokenBar: components.NewUsageBar("Tokens (5h)"),
		mcpBar:   components.NewUsageBar("MCP (1mo)"),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick(), m.startShimmer())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.StateSyncedMsg:
		cmds = append(cmds, m.syncBars(), m.startShimmer())

	case components.AnimationTickMsg:
		var c1, c2 tea.Cmd
		m.tokenBar, c1 = m.tokenBar.Update(msg)
		m.mcpBar, c2 = m.mcpBar.Update(msg)
		cmds = append(cmds, c1, c2)

	case shimmerTickMsg:
		m.frame++
		if m.needsShimmer() {
			cmds = append(cmds, shimmerTickCmd())
		} else {
			m.shimmer = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Settings) {
			cmds = append(cmds, func() tea.Msg { return app.TabSwitchMsg{Tab: app.TabSettings} })
			break
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// syncBars points the animated bars at the current summary limits.
func (m *Model) syncBars() tea.Cmd {
	snap := m.state.Snapshot()
	if snap == nil {
		return nil
	}
	limits := shaper.SelectSummaryLimits(snap.QuotaLimits)

	var cmds []tea.Cmd
	if limits.Token != nil {
		cmds = append(cmds, m.tokenBar.SetPercent(limits.Token.Percentage))
	}
	if limits.MCP != nil {
		cmds = append(cmds, m.mcpBar.SetPercent(limits.MCP.Percentage))
	}
	return tea.Batch(cmds...)
}

// needsShimmer reports whether placeholder bars are on screen.
func (m *Model) needsShimmer() bool {
	return m.state.IsLoading() && m.state.Snapshot() == nil
}

func (m *Model) startShimmer() tea.Cmd {
	if m.shimmer || !m.needsShimmer() {
		return nil
	}
	m.shimmer = true
	return shimmerTickCmd()
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Settings}
}
