// Package chart provides the usage time-series tab.
package chart

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
)

// Metric selects the plotted series.
type Metric int

const (
	MetricTokens Metric = iota
	MetricCalls
)

func (mt Metric) String() string {
	if mt == MetricCalls {
		return "Model calls"
	}
	return "Tokens"
}

type keyMap struct {
	ToggleMetric key.Binding
	Up           key.Binding
	Down         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleMetric: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "calls/tokens"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the chart tab state.
type Model struct {
	state    *app.State
	points   []shaper.TimePoint
	keys     keyMap
	viewport viewport.Model
	metric   Metric
	width    int
	height   int
}

// New creates a new chart model.
func New(state *app.State) *Model {
	m := &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
	m.rebuild()
	return m
}

// Init initializes the chart tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chart tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StateSyncedMsg:
		m.rebuild()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleMetric) {
			m.metric = 1 - m.metric
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) rebuild() {
	if snap := m.state.Snapshot(); snap != nil {
		m.points = shaper.BuildTimeSeriesPoints(snap.ModelUsageTimeSeries)
	} else {
		m.points = nil
	}
}

// series returns the values of the selected metric.
func (m *Model) series() []float64 {
	if m.metric == MetricCalls {
		return shaper.CallsSeries(m.points)
	}
	return shaper.TokensSeries(m.points)
}

// SetSize sets the available size for the chart tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleMetric, m.keys.Up, m.keys.Down}
}
