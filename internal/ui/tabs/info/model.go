// Package info provides the info tab: build details, paths and the fetch log.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/config"
)

// maxAttempts caps the rows shown in the recent attempts card.
const maxAttempts = 15

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Top  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	settings *config.Settings
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new info model. settings may be nil.
func New(state *app.State, settings *config.Settings) *Model {
	return &Model{
		state:    state,
		settings: settings,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.FetchLogLoadedMsg, app.StateSyncedMsg:
		m.viewport.SetContent(m.content())
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Top) {
			m.viewport.GotoTop()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.content())
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top}
}
