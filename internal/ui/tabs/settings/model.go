// Package settings provides the configuration form tab.
package settings

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

type field int

const (
	fieldToken field = iota
	fieldBaseURL
	fieldInterval
	fieldSave
	fieldTest
	fieldReset

	fieldCount
)

func (f field) isInput() bool {
	return f <= fieldInterval
}

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	CycleURL key.Binding
	Reveal   key.Binding
	Leave    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("down", "tab"),
			key.WithHelp("↓", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "shift+tab"),
			key.WithHelp("↑", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		CycleURL: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next endpoint"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "show token"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave field"),
		),
	}
}

// status is the outcome line under the form.
type status struct {
	text    string
	isError bool
	pending bool
}

// Model represents the settings tab state.
type Model struct {
	state    *app.State
	keys     keyMap
	status   status
	inputs   [3]textinput.Model
	focus    field
	width    int
	height   int
	dirty    bool
	revealed bool
}

// New creates a new settings model. The token field starts focused.
func New(state *app.State) *Model {
	token := textinput.New()
	token.Placeholder = "Paste your Z.ai API key..."
	token.CharLimit = 512
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	baseURL := textinput.New()
	baseURL.Placeholder = config.DefaultBaseURL
	baseURL.CharLimit = 256

	interval := textinput.New()
	interval.Placeholder = strconv.Itoa(config.DefaultRefreshInterval)
	interval.CharLimit = 2
	interval.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		if _, err := strconv.Atoi(s); err != nil {
			return fmt.Errorf("minutes must be a number")
		}
		return nil
	}

	m := &Model{
		state:  state,
		keys:   defaultKeyMap(),
		inputs: [3]textinput.Model{token, baseURL, interval},
	}
	m.load(state.Config())
	m.setFocus(fieldToken)
	return m
}

// CapturingInput reports whether a text field has focus, so global keys
// are typed into it instead.
func (m *Model) CapturingInput() bool {
	return m.focus.isInput()
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// load fills the form from cfg and clears the dirty flag.
func (m *Model) load(cfg config.Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if cfg.RefreshIntervalMinutes == 0 {
		cfg.RefreshIntervalMinutes = config.DefaultRefreshInterval
	}
	m.inputs[fieldToken].SetValue(cfg.AuthToken)
	m.inputs[fieldBaseURL].SetValue(cfg.BaseURL)
	m.inputs[fieldInterval].SetValue(strconv.Itoa(cfg.RefreshIntervalMinutes))
	m.dirty = false
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StateSyncedMsg:
		if !m.dirty && !m.status.pending {
			m.load(m.state.Config())
		}
		return m, nil

	case app.ConfigSavedMsg:
		m.handleSaved(msg)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	if m.focus.isInput() {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Next):
		return m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
	case key.Matches(msg, m.keys.Leave):
		if m.focus.isInput() {
			return m.setFocus(fieldSave)
		}
		return nil
	case key.Matches(msg, m.keys.CycleURL):
		m.cycleBaseURL()
		return nil
	case key.Matches(msg, m.keys.Reveal):
		m.revealed = !m.revealed
		if m.revealed {
			m.inputs[fieldToken].EchoMode = textinput.EchoNormal
		} else {
			m.inputs[fieldToken].EchoMode = textinput.EchoPassword
		}
		return nil
	case key.Matches(msg, m.keys.Submit):
		return m.activate()
	}

	if !m.focus.isInput() {
		switch msg.String() {
		case "left", "h":
			if m.focus > fieldSave {
				return m.setFocus(m.focus - 1)
			}
		case "right", "l":
			if m.focus < fieldReset {
				return m.setFocus(m.focus + 1)
			}
		}
		return nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.dirty = true
	}
	return cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if field(i) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// cycleBaseURL moves the base URL to the next known endpoint.
func (m *Model) cycleBaseURL() {
	current := strings.TrimSpace(m.inputs[fieldBaseURL].Value())
	next := config.KnownBaseURLs[0]
	if i := slices.Index(config.KnownBaseURLs, current); i >= 0 {
		next = config.KnownBaseURLs[(i+1)%len(config.KnownBaseURLs)]
	}
	m.inputs[fieldBaseURL].SetValue(next)
	m.dirty = true
}

// activate runs the action for the focused element. Enter on an input moves on.
func (m *Model) activate() tea.Cmd {
	switch m.focus {
	case fieldSave, fieldTest:
		cfg, err := m.Config()
		if err != nil {
			m.status = status{text: err.Error(), isError: true}
			return nil
		}
		test := m.focus == fieldTest
		m.status = status{text: "Saving...", pending: true}
		if test {
			m.status.text = "Saving and testing connection..."
		}
		return func() tea.Msg { return app.SaveConfigMsg{Config: cfg, Test: test} }
	case fieldReset:
		m.load(m.state.Config())
		m.status = status{text: "Changes discarded"}
		return nil
	default:
		return m.setFocus(m.focus + 1)
	}
}

// Config validates the form and returns the config it describes.
func (m *Model) Config() (config.Config, error) {
	minutes, err := config.ParseInterval(m.inputs[fieldInterval].Value())
	if err != nil {
		return config.Config{}, err
	}
	cfg := config.Config{
		AuthToken:              strings.TrimSpace(m.inputs[fieldToken].Value()),
		BaseURL:                strings.TrimSpace(m.inputs[fieldBaseURL].Value()),
		RefreshIntervalMinutes: minutes,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (m *Model) handleSaved(msg app.ConfigSavedMsg) {
	m.status.pending = false
	switch {
	case msg.Error != nil:
		m.status = status{text: "Save failed: " + msg.Error.Error(), isError: true}
		return
	case msg.Result == nil:
		m.status = status{text: "Saved. Fetching with the new settings."}
	case msg.Result.Mode == models.ModeReady:
		m.status = status{text: "Saved. Connection OK."}
	case msg.Result.Skipped:
		m.status = status{text: "Saved. A fetch is already running; the new settings are queued."}
	default:
		m.status = status{text: "Saved, but the test failed: " + errText(msg.Result.Err), isError: true}
	}
	m.dirty = false
}

func errText(err error) string {
	if err == nil {
		return "no API token"
	}
	return err.Error()
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	w := min(max(width-24, 20), 70)
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
	m.inputs[fieldInterval].Width = 4
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Prev, m.keys.Submit, m.keys.CycleURL, m.keys.Reveal, m.keys.Leave}
}
