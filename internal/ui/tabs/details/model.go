// Package details provides the per-model and per-tool usage tables.
package details

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

type pane int

const (
	paneModels pane = iota
	paneTools
)

type keyMap struct {
	SortModels key.Binding
	SortTools  key.Binding
	SwitchPane key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SortModels: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "sort models"),
		),
		SortTools: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "sort tools"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("f", "left", "right"),
			key.WithHelp("f/←/→", "switch table"),
		),
	}
}

// Model represents the details tab state.
type Model struct {
	state     *app.State
	models    table.Model
	tools     table.Model
	keys      keyMap
	modelSort shaper.ModelSort
	toolSort  shaper.ToolSort
	focus     pane
	width     int
	height    int
}

// New creates a new details model.
func New(state *app.State) *Model {
	m := &Model{
		state:  state,
		models: newTable(modelColumns(40), true),
		tools:  newTable(toolColumns(30), false),
		keys:   defaultKeyMap(),
	}
	m.refreshRows()
	return m
}

func newTable(cols []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(focused),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)
	return t
}

func modelColumns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: "Model", Width: nameWidth},
		{Title: "Tokens", Width: 12},
		{Title: "Requests", Width: 12},
	}
}

func toolColumns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: "Tool", Width: nameWidth},
		{Title: "Calls", Width: 12},
	}
}

// Init initializes the details tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the details tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StateSyncedMsg:
		m.refreshRows()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.SortModels):
			m.modelSort = 1 - m.modelSort
			m.refreshRows()
		case key.Matches(msg, m.keys.SortTools):
			m.toolSort = 1 - m.toolSort
			m.refreshRows()
		case key.Matches(msg, m.keys.SwitchPane):
			m.setFocus(1 - m.focus)
		default:
			var cmd tea.Cmd
			if m.focus == paneModels {
				m.models, cmd = m.models.Update(msg)
			} else {
				m.tools, cmd = m.tools.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == paneModels {
		m.models.Focus()
		m.tools.Blur()
	} else {
		m.tools.Focus()
		m.models.Blur()
	}
}

// refreshRows rebuilds both tables from the snapshot in the current sort order.
func (m *Model) refreshRows() {
	snap := m.state.Snapshot()
	if snap == nil {
		snap = &models.Snapshot{}
	}

	m.models.SetRows(lo.Map(shaper.SortModels(snap.ModelUsage, m.modelSort), func(it models.ModelUsageItem, _ int) table.Row {
		return table.Row{it.Model, shaper.FormatCompactNumber(it.TokenCount), shaper.FormatCount(it.RequestCount)}
	}))
	m.tools.SetRows(lo.Map(shaper.SortTools(snap.ToolUsage, m.toolSort), func(it models.ToolUsageItem, _ int) table.Row {
		return table.Row{it.ToolName, shaper.FormatCount(it.UsageCount)}
	}))
}

// SetSize sets the available size for the details tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	tableHeight := max((height-14)/2, 3)
	m.models.SetHeight(tableHeight)
	m.tools.SetHeight(tableHeight)

	nameWidth := min(max(width-40, 16), 48)
	m.models.SetColumns(modelColumns(nameWidth))
	m.tools.SetColumns(toolColumns(nameWidth + 12))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.SortModels, m.keys.SortTools, m.keys.SwitchPane}
}
