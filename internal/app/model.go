// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard shows the quota summary.
	TabDashboard TabID = iota
	// TabDetails lists per-model and per-tool usage.
	TabDetails
	// TabChart plots the usage time series.
	TabChart
	// TabSettings edits the token, endpoint and interval.
	TabSettings
	// TabInfo shows version and fetch log.
	TabInfo

	tabCount
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabDetails:
		return "Details"
	case TabChart:
		return "Chart"
	case TabSettings:
		return "Settings"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding
}

// InputCapturer is implemented by tabs that take typed text. While it
// reports true, only ctrl+c and esc are handled globally.
type InputCapturer interface {
	CapturingInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tabs      [tabCount]key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Escape    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	k := KeyMap{}
	for i := range k.Tabs {
		n := fmt.Sprintf("%d", i+1)
		k.Tabs[i] = key.NewBinding(key.WithKeys(n), key.WithHelp(n, strings.ToLower(TabID(i).String())))
	}
	k.NextTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab"))
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	k.ForceQuit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// Styles defines the application styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	StatusBar   lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content   lipgloss.Style
	Toast     lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.StatusBar = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(styles.Success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(styles.Error).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(styles.Warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(styles.Info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = styles.ToastStyle
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)

	return s
}

// Model is the main application model.
type Model struct {
	state        *State
	services     *services.Manager
	eventChannel chan services.ServiceEvent
	now          func() time.Time
	tabs         []Tab
	styles       Styles
	spinner      spinner.Model
	help         help.Model
	keymap       KeyMap
	activeTab    TabID
	width        int
	height       int
	showHelp     bool
	ready        bool
}

// NewModel initializes a new application model. mgr may be nil in tests.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	h := help.New()
	h.ShortSeparator = " • "
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpStyle
	h.Styles.ShortSeparator = styles.HelpStyle

	state := NewState()
	if mgr != nil {
		state.SetConfigPath(mgr.ConfigPath())
		state.SetView(mgr.State().View(), mgr.PollInterval())
	}

	return &Model{
		activeTab: TabDashboard,
		tabs:      make([]Tab, tabCount),
		state:     state,
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
		help:      h,
		now:       time.Now,
	}
}

// SetTabs sets the tabs for the model, in TabID order.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services), loadFetchLogCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event)...)
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
		cmds = append(cmds, m.updateAllTabs(StateSyncedMsg{}))

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	// Keys go to the active tab only; everything else reaches every tab so
	// animations keep running on hidden tabs.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		cmds = append(cmds, m.updateActiveTab(msg))
	} else {
		cmds = append(cmds, m.updateAllTabs(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case FetchLogLoadedMsg:
		if msg.Error == nil {
			m.state.SetFetchLog(msg.Attempts, msg.Stats)
		}
	case RefreshMsg:
		if m.services != nil {
			cmds = append(cmds, refreshCmd(m.services))
		}
	case SaveConfigMsg:
		cmds = append(cmds, m.handleSaveConfig(msg))
	case ConfigSavedMsg:
		cmds = append(cmds, m.handleConfigSaved(msg))
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ErrorMsg:
		cmds = append(cmds, NotifyError(fmt.Sprintf("%s: %v", msg.Context, msg.Error)))
	case TabSwitchMsg:
		m.switchTab(msg.Tab)
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleSaveConfig(msg SaveConfigMsg) tea.Cmd {
	if m.services == nil {
		return nil
	}
	if msg.Test {
		timeout := m.services.Settings().RequestTimeout + 5*time.Second
		return testConfigCmd(m.services, msg.Config, timeout)
	}
	return saveConfigCmd(m.services, msg.Config)
}

func (m *Model) handleConfigSaved(msg ConfigSavedMsg) tea.Cmd {
	switch {
	case msg.Error != nil:
		return NotifyError(fmt.Sprintf("Failed to save settings: %v", msg.Error))
	case msg.Result == nil:
		return NotifySuccess("Settings saved")
	case msg.Result.Mode == models.ModeReady:
		return NotifySuccess("Settings saved, connection OK")
	case msg.Result.Skipped:
		return NotifyInfo("Settings saved, fetch queued")
	default:
		return NotifyError(fmt.Sprintf("Settings saved, test failed: %v", msg.Result.Err))
	}
}

func (m *Model) syncState() {
	if m.services == nil {
		return
	}
	m.state.SetView(m.services.State().View(), m.services.PollInterval())
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) []tea.Cmd {
	m.syncState()

	var cmds []tea.Cmd
	switch e := event.(type) {
	case services.RefreshingEvent:
		m.state.SetLoadingNotification("Refreshing usage...")

	case services.SnapshotUpdatedEvent:
		m.state.ClearLoadingNotification()
		if e.Trigger == quota.TriggerManual {
			cmds = append(cmds, NotifySuccess("Usage refreshed"))
		}
		cmds = append(cmds, m.reloadFetchLog())

	case services.RefreshFailedEvent:
		m.state.ClearLoadingNotification()
		cmds = append(cmds, NotifyError(fmt.Sprintf("Refresh failed: %v", e.Error)), m.reloadFetchLog())

	case services.NeedsConfigEvent:
		m.state.ClearLoadingNotification()
		if e.Error != nil {
			cmds = append(cmds, NotifyError("API token rejected, update it in Settings"))
		} else {
			cmds = append(cmds, NotifyWarning("Add your API token in Settings"))
		}
		m.switchTab(TabSettings)
		cmds = append(cmds, m.reloadFetchLog())

	case services.ConfigChangedEvent:
		if e.Source == "file" {
			cmds = append(cmds, NotifyInfo("Config reloaded from disk"))
		}

	case services.AlertEvent:
		cmds = append(cmds, notifyCmd(NotificationWarning, e.Alert.Title()+": "+e.Alert.Body(), LongNotificationDuration))

	case services.ErrorEvent:
		cmds = append(cmds, NotifyError(fmt.Sprintf("[%s] %v", e.Service, e.Error)))
	}
	return cmds
}

func (m *Model) reloadFetchLog() tea.Cmd {
	if m.services == nil {
		return nil
	}
	return loadFetchLogCmd(m.services)
}

func (m *Model) switchTab(id TabID) {
	if id < 0 || id >= tabCount {
		return
	}
	m.activeTab = id
	m.updateTabSizes()
}

func (m *Model) activeTabModel() Tab {
	if int(m.activeTab) < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	tab := m.activeTabModel()
	if tab == nil {
		return nil
	}
	var cmd tea.Cmd
	m.tabs[m.activeTab], cmd = tab.Update(msg)
	return cmd
}

func (m *Model) updateAllTabs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, tab := range m.tabs {
		if tab == nil {
			continue
		}
		var cmd tea.Cmd
		m.tabs[i], cmd = tab.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-4)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// handleKeyMsg handles global keys. handled=false passes the key to the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return tea.Quit, true
	}

	if c, ok := m.activeTabModel().(InputCapturer); ok && c.CapturingInput() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
		return nil, false

	case key.Matches(msg, m.keymap.NextTab):
		m.switchTab((m.activeTab + 1) % tabCount)
		return nil, true

	case key.Matches(msg, m.keymap.PrevTab):
		m.switchTab((m.activeTab - 1 + tabCount) % tabCount)
		return nil, true

	case key.Matches(msg, m.keymap.Refresh):
		if m.services != nil {
			return refreshCmd(m.services), true
		}
		return nil, true
	}

	for i, b := range m.keymap.Tabs {
		if key.Matches(msg, b) {
			m.switchTab(TabID(i))
			return nil, true
		}
	}

	return nil, false
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if tab := m.activeTabModel(); tab != nil {
		b.WriteString(tab.View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		return m.overlayToasts(mainView, toasts)
	}

	return mainView
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, tabCount)
	for i := TabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, i)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, i)))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderStatusBar() string {
	view := m.state.View()

	mode := view.Mode.String()
	if view.Mode == models.ModeLoading {
		mode = m.spinner.View() + " " + mode
	}

	parts := []string{
		mode,
		"Updated: " + shaper.FormatLastUpdated(view.LastSuccess, m.now()),
	}
	if iv := m.state.PollInterval(); iv > 0 {
		parts = append(parts, "every "+iv.String())
	} else {
		parts = append(parts, "polling off")
	}

	bindings := m.keymap.ShortHelp()
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		bindings = append(bindings, m.tabs[m.activeTab].ShortHelp()...)
	}

	line := strings.Join(parts, " • ") + "  " + m.help.ShortHelpView(bindings)
	if m.width > 0 {
		line = ansi.Truncate(line, m.width-2, "…")
	}
	return m.styles.StatusBar.Render(line)
}

func (m *Model) overlayCentered(mainView, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	y := max((m.height-len(overlayLines))/2, 0)
	x := max((m.width-lipgloss.Width(overlay))/2, 0)
	overlayWidth := lipgloss.Width(overlay)

	// Short views are padded so the overlay is never clipped.
	for len(mainLines) < max(m.height, y+len(overlayLines)) {
		mainLines = append(mainLines, "")
	}

	for i, overlayLine := range overlayLines {
		row := y + i
		line := mainLines[row]
		left := ansi.Truncate(line, x, "")
		right := ansi.TruncateLeft(line, x+overlayWidth, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		mainLines[row] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	maxWidth := max(m.width/2, 30)
	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style, prefix = m.styles.NotificationSuccess, "[OK]"
		case NotificationError:
			style, prefix = m.styles.NotificationError, "[ERR]"
		case NotificationWarning:
			style, prefix = m.styles.NotificationWarning, "[WARN]"
		case NotificationLoading:
			style, prefix = m.styles.NotificationInfo, m.spinner.View()
		default:
			style, prefix = m.styles.NotificationInfo, "[INFO]"
		}

		text := ansi.Truncate(fmt.Sprintf("%s %s", prefix, n.Message), maxWidth, "…")
		toasts = append(toasts, m.styles.Toast.Render(style.Render(text)))
	}
	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	startX := max(m.width-lipgloss.Width(toastStack)-2, 0)
	const startY = 2

	for i, toastLine := range toastLines {
		row := startY + i
		if row >= len(mainLines) {
			break
		}
		line := mainLines[row]
		if w := lipgloss.Width(line); w < startX {
			mainLines[row] = line + strings.Repeat(" ", startX-w) + toastLine
		} else {
			mainLines[row] = ansi.Truncate(line, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		m.styles.Highlight.Render("Navigation"),
		fmt.Sprintf("  1-%d        Switch tabs", tabCount),
		"  Tab        Next tab",
		"  Shift+Tab  Previous tab",
		"",
		m.styles.Highlight.Render("Actions"),
		"  r          Refresh now",
		"  ?          Toggle help",
		"  q/Ctrl+C   Quit",
		"",
	}

	if tab := m.activeTabModel(); tab != nil {
		if tabHelp := tab.ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.activeTab)))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf("%s\n\n%s", m.activeTab, m.styles.Subtle.Render("Nothing to show yet."))
	return m.styles.Content.Render(content)
}
