// Package services wires the refresh pipeline together and routes its events
// to the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/db"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/alerts"
	"github.com/j-veylop/zai-usage-tui/internal/services/configwatch"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/services/scheduler"
)

type (
	// RefreshingEvent is emitted when a provider call starts.
	RefreshingEvent struct {
		Trigger string
	}

	// SnapshotUpdatedEvent is emitted after a successful fetch.
	SnapshotUpdatedEvent struct {
		Snapshot *models.Snapshot
		Trigger  string
	}

	// RefreshFailedEvent is emitted when a fetch fails; Mode is the mode it left behind.
	RefreshFailedEvent struct {
		Error   error
		Trigger string
		Kind    quota.ErrorKind
		Mode    models.FetchMode
	}

	// NeedsConfigEvent is emitted when no token is set or the token was rejected.
	NeedsConfigEvent struct {
		Error   error
		Trigger string
	}

	// ConfigChangedEvent is emitted after the active config is replaced.
	ConfigChangedEvent struct {
		Config config.Config
		Source string
	}

	// AlertEvent is emitted for every usage alert published.
	AlertEvent struct {
		Alert models.UsageAlert
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshingEvent) isServiceEvent()      {}
func (SnapshotUpdatedEvent) isServiceEvent() {}
func (RefreshFailedEvent) isServiceEvent()   {}
func (NeedsConfigEvent) isServiceEvent()     {}
func (ConfigChangedEvent) isServiceEvent()   {}
func (AlertEvent) isServiceEvent()           {}
func (ErrorEvent) isServiceEvent()           {}

// Options replaces the real collaborators, mainly for tests.
type Options struct {
	Fetcher      quota.Fetcher
	Notifier     alerts.Notifier
	NewTicker    scheduler.TickerFunc
	DisableWatch bool
}

// Manager owns the config store, refresh service, poll scheduler, alert
// router, config watcher and fetch log, and fans their events out to subscribers.
type Manager struct {
	settings        *config.Settings
	store           *config.Store
	state           *quota.State
	refresh         *quota.Service
	scheduler       *scheduler.Scheduler
	router          *alerts.Router
	watcher         *configwatch.Watcher
	database        *db.DB
	stopChan        chan struct{}
	subscribers     []chan ServiceEvent
	refreshHandlers []func()
	alertHandlers   []func(models.UsageAlert)
	thresholds      alerts.Thresholds
	mu              sync.RWMutex
	startOnce       sync.Once
	closeOnce       sync.Once
}

// NewManager builds every service from settings. Nothing is fetched until Start.
func NewManager(settings *config.Settings, opts Options) (*Manager, error) {
	m := &Manager{
		settings: settings,
		store:    config.NewStore(settings.ConfigPath, settings.Overrides),
		stopChan: make(chan struct{}),
		thresholds: alerts.Thresholds{
			Warning:  settings.WarningThreshold,
			Critical: settings.CriticalThreshold,
		},
	}

	var err error
	m.database, err = db.New(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = quota.NewClient(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = alerts.NewDesktopNotifier(settings.Notifications)
	}

	m.state = quota.NewState(m.store.Load())
	m.refresh = quota.New(fetcher, m.state, quota.Config{Timeout: settings.RequestTimeout})
	m.scheduler = scheduler.New(func() { m.goRefresh(quota.TriggerTimer) }, opts.NewTicker)
	m.router = alerts.NewRouter(notifier)

	// The refresh-requested and usage-alert channels have one built-in consumer each.
	m.OnRefreshRequested(func() { m.goRefresh(quota.TriggerSignal) })
	m.OnUsageAlert(m.router.Handle)

	if !opts.DisableWatch {
		m.watcher, err = configwatch.New(m.store, m.handleConfigReload)
		if err != nil {
			logger.Warn("Config file watching disabled", "error", err)
		}
	}

	go m.routeEvents()

	return m, nil
}

// Start asks for notification permission, prunes the fetch log, starts the
// poll timer and runs the first fetch.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.router.Start()

		if n, err := m.database.PruneFetchAttempts(context.Background(), db.DefaultRetentionDays*24*time.Hour); err != nil {
			logger.Warn("Failed to prune fetch log", "error", err)
		} else if n > 0 {
			logger.Debug("Pruned fetch log", "rows", n)
			if err := m.database.Vacuum(); err != nil {
				logger.Warn("Failed to vacuum fetch log", "error", err)
			}
		}

		m.scheduler.Apply(m.state.Config())
		m.goRefresh(quota.TriggerStartup)
	})
}

// goRefresh runs a refresh with the current config without blocking the caller.
func (m *Manager) goRefresh(trigger string) {
	go m.refresh.Refresh(context.Background(), m.state.Config(), trigger)
}

// routeEvents converts refresh events, records attempts and broadcasts.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.refresh.Events():
			m.handleRefreshEvent(event)
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleRefreshEvent(event quota.Event) {
	if event.Attempt != nil {
		if err := m.database.InsertFetchAttempt(context.Background(), event.Attempt); err != nil {
			logger.Warn("Failed to record fetch attempt", "error", err)
		}
	}

	switch event.Type {
	case quota.EventRefreshing:
		m.broadcast(RefreshingEvent{Trigger: event.Trigger})

	case quota.EventSnapshotUpdated:
		m.broadcast(SnapshotUpdatedEvent{Snapshot: event.Snapshot, Trigger: event.Trigger})
		for _, alert := range alerts.Evaluate(event.Snapshot, m.thresholds) {
			m.PublishAlert(alert)
		}

	case quota.EventRefreshFailed:
		m.broadcast(RefreshFailedEvent{
			Error:   event.Error,
			Trigger: event.Trigger,
			Kind:    event.Kind,
			Mode:    event.Mode,
		})

	case quota.EventNeedsConfig:
		m.broadcast(NeedsConfigEvent{Error: event.Error, Trigger: event.Trigger})
	}
}

// OnRefreshRequested registers a handler for the refresh-requested channel.
func (m *Manager) OnRefreshRequested(handler func()) {
	m.mu.Lock()
	m.refreshHandlers = append(m.refreshHandlers, handler)
	m.mu.Unlock()
}

// OnUsageAlert registers a handler for the usage-alert channel.
func (m *Manager) OnUsageAlert(handler func(models.UsageAlert)) {
	m.mu.Lock()
	m.alertHandlers = append(m.alertHandlers, handler)
	m.mu.Unlock()
}

// RequestRefresh publishes a refresh-requested signal. The poll timer keeps its phase.
func (m *Manager) RequestRefresh() {
	if m.isClosed() {
		return
	}
	m.mu.RLock()
	handlers := append([]func(){}, m.refreshHandlers...)
	m.mu.RUnlock()
	for _, h := range handlers {
		h()
	}
}

// RefreshNow fetches immediately on user request. The poll timer keeps its phase.
func (m *Manager) RefreshNow() {
	if m.isClosed() {
		return
	}
	m.goRefresh(quota.TriggerManual)
}

// PublishAlert delivers alert to every usage-alert handler and to subscribers.
func (m *Manager) PublishAlert(alert models.UsageAlert) {
	if m.isClosed() {
		return
	}
	m.mu.RLock()
	handlers := append([]func(models.UsageAlert){}, m.alertHandlers...)
	m.mu.RUnlock()
	for _, h := range handlers {
		h(alert)
	}
	m.broadcast(AlertEvent{Alert: alert})
}

// SaveConfig persists cfg, makes it active, restarts the poll timer and
// fetches immediately with the new config.
func (m *Manager) SaveConfig(cfg config.Config) error {
	if err := m.apply(cfg, "save"); err != nil {
		return err
	}
	m.goRefresh(quota.TriggerSave)
	return nil
}

// TestConfig saves cfg and runs a fetch synchronously, returning its outcome.
func (m *Manager) TestConfig(ctx context.Context, cfg config.Config) (quota.Result, error) {
	if err := m.apply(cfg, "save"); err != nil {
		return quota.Result{}, err
	}
	return m.refresh.Refresh(ctx, m.state.Config(), quota.TriggerSettings), nil
}

func (m *Manager) apply(cfg config.Config, source string) error {
	if err := m.store.Save(cfg); err != nil {
		m.state.SetConfigError(err)
		m.broadcast(ErrorEvent{Service: "config", Error: err})
		return err
	}
	m.activate(m.store.WithOverrides(cfg), source)
	return nil
}

func (m *Manager) activate(cfg config.Config, source string) {
	m.state.SetConfig(cfg)
	m.scheduler.Apply(cfg)
	m.broadcast(ConfigChangedEvent{Config: cfg, Source: source})
}

// handleConfigReload applies an external edit of config.json. Our own saves
// come back through the watcher too and are ignored because nothing changed.
func (m *Manager) handleConfigReload(cfg config.Config) {
	if m.isClosed() || cfg == m.state.Config() {
		return
	}
	m.activate(cfg, "file")
	m.goRefresh(quota.TriggerReload)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// State returns the shared refresh state.
func (m *Manager) State() *quota.State {
	return m.state
}

// Settings returns the process settings.
func (m *Manager) Settings() *config.Settings {
	return m.settings
}

// ConfigPath returns the location of config.json.
func (m *Manager) ConfigPath() string {
	return m.store.Path()
}

// PollInterval returns the active timer period, or 0 when polling is off.
func (m *Manager) PollInterval() time.Duration {
	return m.scheduler.Interval()
}

// RefreshStats returns counters for attempts made by this process.
func (m *Manager) RefreshStats() quota.Stats {
	return m.refresh.GetStats()
}

// AlertCounts returns how many alerts were shown and dropped.
func (m *Manager) AlertCounts() (shown, dropped int) {
	return m.router.Counts()
}

// RecentAttempts returns the newest fetch log entries.
func (m *Manager) RecentAttempts(ctx context.Context, limit int) ([]models.FetchAttempt, error) {
	return m.database.RecentFetchAttempts(ctx, limit)
}

// FetchStats summarizes the fetch log over window.
func (m *Manager) FetchStats(ctx context.Context, window time.Duration) (models.FetchStats, error) {
	return m.database.FetchStats(ctx, window)
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.stopChan:
		return true
	default:
		return false
	}
}

// Close stops the timer and watcher and discards any fetch still in flight.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		st := m.RefreshStats()
		shown, dropped := m.AlertCounts()
		logger.Info("Session summary",
			"attempts", st.Attempts,
			"succeeded", st.Succeeded,
			"credential_fails", st.CredentialFails,
			"transient_fails", st.TransientFails,
			"alerts_shown", shown,
			"alerts_dropped", dropped,
		)

		errs = append(errs, m.scheduler.Close(), m.refresh.Close())
		if m.watcher != nil {
			errs = append(errs, m.watcher.Close())
		}

		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			errs = append(errs, m.database.Close())
		}
	})
	return errors.Join(errs...)
}
