// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for the loading toast.
const LoadingNotificationID = "__loading__"

// maxNotifications caps the toast stack.
const maxNotifications = 5

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification is an in-app toast.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the UI-side copy of everything the tabs render. It is refreshed
// from the service manager after every event; tabs only read it.
type State struct {
	fetchStats      models.FetchStats
	view            quota.StateView
	configPath      string
	attempts        []models.FetchAttempt
	notifications   []Notification
	pollInterval    time.Duration
	notificationSeq int
	synced          bool
	mu              sync.RWMutex
}

// NewState creates an empty state.
func NewState() *State {
	return &State{notifications: make([]Notification, 0)}
}

// SetView replaces the refresh state copy.
func (s *State) SetView(v quota.StateView, pollInterval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.pollInterval = pollInterval
	s.synced = true
}

// View returns the last refresh state copy.
func (s *State) View() quota.StateView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Synced reports whether a view has been received from the services.
func (s *State) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synced
}

// Mode returns the current fetch mode.
func (s *State) Mode() models.FetchMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Mode
}

// IsLoading reports whether a fetch is running.
func (s *State) IsLoading() bool {
	return s.Mode() == models.ModeLoading
}

// Snapshot returns the last good snapshot, or nil.
func (s *State) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Snapshot
}

// Config returns the active configuration.
func (s *State) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Config
}

// PollInterval returns the active timer period, or 0 when polling is off.
func (s *State) PollInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollInterval
}

// SetConfigPath records where config.json lives.
func (s *State) SetConfigPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPath = path
}

// ConfigPath returns where config.json lives.
func (s *State) ConfigPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configPath
}

// SetFetchLog stores the newest fetch attempts and their summary.
func (s *State) SetFetchLog(attempts []models.FetchAttempt, stats models.FetchStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = attempts
	s.fetchStats = stats
}

// FetchLog returns a copy of the fetch attempts and their summary.
func (s *State) FetchLog() ([]models.FetchAttempt, models.FetchStats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FetchAttempt, len(s.attempts))
	copy(out, s.attempts)
	return out, s.fetchStats
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := fmt.Sprintf("n%d", s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns the notifications that have not expired.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification shows or updates the loading toast.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading toast.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
