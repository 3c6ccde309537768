package app

import (
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
)

// TickMsg is sent periodically to expire toasts and age "updated" labels.
type TickMsg struct {
	Time time.Time
}

// SubscriptionEventMsg carries the channel returned by the service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// StateSyncedMsg is sent to tabs after State was refreshed from the services.
type StateSyncedMsg struct{}

// FetchLogLoadedMsg contains the newest fetch attempts.
type FetchLogLoadedMsg struct {
	Error    error
	Attempts []models.FetchAttempt
	Stats    models.FetchStats
}

// RefreshMsg requests an immediate fetch.
type RefreshMsg struct{}

// SaveConfigMsg asks to persist a config. With Test set the fetch runs
// synchronously and its outcome is reported back.
type SaveConfigMsg struct {
	Config config.Config
	Test   bool
}

// ConfigSavedMsg reports the outcome of a SaveConfigMsg.
type ConfigSavedMsg struct {
	Error  error
	Result *quota.Result
	Config config.Config
	Test   bool
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
