// Package alerts turns quota readings into usage alerts and routes them to
// desktop notifications.
package alerts

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// Permission is the notification permission state.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// Notifier is the platform notification subsystem.
type Notifier interface {
	Permission() Permission
	RequestPermission() Permission
	Show(title, body string) error
}

// Thresholds are the percentages at which alerts are raised.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds returns 70% warning and 90% critical.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 70, Critical: 90}
}

// Evaluate returns one alert per quota limit at or above a threshold.
func Evaluate(snap *models.Snapshot, th Thresholds) []models.UsageAlert {
	if snap == nil {
		return nil
	}
	var out []models.UsageAlert
	for _, q := range snap.QuotaLimits {
		switch {
		case q.Percentage >= th.Critical:
			out = append(out, models.UsageAlert{Kind: q.Kind, Percentage: q.Percentage, Severity: models.SeverityCritical})
		case q.Percentage >= th.Warning:
			out = append(out, models.UsageAlert{Kind: q.Kind, Percentage: q.Percentage, Severity: models.SeverityWarning})
		}
	}
	return out
}

// Router shows alerts when notifications are permitted and drops them otherwise.
type Router struct {
	notifier Notifier
	shown    int
	dropped  int
	mu       sync.Mutex
}

// NewRouter creates a router over notifier.
func NewRouter(notifier Notifier) *Router {
	return &Router{notifier: notifier}
}

// Start asks for permission if the user has not decided yet. It never re-prompts.
func (r *Router) Start() Permission {
	p := r.notifier.Permission()
	if p == PermissionDefault {
		p = r.notifier.RequestPermission()
		logger.Info("Notification permission requested", "result", p.String())
	}
	return p
}

// Handle shows one alert. Every alert is shown; repeated alerts are not merged.
func (r *Router) Handle(alert models.UsageAlert) {
	if r.notifier.Permission() != PermissionGranted {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		logger.Debug("Dropping alert, notifications not permitted", "kind", alert.Kind)
		return
	}
	if err := r.notifier.Show(alert.Title(), alert.Body()); err != nil {
		logger.Warn("Failed to show notification", "kind", alert.Kind, "error", err)
		return
	}
	r.mu.Lock()
	r.shown++
	r.mu.Unlock()
}

// Counts returns how many alerts were shown and dropped.
func (r *Router) Counts() (shown, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown, r.dropped
}

// DesktopNotifier sends notifications through beeep. Desktops have no
// permission prompt, so the user's ZUM_NOTIFICATIONS setting stands in for it.
type DesktopNotifier struct {
	notify  func(title, message string, icon any) error
	enabled bool
	mu      sync.Mutex
	decided bool
}

// NewDesktopNotifier creates a notifier; enabled=false denies permission.
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{notify: beeep.Notify, enabled: enabled}
}

// Permission reports the current state.
func (d *DesktopNotifier) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.decided {
		return PermissionDefault
	}
	if d.enabled {
		return PermissionGranted
	}
	return PermissionDenied
}

// RequestPermission settles the permission from the configured setting.
func (d *DesktopNotifier) RequestPermission() Permission {
	d.mu.Lock()
	d.decided = true
	d.mu.Unlock()
	return d.Permission()
}

// Show displays a notification.
func (d *DesktopNotifier) Show(title, body string) error {
	return d.notify(title, body, "")
}
