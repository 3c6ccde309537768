package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/services/scheduler"
)

type idleTicker struct{ ch chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (t idleTicker) Stop()               {}

func newTestManager(t *testing.T, fetch quota.FetchFunc) *services.Manager {
	t.Helper()
	dir := t.TempDir()
	settings := &config.Settings{
		ConfigPath:        filepath.Join(dir, "config.json"),
		DatabasePath:      filepath.Join(dir, "fetches.db"),
		RequestTimeout:    time.Second,
		WarningThreshold:  70,
		CriticalThreshold: 90,
	}
	mgr, err := services.NewManager(settings, services.Options{
		Fetcher:      fetch,
		NewTicker:    func(time.Duration) scheduler.Ticker { return idleTicker{ch: make(chan time.Time)} },
		DisableWatch: true,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func okFetch(_ context.Context, _ config.Config) (*models.Snapshot, error) {
	return &models.Snapshot{Timestamp: time.Now().Unix()}, nil
}

func TestTickCmd(t *testing.T) {
	msg := tickCmd(time.Millisecond)()
	if _, ok := msg.(TickMsg); !ok {
		t.Errorf("tickCmd produced %T, want TickMsg", msg)
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
}

func TestNotifyCommands(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", NotifySuccess, NotificationSuccess},
		{"Error", NotifyError, NotificationError},
		{"Warning", NotifyWarning, NotificationWarning},
		{"Info", NotifyInfo, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := tt.fn("msg")().(AddNotificationMsg)
			if !ok {
				t.Fatal("expected AddNotificationMsg")
			}
			if msg.Type != tt.want {
				t.Errorf("Type = %v, want %v", msg.Type, tt.want)
			}
			if msg.Message != "msg" || msg.Duration <= 0 {
				t.Errorf("got %+v", msg)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	msg, ok := clearNotificationCmd("n1", time.Millisecond)().(RemoveNotificationMsg)
	if !ok || msg.ID != "n1" {
		t.Errorf("got %+v", msg)
	}
}

func TestWaitForServiceEventCmd(t *testing.T) {
	ch := make(chan services.ServiceEvent, 1)
	ch <- services.RefreshingEvent{Trigger: "timer"}

	msg, ok := waitForServiceEventCmd(ch)().(ServiceEventMsg)
	if !ok {
		t.Fatal("expected ServiceEventMsg")
	}
	if _, ok := msg.Event.(services.RefreshingEvent); !ok {
		t.Errorf("event = %T", msg.Event)
	}

	close(ch)
	if got := waitForServiceEventCmd(ch)(); got != nil {
		t.Errorf("closed channel should yield nil, got %T", got)
	}
}

func TestSaveConfigCmd(t *testing.T) {
	mgr := newTestManager(t, okFetch)

	cfg := config.Config{AuthToken: "tok", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: 10}
	msg, ok := saveConfigCmd(mgr, cfg)().(ConfigSavedMsg)
	if !ok {
		t.Fatal("expected ConfigSavedMsg")
	}
	if msg.Error != nil {
		t.Fatalf("save failed: %v", msg.Error)
	}
	if got := mgr.State().Config(); got.RefreshIntervalMinutes != 10 {
		t.Errorf("active interval = %d, want 10", got.RefreshIntervalMinutes)
	}

	bad := cfg
	bad.RefreshIntervalMinutes = 0
	msg = saveConfigCmd(mgr, bad)().(ConfigSavedMsg)
	if msg.Error == nil {
		t.Error("invalid interval should fail to save")
	}
}

func TestTestConfigCmd(t *testing.T) {
	mgr := newTestManager(t, okFetch)

	cfg := config.Config{AuthToken: "tok", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: 5}
	msg, ok := testConfigCmd(mgr, cfg, 5*time.Second)().(ConfigSavedMsg)
	if !ok {
		t.Fatal("expected ConfigSavedMsg")
	}
	if !msg.Test || msg.Error != nil || msg.Result == nil {
		t.Fatalf("got %+v", msg)
	}
	if !msg.Result.Skipped && msg.Result.Mode != models.ModeReady {
		t.Errorf("Mode = %v, want ready", msg.Result.Mode)
	}
}

func TestLoadFetchLogCmd(t *testing.T) {
	mgr := newTestManager(t, okFetch)

	msg, ok := loadFetchLogCmd(mgr)().(FetchLogLoadedMsg)
	if !ok {
		t.Fatal("expected FetchLogLoadedMsg")
	}
	if msg.Error != nil {
		t.Fatalf("load failed: %v", msg.Error)
	}
	if len(msg.Attempts) != 0 || msg.Stats.Total != 0 {
		t.Errorf("fresh log should be empty, got %d attempts", len(msg.Attempts))
	}
}
