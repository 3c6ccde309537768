package settings

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
)

func newModel(t *testing.T, cfg config.Config) *Model {
	t.Helper()
	state := app.NewState()
	state.SetConfigPath("/tmp/zum/config.json")
	state.SetView(quota.StateView{Mode: models.ModeReady, Config: cfg}, time.Minute)
	m := New(state)
	m.SetSize(100, 40)
	return m
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func send(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestNew_LoadsConfig(t *testing.T) {
	m := newModel(t, config.Config{AuthToken: "secret", BaseURL: config.BigModelBaseURL, RefreshIntervalMinutes: 15})
	cfg, err := m.Config()
	if err != nil {
		t.Fatalf("Config() error: %v", err)
	}
	want := config.Config{AuthToken: "secret", BaseURL: config.BigModelBaseURL, RefreshIntervalMinutes: 15}
	if cfg != want {
		t.Errorf("Config() = %+v, want %+v", cfg, want)
	}
	if !m.CapturingInput() {
		t.Error("token field should start focused")
	}
}

func TestNew_DefaultsForEmptyConfig(t *testing.T) {
	m := newModel(t, config.Config{})
	cfg, err := m.Config()
	if err != nil {
		t.Fatalf("Config() error: %v", err)
	}
	if cfg.BaseURL != config.DefaultBaseURL || cfg.RefreshIntervalMinutes != config.DefaultRefreshInterval {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestTokenIsMasked(t *testing.T) {
	m := newModel(t, config.Config{AuthToken: "supersecret"})
	if strings.Contains(ansi.Strip(m.View()), "supersecret") {
		t.Error("token should be masked")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if !strings.Contains(ansi.Strip(m.View()), "supersecret") {
		t.Error("ctrl+t should reveal the token")
	}
}

func TestTypingMarksDirtyAndKeepsValue(t *testing.T) {
	m := newModel(t, config.Config{})
	typeText(m, "tok")
	if !m.dirty {
		t.Error("typing should mark the form dirty")
	}

	m.state.SetView(quota.StateView{Config: config.Config{AuthToken: "other"}}, time.Minute)
	m.Update(app.StateSyncedMsg{})
	cfg, _ := m.Config()
	if cfg.AuthToken != "tok" {
		t.Errorf("sync should not overwrite edits, token = %q", cfg.AuthToken)
	}
}

func TestSyncReloadsCleanForm(t *testing.T) {
	m := newModel(t, config.Config{AuthToken: "a"})
	m.state.SetView(quota.StateView{Config: config.Config{AuthToken: "b", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: 7}}, time.Minute)
	m.Update(app.StateSyncedMsg{})
	cfg, _ := m.Config()
	if cfg.AuthToken != "b" || cfg.RefreshIntervalMinutes != 7 {
		t.Errorf("clean form should follow the active config, got %+v", cfg)
	}
}

func TestInvalidIntervalBlocksSave(t *testing.T) {
	m := newModel(t, config.Config{AuthToken: "tok"})
	m.setFocus(fieldInterval)
	m.inputs[fieldInterval].SetValue("61")
	m.setFocus(fieldSave)

	if cmd := send(m, tea.KeyEnter); cmd != nil {
		t.Error("save with invalid interval should not emit a command")
	}
	if !m.status.isError || !strings.Contains(m.status.text, "between 1 and 60") {
		t.Errorf("status = %+v", m.status)
	}
}

func TestSaveAndTestEmitMessages(t *testing.T) {
	for _, tt := range []struct {
		name string
		f    field
		test bool
	}{
		{"save", fieldSave, false},
		{"test", fieldTest, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t, config.Config{AuthToken: "tok", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: 5})
			m.setFocus(tt.f)
			cmd := send(m, tea.KeyEnter)
			if cmd == nil {
				t.Fatal("enter on a button should emit a command")
			}
			msg, ok := cmd().(app.SaveConfigMsg)
			if !ok {
				t.Fatalf("got %T, want SaveConfigMsg", cmd())
			}
			if msg.Test != tt.test || msg.Config.AuthToken != "tok" {
				t.Errorf("msg = %+v", msg)
			}
			if !m.status.pending {
				t.Error("status should be pending until the result arrives")
			}
		})
	}
}

func TestHandleSaved(t *testing.T) {
	tests := []struct {
		name    string
		msg     app.ConfigSavedMsg
		want    string
		isError bool
	}{
		{"io error", app.ConfigSavedMsg{Error: errors.New("read-only")}, "Save failed: read-only", true},
		{"saved", app.ConfigSavedMsg{}, "Saved. Fetching", false},
		{"ok", app.ConfigSavedMsg{Test: true, Result: &quota.Result{Mode: models.ModeReady}}, "Connection OK", false},
		{"queued", app.ConfigSavedMsg{Test: true, Result: &quota.Result{Skipped: true}}, "queued", false},
		{"rejected", app.ConfigSavedMsg{Test: true, Result: &quota.Result{Mode: models.ModeNeedsConfig, Err: errors.New("HTTP 401")}}, "test failed: HTTP 401", true},
		{"no token", app.ConfigSavedMsg{Test: true, Result: &quota.Result{Mode: models.ModeNeedsConfig}}, "no API token", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t, config.Config{})
			m.status.pending = true
			m.Update(tt.msg)
			if !strings.Contains(m.status.text, tt.want) || m.status.isError != tt.isError || m.status.pending {
				t.Errorf("status = %+v, want %q (error=%v)", m.status, tt.want, tt.isError)
			}
		})
	}
}

func TestCycleBaseURL(t *testing.T) {
	m := newModel(t, config.Config{BaseURL: config.DefaultBaseURL})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := m.inputs[fieldBaseURL].Value(); got != config.BigModelBaseURL {
		t.Errorf("after cycle = %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := m.inputs[fieldBaseURL].Value(); got != config.DefaultBaseURL {
		t.Errorf("cycle should wrap, got %q", got)
	}

	m.inputs[fieldBaseURL].SetValue("https://proxy.example.com")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := m.inputs[fieldBaseURL].Value(); got != config.KnownBaseURLs[0] {
		t.Errorf("unknown URL should cycle to the first known one, got %q", got)
	}
}

func TestFocusNavigation(t *testing.T) {
	m := newModel(t, config.Config{})
	send(m, tea.KeyDown)
	send(m, tea.KeyDown)
	if m.focus != fieldInterval {
		t.Fatalf("focus = %v, want interval", m.focus)
	}
	send(m, tea.KeyEsc)
	if m.focus != fieldSave || m.CapturingInput() {
		t.Error("esc should leave the text fields")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.focus != fieldTest {
		t.Errorf("right should move to the next button, got %v", m.focus)
	}
	send(m, tea.KeyUp)
	if m.focus != fieldSave {
		t.Errorf("up from Test should go to Save, got %v", m.focus)
	}
}

func TestResetDiscardsEdits(t *testing.T) {
	m := newModel(t, config.Config{AuthToken: "keep", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: 5})
	m.inputs[fieldToken].SetValue("changed")
	m.dirty = true
	m.setFocus(fieldReset)
	send(m, tea.KeyEnter)
	cfg, _ := m.Config()
	if cfg.AuthToken != "keep" || m.dirty {
		t.Errorf("reset should restore the active config, got %+v", cfg)
	}
}

func TestView(t *testing.T) {
	m := newModel(t, config.Config{})
	view := ansi.Strip(m.View())
	for _, want := range []string{"Settings", "/tmp/zum/config.json", "API Token", "Base URL", "Refresh interval", "Save & Test"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
