package configwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
)

func TestWatcher_ReloadsOnExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := config.NewStore(path, config.Overrides{BaseURL: config.BigModelBaseURL})

	got := make(chan config.Config, 4)
	w, err := newWatcher(store, func(c config.Config) { got <- c }, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("newWatcher() error = %v", err)
	}
	defer w.Close()

	data := `{"auth_token":"edited","base_url":"https://api.z.ai/api/anthropic","refresh_interval_minutes":3}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.AuthToken != "edited" || c.RefreshIntervalMinutes != 3 {
			t.Errorf("reloaded config = %+v", c)
		}
		if c.BaseURL != config.BigModelBaseURL {
			t.Errorf("override not applied, BaseURL = %q", c.BaseURL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after writing the config file")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := config.NewStore(filepath.Join(dir, "config.json"), config.Overrides{})

	got := make(chan config.Config, 1)
	w, err := newWatcher(store, func(c config.Config) { got <- c }, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("newWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		t.Errorf("unexpected reload: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"), config.Overrides{})
	w, err := New(store, func(config.Config) {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
