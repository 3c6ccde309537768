package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/logger"
)

// Known endpoints offered by the settings form.
const (
	DefaultBaseURL  = "https://api.z.ai/api/anthropic"
	BigModelBaseURL = "https://open.bigmodel.cn/api/anthropic"
)

// KnownBaseURLs lists the endpoints the settings form cycles through.
var KnownBaseURLs = []string{DefaultBaseURL, BigModelBaseURL}

// Refresh interval bounds, in minutes.
const (
	MinRefreshInterval     = 1
	MaxRefreshInterval     = 60
	DefaultRefreshInterval = 5
)

// ErrInvalidInterval is returned when a refresh interval is outside [1, 60] minutes.
var ErrInvalidInterval = fmt.Errorf("refresh interval must be between %d and %d minutes",
	MinRefreshInterval, MaxRefreshInterval)

// Config is the user-editable configuration persisted as config.json.
type Config struct {
	AuthToken              string `json:"auth_token"`
	BaseURL                string `json:"base_url"`
	RefreshIntervalMinutes int    `json:"refresh_interval_minutes"`
}

// Default returns the configuration used when nothing has been saved yet.
func Default() Config {
	return Config{
		BaseURL:                DefaultBaseURL,
		RefreshIntervalMinutes: DefaultRefreshInterval,
	}
}

// HasToken reports whether an auth token is configured.
func (c Config) HasToken() bool {
	return strings.TrimSpace(c.AuthToken) != ""
}

// Interval returns the poll period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// MaskedToken returns the token with everything but its edges hidden.
func (c Config) MaskedToken() string {
	t := c.AuthToken
	switch {
	case t == "":
		return "(not set)"
	case len(t) > 12:
		return t[:6] + "..." + t[len(t)-4:]
	case len(t) > 4:
		return t[:2] + "..."
	default:
		return "****"
	}
}

// Validate checks the fields a user can type in.
func (c Config) Validate() error {
	if err := ValidateInterval(c.RefreshIntervalMinutes); err != nil {
		return err
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	return nil
}

// ValidateInterval enforces the refresh interval bounds at input time.
func ValidateInterval(minutes int) error {
	if minutes < MinRefreshInterval || minutes > MaxRefreshInterval {
		return ErrInvalidInterval
	}
	return nil
}

// ParseInterval parses user input into a bounded interval in minutes.
func ParseInterval(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidInterval
	}
	if err := ValidateInterval(n); err != nil {
		return 0, err
	}
	return n, nil
}

// IOError reports a failure reading or writing config.json.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("config: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store loads and saves Config as pretty-printed JSON.
type Store struct {
	path      string
	overrides Overrides
	mu        sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, overrides Overrides) *Store {
	return &Store{path: path, overrides: overrides}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted config with environment overrides applied.
// It never fails: read or parse errors are logged and defaults are used.
func (s *Store) Load() Config {
	cfg, err := s.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No saved config, using defaults", "path", s.path)
		} else {
			logger.Warn("Failed to load config, using defaults", "path", s.path, "error", err)
		}
		cfg = Default()
	}
	return s.applyOverrides(cfg)
}

// Read returns the persisted config without overrides, reporting any error.
func (s *Store) Read() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, &IOError{Op: "read", Path: s.path, Err: err}
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &IOError{Op: "parse", Path: s.path, Err: err}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if ValidateInterval(cfg.RefreshIntervalMinutes) != nil {
		cfg.RefreshIntervalMinutes = DefaultRefreshInterval
	}
	return cfg, nil
}

// Save validates cfg and writes it atomically.
func (s *Store) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg = s.persistable(cfg)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(filepath.Dir(s.path)); err != nil {
		return &IOError{Op: "mkdir", Path: s.path, Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	logger.Info("Config saved", "path", s.path)
	return nil
}

// persistable swaps fields that only echo an environment override for the
// value already on disk, so overridden values (tokens in particular) are
// never written to the file.
func (s *Store) persistable(cfg Config) Config {
	o := s.overrides
	if o == (Overrides{}) {
		return cfg
	}
	onDisk, err := s.Read()
	if err != nil {
		onDisk = Default()
	}
	if o.AuthToken != "" && cfg.AuthToken == o.AuthToken {
		cfg.AuthToken = onDisk.AuthToken
	}
	if o.BaseURL != "" && cfg.BaseURL == o.BaseURL {
		cfg.BaseURL = onDisk.BaseURL
	}
	if o.RefreshIntervalMinutes != 0 && cfg.RefreshIntervalMinutes == o.RefreshIntervalMinutes {
		cfg.RefreshIntervalMinutes = onDisk.RefreshIntervalMinutes
	}
	return cfg
}

// WithOverrides applies the environment overrides to cfg.
func (s *Store) WithOverrides(cfg Config) Config {
	return s.applyOverrides(cfg)
}

func (s *Store) applyOverrides(cfg Config) Config {
	if s.overrides.AuthToken != "" {
		cfg.AuthToken = s.overrides.AuthToken
	}
	if s.overrides.BaseURL != "" {
		cfg.BaseURL = s.overrides.BaseURL
	}
	if s.overrides.RefreshIntervalMinutes != 0 {
		cfg.RefreshIntervalMinutes = s.overrides.RefreshIntervalMinutes
	}
	return cfg
}
