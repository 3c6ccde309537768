// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// appDirName matches the directory used by the desktop monitor so both share a config file.
const appDirName = "zai-usage-monitor"

// Settings holds process-level settings read from .env files and the environment.
// The persisted, user-editable Config lives in config.json and is handled by Store.
type Settings struct {
	ConfigPath        string
	DatabasePath      string
	LogPath           string
	LogLevel          string
	RequestTimeout    time.Duration
	Notifications     bool
	WarningThreshold  float64
	CriticalThreshold float64
	Overrides         Overrides
}

// Overrides are environment values applied on top of the persisted Config.
type Overrides struct {
	AuthToken              string
	BaseURL                string
	RefreshIntervalMinutes int
}

// Default values
const (
	defaultRequestTimeout    = 30 * time.Second
	defaultWarningThreshold  = 70.0
	defaultCriticalThreshold = 90.0
)

// Load reads settings from .env files and environment variables.
func Load() (*Settings, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dir := defaultDir()
	s := &Settings{
		ConfigPath:        getEnvString("ZUM_CONFIG_PATH", filepath.Join(dir, "config.json")),
		DatabasePath:      getEnvString("ZUM_DATABASE_PATH", filepath.Join(dir, "fetches.db")),
		LogPath:           getEnvString("ZUM_LOG_PATH", filepath.Join(dir, "zum.log")),
		LogLevel:          getEnvString("ZUM_LOG_LEVEL", "info"),
		RequestTimeout:    getEnvDuration("ZUM_REQUEST_TIMEOUT", defaultRequestTimeout),
		Notifications:     getEnvBool("ZUM_NOTIFICATIONS", true),
		WarningThreshold:  getEnvFloat("ZUM_ALERT_WARNING", defaultWarningThreshold),
		CriticalThreshold: getEnvFloat("ZUM_ALERT_CRITICAL", defaultCriticalThreshold),
		Overrides: Overrides{
			AuthToken: strings.TrimSpace(os.Getenv("ZAI_AUTH_TOKEN")),
			BaseURL:   strings.TrimSpace(os.Getenv("ZAI_BASE_URL")),
		},
	}

	if v := os.Getenv("ZAI_REFRESH_INTERVAL"); v != "" {
		n, err := ParseInterval(v)
		if err != nil {
			return nil, err
		}
		s.Overrides.RefreshIntervalMinutes = n
	}

	if s.CriticalThreshold < s.WarningThreshold {
		s.CriticalThreshold = s.WarningThreshold
	}

	for _, p := range []string{s.ConfigPath, s.DatabasePath, s.LogPath} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appDirName, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".zum", ".env"))
	}

	return paths
}

// defaultDir returns the per-user directory holding config.json, the fetch log and the log file.
func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDirName)
	}
	return "."
}

// DefaultConfigPath returns the location of config.json when ZUM_CONFIG_PATH is unset.
func DefaultConfigPath() string {
	return filepath.Join(defaultDir(), "config.json")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 100 {
			return f
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
