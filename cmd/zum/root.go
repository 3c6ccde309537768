package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-tui/internal/app"
	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/services"
	"github.com/j-veylop/zai-usage-tui/internal/ui/tabs/chart"
	"github.com/j-veylop/zai-usage-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/zai-usage-tui/internal/ui/tabs/details"
	"github.com/j-veylop/zai-usage-tui/internal/ui/tabs/info"
	"github.com/j-veylop/zai-usage-tui/internal/ui/tabs/settings"
)

var (
	flagConfig   string
	flagLogLevel string

	// loaded by the persistent pre-run of every command
	appSettings *config.Settings
	logFile     io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "zum",
	Short: "Z.ai usage monitor",
	Long: `zum shows your Z.ai (or BigModel) plan usage in the terminal: token and MCP
quota limits, per-model and per-tool usage, and hourly call and token charts.
It polls the monitor API on an interval and raises desktop alerts when a
limit crosses the warning or critical threshold.

Keys: 1-5 or tab to switch tabs, r to refresh, ? for help, q to quit.

Environment:
  ZAI_AUTH_TOKEN, ZAI_BASE_URL, ZAI_REFRESH_INTERVAL   override the saved config
  ZUM_CONFIG_PATH, ZUM_DATABASE_PATH, ZUM_LOG_PATH     file locations
  ZUM_LOG_LEVEL, ZUM_REQUEST_TIMEOUT, ZUM_NOTIFICATIONS
  ZUM_ALERT_WARNING, ZUM_ALERT_CRITICAL                alert thresholds (percent)`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadSettings,
	PersistentPostRunE: closeLog,
	RunE:               runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.json (default: ZUM_CONFIG_PATH or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadSettings reads .env files and the environment, applies flags and
// points the logger at the log file.
func loadSettings(_ *cobra.Command, _ []string) error {
	s, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagConfig != "" {
		s.ConfigPath = flagConfig
	}
	if flagLogLevel != "" {
		s.LogLevel = flagLogLevel
	}
	appSettings = s

	f, err := os.OpenFile(s.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		// Logging to stderr would corrupt the TUI.
		logger.Init(io.Discard, logger.ParseLevel(s.LogLevel))
		return nil
	}
	logFile = f
	logger.Init(f, logger.ParseLevel(s.LogLevel))
	return nil
}

func closeLog(_ *cobra.Command, _ []string) error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

// runTUI builds the service manager and runs the Bubble Tea program until quit.
func runTUI(_ *cobra.Command, _ []string) error {
	mgr, err := services.NewManager(appSettings, services.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			logger.Warn("Error closing services", "error", closeErr)
		}
	}()

	model := app.NewModel(mgr)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		details.New(state),
		chart.New(state),
		settings.New(state),
		info.New(state, appSettings),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quitChan)

	refreshChan := make(chan os.Signal, 1)
	if len(refreshSignals) > 0 {
		signal.Notify(refreshChan, refreshSignals...)
		defer signal.Stop(refreshChan)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-quitChan:
				p.Send(tea.Quit())
			case <-refreshChan:
				mgr.RequestRefresh()
			case <-done:
				return
			}
		}
	}()

	mgr.Start()
	logger.Info("zum started", "config", appSettings.ConfigPath, "interval", mgr.PollInterval())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
