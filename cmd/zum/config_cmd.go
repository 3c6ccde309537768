package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-tui/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.NewStore(appSettings.ConfigPath, appSettings.Overrides).Load()
		writeConfig(cmd.OutOrStdout(), appSettings, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func writeConfig(w io.Writer, s *config.Settings, cfg config.Config) {
	fmt.Fprintf(w, "Config file:      %s\n", s.ConfigPath)
	fmt.Fprintf(w, "Database:         %s\n", s.DatabasePath)
	fmt.Fprintf(w, "Log file:         %s (%s)\n", s.LogPath, s.LogLevel)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "API token:        %s%s\n", cfg.MaskedToken(), overridden(s.Overrides.AuthToken != ""))
	fmt.Fprintf(w, "Base URL:         %s%s\n", cfg.BaseURL, overridden(s.Overrides.BaseURL != ""))
	fmt.Fprintf(w, "Refresh interval: %d min%s\n", cfg.RefreshIntervalMinutes, overridden(s.Overrides.RefreshIntervalMinutes != 0))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Request timeout:  %s\n", s.RequestTimeout)
	fmt.Fprintf(w, "Notifications:    %t\n", s.Notifications)
	fmt.Fprintf(w, "Alert thresholds: warning %.0f%%, critical %.0f%%\n", s.WarningThreshold, s.CriticalThreshold)
}

func overridden(yes bool) string {
	if yes {
		return " (from environment)"
	}
	return ""
}
