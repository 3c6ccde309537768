package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
	"github.com/j-veylop/zai-usage-tui/internal/services/quota"
	"github.com/j-veylop/zai-usage-tui/internal/shaper"
)

var flagJSON bool

var errNoToken = errors.New("no API token configured; run `zum setup` or set ZAI_AUTH_TOKEN")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch usage once and print the quota summary",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := config.NewStore(appSettings.ConfigPath, appSettings.Overrides).Load()
	if !cfg.HasToken() {
		return errNoToken
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), appSettings.RequestTimeout)
	defer cancel()

	snap, err := quota.NewClient(nil).FetchSnapshot(ctx, cfg)
	if err != nil {
		if quota.Classify(err) == quota.CredentialError {
			return fmt.Errorf("token rejected by %s: %w", cfg.BaseURL, err)
		}
		return err
	}

	if flagJSON {
		return writeStatusJSON(cmd.OutOrStdout(), snap)
	}
	writeStatus(cmd.OutOrStdout(), snap, time.Now())
	return nil
}

type statusOutput struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Summary  string           `json:"summary"`
}

func writeStatusJSON(w io.Writer, snap *models.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(statusOutput{Summary: shaper.TraySummary(snap), Snapshot: snap})
}

func writeStatus(w io.Writer, snap *models.Snapshot, now time.Time) {
	fmt.Fprintln(w, shaper.TraySummary(snap))
	if len(snap.QuotaLimits) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, q := range snap.QuotaLimits {
		line := fmt.Sprintf("  %-22s %7s", q.Kind, shaper.FormatPercent(q.Percentage))
		if q.NextResetTime != nil {
			line += "  resets " + shaper.FormatResetTime(q.NextResetTime, now)
		}
		fmt.Fprintln(w, line)
	}
}
