package main

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-tui/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-time setup",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// Setup edits the file itself, so environment overrides are not applied.
	store := config.NewStore(appSettings.ConfigPath, config.Overrides{})
	cfg, err := store.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Existing config unreadable (%v), starting from defaults.\n", err)
		}
		cfg = config.Default()
	}

	token := cfg.AuthToken
	baseURL := cfg.BaseURL
	interval := strconv.Itoa(cfg.RefreshIntervalMinutes)

	form := setupForm(&token, &baseURL, &interval, cfg.HasToken())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	next, err := setupResult(cfg, token, baseURL, interval)
	if err != nil {
		return err
	}
	if err := store.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved to %s\n", store.Path())
	fmt.Fprintln(out, "Run `zum` to open the dashboard or `zum status` for a one-shot check.")
	return nil
}

func setupForm(token, baseURL, interval *string, hasToken bool) *huh.Form {
	tokenDesc := "Find it in your Z.ai account under API keys."
	if hasToken {
		tokenDesc = "Leave empty to keep the saved token."
	}

	urls := config.KnownBaseURLs
	if *baseURL != "" && !slices.Contains(urls, *baseURL) {
		urls = append([]string{*baseURL}, urls...)
	}
	options := make([]huh.Option[string], 0, len(urls))
	for _, u := range urls {
		options = append(options, huh.NewOption(u, u))
	}

	saved := *token
	*token = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Value(token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" && saved == "" {
						return errors.New("a token is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Endpoint").
				Options(options...).
				Value(baseURL),
			huh.NewInput().
				Title("Refresh interval (minutes)").
				Description(fmt.Sprintf("Between %d and %d.", config.MinRefreshInterval, config.MaxRefreshInterval)).
				Value(interval).
				Validate(func(s string) error {
					_, err := config.ParseInterval(s)
					return err
				}),
		),
	).WithShowHelp(true).
		WithTheme(huh.ThemeCharm())
}

// setupResult merges the form answers into prev. An empty token keeps the saved one.
func setupResult(prev config.Config, token, baseURL, interval string) (config.Config, error) {
	minutes, err := config.ParseInterval(interval)
	if err != nil {
		return config.Config{}, err
	}
	next := config.Config{
		AuthToken:              strings.TrimSpace(token),
		BaseURL:                strings.TrimSpace(baseURL),
		RefreshIntervalMinutes: minutes,
	}
	if next.AuthToken == "" {
		next.AuthToken = prev.AuthToken
	}
	if next.BaseURL == "" {
		next.BaseURL = config.DefaultBaseURL
	}
	return next, next.Validate()
}
