package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting.

Keys:
  notifications_enabled  true/false
  auto_scan_interval     hours between automatic rescans, 0 to disable
  theme                  system, light, or dark
  sync_enabled           true/false`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get(context.Background())
	if err != nil {
		return err
	}

	cmd.Printf("%s = %t\n", domain.SettingNotificationsEnabled, settings.NotificationsEnabled)
	cmd.Printf("%s = %d\n", domain.SettingAutoScanInterval, settings.AutoScanInterval)
	cmd.Printf("%s = %s\n", domain.SettingTheme, settings.Theme)
	cmd.Printf("%s = %t\n", domain.SettingSyncEnabled, settings.SyncEnabled)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	ctx := context.Background()
	settings, err := settingsService.Get(ctx)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	switch key {
	case domain.SettingNotificationsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, domain.ErrInvalidInput)
		}
		settings.NotificationsEnabled = b
	case domain.SettingAutoScanInterval:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s expects a non-negative number of hours: %w", key, domain.ErrInvalidInput)
		}
		settings.AutoScanInterval = n
	case domain.SettingTheme:
		switch value {
		case "system", "light", "dark":
			settings.Theme = value
		default:
			return fmt.Errorf("%s expects system, light, or dark: %w", key, domain.ErrInvalidInput)
		}
	case domain.SettingSyncEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, domain.ErrInvalidInput)
		}
		settings.SyncEnabled = b
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	if err := settingsService.Update(ctx, settings); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}
