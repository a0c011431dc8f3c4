package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

var (
	configClientID     string
	configClientSecret string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage OAuth client credentials",
}

var configSetClientCmd = &cobra.Command{
	Use:   "set-client <platform>",
	Short: "Store OAuth client credentials for a platform",
	Long: `Store the OAuth client ID and secret created in the platform's
developer console. The secret is prompted for when not given by flag,
so it stays out of shell history.

Credentials can also be supplied per run via environment variables,
e.g. APPSCOPE_GITHUB_CLIENT_ID and APPSCOPE_GITHUB_CLIENT_SECRET.

Examples:
  appscope config set-client github --client-id "xxx"
  appscope config set-client google --client-id "xxx" --client-secret "yyy"`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetClient,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if clientConfig == nil {
			return errors.New("config store not configured")
		}
		cmd.Println(clientConfig.Path())
		return nil
	},
}

func init() {
	configSetClientCmd.Flags().StringVar(&configClientID, "client-id", "", "OAuth client ID")
	configSetClientCmd.Flags().StringVar(&configClientSecret, "client-secret", "", "OAuth client secret (prompted if omitted)")

	configCmd.AddCommand(configSetClientCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSetClient(cmd *cobra.Command, args []string) error {
	if clientConfig == nil {
		return errors.New("config store not configured")
	}

	platform, err := domain.ParsePlatformType(args[0])
	if err != nil {
		return err
	}

	if configClientID == "" {
		return fmt.Errorf("--client-id is required: %w", domain.ErrInvalidInput)
	}

	secret := configClientSecret
	if secret == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		cmd.Printf("Client secret for %s (leave empty for public clients): ", platform)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.Println()
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		secret = strings.TrimSpace(string(raw))
	}

	if err := clientConfig.SetOAuthClient(platform, driven.ClientCredentials{
		ClientID:     configClientID,
		ClientSecret: secret,
	}); err != nil {
		return err
	}

	cmd.Printf("Stored OAuth client for %s in %s\n", platform, clientConfig.Path())
	return nil
}
