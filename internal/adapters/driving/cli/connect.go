package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/appscope-labs/appscope-cli/internal/adapters/driving/callback"
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

var connectTimeout time.Duration

var connectCmd = &cobra.Command{
	Use:   "connect <platform>",
	Short: "Connect an account via OAuth",
	Long: `Connect an account by authorizing AppScope in your browser.

A local listener receives the OAuth redirect; the authorization code is
exchanged and the account is stored for scanning.

Supported platforms: google, microsoft, github.

Examples:
  appscope connect github
  appscope connect google --timeout 2m`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().DurationVar(
		&connectTimeout, "timeout", 5*time.Minute, "How long to wait for the browser authorization")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if accountService == nil {
		return errors.New("account service not configured")
	}

	platform, err := domain.ParsePlatformType(args[0])
	if err != nil {
		return err
	}

	flow, err := accountService.StartAuthorization(platform)
	if err != nil {
		return err
	}

	// Bind before opening the browser so a busy port fails here, not
	// after the user has authorized.
	listener, err := callback.Listen(flow.RedirectPort)
	if err != nil {
		return err
	}
	defer listener.Close()
	listener.Start()

	cmd.Printf("Opening your browser to authorize AppScope...\n\n")
	cmd.Printf("If it does not open automatically, visit:\n  %s\n\n", flow.AuthURL)
	if err := callback.OpenBrowser(flow.AuthURL); err != nil {
		logger.Warn("open browser: %v", err)
	}

	result, err := listener.Wait(connectTimeout)
	if err != nil {
		return err
	}
	if result.Platform != string(platform) {
		logger.Warn("callback platform %q does not match requested %q", result.Platform, platform)
	}

	account, err := accountService.CompleteAuthorization(context.Background(), platform, result.Code)
	if err != nil {
		return err
	}

	cmd.Printf("Connected %s account %s\n", account.Platform, account.Email)
	cmd.Printf("Run 'appscope scan' to discover apps with access to it.\n")
	return nil
}
