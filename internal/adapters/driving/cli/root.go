// Package cli implements the command line interface for AppScope.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driving"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services are injected by main before Execute runs. Commands guard
// against nil so help and version work without full wiring.
var (
	accountService  driving.AccountService
	scanService     driving.ScanService
	settingsService driving.SettingsService
	clientConfig    clientConfigWriter
)

// clientConfigWriter is the slice of the config store the CLI needs
// for credential management.
type clientConfigWriter interface {
	SetOAuthClient(platform domain.PlatformType, creds driven.ClientCredentials) error
	Path() string
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "appscope",
	Short: "Audit third-party app access to your accounts",
	Long: `AppScope connects to your Google, Microsoft, and GitHub accounts,
discovers which third-party applications hold access to them, and
classifies each grant by risk.

Start by registering OAuth client credentials for a platform, then
connect an account and scan it:

  appscope config set-client github --client-id "xxx"
  appscope connect github
  appscope scan`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// SetServices injects the service implementations used by commands.
func SetServices(
	accounts driving.AccountService,
	scans driving.ScanService,
	settings driving.SettingsService,
	config clientConfigWriter,
) {
	accountService = accounts
	scanService = scans
	settingsService = settings
	clientConfig = config
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
