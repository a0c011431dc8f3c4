package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <app-id>",
	Short: "Revoke an app's access",
	Long: `Revoke a discovered app's access to its account.

Where the platform offers a revocation API the grant is removed
directly. Platforms without one (Google, Microsoft, and GitHub OAuth
grants) return a link to their management page so you can finish the
revocation there.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevoke,
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}

func runRevoke(cmd *cobra.Command, args []string) error {
	if scanService == nil {
		return errors.New("scan service not configured")
	}

	manualURL, err := scanService.Revoke(context.Background(), args[0])
	if err != nil {
		return err
	}

	if manualURL != "" {
		cmd.Println("This platform requires manual revocation. Open:")
		cmd.Printf("  %s\n", manualURL)
		return nil
	}

	cmd.Println("Access revoked.")
	return nil
}
