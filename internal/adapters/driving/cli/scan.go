package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan [account-id]",
	Short: "Scan accounts for third-party app access",
	Long: `Discover third-party apps with access to your connected accounts
and classify each grant by risk.

With no arguments, every connected account is scanned.

Examples:
  appscope scan
  appscope scan 4f9c2d1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanService == nil || accountService == nil {
		return errors.New("scan service not configured")
	}

	ctx := context.Background()

	var ids []string
	if len(args) == 1 {
		ids = args
	} else {
		accounts, err := accountService.List(ctx)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			cmd.Println("No accounts connected. Run 'appscope connect <platform>' to add one.")
			return nil
		}
		for _, a := range accounts {
			ids = append(ids, a.ID)
		}
	}

	var failed int
	for _, id := range ids {
		summary, err := scanService.ScanAccount(ctx, id)
		if err != nil {
			cmd.PrintErrf("scan %s: %v\n", id, err)
			failed++
			continue
		}
		printSummary(cmd, summary)
	}

	if failed > 0 {
		return errors.New("some scans failed")
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary domain.ScanSummary) {
	cmd.Printf("Account %s: %d apps found (%d high, %d medium, %d low risk)\n",
		summary.AccountID, summary.AppsFound,
		summary.HighRiskCount, summary.MediumRiskCount, summary.LowRiskCount)
}
