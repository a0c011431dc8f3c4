package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

var (
	appsAccountID string
	appsRisk      string
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List discovered apps",
	Long: `List third-party apps discovered by previous scans, ordered by
descending risk.

Examples:
  appscope apps
  appscope apps --risk high
  appscope apps --account 4f9c2d1e-...`,
	RunE: runApps,
}

func init() {
	appsCmd.Flags().StringVar(&appsAccountID, "account", "", "Limit to one account")
	appsCmd.Flags().StringVar(&appsRisk, "risk", "", "Limit to one risk level (info, low, medium, high, critical)")
	rootCmd.AddCommand(appsCmd)
}

func runApps(cmd *cobra.Command, _ []string) error {
	if scanService == nil {
		return errors.New("scan service not configured")
	}

	apps, err := scanService.Apps(context.Background(), appsAccountID, domain.RiskLevel(appsRisk))
	if err != nil {
		return err
	}

	if len(apps) == 0 {
		cmd.Println("No apps found. Run 'appscope scan' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRISK\tPERMISSIONS\tFACTORS")
	for _, a := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.RiskLevel,
			strings.Join(a.Permissions, ", "),
			strings.Join(a.RiskFactors, "; "))
	}
	return w.Flush()
}
