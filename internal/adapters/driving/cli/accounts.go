package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage connected accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected accounts",
	RunE:  runAccountsList,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <account-id>",
	Short: "Disconnect an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

var accountsRefreshCmd = &cobra.Command{
	Use:   "refresh <account-id>",
	Short: "Refresh an account's access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRefresh,
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsRefreshCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	if accountService == nil {
		return errors.New("account service not configured")
	}

	accounts, err := accountService.List(context.Background())
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		cmd.Println("No accounts connected. Run 'appscope connect <platform>' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLATFORM\tEMAIL\tAPPS\tHIGH RISK\tLAST SCAN")
	for _, a := range accounts {
		lastScan := "never"
		if !a.LastScannedAt.IsZero() {
			lastScan = a.LastScannedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			a.ID, a.Platform, a.Email, a.AppCount, a.HighRiskCount, lastScan)
	}
	return w.Flush()
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	if accountService == nil {
		return errors.New("account service not configured")
	}

	if err := accountService.Remove(context.Background(), args[0]); err != nil {
		return err
	}
	cmd.Println("Account disconnected.")
	return nil
}

func runAccountsRefresh(cmd *cobra.Command, args []string) error {
	if accountService == nil {
		return errors.New("account service not configured")
	}

	account, err := accountService.Refresh(context.Background(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Refreshed tokens for %s account %s\n", account.Platform, account.Email)
	return nil
}
