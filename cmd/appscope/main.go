// Command appscope audits third-party app access to Google, Microsoft,
// and GitHub accounts.
package main

import (
	"fmt"
	"os"

	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/config/file"
	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/storage/sqlite"
	"github.com/appscope-labs/appscope-cli/internal/adapters/driving/cli"
	"github.com/appscope-labs/appscope-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	registry := services.NewPlatformRegistry(configStore)
	accountService := services.NewAccountService(registry, store.AccountStore())
	scanService := services.NewScanService(registry, store.AccountStore(), store.AppStore())
	settingsService := services.NewSettingsService(store.SettingsStore())

	cli.SetServices(accountService, scanService, settingsService, configStore)
	return cli.Execute()
}
