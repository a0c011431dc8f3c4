// Package driving defines the interfaces through which the CLI (or any
// other front end) drives the core services.
package driving

import (
	"context"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

// AuthFlowState describes an authorization flow ready to hand to the
// browser and the local callback listener.
type AuthFlowState struct {
	// AuthURL is the URL to open in the browser for user authorization.
	AuthURL string
	// RedirectPort is the local port the redirect listener must bind.
	RedirectPort int
}

// AccountService manages connected accounts and the authorization flow.
type AccountService interface {
	// StartAuthorization prepares the authorization flow for a platform.
	StartAuthorization(platform domain.PlatformType) (*AuthFlowState, error)

	// CompleteAuthorization exchanges the authorization code delivered to
	// the callback listener, persists the account, and returns it.
	CompleteAuthorization(ctx context.Context, platform domain.PlatformType, code string) (*domain.Account, error)

	// Refresh renews an account's access token using its refresh token.
	// Fails with domain.ErrRefreshNotSupported for platforms whose tokens
	// never expire.
	Refresh(ctx context.Context, accountID string) (*domain.Account, error)

	// List returns all active accounts.
	List(ctx context.Context) ([]domain.Account, error)

	// Remove deactivates an account.
	Remove(ctx context.Context, accountID string) error
}

// ScanService discovers and risk-classifies third-party apps.
type ScanService interface {
	// Scan discovers apps for a platform using an access token and
	// returns them with an aggregate summary. Nothing is persisted.
	Scan(ctx context.Context, platform domain.PlatformType, accessToken string) ([]domain.DiscoveredApp, domain.ScanSummary, error)

	// ScanAccount runs Scan for a stored account, persists the results
	// through the app store, and records the scan time.
	ScanAccount(ctx context.Context, accountID string) (domain.ScanSummary, error)

	// Apps lists stored apps.
	Apps(ctx context.Context, accountID string, risk domain.RiskLevel) ([]domain.App, error)

	// Revoke revokes a stored app's access. Returns the platform's manual
	// revocation URL when the platform has no revocation API; an empty
	// string means the revoke completed directly.
	Revoke(ctx context.Context, appID string) (string, error)
}

// SettingsService manages user settings.
type SettingsService interface {
	// Get returns the current settings, with defaults for unset keys.
	Get(ctx context.Context) (domain.Settings, error)

	// Update persists the given settings.
	Update(ctx context.Context, settings domain.Settings) error
}
