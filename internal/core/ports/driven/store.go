package driven

import (
	"context"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

// AccountStore persists connected accounts.
type AccountStore interface {
	// SaveAccount stores a newly connected account and returns its local ID.
	// Connecting the same platform+email again replaces the stored tokens.
	SaveAccount(ctx context.Context, account domain.ConnectedAccount) (string, error)

	// GetAccount retrieves an account by local ID.
	// Returns domain.ErrNotFound if it does not exist or was removed.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	// ListAccounts returns all active accounts with computed app counts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// UpdateTokens replaces an account's tokens after a refresh.
	UpdateTokens(ctx context.Context, id string, account domain.ConnectedAccount) error

	// TouchScanned records when an account was last scanned.
	TouchScanned(ctx context.Context, id string, at time.Time) error

	// RemoveAccount deactivates an account. Its apps are retained for
	// history but excluded from listings.
	RemoveAccount(ctx context.Context, id string) error
}

// AppFilter narrows an app listing.
type AppFilter struct {
	// AccountID limits results to one account when non-empty.
	AccountID string
	// RiskLevel limits results to one risk level when non-empty.
	RiskLevel domain.RiskLevel
	// IncludeRevoked includes revoked apps when true.
	IncludeRevoked bool
}

// AppStore persists discovered apps, de-duplicated per account.
type AppStore interface {
	// UpsertApp stores a discovered app for an account and returns the
	// row ID. Idempotent: keyed by accountID + app's platform-scoped ID,
	// so rescanning updates the existing row.
	UpsertApp(ctx context.Context, accountID string, app domain.DiscoveredApp) (string, error)

	// GetApp retrieves a stored app by row ID.
	GetApp(ctx context.Context, id string) (*domain.App, error)

	// ListApps returns stored apps matching the filter, ordered by
	// descending risk then name.
	ListApps(ctx context.Context, filter AppFilter) ([]domain.App, error)

	// MarkRevoked flags a stored app as revoked.
	MarkRevoked(ctx context.Context, id string) error
}

// SettingsStore persists user settings as key/value pairs.
type SettingsStore interface {
	// ReadSetting returns the value for a key, or domain.ErrNotFound.
	ReadSetting(ctx context.Context, key string) (string, error)

	// WriteSetting stores a value for a key.
	WriteSetting(ctx context.Context, key, value string) error
}
