// Package driven defines the interfaces the core depends on:
// platform adapters, the storage collaborator, and client configuration.
package driven

import (
	"context"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

// ClientCredentials are the static OAuth application credentials for one
// platform, created in that platform's developer console.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// ClientConfig supplies static OAuth client credentials per platform.
type ClientConfig interface {
	// OAuthClient returns the credentials registered for a platform.
	// Returns domain.ErrMissingClientConfig when none are configured.
	OAuthClient(platform domain.PlatformType) (ClientCredentials, error)
}

// Platform is the capability contract every platform adapter implements.
// Adapters are stateless apart from a reusable HTTP transport and are
// constructed fresh per resolution.
type Platform interface {
	// AuthorizationURL builds the URL that starts the authorization flow.
	// Fails with domain.ErrMissingClientConfig when the static client
	// configuration is absent.
	AuthorizationURL() (string, error)

	// ExchangeCode exchanges an authorization code for tokens and
	// resolves the account's identity. Fails with *domain.OAuthError on
	// token-endpoint rejection or a malformed response, and with
	// *domain.NetworkError on transport failure.
	ExchangeCode(ctx context.Context, code string) (*domain.ConnectedAccount, error)

	// RefreshToken obtains a new access token from a refresh token.
	// Platforms whose tokens never expire fail with
	// domain.ErrRefreshNotSupported; they never silently succeed.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error)

	// DiscoverApps enumerates third-party apps holding access. Individual
	// sub-request failures are swallowed and omitted from the result; when
	// nothing could be discovered the result contains a single guidance
	// entry pointing at the platform's own management page, so the caller
	// always receives at least one actionable item.
	DiscoverApps(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error)

	// Revoke revokes an app's access. Returns an empty string when the
	// platform API performed a direct revoke, or the URL of the platform's
	// revocation page when the user must complete it manually. The manual
	// path is a first-class success outcome, not an error.
	Revoke(ctx context.Context, accessToken, appID string) (string, error)
}

// PlatformResolver maps a platform identifier to its adapter.
type PlatformResolver interface {
	// Resolve returns a fresh adapter for the platform. Fails with
	// *domain.UnsupportedPlatformError for identifiers outside the
	// closed set.
	Resolve(platform domain.PlatformType) (Platform, error)
}
