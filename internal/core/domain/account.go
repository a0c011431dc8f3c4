package domain

import "time"

// ConnectedAccount is one authenticated identity at one platform,
// produced by a successful authorization-code exchange.
type ConnectedAccount struct {
	// Platform is the identity platform this account belongs to.
	Platform PlatformType `json:"platform"`
	// Email is the account's primary email address.
	Email string `json:"email"`
	// DisplayName is the user's display name, if the platform provides one.
	DisplayName string `json:"display_name,omitempty"`
	// AccessToken is the bearer token for API access. Always present.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	// Empty for platforms that never issue one (e.g. GitHub OAuth apps).
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenExpiresAt is when the access token expires.
	// Zero for non-expiring tokens.
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`
	// Scopes are the OAuth scopes granted to this connection.
	Scopes []string `json:"scopes"`
}

// IsExpired returns true if the access token has expired.
// Accounts without an expiry never expire.
func (a *ConnectedAccount) IsExpired() bool {
	if a.TokenExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(a.TokenExpiresAt)
}

// Account is a stored connected account with its local identity and
// scan bookkeeping. Aggregate counts are computed by the store, never
// maintained incrementally.
type Account struct {
	ConnectedAccount

	// ID is the local row identifier (UUID).
	ID string `json:"id"`
	// ConnectedAt is when the account was first connected.
	ConnectedAt time.Time `json:"connected_at"`
	// LastScannedAt is when the account was last scanned. Zero if never.
	LastScannedAt time.Time `json:"last_scanned_at,omitempty"`
	// AppCount is the number of non-revoked apps discovered for this account.
	AppCount int `json:"app_count"`
	// HighRiskCount is the number of non-revoked high or critical risk apps.
	HighRiskCount int `json:"high_risk_count"`
}
