// Package domain contains the core business types for AppScope:
// connected accounts, discovered apps, risk classification, and the
// error taxonomy shared by all adapters and services.
package domain

import "fmt"

// PlatformType identifies a supported identity platform.
// The set is closed: adding a platform means adding an adapter.
type PlatformType string

const (
	// PlatformGoogle is a Google consumer account.
	PlatformGoogle PlatformType = "google"
	// PlatformMicrosoft is a Microsoft personal account.
	PlatformMicrosoft PlatformType = "microsoft"
	// PlatformGitHub is a GitHub account.
	PlatformGitHub PlatformType = "github"
)

// Platforms returns all supported platform types in a stable order.
func Platforms() []PlatformType {
	return []PlatformType{PlatformGoogle, PlatformMicrosoft, PlatformGitHub}
}

// ParsePlatformType validates a platform identifier string.
// Returns an UnsupportedPlatformError for identifiers outside the closed set.
func ParsePlatformType(s string) (PlatformType, error) {
	switch PlatformType(s) {
	case PlatformGoogle, PlatformMicrosoft, PlatformGitHub:
		return PlatformType(s), nil
	default:
		return "", &UnsupportedPlatformError{Platform: s}
	}
}

// CallbackPort is the fixed local port for OAuth redirect callbacks.
// It is registered as part of each platform's redirect URI, so the
// listener and the adapters must agree on it.
const CallbackPort = 8742

// CallbackRedirectURI returns the redirect URI registered for a platform:
// http://localhost:<port>/callback/<platform>.
func CallbackRedirectURI(p PlatformType) string {
	return fmt.Sprintf("http://localhost:%d/callback/%s", CallbackPort, p)
}

// CallbackResult is the outcome of one redirect callback: the platform
// segment taken verbatim from the path and the authorization code.
// It is transient and never persisted.
type CallbackResult struct {
	// Platform is the path segment after /callback/. It is not validated
	// against the closed platform set at the listener layer.
	Platform string
	// Code is the authorization code from the code query parameter.
	Code string
}
