package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingClientConfig indicates the static OAuth client credentials
	// for a platform are not configured. Fatal, not retryable.
	ErrMissingClientConfig = errors.New("oauth client credentials not configured")

	// ErrRefreshNotSupported indicates the platform never issues expiring
	// tokens, so there is nothing to refresh. Callers must not treat this
	// as broken authentication.
	ErrRefreshNotSupported = errors.New("token refresh not supported for this platform")

	// ErrMissingRefreshToken indicates a refresh was requested for an
	// account that has no stored refresh token.
	ErrMissingRefreshToken = errors.New("account has no refresh token")

	// Callback listener errors. Both are terminal for a single
	// authorization flow only.

	// ErrMissingAuthorizationCode indicates the callback request carried
	// no code query parameter.
	ErrMissingAuthorizationCode = errors.New("no authorization code in callback")

	// ErrMalformedCallback indicates the callback request line or path
	// could not be parsed.
	ErrMalformedCallback = errors.New("malformed callback request")
)

// UnsupportedPlatformError indicates a platform identifier outside the
// closed set. This is a programming or configuration error.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform not supported: %s", e.Platform)
}

// OAuthError indicates the platform rejected a code or refresh-token
// exchange. Terminal for the flow; the provider's message is surfaced
// verbatim since it usually means an expired or invalid code.
type OAuthError struct {
	// Code is the OAuth error code (e.g. "invalid_grant"), if the
	// platform returned one.
	Code string
	// Description is the human-readable detail from the platform.
	Description string
}

func (e *OAuthError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("oauth error: %s", e.Description)
	}
	if e.Description == "" {
		return fmt.Sprintf("oauth error: %s", e.Code)
	}
	return fmt.Sprintf("oauth error: %s - %s", e.Code, e.Description)
}

// NetworkError indicates a transport-level failure talking to a platform.
// Retryable by the caller with backoff; never retried internally.
type NetworkError struct {
	// Op names the operation that failed (e.g. "token exchange").
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnsupportedPlatform checks whether err is an UnsupportedPlatformError.
func IsUnsupportedPlatform(err error) bool {
	var upErr *UnsupportedPlatformError
	return errors.As(err, &upErr)
}

// IsOAuthError checks whether err is a platform token-endpoint rejection.
func IsOAuthError(err error) bool {
	var oaErr *OAuthError
	return errors.As(err, &oaErr)
}

// IsNetworkError checks whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
