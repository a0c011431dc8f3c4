package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOAuthError_Error(t *testing.T) {
	assert.Equal(t, "oauth error: invalid_grant - code expired",
		(&OAuthError{Code: "invalid_grant", Description: "code expired"}).Error())
	assert.Equal(t, "oauth error: invalid_grant",
		(&OAuthError{Code: "invalid_grant"}).Error())
	assert.Equal(t, "oauth error: something broke",
		(&OAuthError{Description: "something broke"}).Error())
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NetworkError{Op: "token exchange", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "token exchange")
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	oauthErr := fmt.Errorf("connect github: %w", &OAuthError{Code: "access_denied"})
	netErr := fmt.Errorf("scan: %w", &NetworkError{Op: "list grants", Err: errors.New("timeout")})
	platErr := fmt.Errorf("resolve: %w", &UnsupportedPlatformError{Platform: "yahoo"})

	assert.True(t, IsOAuthError(oauthErr))
	assert.True(t, IsNetworkError(netErr))
	assert.True(t, IsUnsupportedPlatform(platErr))

	assert.False(t, IsOAuthError(netErr))
	assert.False(t, IsNetworkError(oauthErr))
	assert.False(t, IsUnsupportedPlatform(errors.New("other")))
}
