// Package oauth provides the authorization-code exchange and token
// refresh POST shared by all platform adapters.
package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

// DefaultTimeout is the HTTP timeout for token-endpoint requests.
const DefaultTimeout = 30 * time.Second

// TokenResponse holds the response from a token endpoint.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int       `json:"expires_in"`
	Expiry       time.Time `json:"-"`
}

// ExchangeCode exchanges an authorization code for tokens.
// Extra parameters (e.g. Microsoft's scope) may be supplied via extra.
func ExchangeCode(
	ctx context.Context,
	client *http.Client,
	tokenURL, clientID, clientSecret, code, redirectURI string,
	extra url.Values,
) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", clientID)
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	merge(data, extra)

	return post(ctx, client, tokenURL, data, "token exchange")
}

// RefreshToken obtains a new access token from a refresh token.
func RefreshToken(
	ctx context.Context,
	client *http.Client,
	tokenURL, clientID, clientSecret, refreshToken string,
	extra url.Values,
) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", clientID)
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
	data.Set("refresh_token", refreshToken)
	merge(data, extra)

	return post(ctx, client, tokenURL, data, "token refresh")
}

func merge(dst, src url.Values) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Set(k, v)
		}
	}
}

// post submits the form and classifies failures: transport errors become
// *domain.NetworkError, endpoint rejections and malformed responses
// become *domain.OAuthError.
func post(ctx context.Context, client *http.Client, tokenURL string, data url.Values, op string) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, &domain.OAuthError{Code: errResp.Error, Description: errResp.Description}
		}
		return nil, &domain.OAuthError{Description: resp.Status}
	}

	// GitHub's token endpoint answers 200 even for rejections, with the
	// error in the body, so both shapes are decoded together.
	var tokenResp struct {
		TokenResponse
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, &domain.OAuthError{Description: "malformed token response: " + err.Error()}
	}
	if tokenResp.Error != "" {
		return nil, &domain.OAuthError{Code: tokenResp.Error, Description: tokenResp.Description}
	}
	if tokenResp.AccessToken == "" {
		return nil, &domain.OAuthError{Description: "token response missing access_token"}
	}

	if tokenResp.ExpiresIn > 0 {
		tokenResp.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &tokenResp.TokenResponse, nil
}

// SplitScopes splits a provider scope string on its delimiter.
// GitHub uses commas, Google and Microsoft use spaces.
func SplitScopes(scope, sep string) []string {
	if scope == "" {
		return nil
	}
	parts := strings.Split(scope, sep)
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}
