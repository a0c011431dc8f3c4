// Package google implements the Google platform adapter.
//
// Google provides no API to enumerate third-party apps with access to
// a consumer account, so discovery always produces a guidance entry
// pointing at the account permissions page. Token exchange, refresh,
// and identity resolution work normally.
package google

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/oauth"
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

const (
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	// permissionsURL is where users manage third-party access by hand.
	permissionsURL = "https://myaccount.google.com/permissions"

	// permissionsAppID identifies the guidance entry for permissionsURL.
	permissionsAppID = "google-permissions-page"

	requestTimeout = 30 * time.Second
)

// scopes requested for the audit connection itself.
var scopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Adapter implements the Google platform.
type Adapter struct {
	config     driven.ClientConfig
	httpClient *http.Client

	// Endpoint overrides for tests. An empty apiEndpoint uses the
	// client library's default.
	authURL     string
	tokenURL    string
	apiEndpoint string
}

var _ driven.Platform = (*Adapter)(nil)

// New creates a Google adapter reading credentials from config.
func New(config driven.ClientConfig) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		authURL:    defaultAuthURL,
		tokenURL:   defaultTokenURL,
	}
}

func (a *Adapter) credentials() (driven.ClientCredentials, error) {
	return a.config.OAuthClient(domain.PlatformGoogle)
}

// AuthorizationURL builds the Google authorization URL. Offline access
// with forced consent makes Google issue a refresh token every time.
func (a *Adapter) AuthorizationURL() (string, error) {
	creds, err := a.credentials()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", creds.ClientID)
	params.Set("redirect_uri", domain.CallbackRedirectURI(domain.PlatformGoogle))
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return a.authURL + "?" + params.Encode(), nil
}

// ExchangeCode exchanges an authorization code and resolves the user's
// identity through the userinfo endpoint.
func (a *Adapter) ExchangeCode(ctx context.Context, code string) (*domain.ConnectedAccount, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	token, err := oauth.ExchangeCode(
		ctx, a.httpClient, a.tokenURL,
		creds.ClientID, creds.ClientSecret, code,
		domain.CallbackRedirectURI(domain.PlatformGoogle), nil,
	)
	if err != nil {
		return nil, err
	}

	return a.accountFromToken(ctx, token, "")
}

// RefreshToken obtains a new access token. Google may omit the refresh
// token from the response, in which case the old one stays valid.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error) {
	if refreshToken == "" {
		return nil, domain.ErrMissingRefreshToken
	}

	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	token, err := oauth.RefreshToken(
		ctx, a.httpClient, a.tokenURL,
		creds.ClientID, creds.ClientSecret, refreshToken, nil,
	)
	if err != nil {
		return nil, err
	}

	return a.accountFromToken(ctx, token, refreshToken)
}

func (a *Adapter) accountFromToken(ctx context.Context, token *oauth.TokenResponse, previousRefresh string) (*domain.ConnectedAccount, error) {
	svc, err := a.apiService(ctx, token.AccessToken)
	if err != nil {
		return nil, &domain.NetworkError{Op: "create oauth2 service", Err: err}
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, &domain.NetworkError{Op: "get userinfo", Err: err}
	}

	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}

	return &domain.ConnectedAccount{
		Platform:       domain.PlatformGoogle,
		Email:          info.Email,
		DisplayName:    info.Name,
		AccessToken:    token.AccessToken,
		RefreshToken:   refresh,
		TokenExpiresAt: token.Expiry,
		Scopes:         scopes,
	}, nil
}

// DiscoverApps probes the tokeninfo endpoint to confirm the token is
// live, then returns the permissions-page guidance entry. The probe
// result is informational only; its failure is swallowed.
func (a *Adapter) DiscoverApps(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	svc, err := a.apiService(ctx, accessToken)
	if err == nil {
		if info, tiErr := svc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do(); tiErr != nil {
			logger.Warn("google: tokeninfo probe: %v", tiErr)
		} else {
			logger.Debug("google: token valid, granted scopes: %s", info.Scope)
		}
	} else {
		logger.Warn("google: create oauth2 service: %v", err)
	}

	return []domain.DiscoveredApp{{
		AppID:     permissionsAppID,
		Name:      "View all apps at Google",
		Publisher: "Google",
		Description: "Google doesn't provide an API to list third-party apps. " +
			"Open this link to view your connected apps directly on Google.",
		HomepageURL:  permissionsURL,
		Permissions:  []string{},
		RiskLevel:    domain.RiskInfo,
		RiskFactors:  []string{"Manual review required"},
		IsFirstParty: true,
	}}, nil
}

// Revoke always returns the permissions page URL: Google has no API
// for revoking another app's grant.
func (a *Adapter) Revoke(ctx context.Context, accessToken, appID string) (string, error) {
	return permissionsURL, nil
}

func (a *Adapter) apiService(ctx context.Context, accessToken string) (*oauth2api.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if a.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(a.apiEndpoint))
	}
	return oauth2api.NewService(ctx, opts...)
}
