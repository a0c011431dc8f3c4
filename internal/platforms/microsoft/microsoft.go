// Package microsoft implements the Microsoft platform adapter for
// personal accounts.
//
// Consumer accounts have no Graph endpoint for enumerating consented
// apps (servicePrincipals is enterprise-only), so discovery probes the
// /me endpoint to confirm the connection and points the user at the
// consent management page. Token exchange and refresh go through the
// consumers tenant of the v2.0 endpoints.
package microsoft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/oauth"
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

const (
	defaultAuthURL   = "https://login.microsoftonline.com/consumers/oauth2/v2.0/authorize"
	defaultTokenURL  = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	defaultGraphBase = "https://graph.microsoft.com/v1.0"

	// consentURL is where users manage consented apps by hand.
	consentURL = "https://account.live.com/consent/Manage"

	// consentAppID identifies the guidance entry for consentURL.
	consentAppID = "microsoft-consent-page"

	// selfAppID identifies the synthetic entry for this tool's own grant.
	selfAppID = "appscope-scanner"

	requestTimeout = 30 * time.Second
)

// scopes requested for the audit connection itself. offline_access makes
// Microsoft issue a refresh token.
var scopes = []string{"openid", "email", "profile", "offline_access", "User.Read"}

// Adapter implements the Microsoft platform.
type Adapter struct {
	config     driven.ClientConfig
	httpClient *http.Client

	// Endpoint overrides for tests.
	authURL   string
	tokenURL  string
	graphBase string
}

var _ driven.Platform = (*Adapter)(nil)

// New creates a Microsoft adapter reading credentials from config.
func New(config driven.ClientConfig) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		authURL:    defaultAuthURL,
		tokenURL:   defaultTokenURL,
		graphBase:  defaultGraphBase,
	}
}

func (a *Adapter) credentials() (driven.ClientCredentials, error) {
	return a.config.OAuthClient(domain.PlatformMicrosoft)
}

// AuthorizationURL builds the Microsoft authorization URL.
func (a *Adapter) AuthorizationURL() (string, error) {
	creds, err := a.credentials()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", creds.ClientID)
	params.Set("redirect_uri", domain.CallbackRedirectURI(domain.PlatformMicrosoft))
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("response_mode", "query")

	return a.authURL + "?" + params.Encode(), nil
}

// ExchangeCode exchanges an authorization code and resolves the user's
// identity through Graph. Microsoft requires the scope parameter on the
// exchange itself.
func (a *Adapter) ExchangeCode(ctx context.Context, code string) (*domain.ConnectedAccount, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	extra := url.Values{}
	extra.Set("scope", strings.Join(scopes, " "))

	token, err := oauth.ExchangeCode(
		ctx, a.httpClient, a.tokenURL,
		creds.ClientID, creds.ClientSecret, code,
		domain.CallbackRedirectURI(domain.PlatformMicrosoft), extra,
	)
	if err != nil {
		return nil, err
	}

	return a.accountFromToken(ctx, token, "")
}

// RefreshToken obtains a new access token. Microsoft rotates refresh
// tokens; when the response omits one the previous token stays valid.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error) {
	if refreshToken == "" {
		return nil, domain.ErrMissingRefreshToken
	}

	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	extra := url.Values{}
	extra.Set("scope", strings.Join(scopes, " "))

	token, err := oauth.RefreshToken(
		ctx, a.httpClient, a.tokenURL,
		creds.ClientID, creds.ClientSecret, refreshToken, extra,
	)
	if err != nil {
		return nil, err
	}

	return a.accountFromToken(ctx, token, refreshToken)
}

// graphUser is the subset of the Graph /me payload we need.
type graphUser struct {
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	DisplayName       string `json:"displayName"`
}

func (a *Adapter) accountFromToken(ctx context.Context, token *oauth.TokenResponse, previousRefresh string) (*domain.ConnectedAccount, error) {
	user, err := a.me(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}

	return &domain.ConnectedAccount{
		Platform:       domain.PlatformMicrosoft,
		Email:          email,
		DisplayName:    user.DisplayName,
		AccessToken:    token.AccessToken,
		RefreshToken:   refresh,
		TokenExpiresAt: token.Expiry,
		Scopes:         scopes,
	}, nil
}

func (a *Adapter) me(ctx context.Context, accessToken string) (*graphUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.graphBase+"/me", nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: "get me", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "get me", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.OAuthError{Description: "graph /me returned " + resp.Status}
	}

	var user graphUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &domain.OAuthError{Description: "malformed graph response: " + err.Error()}
	}
	return &user, nil
}

// DiscoverApps probes Graph /me to confirm the token works. On success
// it reports this tool's own grant as a discovered app; either way the
// result ends with the consent-page guidance entry.
func (a *Adapter) DiscoverApps(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	var apps []domain.DiscoveredApp

	if _, err := a.me(ctx, accessToken); err == nil {
		apps = append(apps, domain.DiscoveredApp{
			AppID:        selfAppID,
			Name:         "AppScope (this app)",
			Publisher:    "AppScope",
			Description:  "This is the AppScope connection you're using to scan.",
			HomepageURL:  "https://appscope.dev",
			Permissions:  scopes,
			ConsentType:  "user",
			RiskLevel:    domain.RiskLow,
			RiskFactors:  []string{},
			IsFirstParty: false,
		})
	} else {
		logger.Warn("microsoft: graph probe: %v", err)
	}

	apps = append(apps, domain.DiscoveredApp{
		AppID:     consentAppID,
		Name:      "View all apps at Microsoft",
		Publisher: "Microsoft",
		Description: "Microsoft personal accounts require manual review. " +
			"Open this link to view your connected apps directly on Microsoft.",
		HomepageURL:  consentURL,
		Permissions:  []string{},
		RiskLevel:    domain.RiskInfo,
		RiskFactors:  []string{"Manual review required"},
		IsFirstParty: true,
	})

	return apps, nil
}

// Revoke always returns the consent page URL: consumer accounts have no
// revocation API.
func (a *Adapter) Revoke(ctx context.Context, accessToken, appID string) (string, error) {
	return consentURL, nil
}
