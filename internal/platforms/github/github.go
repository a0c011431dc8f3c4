// Package github implements the GitHub platform adapter.
//
// GitHub is the richest of the supported platforms: authorized OAuth
// grants and GitHub App installations are enumerated through the REST
// API, and App installations can be revoked directly. Classic OAuth
// grants can only be revoked from the account settings page.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/oauth"
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

const (
	defaultAuthURL  = "https://github.com/login/oauth/authorize"
	defaultTokenURL = "https://github.com/login/oauth/access_token"
	defaultAPIBase  = "https://api.github.com"

	// settingsURL is where users manage authorized OAuth apps by hand.
	settingsURL = "https://github.com/settings/applications"

	// settingsAppID identifies the guidance entry pointing at settingsURL.
	settingsAppID = "github-settings-page"

	// installationPrefix namespaces GitHub App installation IDs so revoke
	// can tell them apart from OAuth grant client IDs.
	installationPrefix = "installation-"

	// proactiveRate keeps raw API calls under GitHub's secondary limits.
	proactiveRate = 1.2

	requestTimeout = 30 * time.Second
)

// scopes requested for the audit connection itself.
var scopes = []string{"read:user", "user:email"}

// Adapter implements the GitHub platform.
type Adapter struct {
	config     driven.ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	// Endpoint overrides for tests.
	authURL  string
	tokenURL string
	apiBase  string
}

var _ driven.Platform = (*Adapter)(nil)

// New creates a GitHub adapter reading credentials from config.
func New(config driven.ClientConfig) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
		authURL:    defaultAuthURL,
		tokenURL:   defaultTokenURL,
		apiBase:    defaultAPIBase,
	}
}

func (a *Adapter) credentials() (driven.ClientCredentials, error) {
	return a.config.OAuthClient(domain.PlatformGitHub)
}

// AuthorizationURL builds the GitHub authorization URL.
func (a *Adapter) AuthorizationURL() (string, error) {
	creds, err := a.credentials()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", creds.ClientID)
	params.Set("redirect_uri", domain.CallbackRedirectURI(domain.PlatformGitHub))
	params.Set("scope", strings.Join(scopes, " "))

	return a.authURL + "?" + params.Encode(), nil
}

// ExchangeCode exchanges an authorization code and resolves the user's
// identity through the API. GitHub returns scopes comma-separated and
// never issues a refresh token.
func (a *Adapter) ExchangeCode(ctx context.Context, code string) (*domain.ConnectedAccount, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	token, err := oauth.ExchangeCode(
		ctx, a.httpClient, a.tokenURL,
		creds.ClientID, creds.ClientSecret, code,
		domain.CallbackRedirectURI(domain.PlatformGitHub), nil,
	)
	if err != nil {
		return nil, err
	}

	client := a.apiClient(ctx, token.AccessToken)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, &domain.NetworkError{Op: "get user", Err: err}
	}

	email := user.GetEmail()
	if email == "" {
		// A private profile email is still readable through the
		// user:email scope.
		email = a.primaryEmail(ctx, client)
	}
	if email == "" {
		// Users with no readable email still need a stable identifier.
		email = user.GetLogin() + "@users.noreply.github.com"
	}
	displayName := user.GetName()
	if displayName == "" {
		displayName = user.GetLogin()
	}

	return &domain.ConnectedAccount{
		Platform:    domain.PlatformGitHub,
		Email:       email,
		DisplayName: displayName,
		AccessToken: token.AccessToken,
		Scopes:      oauth.SplitScopes(token.Scope, ","),
	}, nil
}

// primaryEmail resolves the user's primary address from /user/emails.
// Returns "" when the lookup fails or nothing is marked primary.
func (a *Adapter) primaryEmail(ctx context.Context, client *gh.Client) string {
	emails, _, err := client.Users.ListEmails(ctx, &gh.ListOptions{PerPage: 100})
	if err != nil {
		logger.Warn("github: list emails: %v", err)
		return ""
	}
	for _, e := range emails {
		if e.GetPrimary() {
			return e.GetEmail()
		}
	}
	return ""
}

// RefreshToken always fails: GitHub OAuth app tokens do not expire.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error) {
	return nil, domain.ErrRefreshNotSupported
}

// DiscoverApps enumerates OAuth grants and GitHub App installations
// concurrently. A failure of either source is logged and swallowed;
// if nothing at all could be discovered the result falls back to a
// guidance entry pointing at the settings page.
func (a *Adapter) DiscoverApps(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	var (
		wg            sync.WaitGroup
		grants        []domain.DiscoveredApp
		installations []domain.DiscoveredApp
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		apps, err := a.listGrants(ctx, accessToken)
		if err != nil {
			logger.Warn("github: list oauth grants: %v", err)
			return
		}
		grants = apps
	}()
	go func() {
		defer wg.Done()
		apps, err := a.listInstallations(ctx, accessToken)
		if err != nil {
			logger.Warn("github: list app installations: %v", err)
			return
		}
		installations = apps
	}()
	wg.Wait()

	apps := append(grants, installations...)
	if len(apps) == 0 {
		apps = append(apps, domain.DiscoveredApp{
			AppID:        settingsAppID,
			Name:         "GitHub Authorized Applications",
			Description:  "Review authorized OAuth apps in your GitHub settings",
			HomepageURL:  settingsURL,
			RiskLevel:    domain.RiskInfo,
			RiskFactors:  []string{"Manual review required"},
			IsFirstParty: true,
		})
	}

	return apps, nil
}

// grant is one row of the applications/grants endpoint, which the
// go-github client does not expose.
type grant struct {
	ID  int64 `json:"id"`
	App struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		ClientID string `json:"client_id"`
	} `json:"app"`
	CreatedAt string   `json:"created_at"`
	Scopes    []string `json:"scopes"`
}

func (a *Adapter) listGrants(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/applications/grants", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "list grants", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list grants: unexpected status %s", resp.Status)
	}

	var grants []grant
	if err := json.NewDecoder(resp.Body).Decode(&grants); err != nil {
		return nil, fmt.Errorf("decode grants: %w", err)
	}

	apps := make([]domain.DiscoveredApp, 0, len(grants))
	for _, g := range grants {
		level, factors := domain.ClassifyRisk(g.Scopes, false)
		apps = append(apps, domain.DiscoveredApp{
			AppID:       g.App.ClientID,
			Name:        g.App.Name,
			HomepageURL: g.App.URL,
			Permissions: g.Scopes,
			ConsentType: "oauth",
			ConsentedAt: g.CreatedAt,
			RiskLevel:   level,
			RiskFactors: factors,
		})
	}
	return apps, nil
}

func (a *Adapter) listInstallations(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	client := a.apiClient(ctx, accessToken)
	installations, _, err := client.Apps.ListUserInstallations(ctx, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("list installations: %w", err)
	}

	apps := make([]domain.DiscoveredApp, 0, len(installations))
	for _, inst := range installations {
		perms := flattenPermissions(inst.GetPermissions())
		level, factors := domain.ClassifyRisk(perms, false)
		var consentedAt string
		if created := inst.GetCreatedAt(); !created.IsZero() {
			consentedAt = created.Format(time.RFC3339)
		}
		apps = append(apps, domain.DiscoveredApp{
			AppID:       fmt.Sprintf("%s%d", installationPrefix, inst.GetID()),
			Name:        inst.GetAppSlug(),
			HomepageURL: inst.GetHTMLURL(),
			Permissions: perms,
			ConsentType: "github_app",
			ConsentedAt: consentedAt,
			RiskLevel:   level,
			RiskFactors: factors,
		})
	}
	return apps, nil
}

// flattenPermissions turns the typed installation permissions into
// sorted "name:level" strings the risk classifier can match.
func flattenPermissions(perms *gh.InstallationPermissions) []string {
	if perms == nil {
		return nil
	}

	raw, err := json.Marshal(perms)
	if err != nil {
		return nil
	}
	var kv map[string]string
	if err := json.Unmarshal(raw, &kv); err != nil {
		return nil
	}

	out := make([]string, 0, len(kv))
	for k, v := range kv {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

// Revoke removes a GitHub App installation through the API. Classic
// OAuth grants cannot be revoked with a user token, so those return
// the settings page URL for manual revocation.
func (a *Adapter) Revoke(ctx context.Context, accessToken, appID string) (string, error) {
	if !strings.HasPrefix(appID, installationPrefix) {
		return settingsURL, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	id := strings.TrimPrefix(appID, installationPrefix)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, a.apiBase+"/user/installations/"+id, nil,
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Op: "delete installation", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("delete installation: unexpected status %s", resp.Status)
	}
	return "", nil
}

// apiClient builds an authenticated go-github client.
func (a *Adapter) apiClient(ctx context.Context, token string) *gh.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = requestTimeout

	client := gh.NewClient(tc)
	if a.apiBase != defaultAPIBase {
		if base, err := url.Parse(a.apiBase + "/"); err == nil {
			client.BaseURL = base
		}
	}
	return client
}
