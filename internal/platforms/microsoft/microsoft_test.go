package microsoft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

type stubConfig struct {
	creds driven.ClientCredentials
	err   error
}

func (c *stubConfig) OAuthClient(domain.PlatformType) (driven.ClientCredentials, error) {
	if c.err != nil {
		return driven.ClientCredentials{}, c.err
	}
	return c.creds, nil
}

func newTestAdapter(tokenURL, graphBase string) *Adapter {
	a := New(&stubConfig{creds: driven.ClientCredentials{ClientID: "cid", ClientSecret: "csec"}})
	if tokenURL != "" {
		a.tokenURL = tokenURL
	}
	if graphBase != "" {
		a.graphBase = graphBase
	}
	return a
}

func TestAuthorizationURL(t *testing.T) {
	a := newTestAdapter("", "")

	raw, err := a.AuthorizationURL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "login.microsoftonline.com", u.Host)
	assert.Equal(t, "/consumers/oauth2/v2.0/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "query", q.Get("response_mode"))
	assert.Equal(t, "http://localhost:8742/callback/microsoft", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile offline_access User.Read", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer ey.abc", r.Header.Get("Authorization"))
		w.Write([]byte(`{"userPrincipalName":"user@outlook.com","displayName":"Test User"}`))
	}))
	defer graph.Close()

	var gotForm url.Values
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"access_token":"ey.abc","refresh_token":"M.rt","expires_in":3600}`))
	}))
	defer token.Close()

	a := newTestAdapter(token.URL, graph.URL)
	account, err := a.ExchangeCode(context.Background(), "code-1")

	require.NoError(t, err)
	assert.Equal(t, domain.PlatformMicrosoft, account.Platform)
	// No mail attribute: falls back to the principal name.
	assert.Equal(t, "user@outlook.com", account.Email)
	assert.Equal(t, "Test User", account.DisplayName)
	assert.Equal(t, "M.rt", account.RefreshToken)

	// Microsoft requires the scope parameter on the exchange itself.
	assert.Equal(t, "openid email profile offline_access User.Read", gotForm.Get("scope"))
}

func TestExchangeCode_PrefersMailAttribute(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userPrincipalName":"upn@outlook.com","mail":"real@outlook.com"}`))
	}))
	defer graph.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"ey.abc"}`))
	}))
	defer token.Close()

	a := newTestAdapter(token.URL, graph.URL)
	account, err := a.ExchangeCode(context.Background(), "code-1")

	require.NoError(t, err)
	assert.Equal(t, "real@outlook.com", account.Email)
}

func TestRefreshToken_PreservesPreviousRefreshToken(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userPrincipalName":"user@outlook.com"}`))
	}))
	defer graph.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"ey.new","expires_in":3600}`))
	}))
	defer token.Close()

	a := newTestAdapter(token.URL, graph.URL)
	account, err := a.RefreshToken(context.Background(), "M.old")

	require.NoError(t, err)
	assert.Equal(t, "ey.new", account.AccessToken)
	assert.Equal(t, "M.old", account.RefreshToken)
}

func TestRefreshToken_Missing(t *testing.T) {
	a := newTestAdapter("", "")

	_, err := a.RefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingRefreshToken)
}

func TestDiscoverApps_TokenValid(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userPrincipalName":"user@outlook.com"}`))
	}))
	defer graph.Close()

	a := newTestAdapter("", graph.URL)
	apps, err := a.DiscoverApps(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, apps, 2)

	self := apps[0]
	assert.Equal(t, "appscope-scanner", self.AppID)
	assert.Equal(t, domain.RiskLow, self.RiskLevel)
	assert.Equal(t, scopes, self.Permissions)
	assert.False(t, self.IsFirstParty)

	guidance := apps[1]
	assert.Equal(t, "microsoft-consent-page", guidance.AppID)
	assert.Equal(t, domain.RiskInfo, guidance.RiskLevel)
	assert.Equal(t, []string{"Manual review required"}, guidance.RiskFactors)
	assert.True(t, guidance.IsFirstParty)
}

func TestDiscoverApps_ProbeFailure(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer graph.Close()

	a := newTestAdapter("", graph.URL)
	apps, err := a.DiscoverApps(context.Background(), "tok")

	require.NoError(t, err, "probe failure is swallowed")
	require.Len(t, apps, 1)
	assert.Equal(t, "microsoft-consent-page", apps[0].AppID)
}

func TestRevoke_AlwaysManual(t *testing.T) {
	a := newTestAdapter("", "")

	manualURL, err := a.Revoke(context.Background(), "tok", "any-app")
	require.NoError(t, err)
	assert.Equal(t, "https://account.live.com/consent/Manage", manualURL)
}
