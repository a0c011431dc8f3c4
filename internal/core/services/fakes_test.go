package services

import (
	"context"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

// fakeResolver hands out a single fixed adapter.
type fakeResolver struct {
	adapter driven.Platform
	err     error
}

func (r *fakeResolver) Resolve(platform domain.PlatformType) (driven.Platform, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.adapter, nil
}

// fakePlatform delegates to function fields so each test can script
// exactly the calls it expects.
type fakePlatform struct {
	authorizationURL func() (string, error)
	exchangeCode     func(ctx context.Context, code string) (*domain.ConnectedAccount, error)
	refreshToken     func(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error)
	discoverApps     func(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error)
	revoke           func(ctx context.Context, accessToken, appID string) (string, error)
}

func (p *fakePlatform) AuthorizationURL() (string, error) {
	return p.authorizationURL()
}

func (p *fakePlatform) ExchangeCode(ctx context.Context, code string) (*domain.ConnectedAccount, error) {
	return p.exchangeCode(ctx, code)
}

func (p *fakePlatform) RefreshToken(ctx context.Context, refreshToken string) (*domain.ConnectedAccount, error) {
	return p.refreshToken(ctx, refreshToken)
}

func (p *fakePlatform) DiscoverApps(ctx context.Context, accessToken string) ([]domain.DiscoveredApp, error) {
	return p.discoverApps(ctx, accessToken)
}

func (p *fakePlatform) Revoke(ctx context.Context, accessToken, appID string) (string, error) {
	return p.revoke(ctx, accessToken, appID)
}

// fakeAccountStore is a map-backed AccountStore.
type fakeAccountStore struct {
	accounts map[string]*domain.Account
	saved    []domain.ConnectedAccount
	updated  map[string]domain.ConnectedAccount
	scanned  map[string]time.Time
	nextID   string
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: map[string]*domain.Account{},
		updated:  map[string]domain.ConnectedAccount{},
		scanned:  map[string]time.Time{},
		nextID:   "acc-1",
	}
}

func (s *fakeAccountStore) SaveAccount(ctx context.Context, account domain.ConnectedAccount) (string, error) {
	s.saved = append(s.saved, account)
	s.accounts[s.nextID] = &domain.Account{
		ConnectedAccount: account,
		ID:               s.nextID,
		ConnectedAt:      time.Now(),
	}
	return s.nextID, nil
}

func (s *fakeAccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *fakeAccountStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, *account)
	}
	return out, nil
}

func (s *fakeAccountStore) UpdateTokens(ctx context.Context, id string, account domain.ConnectedAccount) error {
	stored, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.updated[id] = account
	stored.AccessToken = account.AccessToken
	if account.RefreshToken != "" {
		stored.RefreshToken = account.RefreshToken
	}
	stored.TokenExpiresAt = account.TokenExpiresAt
	return nil
}

func (s *fakeAccountStore) TouchScanned(ctx context.Context, id string, at time.Time) error {
	if _, ok := s.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	s.scanned[id] = at
	return nil
}

func (s *fakeAccountStore) RemoveAccount(ctx context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// fakeAppStore is a map-backed AppStore keyed like the real one.
type fakeAppStore struct {
	apps    map[string]*domain.App
	revoked []string
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{apps: map[string]*domain.App{}}
}

func (s *fakeAppStore) UpsertApp(ctx context.Context, accountID string, app domain.DiscoveredApp) (string, error) {
	id := accountID + ":" + app.AppID
	s.apps[id] = &domain.App{
		DiscoveredApp: app,
		ID:            id,
		AccountID:     accountID,
		LastSeenAt:    time.Now(),
	}
	return id, nil
}

func (s *fakeAppStore) GetApp(ctx context.Context, id string) (*domain.App, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return app, nil
}

func (s *fakeAppStore) ListApps(ctx context.Context, filter driven.AppFilter) ([]domain.App, error) {
	out := []domain.App{}
	for _, app := range s.apps {
		if filter.AccountID != "" && app.AccountID != filter.AccountID {
			continue
		}
		if filter.RiskLevel != "" && app.RiskLevel != filter.RiskLevel {
			continue
		}
		if app.Revoked && !filter.IncludeRevoked {
			continue
		}
		out = append(out, *app)
	}
	return out, nil
}

func (s *fakeAppStore) MarkRevoked(ctx context.Context, id string) error {
	app, ok := s.apps[id]
	if !ok {
		return domain.ErrNotFound
	}
	app.Revoked = true
	s.revoked = append(s.revoked, id)
	return nil
}

// fakeSettingsStore is a map-backed SettingsStore.
type fakeSettingsStore struct {
	values map[string]string
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{values: map[string]string{}}
}

func (s *fakeSettingsStore) ReadSetting(ctx context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *fakeSettingsStore) WriteSetting(ctx context.Context, key, value string) error {
	s.values[key] = value
	return nil
}
