package services

import (
	"context"
	"fmt"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driving"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

// ScanService discovers and risk-classifies third-party apps.
type ScanService struct {
	resolver driven.PlatformResolver
	accounts driven.AccountStore
	apps     driven.AppStore
}

var _ driving.ScanService = (*ScanService)(nil)

// NewScanService creates a scan service.
func NewScanService(resolver driven.PlatformResolver, accounts driven.AccountStore, apps driven.AppStore) *ScanService {
	return &ScanService{resolver: resolver, accounts: accounts, apps: apps}
}

// Scan discovers apps for a platform and summarizes them by risk
// bucket. Nothing is persisted; the summary carries no account ID.
func (s *ScanService) Scan(ctx context.Context, platform domain.PlatformType, accessToken string) ([]domain.DiscoveredApp, domain.ScanSummary, error) {
	adapter, err := s.resolver.Resolve(platform)
	if err != nil {
		return nil, domain.ScanSummary{}, err
	}

	apps, err := adapter.DiscoverApps(ctx, accessToken)
	if err != nil {
		return nil, domain.ScanSummary{}, err
	}
	logger.Info("discovered %d apps on %s", len(apps), platform)

	return apps, domain.Summarize("", apps), nil
}

// ScanAccount scans a stored account, persists every discovered app,
// and records the scan time.
func (s *ScanService) ScanAccount(ctx context.Context, accountID string) (domain.ScanSummary, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return domain.ScanSummary{}, err
	}

	adapter, err := s.resolver.Resolve(account.Platform)
	if err != nil {
		return domain.ScanSummary{}, err
	}

	apps, err := adapter.DiscoverApps(ctx, account.AccessToken)
	if err != nil {
		return domain.ScanSummary{}, err
	}

	for i := range apps {
		if _, err := s.apps.UpsertApp(ctx, account.ID, apps[i]); err != nil {
			return domain.ScanSummary{}, fmt.Errorf("store app %s: %w", apps[i].AppID, err)
		}
	}

	if err := s.accounts.TouchScanned(ctx, account.ID, time.Now()); err != nil {
		return domain.ScanSummary{}, fmt.Errorf("record scan time: %w", err)
	}

	summary := domain.Summarize(account.ID, apps)
	logger.Info("scan of %s found %d apps (%d high, %d medium, %d low)",
		account.Email, summary.AppsFound, summary.HighRiskCount,
		summary.MediumRiskCount, summary.LowRiskCount)
	return summary, nil
}

// Apps lists stored apps, optionally filtered by account and risk level.
func (s *ScanService) Apps(ctx context.Context, accountID string, risk domain.RiskLevel) ([]domain.App, error) {
	return s.apps.ListApps(ctx, driven.AppFilter{
		AccountID: accountID,
		RiskLevel: risk,
	})
}

// Revoke revokes a stored app's access. A direct API revoke marks the
// app revoked; a manual revocation URL is returned for the user to
// finish themselves, with the stored app left untouched.
func (s *ScanService) Revoke(ctx context.Context, appID string) (string, error) {
	app, err := s.apps.GetApp(ctx, appID)
	if err != nil {
		return "", err
	}

	account, err := s.accounts.GetAccount(ctx, app.AccountID)
	if err != nil {
		return "", err
	}

	adapter, err := s.resolver.Resolve(account.Platform)
	if err != nil {
		return "", err
	}

	manualURL, err := adapter.Revoke(ctx, account.AccessToken, app.AppID)
	if err != nil {
		return "", err
	}
	if manualURL != "" {
		return manualURL, nil
	}

	if err := s.apps.MarkRevoked(ctx, app.ID); err != nil {
		return "", fmt.Errorf("mark revoked: %w", err)
	}
	logger.Info("revoked %s for account %s", app.Name, account.Email)
	return "", nil
}
