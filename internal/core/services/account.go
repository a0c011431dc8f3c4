// Package services implements the driving ports on top of the platform
// adapters and the storage collaborator.
package services

import (
	"context"
	"fmt"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driving"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

// AccountService manages connected accounts and the authorization flow.
type AccountService struct {
	resolver driven.PlatformResolver
	accounts driven.AccountStore
}

var _ driving.AccountService = (*AccountService)(nil)

// NewAccountService creates an account service.
func NewAccountService(resolver driven.PlatformResolver, accounts driven.AccountStore) *AccountService {
	return &AccountService{resolver: resolver, accounts: accounts}
}

// StartAuthorization prepares the authorization flow for a platform.
func (s *AccountService) StartAuthorization(platform domain.PlatformType) (*driving.AuthFlowState, error) {
	adapter, err := s.resolver.Resolve(platform)
	if err != nil {
		return nil, err
	}

	authURL, err := adapter.AuthorizationURL()
	if err != nil {
		return nil, err
	}

	return &driving.AuthFlowState{
		AuthURL:      authURL,
		RedirectPort: domain.CallbackPort,
	}, nil
}

// CompleteAuthorization exchanges the authorization code and persists
// the resulting account.
func (s *AccountService) CompleteAuthorization(ctx context.Context, platform domain.PlatformType, code string) (*domain.Account, error) {
	if code == "" {
		return nil, domain.ErrMissingAuthorizationCode
	}

	adapter, err := s.resolver.Resolve(platform)
	if err != nil {
		return nil, err
	}

	connected, err := adapter.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	logger.Info("connected %s account %s", connected.Platform, connected.Email)

	id, err := s.accounts.SaveAccount(ctx, *connected)
	if err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	return s.accounts.GetAccount(ctx, id)
}

// Refresh renews an account's access token using its refresh token.
func (s *AccountService) Refresh(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.resolver.Resolve(account.Platform)
	if err != nil {
		return nil, err
	}

	updated, err := adapter.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateTokens(ctx, account.ID, *updated); err != nil {
		return nil, fmt.Errorf("update tokens: %w", err)
	}
	logger.Info("refreshed tokens for %s account %s", account.Platform, account.Email)

	return s.accounts.GetAccount(ctx, account.ID)
}

// List returns all active accounts.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

// Remove deactivates an account.
func (s *AccountService) Remove(ctx context.Context, accountID string) error {
	return s.accounts.RemoveAccount(ctx, accountID)
}
