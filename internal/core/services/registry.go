package services

import (
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/platforms/github"
	"github.com/appscope-labs/appscope-cli/internal/platforms/google"
	"github.com/appscope-labs/appscope-cli/internal/platforms/microsoft"
)

// PlatformRegistry resolves platform identifiers to adapters.
// The platform set is closed; adding one means adding a case here.
type PlatformRegistry struct {
	config driven.ClientConfig
}

var _ driven.PlatformResolver = (*PlatformRegistry)(nil)

// NewPlatformRegistry creates a registry whose adapters read their
// OAuth client credentials from config.
func NewPlatformRegistry(config driven.ClientConfig) *PlatformRegistry {
	return &PlatformRegistry{config: config}
}

// Resolve returns a fresh adapter for the platform.
func (r *PlatformRegistry) Resolve(platform domain.PlatformType) (driven.Platform, error) {
	switch platform {
	case domain.PlatformGitHub:
		return github.New(r.config), nil
	case domain.PlatformGoogle:
		return google.New(r.config), nil
	case domain.PlatformMicrosoft:
		return microsoft.New(r.config), nil
	default:
		return nil, &domain.UnsupportedPlatformError{Platform: string(platform)}
	}
}
