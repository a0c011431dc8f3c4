// Package file stores OAuth client credentials in a TOML file under
// the AppScope config directory, with environment variable overrides.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

// envPrefix is applied to all environment overrides, e.g.
// APPSCOPE_GITHUB_CLIENT_ID.
const envPrefix = "APPSCOPE_"

var _ driven.ClientConfig = (*ConfigStore)(nil)

type oauthClient struct {
	ClientID     string `toml:"client_id"     env:"CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"CLIENT_SECRET"`
}

type oauthSection struct {
	GitHub    oauthClient `toml:"github"    envPrefix:"GITHUB_"`
	Google    oauthClient `toml:"google"    envPrefix:"GOOGLE_"`
	Microsoft oauthClient `toml:"microsoft" envPrefix:"MICROSOFT_"`
}

type fileConfig struct {
	OAuth oauthSection `toml:"oauth"`
}

// ConfigStore is a file-based implementation of driven.ClientConfig
// using TOML. Values from the file can be overridden per field through
// APPSCOPE_* environment variables, so credentials never have to touch
// disk in CI or scripted use.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	config   fileConfig
}

// NewConfigStore creates a TOML-backed config store.
// If configDir is empty, defaults to ~/.appscope/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".appscope")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *ConfigStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil {
		if err := toml.Unmarshal(data, &s.config); err != nil {
			return fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	}

	// Environment overrides win over the file.
	if err := env.ParseWithOptions(&s.config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	return nil
}

// OAuthClient returns the credentials registered for a platform.
func (s *ConfigStore) OAuthClient(platform domain.PlatformType) (driven.ClientCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.client(platform)
	if err != nil {
		return driven.ClientCredentials{}, err
	}
	if client.ClientID == "" {
		return driven.ClientCredentials{}, fmt.Errorf("%s: %w", platform, domain.ErrMissingClientConfig)
	}

	return driven.ClientCredentials{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
	}, nil
}

// SetOAuthClient stores credentials for a platform and persists the
// file immediately.
func (s *ConfigStore) SetOAuthClient(platform domain.PlatformType, creds driven.ClientCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := s.client(platform)
	if err != nil {
		return err
	}
	client.ClientID = creds.ClientID
	client.ClientSecret = creds.ClientSecret

	return s.save()
}

// client returns a pointer into the config for the platform's section.
func (s *ConfigStore) client(platform domain.PlatformType) (*oauthClient, error) {
	switch platform {
	case domain.PlatformGitHub:
		return &s.config.OAuth.GitHub, nil
	case domain.PlatformGoogle:
		return &s.config.OAuth.Google, nil
	case domain.PlatformMicrosoft:
		return &s.config.OAuth.Microsoft, nil
	default:
		return nil, &domain.UnsupportedPlatformError{Platform: string(platform)}
	}
}

// save writes the configuration to disk (caller must hold lock).
// Credentials are secrets, so the file is user-only.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.config)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
