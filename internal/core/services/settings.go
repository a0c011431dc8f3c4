package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driving"
)

// SettingsService manages user settings over the key/value store.
type SettingsService struct {
	store driven.SettingsStore
}

var _ driving.SettingsService = (*SettingsService)(nil)

// NewSettingsService creates a settings service.
func NewSettingsService(store driven.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the current settings. Unset keys fall back to defaults.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	if v, err := s.read(ctx, domain.SettingNotificationsEnabled); err != nil {
		return settings, err
	} else if v != "" {
		settings.NotificationsEnabled = v == "true"
	}

	if v, err := s.read(ctx, domain.SettingAutoScanInterval); err != nil {
		return settings, err
	} else if v != "" {
		interval, err := strconv.Atoi(v)
		if err != nil {
			return settings, fmt.Errorf("parse %s: %w", domain.SettingAutoScanInterval, err)
		}
		settings.AutoScanInterval = interval
	}

	if v, err := s.read(ctx, domain.SettingTheme); err != nil {
		return settings, err
	} else if v != "" {
		settings.Theme = v
	}

	if v, err := s.read(ctx, domain.SettingSyncEnabled); err != nil {
		return settings, err
	} else if v != "" {
		settings.SyncEnabled = v == "true"
	}

	return settings, nil
}

// Update persists the given settings.
func (s *SettingsService) Update(ctx context.Context, settings domain.Settings) error {
	values := map[string]string{
		domain.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
		domain.SettingAutoScanInterval:     strconv.Itoa(settings.AutoScanInterval),
		domain.SettingTheme:                settings.Theme,
		domain.SettingSyncEnabled:          strconv.FormatBool(settings.SyncEnabled),
	}
	for key, value := range values {
		if err := s.store.WriteSetting(ctx, key, value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// read returns the stored value for key, or "" when unset.
func (s *SettingsService) read(ctx context.Context, key string) (string, error) {
	v, err := s.store.ReadSetting(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}
