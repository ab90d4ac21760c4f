package services

import (
	"context"
	"strings"

	"github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/repository"
)

// Setting keys
const (
	settingBaseURL       = "base_url"
	settingAnnouncements = "announcements_enabled"
)

// SettingsService handles runtime settings business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// Settings is the input for a bulk settings update
type Settings struct {
	BaseURL              *string `json:"base_url,omitempty"`
	AnnouncementsEnabled *bool   `json:"announcements_enabled,omitempty"`
}

// GetBaseURL returns the configured portal base URL, or "" when unset
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	url, err := s.repo.GetSetting(ctx, settingBaseURL)
	if err == repository.ErrNotFound {
		return "", nil
	}
	return url, err
}

// SetBaseURL stores the portal base URL used for share links
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errors.Validation("base_url must start with http:// or https://")
	}
	return s.repo.SetSetting(ctx, settingBaseURL, url)
}

// AnnouncementsEnabled reports whether lifecycle announcements are broadcast
func (s *SettingsService) AnnouncementsEnabled(ctx context.Context) (bool, error) {
	value, err := s.repo.GetSetting(ctx, settingAnnouncements)
	if err == repository.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetAnnouncementsEnabled toggles lifecycle announcements
func (s *SettingsService) SetAnnouncementsEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.repo.SetSetting(ctx, settingAnnouncements, value)
}

// GetSetting retrieves a raw setting value
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting stores a raw setting value
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// AllSettings returns the settings exposed to the admin UI
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	announcements, err := s.AnnouncementsEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"base_url":              baseURL,
		"announcements_enabled": announcements,
	}, nil
}

// UpdateSettings applies a bulk settings update
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.BaseURL != nil {
		if err := s.SetBaseURL(ctx, *settings.BaseURL); err != nil {
			return err
		}
	}
	if settings.AnnouncementsEnabled != nil {
		if err := s.SetAnnouncementsEnabled(ctx, *settings.AnnouncementsEnabled); err != nil {
			return err
		}
	}
	s.log.Info("Settings updated")
	return nil
}
