package service

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// SettingsService reads and writes per-user preference records.
type SettingsService struct {
	users repository.IUserRepository
}

// NewSettingsService creates a new settings service.
func NewSettingsService(users repository.IUserRepository) *SettingsService {
	return &SettingsService{users: users}
}

// Get returns the acting user's settings, falling back to the defaults when
// no record was ever written.
func (s *SettingsService) Get(id *access.Identity) (*models.UserSettings, error) {
	user := actingUser(id)
	if user == nil {
		return nil, fmt.Errorf("settings are a staff feature: %w", ErrPermission)
	}
	settings, err := s.users.GetSettings(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Update validates and persists the acting user's settings. The record is
// always written under the caller's own id, whatever the request carries.
func (s *SettingsService) Update(id *access.Identity, settings *models.UserSettings) (*models.UserSettings, error) {
	user := actingUser(id)
	if user == nil {
		return nil, fmt.Errorf("settings are a staff feature: %w", ErrPermission)
	}
	settings.UserID = user.ID
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if err := s.users.SaveSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}
