package settings

import (
	"context"
)

// CacheManager lets the settings service clear caches when cache-related
// settings change.
type CacheManager interface {
	ClearCaches()
}

// SettingsService manages reading/writing settings from disk.
type SettingsService struct {
	ctx          context.Context
	cacheManager CacheManager
}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SetCacheManager allows the main function to inject the cache manager
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Startup receives the Wails context
func (s *SettingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// GetSettings returns the effective settings for the frontend.
func (s *SettingsService) GetSettings() (Settings, error) {
	return GetEffectiveSettings(), nil
}

// SaveSettings persists the given settings to disk and clears caches so
// the new limits take effect on the next view.
func (s *SettingsService) SaveSettings(settings Settings) error {
	if err := Save(settings); err != nil {
		return err
	}
	if s.cacheManager != nil {
		s.cacheManager.ClearCaches()
	}
	return nil
}

// SaveWindowSize persists the last window dimensions.
func (s *SettingsService) SaveWindowSize(width, height int) error {
	settings := GetEffectiveSettings()
	settings.WindowWidth = width
	settings.WindowHeight = height
	return Save(settings)
}
