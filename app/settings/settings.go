package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// settingsFilePath returns the path of the user settings file.
func settingsFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "jsonlview", "settings.yml"), nil
}

// GetEffectiveSettings returns the effective settings (defaults overlaid
// with file overrides if any). If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	if v, ok := m["chunk_size"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.ChunkSize = vi
		}
	}
	if v, ok := m["initial_chunk_count"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.InitialChunkCount = vi
		}
	}
	if v, ok := m["max_resident_rows"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.MaxResidentRows = vi
		}
	}
	if v, ok := m["enable_filter_cache"]; ok {
		if vb, okb := v.(bool); okb {
			settings.EnableFilterCache = vb
		}
	}
	if v, ok := m["cache_size_limit_mb"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.CacheSizeLimitMB = vi
		}
	}
	if v, ok := m["discovery_pattern"]; ok {
		if vs, oks := v.(string); oks && vs != "" {
			settings.DiscoveryPattern = vs
		}
	}
	if v, ok := m["max_directory_files"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.MaxDirectoryFiles = vi
		}
	}
	if v, ok := m["ai_model"]; ok {
		if vs, oks := v.(string); oks {
			settings.AIModel = vs
		}
	}
	if v, ok := m["window_width"]; ok {
		if vi, oki := v.(int); oki && vi >= 400 {
			settings.WindowWidth = vi
		}
	}
	if v, ok := m["window_height"]; ok {
		if vi, oki := v.(int); oki && vi >= 300 {
			settings.WindowHeight = vi
		}
	}
	return settings
}

// Save persists the given settings to the user settings file.
func Save(settings Settings) error {
	path, err := settingsFilePath()
	if err != nil {
		return fmt.Errorf("failed to resolve settings path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	b, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
