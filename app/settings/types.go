package settings

import "jsonlview/app/jsonl"

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// Lines processed per loader step
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// Chunks processed synchronously before the first yield
	InitialChunkCount int `yaml:"initial_chunk_count" json:"initial_chunk_count"`
	// Resident-row ceiling before memory-optimized truncation kicks in
	MaxResidentRows int `yaml:"max_resident_rows" json:"max_resident_rows"`
	// Enable the LRU cache of filtered views
	EnableFilterCache bool `yaml:"enable_filter_cache" json:"enable_filter_cache"`
	// Filter cache size limit in MB
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
	// Doublestar pattern used when opening a folder of JSONL files
	DiscoveryPattern string `yaml:"discovery_pattern" json:"discovery_pattern"`
	// Maximum number of files when opening a directory
	MaxDirectoryFiles int `yaml:"max_directory_files" json:"max_directory_files"`
	// Model name passed through to the configured AI completion provider
	AIModel string `yaml:"ai_model,omitempty" json:"ai_model,omitempty"`
	// Window size settings (not visible in settings dialog, but persisted)
	WindowWidth  int `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty" json:"window_height,omitempty"`
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	ChunkSize:         jsonl.DefaultChunkSize,
	InitialChunkCount: jsonl.DefaultInitialChunks,
	MaxResidentRows:   jsonl.DefaultMaxResidentRows,
	EnableFilterCache: true,
	CacheSizeLimitMB:  32,
	DiscoveryPattern:  jsonl.DefaultDiscoveryPattern,
	MaxDirectoryFiles: 500,
	WindowWidth:       1024,
	WindowHeight:      768,
}
