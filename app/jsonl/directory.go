package jsonl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DirectoryInfo contains metadata about a discovered directory of JSONL files
type DirectoryInfo struct {
	RootPath   string   // Absolute path to directory
	Files      []string // Discovered file paths (absolute), sorted
	TotalFiles int      // Total files found
	TotalSize  int64    // Total size in bytes
}

// DefaultDiscoveryPattern matches JSONL files at any depth, including
// compressed variants.
const DefaultDiscoveryPattern = "**/*.jsonl*"

// DiscoverFiles finds JSONL files under dirPath matching the doublestar
// pattern (DefaultDiscoveryPattern when empty). maxFiles caps the result;
// zero means unlimited.
func DiscoverFiles(dirPath string, pattern string, maxFiles int) (*DirectoryInfo, error) {
	if pattern == "" {
		pattern = DefaultDiscoveryPattern
	}
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(absPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}

	var files []string
	var totalSize int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
		totalSize += info.Size()
		if maxFiles > 0 && len(files) >= maxFiles {
			break
		}
	}
	sort.Strings(files)

	return &DirectoryInfo{
		RootPath:   absPath,
		Files:      files,
		TotalFiles: len(files),
		TotalSize:  totalSize,
	}, nil
}
