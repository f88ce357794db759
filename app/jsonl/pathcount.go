package jsonl

import (
	"sort"
	"strings"

	"jsonlview/app/interfaces"
)

// MaxPathDepth bounds the path-counting traversal. Top-level keys are depth
// 1; one level of nesting is depth 2. Anything deeper is never recorded, so
// deeply nested documents cannot fan out the candidate column set.
const MaxPathDepth = 2

// PathInfo describes one candidate column path observed during parsing.
type PathInfo struct {
	Count int  // Number of scanned rows with a non-null value at this path
	Leaf  bool // True if the last observed value was not an object (arrays count as leaves)
	Depth int  // 1 for top-level keys, 2 for one level of nesting
}

// PathCounts is the transient candidate-path table shared between the line
// parser and schema inference. The parser increments it as a side effect of
// each successful parse so inference never re-traverses rows.
type PathCounts struct {
	paths map[string]*PathInfo
}

// NewPathCounts creates an empty path-count table.
func NewPathCounts() *PathCounts {
	return &PathCounts{paths: make(map[string]*PathInfo)}
}

// CountRow records every reachable field path of a parsed row value,
// bounded to MaxPathDepth levels. Non-object rows contribute no paths.
func (c *PathCounts) CountRow(value any) {
	obj, ok := value.(map[string]any)
	if !ok {
		return
	}
	c.countObject("", 1, obj)
}

func (c *PathCounts) countObject(prefix string, depth int, obj map[string]any) {
	if depth > MaxPathDepth {
		return
	}
	for key, val := range obj {
		if val == nil {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		child, isObject := val.(map[string]any)
		info := c.paths[path]
		if info == nil {
			info = &PathInfo{Depth: depth}
			c.paths[path] = info
		}
		info.Count++
		info.Leaf = !isObject
		if isObject {
			c.countObject(path, depth+1, child)
		}
	}
}

// Get returns the recorded info for a path.
func (c *PathCounts) Get(path string) (PathInfo, bool) {
	info, ok := c.paths[path]
	if !ok {
		return PathInfo{}, false
	}
	return *info, true
}

// Paths returns all recorded paths sorted lexically for deterministic
// iteration (nested paths sort directly after their parent).
func (c *PathCounts) Paths() []string {
	out := make([]string, 0, len(c.paths))
	for p := range c.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of recorded paths.
func (c *PathCounts) Len() int {
	return len(c.paths)
}

// Rebuild discards all counts and recounts from the given rows. Used after
// the loader truncates the row store in memory-optimized mode.
func (c *PathCounts) Rebuild(rows []*interfaces.Row) {
	c.paths = make(map[string]*PathInfo)
	for _, row := range rows {
		c.CountRow(row.Value)
	}
}

// TopLevel reports whether a path has no nesting.
func TopLevel(path string) bool {
	return !strings.Contains(path, ".")
}
