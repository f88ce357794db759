package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addressing into nested row values. The external contract is the
// dot/bracket string syntax ("user.addr[0].city") that the shell and AI
// prompts depend on; internally a path is parsed once into typed segments
// and resolved against the parsed value tree, never re-split per access.

// Segment is one step of a parsed path: a plain object key, an indexed key
// ("addr[0]"), or a bare index ("[0]") applied to the current value.
type Segment struct {
	Key      string
	Index    int
	HasIndex bool
}

// ParsePath parses a dot/bracket path expression into typed segments.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("path is empty")
	}
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", path, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseSegment(part string) (Segment, error) {
	open := strings.Index(part, "[")
	if open == -1 {
		if part == "" {
			return Segment{}, fmt.Errorf("empty segment")
		}
		return Segment{Key: part}, nil
	}
	if !strings.HasSuffix(part, "]") {
		return Segment{}, fmt.Errorf("unterminated index in segment %q", part)
	}
	idxText := part[open+1 : len(part)-1]
	idx, err := strconv.Atoi(idxText)
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("bad array index %q", idxText)
	}
	return Segment{Key: part[:open], Index: idx, HasIndex: true}, nil
}

// JoinPath appends a child key to a parent path expression.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// IndexPath appends an array index to a parent path expression.
func IndexPath(parent string, index int) string {
	return fmt.Sprintf("%s[%d]", parent, index)
}

// Resolve walks segments through a value. It short-circuits to (nil, false)
// the moment an intermediate is missing, null, or not an array when an
// index is expected. A miss is not an error: it means "no value here".
func Resolve(value any, segments []Segment) (any, bool) {
	current := value
	for _, seg := range segments {
		if seg.Key != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			next, exists := obj[seg.Key]
			if !exists || next == nil {
				return nil, false
			}
			current = next
		}
		if seg.HasIndex {
			arr, ok := current.([]any)
			if !ok || seg.Index >= len(arr) {
				return nil, false
			}
			current = arr[seg.Index]
			if current == nil {
				return nil, false
			}
		}
	}
	return current, true
}

// ResolvePath is the string-path convenience form of Resolve. A malformed
// path reads as a miss.
func ResolvePath(value any, path string) (any, bool) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return Resolve(value, segments)
}

// Set writes v at the segment path within root and returns the (possibly
// replaced) root. Unlike reads, writes are creating: missing intermediate
// containers are materialized, objects for plain keys and arrays for
// indexed keys, and arrays grow to fit the index.
func Set(root any, segments []Segment, v any) any {
	if len(segments) == 0 {
		return v
	}
	seg := segments[0]

	if seg.Key == "" && seg.HasIndex {
		arr, _ := root.([]any)
		arr = growArray(arr, seg.Index)
		arr[seg.Index] = Set(arr[seg.Index], segments[1:], v)
		return arr
	}

	obj, ok := root.(map[string]any)
	if !ok {
		obj = make(map[string]any)
	}
	if seg.HasIndex {
		arr, _ := obj[seg.Key].([]any)
		arr = growArray(arr, seg.Index)
		arr[seg.Index] = Set(arr[seg.Index], segments[1:], v)
		obj[seg.Key] = arr
		return obj
	}
	if len(segments) == 1 {
		obj[seg.Key] = v
	} else {
		obj[seg.Key] = Set(obj[seg.Key], segments[1:], v)
	}
	return obj
}

func growArray(arr []any, index int) []any {
	if index < len(arr) {
		return arr
	}
	grown := make([]any, index+1)
	copy(grown, arr)
	return grown
}
