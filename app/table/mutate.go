package table

import (
	"fmt"
	"regexp"
	"strings"

	"jsonlview/app/interfaces"

	"github.com/ohler55/ojg/oj"
)

// In-place row and cell mutation. Everything here addresses rows the
// caller already resolved by canonical index; filtered positions must be
// translated through the index map first.

// CoerceCellText converts raw edit-surface text into a typed value: valid
// JSON parses to its value, anything else is stored as a plain string, and
// empty or whitespace-only input stores null. Typing `42`, `true`,
// `{"a":1}` or `hello` into the same cell all land as the expected type.
func CoerceCellText(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if value, err := oj.ParseString(trimmed); err == nil {
		return value
	}
	return text
}

// SetCell writes the coerced value of text at path within row, creating
// intermediate containers as needed.
func SetCell(row *interfaces.Row, path string, text string) error {
	segments, err := ParsePath(path)
	if err != nil {
		return err
	}
	row.Value = Set(row.Value, segments, CoerceCellText(text))
	return nil
}

// SetCellValue writes an already-typed value at path within row.
func SetCellValue(row *interfaces.Row, path string, value any) error {
	segments, err := ParsePath(path)
	if err != nil {
		return err
	}
	row.Value = Set(row.Value, segments, value)
	return nil
}

// ReplaceInRow applies a plain or regex substitution to the row's
// serialized form and merges the re-parsed result over the row's existing
// fields. The operation is all-or-nothing for the row: a substitution that
// produces invalid JSON leaves the row untouched and reports false.
// An invalid regex pattern degrades to plain substring replacement.
func ReplaceInRow(row *interfaces.Row, search, replace string, useRegex bool) bool {
	serialized := Serialize(row)

	var substituted string
	replaced := false
	if useRegex {
		if re, err := regexp.Compile(search); err == nil {
			substituted = re.ReplaceAllString(serialized, replace)
			replaced = true
		}
	}
	if !replaced {
		substituted = strings.ReplaceAll(serialized, search, replace)
	}
	if substituted == serialized {
		return false
	}

	parsed, err := oj.ParseString(substituted)
	if err != nil {
		// Substitution corrupted this row's JSON; skip it entirely.
		return false
	}

	if newObj, ok := parsed.(map[string]any); ok {
		if oldObj, ok := row.Value.(map[string]any); ok {
			for key, value := range newObj {
				oldObj[key] = value
			}
			return true
		}
	}
	row.Value = parsed
	return true
}

// ReplaceInRows runs ReplaceInRow over every row and returns how many rows
// changed. Rows fail or succeed independently.
func ReplaceInRows(rows []*interfaces.Row, search, replace string, useRegex bool) int {
	changed := 0
	for _, row := range rows {
		if ReplaceInRow(row, search, replace, useRegex) {
			changed++
		}
	}
	return changed
}

// CloneValue deep-copies a row value by round-tripping its canonical form,
// so a duplicated row never shares containers with its source.
func CloneValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	cloned, err := oj.ParseString(oj.JSON(value))
	if err != nil {
		return nil, fmt.Errorf("failed to clone row value: %w", err)
	}
	return cloned, nil
}
