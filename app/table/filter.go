package table

import (
	"regexp"
	"strings"

	"jsonlview/app/interfaces"

	"github.com/ohler55/ojg/oj"
)

// Row filtering and index mapping. The pair returned by Filter is the sole
// authority for translating a position in a rendered (possibly filtered)
// view back to a canonical row before mutating. Filtering is a pure
// recomputation from the canonical store; it holds no incremental state and
// is safe to call after every mutation.

// Serialize returns the canonical string form of a row, used for substring
// and regex matching and for row-level replace.
func Serialize(row *interfaces.Row) string {
	return oj.JSON(row.Value)
}

// Filter computes the subset of rows matching term together with the
// same-length index map: indices[i] is the canonical index of matched[i],
// strictly increasing in i.
//
// An empty term is the identity. With useRegex the term is compiled as a
// regular expression; a pattern that fails to compile falls back to plain
// substring matching instead of surfacing an error. Substring matching is
// case-insensitive over the row's serialized form.
func Filter(rows []*interfaces.Row, term string, useRegex bool) ([]*interfaces.Row, []int) {
	if term == "" {
		indices := make([]int, len(rows))
		for i, row := range rows {
			indices[i] = row.Index
		}
		return rows, indices
	}

	matcher := buildMatcher(term, useRegex)
	var matched []*interfaces.Row
	var indices []int
	for _, row := range rows {
		if matcher(Serialize(row)) {
			matched = append(matched, row)
			indices = append(indices, row.Index)
		}
	}
	return matched, indices
}

func buildMatcher(term string, useRegex bool) func(string) bool {
	if useRegex {
		if re, err := regexp.Compile(term); err == nil {
			return re.MatchString
		}
		// Invalid pattern: degrade to literal matching, not an error.
	}
	needle := strings.ToLower(term)
	return func(serialized string) bool {
		return strings.Contains(strings.ToLower(serialized), needle)
	}
}
