package table

import (
	"jsonlview/app/interfaces"
	"jsonlview/app/jsonl"
)

// Schema inference over heterogeneous row shapes. Candidate paths come from
// the shared path-count table the line parser fills in; this file decides
// which of them deserve to be table columns and maintains the live column
// list through user-driven expansion, collapse, add and remove.

// promotionFraction is the share of scanned rows a path must appear in
// before it becomes a column. One-off noisy fields stay out of the table.
const promotionFraction = 0.1

// Schema owns the live column list.
type Schema struct {
	columns []interfaces.Column
	// promoted remembers every path that ever became a column. Promotion is
	// monotone: a column never disappears because later rows lack the path,
	// and a column the user removed is not resurrected by inference.
	promoted map[string]bool
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{promoted: make(map[string]bool)}
}

// Columns returns a copy of the live column list in display order.
func (s *Schema) Columns() []interfaces.Column {
	out := make([]interfaces.Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Has reports whether a column with the exact path exists.
func (s *Schema) Has(path string) bool {
	return s.find(path) >= 0
}

func (s *Schema) find(path string) int {
	for i := range s.columns {
		if s.columns[i].Path == path {
			return i
		}
	}
	return -1
}

// PromotionThreshold returns the occurrence count a path needs before
// promotion: at least 10% of scanned rows, minimum 1.
func PromotionThreshold(totalRows int) int {
	threshold := int(float64(totalRows) * promotionFraction)
	if threshold < 1 {
		return 1
	}
	return threshold
}

// eligible applies the inclusion heuristic: top-level paths always qualify;
// nested paths qualify when they hold a leaf value (arrays count as leaves)
// or are exactly one level of nesting deep.
func eligible(path string, info jsonl.PathInfo) bool {
	if jsonl.TopLevel(path) {
		return true
	}
	return info.Leaf || info.Depth == jsonl.MaxPathDepth
}

// Update promotes newly qualified candidate paths to columns. It is called
// after every loaded chunk and after mutations, so columns can appear
// mid-load; they are never retracted once promoted, to avoid flicker.
func (s *Schema) Update(counts *jsonl.PathCounts, totalRows int) {
	if totalRows == 0 {
		return
	}
	threshold := PromotionThreshold(totalRows)
	for _, path := range counts.Paths() {
		if s.promoted[path] {
			continue
		}
		info, _ := counts.Get(path)
		if info.Count < threshold || !eligible(path, info) {
			continue
		}
		s.promoted[path] = true
		s.columns = append(s.columns, interfaces.Column{
			Path:    path,
			Name:    displayName(path),
			Visible: true,
		})
	}
}

// displayName gives a top-level path its own key and a nested path its full
// dotted form, disambiguating from top-level siblings with the same leaf.
func displayName(path string) string {
	return path
}

// Add creates a column for path. No-op when the path already exists.
func (s *Schema) Add(path string) bool {
	if s.Has(path) {
		return false
	}
	s.promoted[path] = true
	s.columns = append(s.columns, interfaces.Column{
		Path:    path,
		Name:    displayName(path),
		Visible: true,
	})
	return true
}

// Remove deletes the column with the exact path, regardless of expansion
// state, and cascades to its direct expansion children so no column is left
// with a parentPath pointing at nothing.
func (s *Schema) Remove(path string) bool {
	idx := s.find(path)
	if idx < 0 {
		return false
	}
	s.columns = append(s.columns[:idx], s.columns[idx+1:]...)
	s.removeChildren(path)
	return true
}

func (s *Schema) removeChildren(parentPath string) {
	kept := s.columns[:0]
	for _, col := range s.columns {
		if col.ParentPath != parentPath {
			kept = append(kept, col)
		}
	}
	s.columns = kept
}

// Expand materializes children as sibling columns directly after the
// parent, hides the parent and flags it expanded. Children whose paths
// already exist are skipped, which makes re-expansion idempotent. Returns
// false when the parent is missing or already expanded.
func (s *Schema) Expand(path string, children []interfaces.Column) bool {
	idx := s.find(path)
	if idx < 0 || s.columns[idx].IsExpanded {
		return false
	}
	s.columns[idx].IsExpanded = true
	s.columns[idx].Visible = false

	insert := make([]interfaces.Column, 0, len(children))
	for _, child := range children {
		if s.Has(child.Path) {
			continue
		}
		child.ParentPath = path
		child.Visible = true
		insert = append(insert, child)
	}
	if len(insert) == 0 {
		return true
	}
	expanded := make([]interfaces.Column, 0, len(s.columns)+len(insert))
	expanded = append(expanded, s.columns[:idx+1]...)
	expanded = append(expanded, insert...)
	expanded = append(expanded, s.columns[idx+1:]...)
	s.columns = expanded
	return true
}

// Collapse restores an expanded column and removes its direct children.
// Grandchildren were already removed when their own parent collapsed, or
// never existed: expansion is one level per action.
func (s *Schema) Collapse(path string) bool {
	idx := s.find(path)
	if idx < 0 || !s.columns[idx].IsExpanded {
		return false
	}
	s.columns[idx].IsExpanded = false
	s.columns[idx].Visible = true
	s.removeChildren(path)
	return true
}
