package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"jsonlview/app/cache"
	"jsonlview/app/interfaces"
	"jsonlview/app/jsonl"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"
	"github.com/ohler55/ojg/oj"
)

// Document is the query facade over one loaded JSONL document. It
// exclusively owns the canonical row store, the per-line diagnostics, the
// path-count table and the column schema; every other component reads and
// mutates them only through the operations here, addressed by canonical
// row index. The filtered view is always a fresh derived computation (or a
// cache hit keyed on document identity, content hash, generation and term),
// never an independently mutated copy.
//
// The document assumes a single consumer: the only suspension points are
// the loader's yields, where reads and value edits may interleave with the
// load. Structural row operations wait for the load to finish.

// viewHashKey is the fixed HighwayHash key for content hashing; cache keys
// only need to be stable within a process.
var viewHashKey = []byte("jsonlview-filter-cache-hash-key!")

// ErrLoadInProgress is returned by structural row operations while chunks
// are still streaming in. Value edits interleave freely at yield points;
// inserting or deleting rows would race the loader's index assignment, so
// those wait for the load to finish.
var ErrLoadInProgress = errors.New("document is still loading")

// Document state, created by NewDocument and reset by each Load.
type Document struct {
	loader *jsonl.Loader
	cache  *cache.Cache

	rows   []*interfaces.Row
	lines  []interfaces.ParsedLine
	counts *jsonl.PathCounts
	schema *Schema

	progress    interfaces.LoadProgress
	searchTerm  string
	searchRegex bool
	contentHash string
	// id distinguishes this document's filter-cache entries from other
	// documents sharing the same cache, even when their text is identical.
	id string
	// generation increments on every mutation and every new load, so filter
	// cache keys for stale state simply stop matching.
	generation uint64
	// loadGen identifies the current Load call. Only Load bumps it; a stale
	// load sees a newer value at its yield points and stops adopting.
	// Mutations bump generation, never loadGen, so an edit at a yield point
	// cannot abort the load it interleaved with.
	loadGen    uint64
	loadActive bool
	// dirtyDuringLoad records that a mutation landed between chunks; the
	// path counts are rebuilt once after the final adoption instead of
	// fighting the loader's own count table chunk by chunk.
	dirtyDuringLoad bool
}

// DocumentOption customizes a Document.
type DocumentOption func(*Document)

// WithLoader installs a configured chunk loader.
func WithLoader(loader *jsonl.Loader) DocumentOption {
	return func(d *Document) {
		if loader != nil {
			d.loader = loader
		}
	}
}

// WithCache installs a filter-view cache. Without one every view is
// recomputed, which is always correct, just slower on large documents.
func WithCache(c *cache.Cache) DocumentOption {
	return func(d *Document) {
		d.cache = c
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		id:     uuid.NewString(),
		loader: jsonl.NewLoader(),
		counts: jsonl.NewPathCounts(),
		schema: NewSchema(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load ingests a full document text, replacing all previous state. The
// first chunks load synchronously; the rest stream in with yields between
// chunks. onUpdate receives a fresh snapshot at chunk boundaries (throttled
// by the loader) and once at completion.
//
// A Load supersedes any in-flight load of the previous document: the stale
// load stops at its next yield and its pending updates are dropped, so a
// replaced document cannot resurrect.
func (d *Document) Load(ctx context.Context, text string, onUpdate func(*interfaces.Snapshot)) error {
	d.loadGen++
	gen := d.loadGen
	d.generation++
	d.contentHash = fmt.Sprintf("%016x", highwayhash.Sum64([]byte(text), viewHashKey))
	d.rows = nil
	d.lines = nil
	d.counts = jsonl.NewPathCounts()
	d.schema = NewSchema()
	d.searchTerm = ""
	d.searchRegex = false
	d.progress = interfaces.LoadProgress{Loading: true}
	d.loadActive = true
	d.dirtyDuringLoad = false
	defer func() {
		if d.loadGen == gen {
			d.loadActive = false
		}
	}()

	result, err := d.loader.Load(ctx, text, func(res *jsonl.LoadResult) {
		if d.loadGen != gen {
			return // superseded while suspended at a yield
		}
		d.adopt(res)
		if onUpdate != nil {
			onUpdate(d.Snapshot())
		}
	})
	if err != nil {
		return err
	}
	if d.loadGen == gen {
		d.adopt(result)
		if d.dirtyDuringLoad {
			d.counts.Rebuild(d.rows)
			d.schema.Update(d.counts, len(d.rows))
		}
	}
	return nil
}

// adopt publishes the loader's current result as document state and lets
// schema inference see the newly counted paths.
func (d *Document) adopt(res *jsonl.LoadResult) {
	d.rows = res.Rows
	d.lines = res.Lines
	d.counts = res.Counts
	d.progress = res.Progress
	d.schema.Update(d.counts, len(d.rows))
}

// ContentHash returns the content hash of the loaded text.
func (d *Document) ContentHash() string {
	return d.contentHash
}

// Progress returns the current load progress state.
func (d *Document) Progress() interfaces.LoadProgress {
	return d.progress
}

// Rows returns the canonical row store. Callers must not reorder it.
func (d *Document) Rows() []*interfaces.Row {
	return d.rows
}

// RowCount returns the resident row count.
func (d *Document) RowCount() int {
	return len(d.rows)
}

// SetSearch sets the active search term for derived views.
func (d *Document) SetSearch(term string, useRegex bool) {
	d.searchTerm = term
	d.searchRegex = useRegex
}

// View returns the filtered rows and their canonical-index map for the
// active search term, consulting the cache first.
func (d *Document) View() ([]*interfaces.Row, []int) {
	key := fmt.Sprintf("filter:%s:%s:gen:%d:rx:%t:%s", d.id, d.contentHash, d.generation, d.searchRegex, d.searchTerm)
	if d.cache != nil {
		if rows, indices, found := d.cache.Get(key); found {
			return rows, indices
		}
	}
	rows, indices := Filter(d.rows, d.searchTerm, d.searchRegex)
	if d.cache != nil {
		d.cache.Store(key, rows, indices)
	}
	return rows, indices
}

// Snapshot assembles the full contract the rendering layer depends on; it
// is recomputable from canonical state at any time.
func (d *Document) Snapshot() *interfaces.Snapshot {
	rows, indices := d.View()
	var errors []interfaces.LineError
	for i := range d.lines {
		if d.lines[i].Err != "" {
			errors = append(errors, interfaces.LineError{
				LineNumber: d.lines[i].LineNumber,
				Message:    d.lines[i].Err,
				Raw:        d.lines[i].Raw,
			})
		}
	}
	return &interfaces.Snapshot{
		Rows:        rows,
		RowIndices:  indices,
		Columns:     d.schema.Columns(),
		ParseErrors: errors,
		Progress:    d.progress,
		ErrorCount:  len(errors),
	}
}

// Row resolves a canonical row index to its row. Indices below the resident
// window (possible after memory-optimized truncation) or past the end are
// out of range.
func (d *Document) Row(index int) (*interfaces.Row, error) {
	pos := index - d.indexOffset()
	if pos < 0 || pos >= len(d.rows) {
		return nil, fmt.Errorf("row %d out of range", index)
	}
	return d.rows[pos], nil
}

// indexOffset is the canonical index of the first resident row; non-zero
// only after the loader truncated the store in memory-optimized mode.
func (d *Document) indexOffset() int {
	if len(d.rows) == 0 {
		return 0
	}
	return d.rows[0].Index
}

// Value reads the value at path within the row with the given canonical
// index. A missing row or unresolvable path reads as (nil, false).
func (d *Document) Value(index int, path string) (any, bool) {
	row, err := d.Row(index)
	if err != nil {
		return nil, false
	}
	return ResolvePath(row.Value, path)
}

// SetCellText writes raw edit text at path within a row, with cell-text
// coercion.
func (d *Document) SetCellText(index int, path, text string) error {
	row, err := d.Row(index)
	if err != nil {
		return err
	}
	if err := SetCell(row, path, text); err != nil {
		return err
	}
	d.afterMutation()
	return nil
}

// SetCellValue writes an already-typed value at path within a row. This is
// the single write-back point for computed (AI) cell values.
func (d *Document) SetCellValue(index int, path string, value any) error {
	row, err := d.Row(index)
	if err != nil {
		return err
	}
	if err := SetCellValue(row, path, value); err != nil {
		return err
	}
	d.afterMutation()
	return nil
}

// SetRow replaces a row's entire value.
func (d *Document) SetRow(index int, value any) error {
	row, err := d.Row(index)
	if err != nil {
		return err
	}
	row.Value = value
	d.afterMutation()
	return nil
}

// SetRowText replaces a row's value from pretty-printed JSON text. Unlike
// cell writes, whole-row text must parse; the error carries the parser's
// diagnostic for inline display.
func (d *Document) SetRowText(index int, text string) error {
	value, err := oj.ParseString(text)
	if err != nil {
		return fmt.Errorf("invalid row JSON: %w", err)
	}
	return d.SetRow(index, value)
}

// SetAnnotation attaches an AI-derived note to a row. Annotations are not
// part of the source schema and never feed path counting.
func (d *Document) SetAnnotation(index int, note string) error {
	row, err := d.Row(index)
	if err != nil {
		return err
	}
	row.Annotation = note
	d.generation++
	return nil
}

// InsertRow inserts a new row above or below the row with the given
// canonical index, shifting every subsequent row's index by one. Any index
// map computed before this call is invalid afterwards.
func (d *Document) InsertRow(index int, value any, below bool) error {
	pos := index - d.indexOffset()
	if pos < 0 || pos >= len(d.rows) {
		return fmt.Errorf("row %d out of range", index)
	}
	if below {
		pos++
	}
	return d.insertAt(pos, []any{value})
}

// PasteRows inserts a block of rows below the row with the given canonical
// index (or at the top of an empty document), shifting subsequent indices
// by the block length.
func (d *Document) PasteRows(index int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	if len(d.rows) == 0 {
		return d.insertAt(0, values)
	}
	pos := index - d.indexOffset()
	if pos < 0 || pos >= len(d.rows) {
		return fmt.Errorf("row %d out of range", index)
	}
	return d.insertAt(pos+1, values)
}

// AppendRows appends generated rows at the end of the canonical store.
func (d *Document) AppendRows(values []any) error {
	return d.insertAt(len(d.rows), values)
}

func (d *Document) insertAt(pos int, values []any) error {
	if d.loadActive {
		return ErrLoadInProgress
	}
	base := d.indexOffset() + pos
	inserted := make([]*interfaces.Row, len(values))
	for i, value := range values {
		inserted[i] = &interfaces.Row{Index: base + i, Value: value}
	}
	grown := make([]*interfaces.Row, 0, len(d.rows)+len(inserted))
	grown = append(grown, d.rows[:pos]...)
	grown = append(grown, inserted...)
	grown = append(grown, d.rows[pos:]...)
	d.rows = grown
	d.renumber(pos+len(inserted), base+len(inserted))
	d.afterMutation()
	return nil
}

// DuplicateRow inserts a deep copy of a row directly below it.
func (d *Document) DuplicateRow(index int) error {
	row, err := d.Row(index)
	if err != nil {
		return err
	}
	cloned, err := CloneValue(row.Value)
	if err != nil {
		return err
	}
	return d.InsertRow(index, cloned, true)
}

// DeleteRow removes a row, shifting every subsequent row's index down by
// one.
func (d *Document) DeleteRow(index int) error {
	if d.loadActive {
		return ErrLoadInProgress
	}
	pos := index - d.indexOffset()
	if pos < 0 || pos >= len(d.rows) {
		return fmt.Errorf("row %d out of range", index)
	}
	d.rows = append(d.rows[:pos], d.rows[pos+1:]...)
	d.renumber(pos, index)
	d.afterMutation()
	return nil
}

// renumber restores contiguous canonical numbering for rows at and after
// pos, counting up from base. Every structural row operation funnels
// through this so subsequent indices shift exactly by the operation's
// delta.
func (d *Document) renumber(pos, base int) {
	for i := pos; i < len(d.rows); i++ {
		d.rows[i].Index = base
		base++
	}
}

// ReplaceAll applies a find/replace across the current filtered view. Each
// row's replace is all-or-nothing; rows whose substituted form no longer
// parses are skipped while the others proceed. Returns the number of rows
// changed.
func (d *Document) ReplaceAll(search, replace string, useRegex bool) int {
	if search == "" {
		return 0
	}
	rows, _ := d.View()
	changed := ReplaceInRows(rows, search, replace, useRegex)
	if changed > 0 {
		d.afterMutation()
	}
	return changed
}

// afterMutation re-derives everything that depends on row contents: the
// path-count table is rebuilt from the resident rows, schema inference
// sees any new paths, and the mutation generation invalidates cached
// views. While a load is in flight the rebuild is deferred to the final
// adoption; the edit itself lives on the shared row pointers the loader
// will adopt.
func (d *Document) afterMutation() {
	d.generation++
	if d.loadActive {
		d.dirtyDuringLoad = true
		return
	}
	d.counts.Rebuild(d.rows)
	d.schema.Update(d.counts, len(d.rows))
}

// Schema column operations.

// AddColumn adds a column by path; no-op if it already exists.
func (d *Document) AddColumn(path string) bool {
	return d.schema.Add(path)
}

// RemoveColumn removes a column by exact path, cascading to its expansion
// children.
func (d *Document) RemoveColumn(path string) bool {
	return d.schema.Remove(path)
}

// CollapseColumn collapses an expanded column.
func (d *Document) CollapseColumn(path string) bool {
	return d.schema.Collapse(path)
}

// ExpandColumn materializes a column's children as sibling columns. The
// child set is derived from the currently filtered rows: merged sorted keys
// for object values, indices up to the maximum observed length for array
// values. Re-expanding an expanded column is a no-op.
func (d *Document) ExpandColumn(path string) error {
	if !d.schema.Has(path) {
		return fmt.Errorf("no column with path %q", path)
	}
	segments, err := ParsePath(path)
	if err != nil {
		return err
	}

	rows, _ := d.View()
	var sample any
	for _, row := range rows {
		if value, ok := Resolve(row.Value, segments); ok {
			sample = value
			break
		}
	}

	var children []interfaces.Column
	switch sample.(type) {
	case map[string]any:
		keys := make(map[string]bool)
		for _, row := range rows {
			if value, ok := Resolve(row.Value, segments); ok {
				if obj, ok := value.(map[string]any); ok {
					for key := range obj {
						keys[key] = true
					}
				}
			}
		}
		sorted := make([]string, 0, len(keys))
		for key := range keys {
			sorted = append(sorted, key)
		}
		sort.Strings(sorted)
		for _, key := range sorted {
			childPath := JoinPath(path, key)
			children = append(children, interfaces.Column{Path: childPath, Name: childPath})
		}
	case []any:
		maxLen := 0
		for _, row := range rows {
			if value, ok := Resolve(row.Value, segments); ok {
				if arr, ok := value.([]any); ok && len(arr) > maxLen {
					maxLen = len(arr)
				}
			}
		}
		for i := 0; i < maxLen; i++ {
			childPath := IndexPath(path, i)
			children = append(children, interfaces.Column{Path: childPath, Name: childPath})
		}
	default:
		return fmt.Errorf("column %q holds no object or array value to expand", path)
	}

	d.schema.Expand(path, children)
	return nil
}

// RowsAsJSONL serializes the rows with the given canonical indices as
// JSONL text, one canonical line per row. Unknown indices are skipped.
func (d *Document) RowsAsJSONL(indices []int) string {
	var b strings.Builder
	for _, index := range indices {
		row, err := d.Row(index)
		if err != nil {
			continue
		}
		b.WriteString(Serialize(row))
		b.WriteString("\n")
	}
	return b.String()
}
