package table

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"jsonlview/app/cache"
	"jsonlview/app/jsonl"
)

func loadDocument(t *testing.T, text string, opts ...DocumentOption) *Document {
	t.Helper()
	d := NewDocument(opts...)
	if err := d.Load(context.Background(), text, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return d
}

func TestDocumentSnapshot(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"event": "start", "level": 1}`,
		`broken`,
		`{"event": "end", "level": 2}`,
	}, "\n"))

	snap := d.Snapshot()
	if len(snap.Rows) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(snap.Rows))
	}
	if snap.ErrorCount != 1 || len(snap.ParseErrors) != 1 {
		t.Errorf("errors = %d/%d, want 1", snap.ErrorCount, len(snap.ParseErrors))
	}
	if snap.ParseErrors[0].LineNumber != 2 {
		t.Errorf("error line = %d, want 2", snap.ParseErrors[0].LineNumber)
	}
	if len(snap.Columns) == 0 {
		t.Error("expected inferred columns")
	}
	hasEvent := false
	for _, col := range snap.Columns {
		if col.Path == "event" {
			hasEvent = true
		}
	}
	if !hasEvent {
		t.Errorf("columns %v missing event", snap.Columns)
	}
}

func TestDocumentFilteredView(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"msg": "alpha"}`,
		`{"msg": "beta"}`,
		`{"msg": "alphabet"}`,
	}, "\n"))

	d.SetSearch("alpha", false)
	rows, indices := d.View()
	if len(rows) != 2 {
		t.Fatalf("filtered rows = %d, want 2", len(rows))
	}
	if indices[0] != 0 || indices[1] != 2 {
		t.Errorf("indices = %v, want [0 2]", indices)
	}

	d.SetSearch("", false)
	rows, _ = d.View()
	if len(rows) != 3 {
		t.Errorf("cleared filter rows = %d, want 3", len(rows))
	}
}

func TestDocumentViewCaching(t *testing.T) {
	c := cache.New(cache.DefaultMaxSize)
	d := loadDocument(t, `{"msg": "alpha"}`+"\n"+`{"msg": "beta"}`, WithCache(c))

	d.SetSearch("alpha", false)
	d.View()
	d.View()
	stats := c.GetStats()
	if stats.Hits == 0 {
		t.Errorf("second identical view should hit the cache, stats %+v", stats)
	}

	// Mutation changes the generation, so the old entry stops matching.
	if err := d.SetCellText(0, "msg", "gamma"); err != nil {
		t.Fatal(err)
	}
	rows, _ := d.View()
	if len(rows) != 0 {
		t.Errorf("post-mutation alpha view = %d rows, want 0 (no stale hit)", len(rows))
	}
}

func TestDocumentCellRoundTrip(t *testing.T) {
	d := loadDocument(t, `{"user": {"name": "amy"}}`)

	if err := d.SetCellText(0, "user.age", "31"); err != nil {
		t.Fatalf("SetCellText failed: %v", err)
	}
	got, ok := d.Value(0, "user.age")
	if !ok || got != int64(31) {
		t.Errorf("user.age = %v (ok=%v), want 31", got, ok)
	}
	if _, ok := d.Value(0, "user.missing"); ok {
		t.Error("missing path should read as a miss")
	}
	if err := d.SetCellText(99, "x", "1"); err == nil {
		t.Error("out-of-range row should error")
	}
}

func TestDocumentSetRowText(t *testing.T) {
	d := loadDocument(t, `{"a": 1}`)
	if err := d.SetRowText(0, `{"b": 2}`); err != nil {
		t.Fatalf("SetRowText failed: %v", err)
	}
	if got, ok := d.Value(0, "b"); !ok || got != int64(2) {
		t.Errorf("b = %v, want 2", got)
	}
	if err := d.SetRowText(0, `{"broken`); err == nil {
		t.Error("invalid row JSON must error")
	}
	if got, _ := d.Value(0, "b"); got != int64(2) {
		t.Error("failed SetRowText must not change the row")
	}
}

func TestDocumentInsertDeleteRenumbering(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"n": 0}`, `{"n": 1}`, `{"n": 2}`,
	}, "\n"))

	assertIndices := func(want ...int) {
		t.Helper()
		rows := d.Rows()
		if len(rows) != len(want) {
			t.Fatalf("row count = %d, want %d", len(rows), len(want))
		}
		for i, w := range want {
			if rows[i].Index != w {
				t.Fatalf("rows[%d].Index = %d, want %d (all: %v)", i, rows[i].Index, w, want)
			}
		}
	}

	if err := d.InsertRow(1, map[string]any{"inserted": true}, false); err != nil {
		t.Fatalf("InsertRow failed: %v", err)
	}
	assertIndices(0, 1, 2, 3)
	if _, ok := d.Value(1, "inserted"); !ok {
		t.Error("inserted row should sit at index 1")
	}

	if err := d.DeleteRow(0); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	assertIndices(0, 1, 2)
	if _, ok := d.Value(0, "inserted"); !ok {
		t.Error("deleting the first row should shift the inserted row to 0")
	}

	if err := d.DeleteRow(42); err == nil {
		t.Error("out-of-range delete should error")
	}
}

func TestDocumentDuplicateRow(t *testing.T) {
	d := loadDocument(t, `{"nested": {"k": 1}}`)
	if err := d.DuplicateRow(0); err != nil {
		t.Fatalf("DuplicateRow failed: %v", err)
	}
	if d.RowCount() != 2 {
		t.Fatalf("row count = %d, want 2", d.RowCount())
	}
	// The copy must be deep: editing it leaves the source alone.
	if err := d.SetCellText(1, "nested.k", "99"); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.Value(0, "nested.k"); got != int64(1) {
		t.Errorf("source nested.k = %v, duplicate shares storage", got)
	}
}

func TestDocumentPasteRows(t *testing.T) {
	d := loadDocument(t, `{"n": 0}`+"\n"+`{"n": 1}`)
	if err := d.PasteRows(0, []any{
		map[string]any{"p": int64(1)},
		map[string]any{"p": int64(2)},
	}); err != nil {
		t.Fatalf("PasteRows failed: %v", err)
	}

	if d.RowCount() != 4 {
		t.Fatalf("row count = %d, want 4", d.RowCount())
	}
	// Pasted block sits below row 0; the old row 1 shifted to 3.
	if got, ok := d.Value(1, "p"); !ok || got != int64(1) {
		t.Errorf("row 1 = %v, want first pasted row", got)
	}
	if got, ok := d.Value(3, "n"); !ok || got != int64(1) {
		t.Errorf("row 3 = %v, want shifted original", got)
	}
}

func TestDocumentPasteIntoEmpty(t *testing.T) {
	d := loadDocument(t, "")
	if err := d.PasteRows(0, []any{map[string]any{"p": int64(1)}}); err != nil {
		t.Fatalf("PasteRows into empty failed: %v", err)
	}
	if d.RowCount() != 1 {
		t.Errorf("row count = %d, want 1", d.RowCount())
	}
}

func TestDocumentReplaceAllOverFilteredView(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"kind": "cat", "v": "old"}`,
		`{"kind": "dog", "v": "old"}`,
		`{"kind": "cat", "v": "old"}`,
	}, "\n"))

	d.SetSearch("cat", false)
	changed := d.ReplaceAll("old", "new", false)
	if changed != 2 {
		t.Fatalf("changed = %d, want 2 (filtered rows only)", changed)
	}
	if got, _ := d.Value(1, "v"); got != "old" {
		t.Errorf("row outside the filter changed: v = %v", got)
	}
	if got, _ := d.Value(0, "v"); got != "new" {
		t.Errorf("filtered row not changed: v = %v", got)
	}
}

func TestDocumentExpandCollapseColumn(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"user": {"name": "amy", "age": 30}}`,
		`{"user": {"name": "bob", "city": "Oslo"}}`,
	}, "\n"))

	if err := d.ExpandColumn("user"); err != nil {
		t.Fatalf("ExpandColumn failed: %v", err)
	}
	snap := d.Snapshot()
	paths := map[string]bool{}
	for _, col := range snap.Columns {
		paths[col.Path] = true
	}
	// Merged keys across both rows, sorted.
	for _, want := range []string{"user.age", "user.city", "user.name"} {
		if !paths[want] {
			t.Errorf("expanded columns missing %s: %v", want, snap.Columns)
		}
	}

	if !d.CollapseColumn("user") {
		t.Fatal("CollapseColumn failed")
	}

	if err := d.ExpandColumn("nosuch"); err == nil {
		t.Error("expanding an unknown column should error")
	}
}

func TestDocumentExpandArrayColumn(t *testing.T) {
	d := loadDocument(t, strings.Join([]string{
		`{"tags": ["a"]}`,
		`{"tags": ["b", "c", "d"]}`,
	}, "\n"))

	if err := d.ExpandColumn("tags"); err != nil {
		t.Fatalf("ExpandColumn failed: %v", err)
	}
	paths := map[string]bool{}
	for _, col := range d.Snapshot().Columns {
		paths[col.Path] = true
	}
	for _, want := range []string{"tags[0]", "tags[1]", "tags[2]"} {
		if !paths[want] {
			t.Errorf("missing child column %s", want)
		}
	}
}

func TestDocumentAnnotation(t *testing.T) {
	d := loadDocument(t, `{"a": 1}`)
	if err := d.SetAnnotation(0, "looks suspicious"); err != nil {
		t.Fatalf("SetAnnotation failed: %v", err)
	}
	row, err := d.Row(0)
	if err != nil {
		t.Fatal(err)
	}
	if row.Annotation != "looks suspicious" {
		t.Errorf("annotation = %q", row.Annotation)
	}
	// Annotations never become columns.
	for _, col := range d.Snapshot().Columns {
		if strings.Contains(col.Path, "Annotation") {
			t.Errorf("annotation leaked into schema: %v", col)
		}
	}
}

func TestDocumentRowsAsJSONL(t *testing.T) {
	d := loadDocument(t, `{"a":1}`+"\n"+`{"b":2}`)
	text := d.RowsAsJSONL([]int{1, 0, 99})
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (unknown index skipped)", len(lines))
	}
	if lines[0] != `{"b":2}` || lines[1] != `{"a":1}` {
		t.Errorf("lines = %v", lines)
	}
}

func TestDocumentMutationPromotesNewPaths(t *testing.T) {
	d := loadDocument(t, `{"a": 1}`)
	if err := d.SetCellText(0, "fresh", "true"); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, col := range d.Snapshot().Columns {
		if col.Path == "fresh" {
			found = true
		}
	}
	if !found {
		t.Error("path written by mutation should be promoted")
	}
}

func TestDocumentCellEditDuringLoad(t *testing.T) {
	var b strings.Builder
	const total = 500
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "{\"n\": %d}\n", i)
	}

	var d *Document
	edited := false
	loader := jsonl.NewLoader(
		jsonl.WithChunkSize(50),
		jsonl.WithInitialChunks(1),
		jsonl.WithYield(func() {
			if edited {
				return
			}
			edited = true
			if err := d.SetCellText(0, "note", "edited mid-load"); err != nil {
				t.Errorf("edit at yield point failed: %v", err)
			}
		}),
	)
	d = NewDocument(WithLoader(loader))
	if err := d.Load(context.Background(), b.String(), nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !edited {
		t.Fatal("yield never fired")
	}
	// The interleaved edit must neither stop the load nor be lost.
	if d.RowCount() != total {
		t.Fatalf("RowCount = %d, want %d", d.RowCount(), total)
	}
	if d.Progress().Loading {
		t.Error("Progress.Loading still true after Load returned")
	}
	if got, ok := d.Value(0, "note"); !ok || got != "edited mid-load" {
		t.Errorf("note = %v (ok=%v), mid-load edit lost", got, ok)
	}
	if got, ok := d.Value(total-1, "n"); !ok || got != int64(total-1) {
		t.Errorf("last row = %v (ok=%v), want %d", got, ok, total-1)
	}
}

func TestDocumentStructuralEditDuringLoad(t *testing.T) {
	var b strings.Builder
	const total = 300
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "{\"n\": %d}\n", i)
	}

	var d *Document
	var deleteErr error
	tried := false
	loader := jsonl.NewLoader(
		jsonl.WithChunkSize(50),
		jsonl.WithInitialChunks(1),
		jsonl.WithYield(func() {
			if tried {
				return
			}
			tried = true
			deleteErr = d.DeleteRow(0)
		}),
	)
	d = NewDocument(WithLoader(loader))
	if err := d.Load(context.Background(), b.String(), nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !errors.Is(deleteErr, ErrLoadInProgress) {
		t.Errorf("mid-load delete error = %v, want ErrLoadInProgress", deleteErr)
	}
	if d.RowCount() != total {
		t.Fatalf("RowCount = %d, want %d", d.RowCount(), total)
	}
	// After the load finishes, structural operations work again.
	if err := d.DeleteRow(0); err != nil {
		t.Fatalf("post-load delete failed: %v", err)
	}
	if d.RowCount() != total-1 {
		t.Errorf("RowCount after delete = %d, want %d", d.RowCount(), total-1)
	}
}

func TestDocumentSharedCacheKeepsDocumentsApart(t *testing.T) {
	c := cache.New(cache.DefaultMaxSize)
	text := `{"msg": "hello"}`

	docA := loadDocument(t, text, WithCache(c))
	docB := loadDocument(t, text, WithCache(c))

	// Same text, same generation; each view must still serve its own rows.
	rowsA, _ := docA.View()
	rowsB, _ := docB.View()
	if rowsB[0] != docB.Rows()[0] {
		t.Fatal("document B's view serves a foreign row pointer")
	}
	if rowsA[0] == rowsB[0] {
		t.Fatal("the two documents share a row object through the cache")
	}

	if err := docA.SetCellText(0, "msg", "changed in A"); err != nil {
		t.Fatal(err)
	}
	rowsB, _ = docB.View()
	if got, _ := ResolvePath(rowsB[0].Value, "msg"); got != "hello" {
		t.Errorf("edit in document A leaked into document B's view: %v", got)
	}
}

func TestDocumentLoadSupersedesPrevious(t *testing.T) {
	loader := jsonl.NewLoader()
	d := NewDocument(WithLoader(loader))
	if err := d.Load(context.Background(), `{"first": true}`, nil); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(context.Background(), `{"second": true}`, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Value(0, "second"); !ok {
		t.Error("document should hold the second load's content")
	}
	if _, ok := d.Value(0, "first"); ok {
		t.Error("first load's content resurrected")
	}
}
