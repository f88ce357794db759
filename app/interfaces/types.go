package interfaces

// Package interfaces holds the shared types exchanged between the core
// packages (jsonl, table) and the shell. Keeping them here avoids import
// cycles between the loader, the document facade and the app controller.

// Row represents a single parsed JSON value from one input line.
// Index is the row's canonical position in the row store at creation time;
// it is fixed at first parse and only changes through explicit structural
// row operations (insert/delete/duplicate/paste), never through filtering.
type Row struct {
	Index      int    // 0-based canonical (original) index
	Value      any    // Parsed JSON value, typically map[string]any
	Annotation string // AI-derived note; not part of the source schema
}

// ParsedLine holds the outcome of parsing one physical input line.
// Blank lines and parse failures occupy their own slot so that line
// numbering never drifts from the underlying file.
type ParsedLine struct {
	LineNumber int    // 1-based line number in the source document
	Raw        string // Original line content, never trimmed
	Row        *Row   // Parsed row, nil for blank or malformed lines
	Err        string // Parser diagnostic, empty unless the line failed to parse
	Blank      bool   // True for whitespace-only lines
}

// Column describes one table column addressed by a dot/bracket path
// expression such as "user.addr[0].city".
type Column struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Visible    bool   `json:"visible"`
	IsExpanded bool   `json:"isExpanded"`           // Children materialized as sibling columns, self hidden
	ParentPath string `json:"parentPath,omitempty"` // Set only on columns produced by expansion
}

// LineError is a per-line parse diagnostic surfaced to the shell.
type LineError struct {
	LineNumber int    `json:"lineNumber"`
	Message    string `json:"message"`
	Raw        string `json:"raw"`
}

// LoadProgress describes the state of an incremental document load.
type LoadProgress struct {
	LoadedLines     int     `json:"loadedLines"`
	TotalLines      int     `json:"totalLines"`
	Loading         bool    `json:"loading"`
	Percent         float64 `json:"percent"`
	MemoryOptimized bool    `json:"memoryOptimized"` // True once the resident-row cap forced truncation
	ResidentRows    int     `json:"residentRows"`
}

// Snapshot is the full contract the rendering layer depends on. It is
// recomputable from canonical document state at any time; no UI-only
// derived state lives inside the core.
type Snapshot struct {
	Rows        []*Row       `json:"rows"`        // Filtered rows in canonical order
	RowIndices  []int        `json:"rowIndices"`  // RowIndices[i] is the canonical index of Rows[i]
	Columns     []Column     `json:"columns"`     // Live column list including hidden/expanded entries
	ParseErrors []LineError  `json:"parseErrors"` // Per-line diagnostics from the last load
	Progress    LoadProgress `json:"progress"`
	ErrorCount  int          `json:"errorCount"`
}

// ProgressCallback receives loader progress. Emission may be throttled to
// every other chunk; staleness of one chunk interval is acceptable.
type ProgressCallback func(progress LoadProgress)
