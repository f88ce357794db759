package jsonl

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"jsonlview/app/interfaces"
)

// Chunked document loading. The loader converts a raw text blob into the
// canonical row store without one long synchronous pass: the first few
// chunks are processed inline so the first paint has real data, the rest is
// processed chunk by chunk with a yield between chunks so the host event
// loop can service paint and input.

// LoadState tracks the loader state machine:
// NotStarted -> LoadingInitial -> LoadingBackground (repeating) -> Complete.
// Only a brand-new load leaves Complete.
type LoadState int

const (
	LoadNotStarted LoadState = iota
	LoadingInitial
	LoadingBackground
	LoadComplete
)

// String returns the string representation of LoadState
func (s LoadState) String() string {
	switch s {
	case LoadingInitial:
		return "loading_initial"
	case LoadingBackground:
		return "loading_background"
	case LoadComplete:
		return "complete"
	default:
		return "not_started"
	}
}

const (
	// DefaultChunkSize is the number of lines processed per step.
	DefaultChunkSize = 1000
	// DefaultInitialChunks is how many chunks are processed synchronously
	// before the first yield.
	DefaultInitialChunks = 2
	// DefaultMaxResidentRows is the resident-row ceiling before the loader
	// switches to memory-optimized mode and truncates the store.
	DefaultMaxResidentRows = 50000
	// retainedFraction of the ceiling survives a truncation pass.
	retainedFraction = 0.8
	// emitEveryNChunks throttles chunk callbacks; the progress state itself
	// is updated after every chunk.
	emitEveryNChunks = 2
)

// ErrSuperseded is returned when a newer Load call on the same Loader took
// over while this one was suspended at a yield point.
var ErrSuperseded = errors.New("load superseded by a newer document")

// ChunkCallback observes the partially built result after chunk boundaries.
// The result must not be mutated by the callback.
type ChunkCallback func(result *LoadResult)

// LoadResult is the canonical outcome of a document load: the row store,
// the per-line parse outcomes, the shared path-count table and the final
// progress state. Rows and Lines share Row pointers.
type LoadResult struct {
	Rows     []*interfaces.Row
	Lines    []interfaces.ParsedLine
	Counts   *PathCounts
	Progress interfaces.LoadProgress
}

// ErrorCount returns the number of lines that failed to parse.
func (r *LoadResult) ErrorCount() int {
	n := 0
	for i := range r.Lines {
		if r.Lines[i].Err != "" {
			n++
		}
	}
	return n
}

// ParseErrors returns the per-line diagnostics for the shell.
func (r *LoadResult) ParseErrors() []interfaces.LineError {
	var out []interfaces.LineError
	for i := range r.Lines {
		if r.Lines[i].Err != "" {
			out = append(out, interfaces.LineError{
				LineNumber: r.Lines[i].LineNumber,
				Message:    r.Lines[i].Err,
				Raw:        r.Lines[i].Raw,
			})
		}
	}
	return out
}

// Loader drives chunked ingestion of one document at a time. A new Load
// call supersedes any in-flight load on the same Loader: the stale load
// notices at its next yield point and stops without writing further state.
type Loader struct {
	chunkSize       int
	initialChunks   int
	maxResidentRows int
	yield           func()
	generation      uint64
	state           LoadState
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithChunkSize overrides the lines-per-chunk count.
func WithChunkSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

// WithInitialChunks overrides how many chunks load synchronously up front.
func WithInitialChunks(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.initialChunks = n
		}
	}
}

// WithMaxResidentRows overrides the resident-row ceiling.
func WithMaxResidentRows(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxResidentRows = n
		}
	}
}

// WithYield sets the function invoked between background chunks. The
// default is a no-op; the shell installs one that pumps its event loop.
func WithYield(yield func()) LoaderOption {
	return func(l *Loader) {
		if yield != nil {
			l.yield = yield
		}
	}
}

// NewLoader creates a loader with the default chunking parameters.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		chunkSize:       DefaultChunkSize,
		initialChunks:   DefaultInitialChunks,
		maxResidentRows: DefaultMaxResidentRows,
		yield:           func() {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current loader state.
func (l *Loader) State() LoadState {
	return l.state
}

// SplitLines splits a document into physical lines. A single trailing
// newline does not produce a phantom empty line; CRLF endings are
// normalized. This is the one unavoidable O(n) pass over the input.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Load ingests a full document. The first initialChunks*chunkSize lines are
// processed before Load first yields; every subsequent chunk is followed by
// a yield and a staleness check. onChunk is invoked every other chunk and
// once at completion.
//
// Malformed lines degrade to per-line diagnostics and never abort the load.
// Load returns ErrSuperseded if a newer Load call took over, or the context
// error if ctx was cancelled; in both cases the partial result is returned
// but must be discarded by stale callers.
func (l *Loader) Load(ctx context.Context, text string, onChunk ChunkCallback) (*LoadResult, error) {
	gen := atomic.AddUint64(&l.generation, 1)

	lines := SplitLines(text)
	total := len(lines)

	result := &LoadResult{
		Rows:   make([]*interfaces.Row, 0, min(total, l.maxResidentRows)),
		Lines:  make([]interfaces.ParsedLine, 0, total),
		Counts: NewPathCounts(),
	}
	result.Progress = interfaces.LoadProgress{
		TotalLines: total,
		Loading:    true,
		// The ceiling check is proactive: a document known to exceed it is
		// flagged before the first truncation happens.
		MemoryOptimized: total > l.maxResidentRows,
	}

	if total == 0 {
		l.state = LoadComplete
		result.Progress.Loading = false
		result.Progress.Percent = 100
		if onChunk != nil {
			onChunk(result)
		}
		return result, nil
	}

	l.state = LoadingInitial
	initial := l.chunkSize * l.initialChunks
	if initial > total {
		initial = total
	}
	l.processLines(result, lines[:initial], 1)
	l.updateProgress(result)
	if onChunk != nil {
		onChunk(result)
	}

	chunkIdx := 0
	for offset := initial; offset < total; offset += l.chunkSize {
		l.state = LoadingBackground
		l.yield()

		// A yield is the only suspension point; anything could have
		// replaced this load while we were away.
		if atomic.LoadUint64(&l.generation) != gen {
			return result, ErrSuperseded
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := offset + l.chunkSize
		if end > total {
			end = total
		}
		l.processLines(result, lines[offset:end], offset+1)
		l.updateProgress(result)

		chunkIdx++
		if onChunk != nil && chunkIdx%emitEveryNChunks == 0 {
			onChunk(result)
		}
	}

	l.state = LoadComplete
	result.Progress.Loading = false
	result.Progress.Percent = 100
	if onChunk != nil {
		onChunk(result)
	}
	return result, nil
}

// processLines parses a batch of lines starting at the given 1-based line
// number, appending rows to the store in file order. Row canonical indices
// are assigned at first parse and never change during loading.
func (l *Loader) processLines(result *LoadResult, lines []string, firstLineNumber int) {
	for i, raw := range lines {
		parsed := ParseLine(firstLineNumber+i, raw, result.Counts)
		if parsed.Row != nil {
			parsed.Row.Index = l.nextRowIndex(result)
			result.Rows = append(result.Rows, parsed.Row)
			l.enforceResidentCap(result)
		}
		result.Lines = append(result.Lines, parsed)
	}
}

func (l *Loader) nextRowIndex(result *LoadResult) int {
	if len(result.Rows) == 0 {
		if result.Progress.MemoryOptimized {
			// All previous rows were truncated away; indices keep counting.
			return l.truncatedThrough(result)
		}
		return 0
	}
	return result.Rows[len(result.Rows)-1].Index + 1
}

// truncatedThrough returns the next index after the highest index ever
// assigned, derived from the line slice when the store is empty.
func (l *Loader) truncatedThrough(result *LoadResult) int {
	next := 0
	for i := len(result.Lines) - 1; i >= 0; i-- {
		if result.Lines[i].Row != nil {
			next = result.Lines[i].Row.Index + 1
			break
		}
	}
	return next
}

// enforceResidentCap truncates the store to the most recent 80% of the
// ceiling once the resident row count exceeds it, then rebuilds the
// path-count table from the retained rows. Documented lossy behavior on
// very large files: oldest-loaded rows are dropped, their indices are not
// reused, and the memory-optimized flag is raised for the shell.
func (l *Loader) enforceResidentCap(result *LoadResult) {
	if len(result.Rows) <= l.maxResidentRows {
		return
	}
	keep := int(float64(l.maxResidentRows) * retainedFraction)
	retained := result.Rows[len(result.Rows)-keep:]
	result.Rows = append(make([]*interfaces.Row, 0, l.maxResidentRows), retained...)
	result.Counts.Rebuild(result.Rows)
	result.Progress.MemoryOptimized = true
}

func (l *Loader) updateProgress(result *LoadResult) {
	result.Progress.LoadedLines = len(result.Lines)
	result.Progress.ResidentRows = len(result.Rows)
	if result.Progress.TotalLines > 0 {
		result.Progress.Percent = float64(result.Progress.LoadedLines) / float64(result.Progress.TotalLines) * 100
	}
	result.Progress.Loading = result.Progress.LoadedLines < result.Progress.TotalLines
}
