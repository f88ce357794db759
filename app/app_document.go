package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jsonlview/app/export"
	"jsonlview/app/interfaces"
	"jsonlview/app/jsonl"
	"jsonlview/app/settings"

	"github.com/ohler55/ojg/oj"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// documentUpdateEvent is emitted whenever a tab's document content changes
// and the frontend should refetch its snapshot.
const documentUpdateEvent = "document:update"

func (a *App) emitUpdate(tabID string) {
	a.emitEvent(documentUpdateEvent, tabID)
}

func (a *App) emitEvent(name string, data ...any) {
	if a.ctx != nil {
		wruntime.EventsEmit(a.ctx, name, data...)
	}
}

// OpenFile reads a JSONL document (decompressing if needed), opens a new
// tab for it and starts a chunked background load. It returns the tab ID
// as soon as the initial chunks are visible.
func (a *App) OpenFile(filePath string) (string, error) {
	text, err := jsonl.ReadDocument(filePath)
	if err != nil {
		a.Log("error", fmt.Sprintf("Failed to read %s: %v", filePath, err))
		return "", err
	}

	tab := a.newTab(filePath)
	a.startLoad(tab, text)
	a.emitUpdate(tab.ID)
	return tab.ID, nil
}

// OpenText opens a new tab for raw JSONL text, e.g. pasted content.
func (a *App) OpenText(name, text string) string {
	tab := a.newTab(name)
	a.startLoad(tab, text)
	a.emitUpdate(tab.ID)
	return tab.ID
}

// startLoad begins a chunked load for the tab, superseding any load that
// is already running. The tab mutex is held for the whole load except at
// yield points, so user edits interleave only between chunks.
func (a *App) startLoad(tab *Tab, text string) {
	if tab.LoadCancel != nil {
		tab.LoadCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	tab.LoadCancel = cancel

	go func() {
		tab.Mu.Lock()
		defer tab.Mu.Unlock()

		err := tab.Doc.Load(ctx, text, func(_ *interfaces.Snapshot) {
			a.emitUpdate(tab.ID)
		})
		if err != nil && !errors.Is(err, jsonl.ErrSuperseded) && !errors.Is(err, context.Canceled) {
			a.Log("error", fmt.Sprintf("Load failed for %s: %v", tab.FilePath, err))
		}
		a.emitUpdate(tab.ID)
	}()
}

// GetSnapshot returns the current filtered view of a tab's document.
func (a *App) GetSnapshot(tabID string) (*interfaces.Snapshot, error) {
	tab, err := a.getTab(tabID)
	if err != nil {
		return nil, err
	}
	tab.Mu.Lock()
	defer tab.Mu.Unlock()
	return tab.Doc.Snapshot(), nil
}

// SetSearchTerm updates the tab's filter. An empty term clears it.
func (a *App) SetSearchTerm(tabID, term string, useRegex bool) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	tab.Doc.SetSearch(term, useRegex)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)
	return nil
}

// GetCellValue returns the value at a column path within a row, rendered
// as JSON text, or "" when the path does not resolve.
func (a *App) GetCellValue(tabID string, rowIndex int, path string) (string, error) {
	tab, err := a.getTab(tabID)
	if err != nil {
		return "", err
	}
	tab.Mu.Lock()
	defer tab.Mu.Unlock()
	value, ok := tab.Doc.Value(rowIndex, path)
	if !ok || value == nil {
		return "", nil
	}
	if s, isString := value.(string); isString {
		return s, nil
	}
	return oj.JSON(value), nil
}

// SetCellValue writes edited cell text into a row, creating intermediate
// containers along the path as needed.
func (a *App) SetCellValue(tabID string, rowIndex int, path, text string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.SetCellText(rowIndex, path, text)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// SetRowText replaces an entire row with the parsed form of raw JSON text.
func (a *App) SetRowText(tabID string, rowIndex int, text string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.SetRowText(rowIndex, text)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// InsertRow inserts an empty object row above or below the given row.
func (a *App) InsertRow(tabID string, rowIndex int, below bool) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.InsertRow(rowIndex, map[string]any{}, below)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// DuplicateRow inserts a deep copy of a row directly below it.
func (a *App) DuplicateRow(tabID string, rowIndex int) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.DuplicateRow(rowIndex)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// DeleteRow removes a row and renumbers those after it.
func (a *App) DeleteRow(tabID string, rowIndex int) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.DeleteRow(rowIndex)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// PasteRows parses clipboard-style JSONL text and inserts the resulting
// rows below the given row. Unparseable lines are skipped; the number of
// inserted rows is returned.
func (a *App) PasteRows(tabID string, rowIndex int, text string) (int, error) {
	tab, err := a.getTab(tabID)
	if err != nil {
		return 0, err
	}
	var values []any
	for _, line := range jsonl.SplitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		value, parseErr := oj.ParseString(line)
		if parseErr != nil {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no parseable rows in pasted text")
	}
	tab.Mu.Lock()
	err = tab.Doc.PasteRows(rowIndex, values)
	tab.Mu.Unlock()
	if err != nil {
		return 0, err
	}
	a.emitUpdate(tab.ID)
	return len(values), nil
}

// AnnotateRow attaches a free-form annotation to a row without touching
// its value.
func (a *App) AnnotateRow(tabID string, rowIndex int, annotation string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.SetAnnotation(rowIndex, annotation)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// ReplaceAll performs find/replace across the filtered rows; returns the
// count of rows changed.
func (a *App) ReplaceAll(tabID, find, replace string, useRegex bool) (int, error) {
	tab, err := a.getTab(tabID)
	if err != nil {
		return 0, err
	}
	tab.Mu.Lock()
	changed := tab.Doc.ReplaceAll(find, replace, useRegex)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)
	return changed, nil
}

// AddColumn adds a manual column for a path.
func (a *App) AddColumn(tabID, path string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	tab.Doc.AddColumn(path)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)
	return nil
}

// RemoveColumn removes a column and any expansion children it has.
func (a *App) RemoveColumn(tabID, path string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	tab.Doc.RemoveColumn(path)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)
	return nil
}

// ExpandColumn replaces a container column with per-key or per-index
// child columns sampled from the filtered rows.
func (a *App) ExpandColumn(tabID, path string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	err = tab.Doc.ExpandColumn(path)
	tab.Mu.Unlock()
	if err != nil {
		return err
	}
	a.emitUpdate(tab.ID)
	return nil
}

// CollapseColumn undoes an expansion, restoring the parent column.
func (a *App) CollapseColumn(tabID, path string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	tab.Doc.CollapseColumn(path)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)
	return nil
}

// ExportXLSX writes the current filtered view to an Excel workbook.
func (a *App) ExportXLSX(tabID, outputPath string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	tab.Mu.Lock()
	snapshot := tab.Doc.Snapshot()
	tab.Mu.Unlock()
	return export.WriteXLSX(outputPath, snapshot.Columns, snapshot.Rows)
}

// OpenFolder discovers JSONL files under a directory and opens a tab for
// each, up to the configured limit. Returns the opened tab IDs.
func (a *App) OpenFolder(dirPath string) ([]string, error) {
	currentSettings := settings.GetEffectiveSettings()
	info, err := jsonl.DiscoverFiles(dirPath, currentSettings.DiscoveryPattern, currentSettings.MaxDirectoryFiles)
	if err != nil {
		return nil, err
	}
	if len(info.Files) == 0 {
		return nil, fmt.Errorf("no JSONL files found under %s", dirPath)
	}
	var tabIDs []string
	for _, filePath := range info.Files {
		tabID, openErr := a.OpenFile(filePath)
		if openErr != nil {
			a.Log("warning", fmt.Sprintf("Skipping %s: %v", filePath, openErr))
			continue
		}
		tabIDs = append(tabIDs, tabID)
	}
	if len(tabIDs) == 0 {
		return nil, fmt.Errorf("could not open any files under %s", dirPath)
	}
	return tabIDs, nil
}
