package app

import (
	"context"
	"fmt"

	"jsonlview/app/ai"
	"jsonlview/app/interfaces"
)

// aiColumnDoneEvent is emitted when a background AI column fill finishes.
const aiColumnDoneEvent = "ai:column-done"

// tabCellWriter adapts a tab's document to the ai.CellWriter contract,
// taking the tab lock per write so fills interleave with edits.
type tabCellWriter struct {
	tab *Tab
}

func (w tabCellWriter) SetCellValue(index int, path string, value any) error {
	w.tab.Mu.Lock()
	defer w.tab.Mu.Unlock()
	return w.tab.Doc.SetCellValue(index, path, value)
}

// RunAIColumn fills targetPath across the current filtered rows by running
// the prompt template through the configured AI provider, one row at a
// time. Rows are written as completions arrive; failures skip the row.
// Returns immediately; completion is signalled via an event.
func (a *App) RunAIColumn(tabID, targetPath, template string) error {
	if a.completer == nil {
		return fmt.Errorf("no AI provider configured")
	}
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}

	// Snapshot the filtered rows up front; the fill works against those
	// canonical indices even if the filter changes mid-run.
	tab.Mu.Lock()
	rows, indices := tab.Doc.View()
	tab.Mu.Unlock()
	byIndex := make(map[int]*interfaces.Row, len(rows))
	for _, row := range rows {
		byIndex[row.Index] = row
	}

	tab.Mu.Lock()
	tab.Doc.AddColumn(targetPath)
	tab.Mu.Unlock()
	a.emitUpdate(tab.ID)

	go func() {
		ctx := a.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		written := ai.FillColumn(ctx, tabCellWriter{tab: tab}, indices, byIndex, targetPath, template, a.completer, func(index int, rowErr error) {
			if rowErr != nil {
				a.Log("warning", fmt.Sprintf("AI fill skipped row %d: %v", index, rowErr))
			}
			a.emitUpdate(tab.ID)
		})
		a.Log("info", fmt.Sprintf("AI column %s filled %d of %d rows", targetPath, written, len(indices)))
		a.emitEvent(aiColumnDoneEvent, tab.ID)
	}()
	return nil
}

// GenerateRows asks the AI provider to produce new rows from a free-form
// prompt and appends the parseable ones to the document.
func (a *App) GenerateRows(tabID, prompt string) (int, error) {
	if a.completer == nil {
		return 0, fmt.Errorf("no AI provider configured")
	}
	tab, err := a.getTab(tabID)
	if err != nil {
		return 0, err
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	values, err := ai.GenerateRows(ctx, prompt, a.completer)
	if err != nil {
		return 0, err
	}
	tab.Mu.Lock()
	err = tab.Doc.AppendRows(values)
	tab.Mu.Unlock()
	if err != nil {
		return 0, err
	}
	a.emitUpdate(tab.ID)
	return len(values), nil
}
