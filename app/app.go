package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"jsonlview/app/ai"
	"jsonlview/app/cache"
	"jsonlview/app/jsonl"
	"jsonlview/app/settings"
	"jsonlview/app/table"

	"github.com/google/uuid"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"golang.design/x/clipboard"
)

// App struct
type App struct {
	ctx context.Context

	// Multi-tab support
	tabsMu      sync.RWMutex
	tabs        map[string]*Tab // keyed by tab ID
	activeTabID string

	// filter-view cache shared across tabs; keys embed content hashes
	filterCache *cache.Cache

	// AI completion provider; nil until a provider is configured
	completer ai.Completer

	// clipboard init
	clipOnce sync.Once
	clipOK   bool
}

// Tab encapsulates all state for a single opened document.
type Tab struct {
	ID       string
	FilePath string
	FileName string // Display name for the tab

	// Mu serializes all document access for this tab. During a chunked
	// load it is released only at yield points, so the loader's yields
	// are the sole suspension points where other calls can run.
	Mu  sync.Mutex
	Doc *table.Document

	// Active load cancellation
	LoadCancel context.CancelFunc
}

// TabInfo contains metadata about a tab for frontend display
type TabInfo struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	Active   bool   `json:"active"`
}

// NewApp creates a new App application struct
func NewApp() *App {
	currentSettings := settings.GetEffectiveSettings()
	var filterCache *cache.Cache
	if currentSettings.EnableFilterCache {
		filterCache = cache.New(int64(currentSettings.CacheSizeLimitMB) * 1024 * 1024)
	}
	return &App{
		tabs:        make(map[string]*Tab),
		filterCache: filterCache,
	}
}

// Startup is called by Wails when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Ctx returns the Wails context (nil before startup).
func (a *App) Ctx() context.Context {
	return a.ctx
}

// SetCompleter installs the AI completion provider. The provider is an
// opaque function; the app never looks past its contract.
func (a *App) SetCompleter(completer ai.Completer) {
	a.completer = completer
}

// Log writes a message to the Wails log when a context is present, falling
// back to the standard logger otherwise.
func (a *App) Log(level, message string) {
	if a.ctx == nil {
		log.Printf("[%s] %s", level, message)
		return
	}
	switch level {
	case "error":
		wruntime.LogError(a.ctx, message)
	case "warning":
		wruntime.LogWarning(a.ctx, message)
	case "debug":
		wruntime.LogDebug(a.ctx, message)
	default:
		wruntime.LogInfo(a.ctx, message)
	}
}

// newTab registers a fresh tab for a document path and makes it active.
// The loader's yield releases the tab mutex between chunks, so user edits
// and snapshot reads interleave only at chunk boundaries.
func (a *App) newTab(filePath string) *Tab {
	tab := &Tab{
		ID:       uuid.NewString(),
		FilePath: filePath,
		FileName: filepath.Base(filePath),
	}
	currentSettings := settings.GetEffectiveSettings()
	loader := jsonl.NewLoader(
		jsonl.WithChunkSize(currentSettings.ChunkSize),
		jsonl.WithInitialChunks(currentSettings.InitialChunkCount),
		jsonl.WithMaxResidentRows(currentSettings.MaxResidentRows),
		jsonl.WithYield(func() {
			tab.Mu.Unlock()
			runtime.Gosched()
			tab.Mu.Lock()
		}),
	)
	opts := []table.DocumentOption{table.WithLoader(loader)}
	if a.filterCache != nil {
		opts = append(opts, table.WithCache(a.filterCache))
	}
	tab.Doc = table.NewDocument(opts...)

	a.tabsMu.Lock()
	a.tabs[tab.ID] = tab
	a.activeTabID = tab.ID
	a.tabsMu.Unlock()
	return tab
}

// getTab resolves a tab ID; an empty ID means the active tab.
func (a *App) getTab(tabID string) (*Tab, error) {
	a.tabsMu.RLock()
	defer a.tabsMu.RUnlock()
	if tabID == "" {
		tabID = a.activeTabID
	}
	tab, ok := a.tabs[tabID]
	if !ok {
		return nil, fmt.Errorf("no tab with ID %q", tabID)
	}
	return tab, nil
}

// ListTabs returns metadata for all open tabs.
func (a *App) ListTabs() []TabInfo {
	a.tabsMu.RLock()
	defer a.tabsMu.RUnlock()
	infos := make([]TabInfo, 0, len(a.tabs))
	for _, tab := range a.tabs {
		infos = append(infos, TabInfo{
			ID:       tab.ID,
			FileName: tab.FileName,
			FilePath: tab.FilePath,
			Active:   tab.ID == a.activeTabID,
		})
	}
	return infos
}

// SetActiveTab switches the active tab.
func (a *App) SetActiveTab(tabID string) error {
	a.tabsMu.Lock()
	defer a.tabsMu.Unlock()
	if _, ok := a.tabs[tabID]; !ok {
		return fmt.Errorf("no tab with ID %q", tabID)
	}
	a.activeTabID = tabID
	return nil
}

// CloseTab cancels any in-flight load and discards the tab.
func (a *App) CloseTab(tabID string) error {
	tab, err := a.getTab(tabID)
	if err != nil {
		return err
	}
	if tab.LoadCancel != nil {
		tab.LoadCancel()
	}
	a.tabsMu.Lock()
	delete(a.tabs, tab.ID)
	if a.activeTabID == tab.ID {
		a.activeTabID = ""
		for id := range a.tabs {
			a.activeTabID = id
			break
		}
	}
	a.tabsMu.Unlock()
	return nil
}

// ClearCaches drops all cached filter views. Called when cache settings
// change.
func (a *App) ClearCaches() {
	if a.filterCache != nil {
		a.filterCache.Clear()
	}
}

// GetSavedWindowSize returns the persisted window dimensions.
func (a *App) GetSavedWindowSize() (int, int, error) {
	currentSettings := settings.GetEffectiveSettings()
	return currentSettings.WindowWidth, currentSettings.WindowHeight, nil
}

// GetCacheStats returns filter-cache statistics for the frontend.
func (a *App) GetCacheStats() cache.Stats {
	if a.filterCache == nil {
		return cache.Stats{}
	}
	return a.filterCache.GetStats()
}

// CopyRowsToClipboard serializes the rows with the given canonical indices
// as JSONL and places the text on the system clipboard.
func (a *App) CopyRowsToClipboard(tabID string, rowIndices []int) (bool, error) {
	tab, err := a.getTab(tabID)
	if err != nil {
		return false, err
	}
	tab.Mu.Lock()
	text := tab.Doc.RowsAsJSONL(rowIndices)
	tab.Mu.Unlock()
	if text == "" {
		return false, fmt.Errorf("no rows to copy")
	}

	// Lazy init clipboard
	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
		}
	})
	if !a.clipOK {
		return false, fmt.Errorf("clipboard not available")
	}
	if err := safeClipboardWrite(clipboard.FmtText, []byte(text)); err != nil {
		a.Log("error", fmt.Sprintf("Clipboard write failed: %v", err))
		return false, err
	}
	return true, nil
}

// safeClipboardWrite writes to the clipboard with panic recovery; the
// clipboard backend panics on some platforms when no display is available.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write panicked: %v", r)
		}
	}()
	clipboard.Write(format, data)
	return nil
}
