package main

import (
	"context"
	"embed"
	"runtime"

	"jsonlview/app"
	"jsonlview/app/settings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Create an instance of the app structure
	appInstance := app.NewApp()
	settingsService := settings.NewSettingsService()
	// Inject cache manager (app) so settings service can clear caches when needed
	settingsService.SetCacheManager(appInstance)

	AppMenu := menu.NewMenu()
	if runtime.GOOS == "darwin" {
		AppMenu.Append(menu.AppMenu())
	}

	FileMenu := AppMenu.AddSubmenu("File")
	FileMenu.AddText("Open File", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:open")
		}
	})
	FileMenu.AddText("Open Folder", keys.Combo("o", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:openFolder")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Copy Selected Rows", keys.CmdOrCtrl("c"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:copySelected")
		}
	})
	FileMenu.AddText("Export to Excel", keys.CmdOrCtrl("e"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:exportExcel")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Settings", keys.CmdOrCtrl(","), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:settings")
		}
	})

	EditMenu := AppMenu.AddSubmenu("Edit")
	EditMenu.AddText("Find and Replace", keys.CmdOrCtrl("h"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:replace")
		}
	})
	searchMenuItem := EditMenu.AddText("Toggle Search", keys.CmdOrCtrl("f"), nil)
	searchMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleSearch")
		}
	})

	ViewMenu := AppMenu.AddSubmenu("View")
	annotationsMenuItem := ViewMenu.AddText("Toggle Annotations", keys.CmdOrCtrl("b"), nil)
	annotationsMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleAnnotations")
		}
	})
	ViewMenu.AddSeparator()
	cacheIndicatorMenuItem := ViewMenu.AddText("Toggle Cache Indicator", nil, nil)
	cacheIndicatorMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleCacheIndicator")
		}
	})

	HelpMenu := AppMenu.AddSubmenu("Help")
	HelpMenu.AddText("Shortcuts", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:shortcuts")
		}
	})
	HelpMenu.AddSeparator()
	HelpMenu.AddText("About", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:about")
		}
	})

	// Get saved window size or use defaults
	width, height, err := appInstance.GetSavedWindowSize()
	if err != nil {
		println("Warning: Failed to get saved window size, using defaults:", err.Error())
		width, height = 1024, 768
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:     "JSONL View",
		Width:     width,
		Height:    height,
		Menu:      AppMenu,
		MinWidth:  400,
		MinHeight: 300,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			appInstance.Startup(ctx)
			settingsService.Startup(ctx)
		},
		Bind: []interface{}{
			appInstance,
			settingsService,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
