package tui

import (
	"github.com/ajramos/courrier/internal/config"
	"github.com/derailed/tview"
)

// currentTheme returns the applied theme, or the built-in default
func (a *App) currentTheme() *config.Theme {
	if a.themes == nil {
		return config.DefaultTheme()
	}
	return a.themes.GetCurrentThemeConfig()
}

// initThemes applies the configured theme and registers the tables so a
// later theme change recolours them
func (a *App) initThemes() {
	if a.themes == nil {
		a.applyTheme(config.DefaultTheme())
		return
	}
	if err := a.themes.RegisterComponent("tables", func(th *config.Theme) error {
		a.applyTheme(th)
		return nil
	}); err != nil {
		a.logger.Printf("ERROR: registering theme component: %v", err)
	}
	name := a.Config.Layout.CurrentTheme
	if name == "" {
		name = config.DefaultTheme().Name
	}
	if err := a.themes.ApplyTheme(a.ctx, name); err != nil {
		a.logger.Printf("WARN: theme %q unavailable, using default: %v", name, err)
		a.applyTheme(config.DefaultTheme())
	}
}

// applyTheme recolours every widget. It only touches widget state, so it
// is safe before the event loop starts.
func (a *App) applyTheme(th *config.Theme) {
	if th == nil {
		th = config.DefaultTheme()
	}
	a.colorer.UpdateFromTheme(th)

	bg := th.Body.BgColor.Color()
	fg := th.Body.FgColor.Color()
	for _, v := range a.views {
		v.table.SetBackgroundColor(th.Table.BgColor.Color())
		v.table.SetTitleColor(th.Frame.Title.FgColor.Color())
		v.table.SetBorderColor(th.Frame.Border.FgColor.Color())
		if len(v.shown) > 0 || v.total > 0 {
			a.fillTable(v)
		}
	}
	if v, ok := a.views[a.focusDir]; ok {
		v.table.SetBorderColor(th.Frame.Border.FocusColor.Color())
	}
	for _, tv := range []*tview.TextView{a.detailView, a.statsView, a.statusView} {
		if tv == nil {
			continue
		}
		tv.SetBackgroundColor(bg)
		tv.SetTextColor(fg)
	}
	a.detailView.SetTitleColor(th.Frame.Title.FgColor.Color())
	a.detailView.SetBorderColor(th.Frame.Border.FgColor.Color())
	a.searchView.SetFieldBackgroundColor(bg)
	a.searchView.SetLabelColor(th.Frame.Title.FilterColor.Color())
}
