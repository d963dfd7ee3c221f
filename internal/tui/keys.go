package tui

import (
	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// bindKeys wires the global shortcuts. Keys typed into an input widget are
// passed through untouched.
func (a *App) bindKeys() {
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch a.GetFocus().(type) {
		case *tview.InputField, *tview.DropDown, *tview.Form, *tview.Button:
			return event
		}
		if name, _ := a.Pages.GetFrontPage(); name != pageMain {
			if event.Key() == tcell.KeyEscape {
				a.closeOverlay()
				return nil
			}
			return event
		}

		if event.Key() == tcell.KeyCtrlC {
			a.Stop()
			return nil
		}
		if event.Key() == tcell.KeyEscape {
			a.clearSearch()
			return nil
		}
		if a.handleConfigurableKey(event) {
			return nil
		}
		return event
	})
}

// handleConfigurableKey runs the action bound to event, if any
func (a *App) handleConfigurableKey(event *tcell.EventKey) bool {
	k := a.Keys
	switch {
	case keyMatches(event, k.Quit):
		a.Stop()
	case keyMatches(event, k.SwitchTable):
		a.focusDirection(otherDirection(a.focusDir))
	case keyMatches(event, k.Add):
		a.showRecordForm(nil)
	case keyMatches(event, k.Edit):
		if r := a.focusedView().selected(); r != nil {
			a.showRecordForm(r)
		}
	case keyMatches(event, k.Delete):
		if r := a.focusedView().selected(); r != nil {
			a.confirmDelete(*r)
		}
	case keyMatches(event, k.Search):
		a.showSearch()
	case keyMatches(event, k.Sort):
		a.cycleSort()
	case keyMatches(event, k.Undo):
		go a.undoLast()
	case keyMatches(event, k.Refresh):
		go a.reload()
	case keyMatches(event, k.StatusNext):
		if r := a.focusedView().selected(); r != nil {
			go a.setStatus(*r, nextStatus(r.Status))
		}
	case event.Rune() == '?':
		a.showHelp()
	default:
		st, ok := statusForKey(k, event)
		if !ok {
			return false
		}
		if r := a.focusedView().selected(); r != nil {
			go a.setStatus(*r, st)
		}
	}
	return true
}

// keyMatches reports whether event is the key named by binding. Single
// characters match runes; "tab", "enter" and "esc" match special keys.
func keyMatches(event *tcell.EventKey, binding string) bool {
	if event == nil || binding == "" {
		return false
	}
	switch binding {
	case "tab":
		return event.Key() == tcell.KeyTab
	case "enter":
		return event.Key() == tcell.KeyEnter
	case "esc":
		return event.Key() == tcell.KeyEscape
	}
	if event.Key() != tcell.KeyRune {
		return false
	}
	return string(event.Rune()) == binding
}

// statusForKey maps the direct status shortcuts to their status
func statusForKey(k config.KeyBindings, event *tcell.EventKey) (courrier.Status, bool) {
	bindings := []struct {
		key    string
		status courrier.Status
	}{
		{k.Pending, courrier.StatusPending},
		{k.InProgress, courrier.StatusInProgress},
		{k.Processed, courrier.StatusProcessed},
		{k.Archived, courrier.StatusArchived},
	}
	for _, b := range bindings {
		if keyMatches(event, b.key) {
			return b.status, true
		}
	}
	return "", false
}

// nextStatus cycles PENDING, IN_PROGRESS, PROCESSED, ARCHIVED. Unknown
// statuses restart the cycle.
func nextStatus(s courrier.Status) courrier.Status {
	all := courrier.CanonicalStatuses()
	c := s.Canonical()
	for i, st := range all {
		if st == c {
			return all[(i+1)%len(all)]
		}
	}
	return courrier.StatusPending
}

// nextSort advances the sort key. Each column is visited ascending then
// descending before moving on; the cycle ends back on stored order.
func nextSort(f courrier.Filter) courrier.Filter {
	if f.SortBy != courrier.SortNone && !f.Desc {
		f.Desc = true
		return f
	}
	fields := courrier.SortFields()
	for i, sf := range fields {
		if sf == f.SortBy {
			f.SortBy = fields[(i+1)%len(fields)]
			f.Desc = false
			return f
		}
	}
	f.SortBy = courrier.SortNone
	f.Desc = false
	return f
}
