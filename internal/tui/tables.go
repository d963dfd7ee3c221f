package tui

import (
	"fmt"
	"strings"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/render"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// directionView is the table of one direction plus what it currently shows
type directionView struct {
	direction courrier.Direction
	table     *tview.Table
	filter    courrier.Filter
	total     int
	shown     []courrier.Record
}

func newDirectionView(d courrier.Direction) *directionView {
	t := tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	t.SetTitle(fmt.Sprintf(" %s ", d.Label()))
	return &directionView{direction: d, table: t}
}

// recordAt returns the record shown on table row; row 0 is the header
func (v *directionView) recordAt(row int) *courrier.Record {
	idx := row - 1
	if idx < 0 || idx >= len(v.shown) {
		return nil
	}
	r := v.shown[idx]
	return &r
}

// selected returns the record under the cursor
func (v *directionView) selected() *courrier.Record {
	row, _ := v.table.GetSelection()
	return v.recordAt(row)
}

// rowOf returns the table row showing id, or -1
func (v *directionView) rowOf(id string) int {
	for i := range v.shown {
		if v.shown[i].ID == id {
			return i + 1
		}
	}
	return -1
}

// tableTitle names the direction with its counters, the active search and
// the sort key
func tableTitle(d courrier.Direction, f courrier.Filter, shown, total int) string {
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(d.Label())
	if shown != total {
		fmt.Fprintf(&b, " (%d/%d)", shown, total)
	} else {
		fmt.Fprintf(&b, " (%d)", total)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		fmt.Fprintf(&b, " • « %s »", q)
	}
	if f.Status != "" {
		fmt.Fprintf(&b, " • %s", f.Status.Label())
	}
	if f.SortBy != courrier.SortNone {
		arrow := "↑"
		if f.Desc {
			arrow = "↓"
		}
		fmt.Fprintf(&b, " • tri %s %s", f.SortBy, arrow)
	}
	b.WriteString(" ")
	return b.String()
}

// refreshDirection redraws the table of d from list, keeping the cursor on
// the same record when it is still visible
func (a *App) refreshDirection(d courrier.Direction, list []courrier.Record) {
	v, ok := a.views[d]
	if !ok {
		return
	}
	var keepID string
	if cur := v.selected(); cur != nil {
		keepID = cur.ID
	}

	v.total = len(list)
	v.shown = courrier.ApplyFilter(list, v.filter)
	a.fillTable(v)

	row := 1
	if keepID != "" {
		if r := v.rowOf(keepID); r > 0 {
			row = r
		}
	}
	if len(v.shown) > 0 {
		v.table.Select(row, 0)
	}
	if d == a.focusDir {
		a.showDetail(v.selected())
	}
}

// refreshAll reloads both tables from the stores' in-memory collections
func (a *App) refreshAll() {
	if a.registry == nil {
		return
	}
	for _, d := range courrier.Directions() {
		if s, err := a.registry.Store(d); err == nil {
			a.refreshDirection(d, s.Records())
		}
	}
	a.refreshStats()
}

func (a *App) fillTable(v *directionView) {
	theme := a.currentTheme()
	t := v.table
	t.Clear()

	for col, c := range a.renderer.Columns(v.direction) {
		cell := tview.NewTableCell(c.Title).
			SetSelectable(false).
			SetTextColor(theme.Table.HeaderFgColor.Color()).
			SetAttributes(tcell.AttrBold)
		if c.Width > 0 {
			cell.SetMaxWidth(c.Width)
		} else {
			cell.SetExpansion(1)
		}
		t.SetCell(0, col, cell)
	}

	for i, r := range v.shown {
		cells := a.renderer.Cells(r)
		statusColor := a.renderer.StatusColor(r.Status)
		for col, text := range cells {
			cell := tview.NewTableCell(render.SanitizeForTerminal(text)).
				SetTextColor(theme.Table.FgColor.Color())
			if col == len(cells)-2 {
				cell.SetTextColor(statusColor)
			}
			t.SetCell(i+1, col, cell)
		}
	}
	t.SetTitle(tableTitle(v.direction, v.filter, len(v.shown), v.total))
}

// showDetail fills the detail pane with r, or clears it
func (a *App) showDetail(r *courrier.Record) {
	if a.detailView == nil {
		return
	}
	if r == nil {
		a.detailView.SetText("")
		return
	}
	_, _, width, _ := a.detailView.GetInnerRect()
	a.detailView.SetText(a.renderer.FormatDetail(*r, width))
	a.detailView.ScrollToBeginning()
}

// focusDirection moves keyboard focus to the table of d
func (a *App) focusDirection(d courrier.Direction) {
	v, ok := a.views[d]
	if !ok {
		return
	}
	a.focusDir = d
	theme := a.currentTheme()
	for dir, other := range a.views {
		if dir == d {
			other.table.SetBorderColor(theme.Frame.Border.FocusColor.Color())
		} else {
			other.table.SetBorderColor(theme.Frame.Border.FgColor.Color())
		}
	}
	a.SetFocus(v.table)
	a.showDetail(v.selected())
	if a.errorHandler != nil {
		a.errorHandler.Refresh()
	}
}

// otherDirection returns the direction that is not d
func otherDirection(d courrier.Direction) courrier.Direction {
	if d == courrier.Incoming {
		return courrier.Outgoing
	}
	return courrier.Incoming
}

// focusedView returns the view that has keyboard focus
func (a *App) focusedView() *directionView {
	return a.views[a.focusDir]
}
