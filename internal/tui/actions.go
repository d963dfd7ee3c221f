package tui

import (
	"errors"
	"fmt"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/services"
)

// The actions below run off the event loop; the stores' change listeners
// bring the tables up to date.

func (a *App) addRecord(d courrier.Direction, f courrier.Fields) {
	store := a.store(d)
	if store == nil {
		return
	}
	rec, err := store.Add(a.ctx, f)
	if err != nil {
		a.errorHandler.ShowStoreError(a.ctx, "ajout du courrier", err)
		return
	}
	a.recordUndo(&services.UndoableAction{
		Type:        services.UndoActionAdd,
		Direction:   d,
		RecordID:    rec.ID,
		Description: fmt.Sprintf("Annuler l'ajout du n° %s", rec.SequenceNumber),
	})
	a.errorHandler.ShowSuccess(a.ctx, fmt.Sprintf("Courrier n° %s ajouté", rec.SequenceNumber))
	a.queueDraw(func() { a.selectRecord(d, rec.ID) })
}

func (a *App) updateRecord(prev courrier.Record, f courrier.Fields) {
	if f.IsEmpty() {
		return
	}
	store := a.store(prev.Direction)
	if store == nil {
		return
	}
	rec, err := store.Update(a.ctx, prev.ID, f)
	if err != nil {
		a.errorHandler.ShowStoreError(a.ctx, "modification du courrier", err)
		return
	}
	if rec == nil {
		a.errorHandler.ShowWarning(a.ctx, "Ce courrier n'existe plus")
		return
	}
	a.recordUndo(&services.UndoableAction{
		Type:        services.UndoActionUpdate,
		Direction:   prev.Direction,
		Previous:    &prev,
		Description: fmt.Sprintf("Annuler la modification du n° %s", prev.SequenceNumber),
	})
	a.errorHandler.ShowSuccess(a.ctx, fmt.Sprintf("Courrier n° %s modifié", rec.SequenceNumber))
}

func (a *App) setStatus(prev courrier.Record, status courrier.Status) {
	if prev.Status.Canonical() == status {
		return
	}
	store := a.store(prev.Direction)
	if store == nil {
		return
	}
	res := <-store.SetStatusAsync(a.ctx, prev.ID, status)
	if res.Err != nil {
		a.errorHandler.ShowStoreError(a.ctx, "changement de statut", res.Err)
		return
	}
	if res.Record == nil {
		a.errorHandler.ShowWarning(a.ctx, "Ce courrier n'existe plus")
		return
	}
	a.recordUndo(&services.UndoableAction{
		Type:        services.UndoActionStatus,
		Direction:   prev.Direction,
		Previous:    &prev,
		Description: fmt.Sprintf("Remettre le n° %s en %s", prev.SequenceNumber, prev.Status.Label()),
	})
	a.errorHandler.ShowInfo(a.ctx, fmt.Sprintf("N° %s: %s", prev.SequenceNumber, status.Label()))
}

func (a *App) deleteRecord(prev courrier.Record) {
	store := a.store(prev.Direction)
	if store == nil {
		return
	}
	if err := store.Remove(a.ctx, prev.ID); err != nil {
		a.errorHandler.ShowStoreError(a.ctx, "suppression du courrier", err)
		return
	}
	a.recordUndo(&services.UndoableAction{
		Type:        services.UndoActionRemove,
		Direction:   prev.Direction,
		Previous:    &prev,
		Description: fmt.Sprintf("Restaurer le n° %s", prev.SequenceNumber),
	})
	a.errorHandler.ShowSuccess(a.ctx, fmt.Sprintf("Courrier n° %s supprimé", prev.SequenceNumber))
}

func (a *App) recordUndo(action *services.UndoableAction) {
	if err := a.undo.RecordAction(a.ctx, action); err != nil {
		a.logger.Printf("WARN: undo not recorded: %v", err)
	}
}

func (a *App) undoLast() {
	desc := a.undo.GetUndoDescription()
	res, err := a.undo.UndoLastAction(a.ctx)
	if errors.Is(err, services.ErrNothingToUndo) {
		a.errorHandler.ShowInfo(a.ctx, "Rien à annuler")
		return
	}
	if err != nil {
		a.errorHandler.ShowStoreError(a.ctx, "annulation", err)
		return
	}
	if !res.Success {
		a.errorHandler.ShowStoreError(a.ctx, "annulation", errors.New(res.Errors[0]))
		return
	}
	a.errorHandler.ShowSuccess(a.ctx, desc)
}

// reload rereads both collections from storage
func (a *App) reload() {
	if a.registry == nil {
		return
	}
	a.errorHandler.ShowProgress(a.ctx, "Rechargement…")
	a.registry.Load(a.ctx)
	a.errorHandler.ClearProgress()
	a.errorHandler.ShowInfo(a.ctx, "Registre rechargé")
}

// cycleSort advances the sort key of the focused table
func (a *App) cycleSort() {
	v := a.focusedView()
	v.filter = nextSort(v.filter)
	a.refreshView(v)
}

// setSearch filters the focused table
func (a *App) setSearch(q string) {
	v := a.focusedView()
	if v.filter.Search == q {
		return
	}
	v.filter.Search = q
	a.refreshView(v)
}

func (a *App) clearSearch() {
	v := a.focusedView()
	if v.filter.Search == "" && v.filter.Status == "" {
		return
	}
	v.filter.Search = ""
	v.filter.Status = ""
	a.refreshView(v)
}

// refreshView redraws v from its store's current collection
func (a *App) refreshView(v *directionView) {
	if a.registry == nil {
		return
	}
	s, err := a.registry.Store(v.direction)
	if err != nil {
		return
	}
	a.refreshDirection(v.direction, s.Records())
}

// selectRecord moves the cursor of d onto id when it is visible
func (a *App) selectRecord(d courrier.Direction, id string) {
	v, ok := a.views[d]
	if !ok {
		return
	}
	if row := v.rowOf(id); row > 0 {
		v.table.Select(row, 0)
	}
}
