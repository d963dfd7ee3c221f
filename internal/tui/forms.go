package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// Form labels
const (
	labelSequence  = "N°"
	labelSubject   = "Objet"
	labelSender    = "Expéditeur"
	labelRecipient = "Destinataire"
	labelChannel   = "Canal"
	labelReference = "Référence"
	labelReceived  = "Reçu le"
	labelStatus    = "Statut"
	labelNotes     = "Notes"
)

// recordFormValues is what the add/edit form collected
type recordFormValues struct {
	Sequence  string
	Subject   string
	Sender    string
	Recipient string
	Channel   string
	Reference string
	Received  string
	Status    courrier.Status
	Notes     string
}

func formValuesOf(r courrier.Record) recordFormValues {
	return recordFormValues{
		Sequence:  r.SequenceNumber,
		Subject:   r.Subject,
		Sender:    r.Sender,
		Recipient: r.Recipient,
		Channel:   r.Channel,
		Reference: r.Reference,
		Received:  receivedText(r.ReceivedAt),
		Status:    r.Status.Canonical(),
		Notes:     r.Notes,
	}
}

// formFields turns form values into a patch. For a new record (prev nil)
// blank inputs are left out so the store fills its defaults; for an edit
// only the changed fields are sent.
func formFields(v recordFormValues, prev *courrier.Record) courrier.Fields {
	var f courrier.Fields
	pick := func(value, old string) *string {
		value = strings.TrimSpace(value)
		if prev == nil {
			if value == "" {
				return nil
			}
			return courrier.String(value)
		}
		if value == strings.TrimSpace(old) {
			return nil
		}
		return courrier.String(value)
	}
	var old recordFormValues
	if prev != nil {
		old = formValuesOf(*prev)
	}
	f.SequenceNumber = pick(v.Sequence, old.Sequence)
	f.Subject = pick(v.Subject, old.Subject)
	f.Sender = pick(v.Sender, old.Sender)
	f.Recipient = pick(v.Recipient, old.Recipient)
	f.Channel = pick(v.Channel, old.Channel)
	f.Reference = pick(v.Reference, old.Reference)
	f.Notes = pick(v.Notes, old.Notes)
	if p := pick(v.Received, old.Received); p != nil {
		// validateFormValues has already rejected unreadable dates
		if t, err := courrier.ParseReceived(*p); err == nil {
			f.ReceivedAt = courrier.Time(t)
		}
	}
	if v.Status != "" && (prev == nil || v.Status != old.Status) {
		f.Status = courrier.StatusPtr(v.Status)
	}
	return f
}

// validateFormValues checks what the store cannot default
func validateFormValues(v recordFormValues) error {
	if strings.TrimSpace(v.Subject) == "" {
		return fmt.Errorf("l'objet est obligatoire")
	}
	if s := strings.TrimSpace(v.Sequence); s != "" && !courrier.IsSequenceNumber(s) {
		return fmt.Errorf("numéro invalide %q: cinq chiffres attendus", s)
	}
	if _, err := courrier.ParseReceived(v.Received); err != nil {
		return fmt.Errorf("date de réception invalide %q: AAAA-MM-JJ attendu", strings.TrimSpace(v.Received))
	}
	return nil
}

func receivedText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return courrier.FormatReceived(t)
}

// showRecordForm opens the add form, or the edit form when prev is set
func (a *App) showRecordForm(prev *courrier.Record) {
	d := a.focusDir
	title := fmt.Sprintf(" Nouveau courrier • %s ", d.Label())
	var init recordFormValues
	if prev != nil {
		d = prev.Direction
		init = formValuesOf(*prev)
		title = fmt.Sprintf(" Modifier n° %s ", prev.SequenceNumber)
	}

	statuses := courrier.CanonicalStatuses()
	statusLabels := make([]string, len(statuses))
	initialStatus := 0
	for i, st := range statuses {
		statusLabels[i] = st.Label()
		if st == init.Status {
			initialStatus = i
		}
	}

	form := tview.NewForm()
	form.AddInputField(labelSequence, init.Sequence, 8, tview.InputFieldInteger, nil)
	form.AddInputField(labelSubject, init.Subject, 60, nil, nil)
	if d == courrier.Incoming {
		form.AddInputField(labelSender, init.Sender, 40, nil, nil)
	} else {
		form.AddInputField(labelRecipient, init.Recipient, 40, nil, nil)
	}
	form.AddInputField(labelChannel, init.Channel, 20, nil, nil)
	form.AddInputField(labelReference, init.Reference, 30, nil, nil)
	form.AddInputField(labelReceived, init.Received, 12, nil, nil)
	form.AddDropDown(labelStatus, statusLabels, initialStatus, nil)
	form.AddInputField(labelNotes, init.Notes, 60, nil, nil)

	read := func() recordFormValues {
		v := init
		v.Sequence = inputText(form, labelSequence)
		v.Subject = inputText(form, labelSubject)
		if d == courrier.Incoming {
			v.Sender = inputText(form, labelSender)
		} else {
			v.Recipient = inputText(form, labelRecipient)
		}
		v.Channel = inputText(form, labelChannel)
		v.Reference = inputText(form, labelReference)
		v.Received = inputText(form, labelReceived)
		v.Notes = inputText(form, labelNotes)
		if dd, ok := form.GetFormItemByLabel(labelStatus).(*tview.DropDown); ok {
			if idx, _ := dd.GetCurrentOption(); idx >= 0 && idx < len(statuses) {
				v.Status = statuses[idx]
			}
		}
		return v
	}

	form.AddButton("Enregistrer", func() {
		v := read()
		if err := validateFormValues(v); err != nil {
			a.errorHandler.ShowWarning(a.ctx, err.Error())
			return
		}
		a.closeOverlay()
		if prev == nil {
			go a.addRecord(d, formFields(v, nil))
			return
		}
		go a.updateRecord(*prev, formFields(v, prev))
	})
	form.AddButton("Annuler", a.closeOverlay)
	form.SetCancelFunc(a.closeOverlay)
	form.SetBorder(true).SetTitle(title)

	a.applyFormTheme(form)
	a.Pages.AddPage(pageForm, centered(form, 80, 23), true, true)
	a.SetFocus(form)
}

// confirmDelete asks before removing r
func (a *App) confirmDelete(r courrier.Record) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Supprimer le courrier n° %s ?\n\n%s", r.SequenceNumber, r.Subject)).
		AddButtons([]string{"Supprimer", "Annuler"}).
		SetDoneFunc(func(idx int, _ string) {
			a.closeOverlay()
			if idx == 0 {
				go a.deleteRecord(r)
			}
		})
	a.Pages.AddPage(pageConfirm, modal, true, true)
	a.SetFocus(modal)
}

// showSearch puts the search field in place of the status line. Typing
// filters the focused table live; Enter keeps the filter, Esc drops it.
func (a *App) showSearch() {
	v := a.focusedView()
	a.searchView.SetText(v.filter.Search)
	a.searchView.SetChangedFunc(func(text string) {
		a.setSearch(text)
	})
	a.searchView.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			a.setSearch("")
		}
		a.layout.RemoveItem(a.searchView)
		a.layout.AddItem(a.statusView, 1, 0, false)
		a.focusDirection(a.focusDir)
	})
	a.layout.RemoveItem(a.statusView)
	a.layout.AddItem(a.searchView, 1, 0, true)
	a.SetFocus(a.searchView)
}

// showHelp lists the key bindings
func (a *App) showHelp() {
	text := tview.NewTextView().SetText(helpText(a.Keys))
	text.SetBorder(true).SetTitle(" Aide ")
	text.SetDoneFunc(func(tcell.Key) { a.closeOverlay() })
	a.Pages.AddPage(pageHelp, centered(text, 60, 22), true, true)
	a.SetFocus(text)
}

// closeOverlay removes any form, modal or help page and refocuses the
// current table
func (a *App) closeOverlay() {
	for _, p := range []string{pageForm, pageConfirm, pageHelp} {
		if a.Pages.HasPage(p) {
			a.Pages.RemovePage(p)
		}
	}
	a.focusDirection(a.focusDir)
}

func (a *App) applyFormTheme(form *tview.Form) {
	th := a.currentTheme()
	form.SetBackgroundColor(th.Body.BgColor.Color())
	form.SetLabelColor(th.Frame.Title.FgColor.Color())
	form.SetFieldBackgroundColor(th.Frame.Border.FgColor.Color())
	form.SetFieldTextColor(th.Body.FgColor.Color())
	form.SetButtonBackgroundColor(th.Frame.Border.FocusColor.Color())
	form.SetBorderColor(th.Frame.Border.FocusColor.Color())
}

func inputText(form *tview.Form, label string) string {
	if in, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return in.GetText()
	}
	return ""
}

// helpText renders the bindings of k, one per line
func helpText(k config.KeyBindings) string {
	rows := [][2]string{
		{k.Add, "ajouter un courrier"},
		{k.Edit, "modifier le courrier"},
		{k.Delete, "supprimer le courrier"},
		{k.StatusNext, "statut suivant"},
		{k.Pending + " " + k.InProgress + " " + k.Processed + " " + k.Archived, "en attente, en cours, traité, archivé"},
		{k.Search, "rechercher"},
		{k.Sort, "changer le tri"},
		{k.Undo, "annuler la dernière action"},
		{k.Refresh, "recharger"},
		{k.SwitchTable, "changer de registre"},
		{"esc", "effacer la recherche"},
		{k.Quit, "quitter"},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, " %-10s %s\n", r[0], r[1])
	}
	return b.String()
}

// centered wraps p in a fixed-size box in the middle of the screen
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
