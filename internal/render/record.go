package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/derailed/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Column is one table column
type Column struct {
	Title string
	Width int // 0 means expand
}

// StatusColorer maps record statuses onto terminal colours
type StatusColorer struct {
	theme *config.Theme
}

// NewStatusColorer creates a colorer for theme, the default theme when nil
func NewStatusColorer(theme *config.Theme) *StatusColorer {
	if theme == nil {
		theme = config.DefaultTheme()
	}
	return &StatusColorer{theme: theme}
}

// Color returns the colour of status
func (sc *StatusColorer) Color(status courrier.Status) tcell.Color {
	return sc.theme.StatusColor(status).Color()
}

// UpdateFromTheme switches to a new theme
func (sc *StatusColorer) UpdateFromTheme(theme *config.Theme) {
	if theme != nil {
		sc.theme = theme
	}
}

// RecordRenderer turns records into table cells and detail text
type RecordRenderer struct {
	colorer      *StatusColorer
	subjectWidth int
	now          func() time.Time
}

// NewRecordRenderer creates a renderer; subjectWidth <= 0 uses 40 columns
func NewRecordRenderer(colorer *StatusColorer, subjectWidth int) *RecordRenderer {
	if colorer == nil {
		colorer = NewStatusColorer(nil)
	}
	if subjectWidth <= 0 {
		subjectWidth = 40
	}
	return &RecordRenderer{colorer: colorer, subjectWidth: subjectWidth, now: time.Now}
}

// Columns returns the table layout for direction d: incoming mail shows the
// sender, outgoing mail the recipient
func (rr *RecordRenderer) Columns(d courrier.Direction) []Column {
	party := "Expéditeur"
	if d == courrier.Outgoing {
		party = "Destinataire"
	}
	return []Column{
		{Title: "N°", Width: 6},
		{Title: "Reçu le", Width: 10},
		{Title: "Objet", Width: rr.subjectWidth},
		{Title: party, Width: 24},
		{Title: "Canal", Width: 10},
		{Title: "Statut", Width: 11},
		{Title: "PJ", Width: 3},
	}
}

// Cells returns the cell texts of r in Columns order
func (rr *RecordRenderer) Cells(r courrier.Record) []string {
	party := r.Sender
	if r.Direction == courrier.Outgoing {
		party = r.Recipient
	}
	cols := rr.Columns(r.Direction)
	texts := []string{
		r.SequenceNumber,
		FormatReceivedDay(r.ReceptionDate()),
		SingleLine(r.Subject),
		SingleLine(party),
		SingleLine(r.Channel),
		r.Status.Label(),
		attachmentCount(r.Attachments),
	}
	for i, c := range cols {
		if i == len(cols)-1 {
			texts[i] = RightFit(texts[i], c.Width)
			continue
		}
		texts[i] = FitWidth(texts[i], c.Width)
	}
	return texts
}

// FormatRow renders r as one fixed-width line with its status colour
func (rr *RecordRenderer) FormatRow(r courrier.Record) (string, tcell.Color) {
	return strings.Join(rr.Cells(r), " | "), rr.colorer.Color(r.Status)
}

// StatusColor exposes the colorer
func (rr *RecordRenderer) StatusColor(status courrier.Status) tcell.Color {
	return rr.colorer.Color(status)
}

// FormatDetail renders every field of r, wrapping free text to width
func (rr *RecordRenderer) FormatDetail(r courrier.Record, width int) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", FitWidth(label+":", 14), value)
	}
	line("N°", r.SequenceNumber)
	line("Sens", r.Direction.Label())
	line("Statut", r.Status.Label())
	line("Objet", SingleLine(r.Subject))
	line("Expéditeur", SingleLine(r.Sender))
	line("Destinataire", SingleLine(r.Recipient))
	line("Canal", SingleLine(r.Channel))
	line("Référence", SingleLine(r.Reference))
	line("Reçu le", FormatReceivedDay(r.ReceivedAt))
	if !r.CreatedAt.IsZero() {
		line("Créé", FormatDate(r.CreatedAt))
	}
	if !r.UpdatedAt.IsZero() {
		line("Modifié", rr.FormatRelativeTime(r.UpdatedAt))
	}
	for _, a := range r.Attachments {
		line("Pièce jointe", fmt.Sprintf("%s (%s)", SingleLine(a.Name), FormatSize(a.SizeBytes)))
	}
	if strings.TrimSpace(r.Notes) != "" {
		b.WriteString("\n")
		b.WriteString(WrapText(SanitizeForTerminal(r.Notes), width))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRelativeTime renders t relative to now
func (rr *RecordRenderer) FormatRelativeTime(t time.Time) string {
	diff := rr.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "à l'instant"
	case diff < time.Hour:
		return fmt.Sprintf("il y a %d min", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("il y a %d h", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("il y a %d j", int(diff.Hours()/24))
	}
	return FormatDay(t)
}

// FormatDay renders the calendar day of t in local time
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006")
}

// FormatReceivedDay renders a reception date. A plain date is shown as
// stored, without moving it to local time.
func FormatReceivedDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if courrier.FormatReceived(t) == t.Format(courrier.DateLayout) {
		return t.Format("02/01/2006")
	}
	return FormatDay(t)
}

// FormatDate renders t with minutes in local time
func FormatDate(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}

// FormatSize renders a byte count the way file managers do
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d o", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %co", float64(n)/float64(div), "KMGTPE"[exp])
}

// DisplayWidth is the terminal width of s
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

func attachmentCount(a courrier.Attachments) string {
	if len(a) == 0 {
		return ""
	}
	return fmt.Sprintf("%d", len(a))
}
