package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ajramos/courrier/internal/services"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// LogLevel represents the severity of a message
type LogLevel int

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
	LogLevelSuccess
)

// statusClearDelay is how long a flash message stays in the status line
const statusClearDelay = 5 * time.Second

// levelMeta gives each level its status-line icon and log tag
var levelMeta = map[LogLevel]struct{ icon, tag string }{
	LogLevelInfo:    {"ℹ️", "INFO"},
	LogLevelWarning: {"⚠️", "WARN"},
	LogLevelError:   {"❌", "ERROR"},
	LogLevelSuccess: {"✅", "SUCCESS"},
}

// ErrorHandler reports the outcome of registry operations on the status line
// and in the log. The line shows, in order of precedence, the last flash
// message, a sticky progress message, or the baseline hints.
type ErrorHandler struct {
	mu     sync.RWMutex
	app    *tview.Application
	owner  *App
	view   *tview.TextView
	logger *log.Logger

	flash  string
	sticky string
	timer  *time.Timer
}

// NewErrorHandler creates a handler drawing into view. owner supplies the
// baseline text and theme colours and may be nil.
func NewErrorHandler(app *tview.Application, owner *App, view *tview.TextView, logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{app: app, owner: owner, view: view, logger: logger}
}

// HandleError logs err and flashes userMsg
func (eh *ErrorHandler) HandleError(ctx context.Context, err error, userMsg string) {
	if err == nil {
		return
	}
	eh.logf("ERROR: %v", err)
	if userMsg == "" {
		userMsg = "Une erreur est survenue"
	}
	eh.ShowMessage(ctx, userMsg, LogLevelError)
}

// ShowStoreError reports a failed registry operation. A persist failure
// leaves the change on screen, so it gets its own wording.
func (eh *ErrorHandler) ShowStoreError(ctx context.Context, operation string, err error) {
	if err == nil {
		return
	}
	msg := "Échec: " + operation
	if services.IsPersistError(err) {
		msg = operation + ": modification non enregistrée"
	}
	eh.HandleError(ctx, err, msg)
}

// ShowMessage flashes msg for statusClearDelay
func (eh *ErrorHandler) ShowMessage(ctx context.Context, msg string, level LogLevel) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	eh.logf("%s: %s", eh.levelToString(level), msg)
	text := eh.formatMessage(msg, level)
	eh.queue(func() { eh.setFlash(text, level) })
}

func (eh *ErrorHandler) ShowInfo(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelInfo)
}

func (eh *ErrorHandler) ShowWarning(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelWarning)
}

func (eh *ErrorHandler) ShowSuccess(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelSuccess)
}

// ShowProgress keeps msg on the line until ClearProgress
func (eh *ErrorHandler) ShowProgress(ctx context.Context, msg string) {
	eh.setSticky(eh.formatMessage(msg, LogLevelInfo))
}

func (eh *ErrorHandler) ClearProgress() {
	eh.setSticky("")
}

// Refresh redraws the line, e.g. after the baseline changed
func (eh *ErrorHandler) Refresh() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.render()
}

func (eh *ErrorHandler) logf(format string, args ...any) {
	if eh.logger != nil {
		eh.logger.Printf(format, args...)
	}
}

// queue hands fn to the UI goroutine without blocking the caller; without
// an application there is nothing to draw
func (eh *ErrorHandler) queue(fn func()) {
	switch {
	case eh.owner != nil:
		eh.owner.queueDraw(fn)
	case eh.app != nil:
		go eh.app.QueueUpdateDraw(fn)
	}
}

func (eh *ErrorHandler) formatMessage(msg string, level LogLevel) string {
	icon := "•"
	if m, ok := levelMeta[level]; ok {
		icon = m.icon
	}
	return fmt.Sprintf("%s %s", icon, msg)
}

func (eh *ErrorHandler) levelToString(level LogLevel) string {
	if m, ok := levelMeta[level]; ok {
		return m.tag
	}
	return "UNKNOWN"
}

func (eh *ErrorHandler) levelToColor(level LogLevel) tcell.Color {
	return eh.owner.messageColor(level)
}

// setFlash shows text and arms the timer that clears it. Runs on the UI
// goroutine.
func (eh *ErrorHandler) setFlash(text string, level LogLevel) {
	if eh.view == nil {
		return
	}
	eh.mu.Lock()
	defer eh.mu.Unlock()

	if eh.timer != nil {
		eh.timer.Stop()
	}
	eh.flash = text
	eh.view.SetTextColor(eh.levelToColor(level))
	eh.render()
	eh.timer = time.AfterFunc(statusClearDelay, func() {
		eh.queue(func() { eh.expireFlash(text) })
	})
}

// expireFlash clears the flash unless a newer message replaced it
func (eh *ErrorHandler) expireFlash(text string) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	if eh.flash != text {
		return
	}
	eh.flash = ""
	if eh.view != nil {
		eh.view.SetTextColor(eh.levelToColor(LogLevelInfo))
	}
	eh.render()
}

func (eh *ErrorHandler) setSticky(text string) {
	eh.mu.Lock()
	eh.sticky = text
	eh.mu.Unlock()
	eh.queue(eh.Refresh)
}

// render writes the line. Callers hold mu.
func (eh *ErrorHandler) render() {
	if eh.view == nil {
		return
	}
	switch {
	case eh.flash != "":
		eh.view.SetText(eh.flash)
	case eh.sticky != "":
		eh.view.SetText(eh.sticky)
	default:
		eh.view.SetText(eh.baseline())
	}
}

func (eh *ErrorHandler) baseline() string {
	if eh.owner != nil {
		return eh.owner.statusBaseline()
	}
	return "Courrier • ? aide"
}
