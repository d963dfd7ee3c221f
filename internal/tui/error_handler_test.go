package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/ajramos/courrier/internal/services"
	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLoggedHandler returns a handler without an application so no draw is
// queued, plus the buffer its logger writes to
func newLoggedHandler() (*ErrorHandler, *tview.TextView, *bytes.Buffer) {
	var buf bytes.Buffer
	sv := tview.NewTextView()
	return NewErrorHandler(nil, nil, sv, log.New(&buf, "", 0)), sv, &buf
}

func statusText(sv *tview.TextView) string {
	return strings.TrimSpace(sv.GetText(false))
}

func TestNewErrorHandler(t *testing.T) {
	app := tview.NewApplication()
	sv := tview.NewTextView()
	eh := NewErrorHandler(app, nil, sv, nil)

	require.NotNil(t, eh)
	assert.Same(t, app, eh.app)
	assert.Same(t, sv, eh.view)
	assert.Empty(t, eh.flash)
	assert.Empty(t, eh.sticky)

	assert.NotNil(t, NewErrorHandler(nil, nil, nil, nil))
}

func TestErrorHandler_HandleError(t *testing.T) {
	eh, _, buf := newLoggedHandler()
	ctx := context.Background()

	eh.HandleError(ctx, nil, "ignoré")
	assert.Empty(t, buf.String())

	eh.HandleError(ctx, errors.New("disk full"), "Échec de l'enregistrement")
	assert.Contains(t, buf.String(), "ERROR: disk full")
	assert.Contains(t, buf.String(), "ERROR: Échec de l'enregistrement")

	buf.Reset()
	eh.HandleError(ctx, errors.New("boom"), "")
	assert.Contains(t, buf.String(), "Une erreur est survenue")
}

func TestErrorHandler_ShowMessage_LogsWithLevelTag(t *testing.T) {
	eh, _, buf := newLoggedHandler()
	ctx := context.Background()

	eh.ShowInfo(ctx, "Registre rechargé")
	eh.ShowWarning(ctx, "Rien à annuler")
	eh.ShowSuccess(ctx, "Courrier ajouté")
	eh.ShowMessage(ctx, "   ", LogLevelError)

	assert.Equal(t, "INFO: Registre rechargé\nWARN: Rien à annuler\nSUCCESS: Courrier ajouté\n", buf.String())
}

func TestErrorHandler_formatMessage(t *testing.T) {
	eh := &ErrorHandler{}
	tests := []struct {
		level LogLevel
		want  string
		tag   string
	}{
		{LogLevelInfo, "ℹ️ msg", "INFO"},
		{LogLevelWarning, "⚠️ msg", "WARN"},
		{LogLevelError, "❌ msg", "ERROR"},
		{LogLevelSuccess, "✅ msg", "SUCCESS"},
		{LogLevel(99), "• msg", "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eh.formatMessage("msg", tt.level))
		assert.Equal(t, tt.tag, eh.levelToString(tt.level))
	}
}

func TestErrorHandler_ShowStoreError(t *testing.T) {
	eh, _, buf := newLoggedHandler()
	ctx := context.Background()

	eh.ShowStoreError(ctx, "ajout du courrier", nil)
	assert.Empty(t, buf.String())

	eh.ShowStoreError(ctx, "ajout du courrier", fmt.Errorf("write: %w", services.ErrPersist))
	assert.Contains(t, buf.String(), "ajout du courrier: modification non enregistrée")

	buf.Reset()
	eh.ShowStoreError(ctx, "ajout du courrier", errors.New("boom"))
	assert.Contains(t, buf.String(), "Échec: ajout du courrier")
}

func TestErrorHandler_StatusPriority(t *testing.T) {
	eh, sv, _ := newLoggedHandler()

	eh.Refresh()
	assert.Equal(t, "Courrier • ? aide", statusText(sv))

	eh.ShowProgress(context.Background(), "Enregistrement…")
	eh.Refresh()
	assert.Equal(t, "ℹ️ Enregistrement…", statusText(sv))

	eh.setFlash("✅ Courrier ajouté", LogLevelSuccess)
	assert.Equal(t, "✅ Courrier ajouté", statusText(sv))
	eh.mu.RLock()
	assert.NotNil(t, eh.timer)
	eh.mu.RUnlock()

	// a timer armed for an older flash leaves the newer one in place
	eh.expireFlash("✅ plus ancien")
	assert.Equal(t, "✅ Courrier ajouté", statusText(sv))

	eh.expireFlash("✅ Courrier ajouté")
	assert.Equal(t, "ℹ️ Enregistrement…", statusText(sv))

	eh.ClearProgress()
	eh.Refresh()
	assert.Equal(t, "Courrier • ? aide", statusText(sv))
}

func TestErrorHandler_Progress(t *testing.T) {
	eh, _, _ := newLoggedHandler()

	eh.ShowProgress(context.Background(), "Changement de statut…")
	eh.mu.RLock()
	assert.Equal(t, "ℹ️ Changement de statut…", eh.sticky)
	eh.mu.RUnlock()

	eh.ClearProgress()
	eh.mu.RLock()
	assert.Empty(t, eh.sticky)
	eh.mu.RUnlock()
}

func TestErrorHandler_NilViews(t *testing.T) {
	eh := &ErrorHandler{}
	assert.NotPanics(t, func() {
		eh.Refresh()
		eh.setFlash("x", LogLevelError)
		eh.expireFlash("x")
		eh.levelToColor(LogLevelWarning)
		eh.ShowMessage(context.Background(), "x", LogLevelInfo)
	})
}

func TestErrorHandler_ConcurrentCalls(t *testing.T) {
	eh, _, _ := newLoggedHandler()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eh.ShowInfo(ctx, "info")
			eh.ShowProgress(ctx, "progress")
			eh.ClearProgress()
		}()
	}
	wg.Wait()

	eh.mu.RLock()
	defer eh.mu.RUnlock()
	assert.Empty(t, eh.sticky)
}
