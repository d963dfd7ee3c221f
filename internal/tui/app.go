package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/render"
	"github.com/ajramos/courrier/internal/services"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// Page names
const (
	pageMain    = "main"
	pageForm    = "form"
	pageConfirm = "confirm"
	pageHelp    = "help"
)

// App is the registry terminal UI: one table per direction, a detail pane,
// a stats bar and a status line
type App struct {
	*tview.Application
	Pages  *tview.Pages
	Config *config.Config
	Keys   config.KeyBindings

	ctx    context.Context
	cancel context.CancelFunc

	registry *services.Registry
	undo     services.UndoService
	themes   *services.ThemeServiceImpl
	colorer  *render.StatusColorer
	renderer *render.RecordRenderer

	mu       sync.RWMutex
	views    map[courrier.Direction]*directionView
	focusDir courrier.Direction
	unsubs   []func()

	// running is set while the event loop owns the primitives
	running atomic.Bool
	pendMu  sync.Mutex
	pending map[courrier.Direction][]courrier.Record

	layout     *tview.Flex
	statsView  *tview.TextView
	detailView *tview.TextView
	statusView *tview.TextView
	searchView *tview.InputField

	errorHandler *ErrorHandler
	logger       *log.Logger
	logFile      *os.File
}

// NewApp builds the UI over a loaded registry. A nil logger opens the log
// file named by the configuration.
func NewApp(ctx context.Context, cfg *config.Config, registry *services.Registry, themes *services.ThemeServiceImpl, logger *log.Logger) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	app := &App{
		Application: tview.NewApplication(),
		Pages:       tview.NewPages(),
		Config:      cfg,
		Keys:        cfg.Keys,
		ctx:         ctx,
		cancel:      cancel,
		registry:    registry,
		themes:      themes,
		views:       make(map[courrier.Direction]*directionView, 2),
		pending:     make(map[courrier.Direction][]courrier.Record, 2),
		focusDir:    courrier.Incoming,
		logger:      logger,
	}
	if app.logger == nil {
		app.initLogger()
	}
	if app.logger == nil {
		app.logger = log.New(os.Stderr, "[courrier] ", log.LstdFlags|log.Lmicroseconds)
	}

	undo := services.NewUndoService(registry)
	undo.SetLogger(app.logger)
	app.undo = undo

	theme := config.DefaultTheme()
	if themes != nil {
		theme = themes.GetCurrentThemeConfig()
	}
	app.colorer = render.NewStatusColorer(theme)
	app.renderer = render.NewRecordRenderer(app.colorer, cfg.Layout.SubjectWidth)

	app.initViews()
	app.errorHandler = NewErrorHandler(app.Application, app, app.statusView, app.logger)
	app.initThemes()
	app.subscribe()
	app.bindKeys()
	return app
}

// Run starts the event loop and blocks until the user quits
func (a *App) Run() error {
	defer a.closeLogger()
	defer a.shutdown()

	a.refreshAll()
	a.SetRoot(a.Pages, true)
	a.focusDirection(a.focusDir)
	a.logger.Printf("ui started")
	a.running.Store(true)
	defer a.running.Store(false)
	if err := a.Application.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// shutdown releases store subscriptions and theme callbacks
func (a *App) shutdown() {
	a.cancel()
	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
	if a.themes != nil {
		a.themes.UnregisterComponent("tables")
	}
}

func (a *App) initViews() {
	directions := tview.NewFlex().SetDirection(tview.FlexColumn)
	for _, d := range courrier.Directions() {
		v := newDirectionView(d)
		v.table.SetSelectionChangedFunc(func(row, _ int) {
			if a.focusDir == v.direction {
				a.showDetail(v.recordAt(row))
			}
		})
		v.table.SetBorder(a.Config.Layout.ShowBorders)
		a.views[d] = v
		directions.AddItem(v.table, 0, 1, d == a.focusDir)
	}

	a.detailView = tview.NewTextView().SetDynamicColors(false).SetWrap(true)
	a.detailView.SetBorder(a.Config.Layout.ShowBorders)
	a.detailView.SetTitle(" Détail ")

	a.statsView = tview.NewTextView().SetTextAlign(tview.AlignLeft)
	a.statusView = tview.NewTextView().SetTextAlign(tview.AlignLeft)
	a.statusView.SetText(a.statusBaseline())

	a.searchView = tview.NewInputField().SetLabel("Recherche: ")

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow)
	if a.Config.Layout.ShowStatsBar {
		a.layout.AddItem(a.statsView, 1, 0, false)
	}
	a.layout.AddItem(directions, 0, 3, true)
	a.layout.AddItem(a.detailView, 0, 1, false)
	a.layout.AddItem(a.statusView, 1, 0, false)

	a.Pages.AddPage(pageMain, a.layout, true, true)
}

// subscribe refreshes a table whenever its store changes, whoever made the
// change. Listeners run on the goroutine that changed the store, so they
// only record the new collection and hand the redraw to the event loop.
func (a *App) subscribe() {
	if a.registry == nil {
		return
	}
	for _, d := range courrier.Directions() {
		store, err := a.registry.Store(d)
		if err != nil {
			a.logger.Printf("ERROR: %v", err)
			continue
		}
		dir := d
		unsub := store.OnChange(func(list []courrier.Record) {
			a.markDirty(dir, list)
			a.queueDraw(a.flushPending)
		})
		a.mu.Lock()
		a.unsubs = append(a.unsubs, unsub)
		a.mu.Unlock()
	}
}

// markDirty keeps the latest collection of d until the next flush
func (a *App) markDirty(d courrier.Direction, list []courrier.Record) {
	a.pendMu.Lock()
	a.pending[d] = list
	a.pendMu.Unlock()
}

// flushPending redraws every table that changed since the last flush
func (a *App) flushPending() {
	a.pendMu.Lock()
	pending := a.pending
	a.pending = make(map[courrier.Direction][]courrier.Record, 2)
	a.pendMu.Unlock()
	if len(pending) == 0 {
		return
	}
	for _, d := range courrier.Directions() {
		if list, ok := pending[d]; ok {
			a.refreshDirection(d, list)
		}
	}
	a.refreshStats()
}

// queueDraw runs fn on the UI goroutine and returns without waiting for it.
// Before the event loop starts fn runs in place; after shutdown it is
// dropped.
func (a *App) queueDraw(fn func()) {
	if a.ctx.Err() != nil {
		return
	}
	if !a.running.Load() {
		fn()
		return
	}
	go func() {
		if a.ctx.Err() != nil {
			return
		}
		a.QueueUpdateDraw(fn)
	}()
}

// store returns the store of d, reporting failures in the status bar
func (a *App) store(d courrier.Direction) services.RecordStore {
	s, err := a.registry.Store(d)
	if err != nil {
		a.errorHandler.HandleError(a.ctx, err, "Registre indisponible")
		return nil
	}
	return s
}

// statusBaseline is shown in the status bar when no message is pending
func (a *App) statusBaseline() string {
	if a == nil {
		return "Courrier • ? aide"
	}
	return fmt.Sprintf("Courrier • %s • %s ajouter • %s rechercher • %s annuler • ? aide",
		a.focusDir.Label(), a.Keys.Add, a.Keys.Search, a.Keys.Undo)
}

// messageColor maps a message level to a colour of the current theme
func (a *App) messageColor(level LogLevel) tcell.Color {
	theme := config.DefaultTheme()
	if a != nil && a.themes != nil {
		theme = a.themes.GetCurrentThemeConfig()
	}
	switch level {
	case LogLevelWarning:
		return theme.Status.Pending.Color()
	case LogLevelError:
		return theme.Status.Unknown.Color()
	case LogLevelSuccess:
		return theme.Status.Processed.Color()
	default:
		return theme.Body.FgColor.Color()
	}
}
