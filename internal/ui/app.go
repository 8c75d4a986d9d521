package ui

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/LottoView/internal/config"
	"github.com/yildizm/LottoView/internal/fetch"
	"github.com/yildizm/LottoView/internal/logger"
	"github.com/yildizm/LottoView/internal/lottery"
	"github.com/yildizm/LottoView/internal/router"
	"github.com/yildizm/LottoView/internal/update"
)

// Backend is the service the TUI talks to. gateway.Client satisfies it.
type Backend interface {
	BaseURL() string
	LatestAnalysis(ctx context.Context) (*lottery.LatestAnalysis, error)
	History(ctx context.Context, page, limit int) (*lottery.HistoryPage, error)
	Update(ctx context.Context) (*lottery.UpdateOutcome, error)
	Health(ctx context.Context) (*lottery.Health, error)
}

// Recorder receives fetch and update observations. metrics.Collector
// satisfies it.
type Recorder interface {
	fetch.Recorder
	update.Recorder
}

// ConnectFunc builds a Backend for a reloaded configuration.
type ConnectFunc func(cfg *config.Config) (Backend, error)

// Options configures the TUI
type Options struct {
	Backend    Backend
	Location   string
	PageSize   int
	PageWindow int
	MessageTTL time.Duration
	Policy     router.Policy
	Theme      Theme
	Verbose    bool

	Context  context.Context
	Logger   *logger.Logger
	Recorder Recorder

	// Reloads delivers configuration changes; Connect rebuilds the backend
	// for them. Both may be nil.
	Reloads <-chan config.Reload
	Connect ConnectFunc
}

type backendRef struct {
	Backend
}

type reloadMsg config.Reload

// App is the interactive client. Home shows the latest analysis and the
// update control; History shows one page of draws.
type App struct {
	backend atomic.Pointer[backendRef]

	nav     *router.SessionHistory
	router  *router.Router
	home    *fetch.Controller[*lottery.LatestAnalysis]
	draws   *fetch.Controller[*lottery.HistoryPage]
	health  *fetch.Controller[*lottery.Health]
	updater *update.Orchestrator

	// commands queued by router listeners during the current Update call
	pending []tea.Cmd

	keys       keyMap
	help       help.Model
	spinner    spinner.Model
	address    textinput.Model
	addressing bool
	styles     *Styles

	pageWindow int
	verbose    bool
	width      int
	height     int

	reloads <-chan config.Reload
	connect ConnectFunc
	log     *logger.Logger
}

// New builds the TUI model. The initial view is resolved from
// opts.Location ("/" when empty).
func New(opts Options) *App {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.PageWindow < 1 {
		opts.PageWindow = 5
	}
	if opts.Theme.Name == "" {
		opts.Theme = DefaultTheme
	}

	m := &App{
		keys:       defaultKeyMap(),
		help:       help.New(),
		styles:     NewStyles(opts.Theme),
		pageWindow: opts.PageWindow,
		verbose:    opts.Verbose,
		reloads:    opts.Reloads,
		connect:    opts.Connect,
		log:        opts.Logger.WithComponent("ui"),
	}
	m.backend.Store(&backendRef{opts.Backend})

	fetchOpts := []fetch.Option{
		fetch.WithLogger(opts.Logger.WithComponent("fetch")),
		fetch.WithContext(opts.Context),
	}
	updateOpts := []update.Option{
		update.WithTTL(opts.MessageTTL),
		update.WithLogger(opts.Logger.WithComponent("update")),
		update.WithContext(opts.Context),
	}
	if opts.Recorder != nil {
		fetchOpts = append(fetchOpts, fetch.WithRecorder(opts.Recorder))
		updateOpts = append(updateOpts, update.WithRecorder(opts.Recorder))
	}

	m.home = fetch.NewSingle("home", func(ctx context.Context) (*lottery.LatestAnalysis, error) {
		return m.api().LatestAnalysis(ctx)
	}, fetchOpts...)
	m.draws = fetch.New("history", func(ctx context.Context, page, size int) (*lottery.HistoryPage, int, error) {
		p, err := m.api().History(ctx, page, size)
		if err != nil {
			return nil, 0, err
		}
		return p, p.TotalCount, nil
	}, opts.PageSize, fetchOpts...)
	m.health = fetch.NewSingle("health", func(ctx context.Context) (*lottery.Health, error) {
		return m.api().Health(ctx)
	}, fetchOpts...)

	m.updater = update.New(
		func(ctx context.Context) (*lottery.UpdateOutcome, error) { return m.api().Update(ctx) },
		func() tea.Cmd { return m.home.Load(1) },
		updateOpts...,
	)

	location := opts.Location
	if strings.TrimSpace(location) == "" {
		location = router.HomePath
	}
	m.nav = router.NewSessionHistory(router.ParseLocation(location))
	m.router = router.New(m.nav,
		router.WithPolicy(opts.Policy),
		router.WithLogger(opts.Logger.WithComponent("router")),
	)
	m.router.OnChange(func(_, to router.View) {
		m.pending = append(m.pending, m.loadView(to))
	})

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = m.styles.Header

	m.address = textinput.New()
	m.address.Prompt = "location: "
	m.address.Placeholder = "/history"
	m.address.CharLimit = 256

	return m
}

func (m *App) api() Backend {
	return m.backend.Load().Backend
}

// loadView returns the command that mounts v.
func (m *App) loadView(v router.View) tea.Cmd {
	if v == router.History {
		return m.draws.Load(1)
	}
	return m.home.Load(1)
}

// Init starts the spinner and the fetches for the initial view
func (m *App) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.health.Load(1),
		m.loadView(m.router.Active()),
		m.waitForReload(),
	)
}

func (m *App) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg(r)
	}
}

// Update handles messages and key presses
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.address.Width = max(10, msg.Width-len(m.address.Prompt)-2)
	case tea.KeyMsg:
		if m.addressing {
			cmd = m.handleAddressKey(msg)
		} else {
			cmd = m.handleKey(msg)
		}
	case fetch.ResultMsg[*lottery.LatestAnalysis]:
		m.home.Apply(msg)
	case fetch.ResultMsg[*lottery.HistoryPage]:
		m.draws.Apply(msg)
	case fetch.ResultMsg[*lottery.Health]:
		m.health.Apply(msg)
	case update.DoneMsg, update.ExpireMsg:
		cmd = m.updater.Update(msg)
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	case reloadMsg:
		m.applyReload(config.Reload(msg))
		cmd = m.waitForReload()
	}

	return m, m.flush(cmd)
}

// flush batches cmd with anything router listeners queued.
func (m *App) flush(cmd tea.Cmd) tea.Cmd {
	if len(m.pending) == 0 {
		return cmd
	}
	cmds := append(m.pending, cmd)
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	onHistory := m.router.Active() == router.History

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Update):
		// one update at a time
		if !onHistory && !m.updater.Busy() {
			return m.updater.Perform()
		}
	case key.Matches(msg, m.keys.History):
		m.router.Navigate(router.History)
	case key.Matches(msg, m.keys.Home):
		m.router.Navigate(router.Home)
	case key.Matches(msg, m.keys.Prev):
		if onHistory {
			return m.draws.GoToPage(m.draws.CurrentPage() - 1)
		}
	case key.Matches(msg, m.keys.Next):
		if onHistory {
			return m.draws.GoToPage(m.draws.CurrentPage() + 1)
		}
	case key.Matches(msg, m.keys.Page):
		if onHistory {
			return m.draws.GoToPage(int(msg.Runes[0] - '0'))
		}
	case key.Matches(msg, m.keys.Retry):
		return m.retry(onHistory)
	case key.Matches(msg, m.keys.Back):
		m.nav.Back()
	case key.Matches(msg, m.keys.Forward):
		m.nav.Forward()
	case key.Matches(msg, m.keys.Address):
		m.addressing = true
		m.address.SetValue(m.router.Location().String())
		m.address.CursorEnd()
		return m.address.Focus()
	}
	return nil
}

func (m *App) retry(onHistory bool) tea.Cmd {
	cmds := []tea.Cmd{}
	if m.health.State().Status == fetch.Failure {
		cmds = append(cmds, m.health.Retry())
	}
	if onHistory {
		if m.draws.State().Status == fetch.Failure {
			cmds = append(cmds, m.draws.Retry())
		}
	} else if m.home.State().Status == fetch.Failure {
		cmds = append(cmds, m.home.Retry())
	}
	return tea.Batch(cmds...)
}

func (m *App) handleAddressKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		raw := strings.TrimSpace(m.address.Value())
		m.closeAddress()
		if raw != "" {
			m.nav.Go(raw)
		}
		return nil
	case tea.KeyEsc:
		m.closeAddress()
		return nil
	}

	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return cmd
}

func (m *App) closeAddress() {
	m.addressing = false
	m.address.Blur()
	m.address.Reset()
}

// applyReload swaps the backend and timing settings. Invalid reloads keep
// the running configuration.
func (m *App) applyReload(r config.Reload) {
	if r.Err != nil {
		m.log.Warn("config reload ignored: %v", r.Err)
		return
	}
	cfg := r.Config

	if m.connect != nil {
		b, err := m.connect(cfg)
		if err != nil {
			m.log.Warn("config reload ignored: %v", err)
			return
		}
		m.backend.Store(&backendRef{b})
	}

	m.updater.SetTTL(cfg.Update.MessageTTL)
	m.router.SetPolicy(router.Policy{Strict: cfg.Router.StrictMatch})
	if cfg.History.PageWindow > 0 {
		m.pageWindow = cfg.History.PageWindow
	}
	m.verbose = cfg.Output.Verbose

	m.log.InfoWithFields("config reloaded", []logger.Field{
		logger.F("base_url", m.api().BaseURL()),
		logger.Duration(m.updater.TTL()),
	})
}

// Active returns the view on screen
func (m *App) Active() router.View { return m.router.Active() }

// Close releases the router subscription
func (m *App) Close() { m.router.Close() }
