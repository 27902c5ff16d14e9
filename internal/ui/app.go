package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/kiwi/internal/coordinator"
	"github.com/five82/kiwi/internal/prefs"
	"github.com/five82/kiwi/internal/state"
	"github.com/five82/kiwi/internal/todo"
)

const defaultSearchDebounce = 500 * time.Millisecond

// Syncer is the part of the coordinator the TUI drives.
type Syncer interface {
	Store() *state.Store
	Fetch(ctx context.Context, query coordinator.Query) error
	Add(ctx context.Context, title string) error
	Update(ctx context.Context, edited todo.Todo) error
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DismissError()
}

// Options configures the UI.
type Options struct {
	Context        context.Context
	Sync           Syncer
	Logger         *zap.Logger
	Prefs          prefs.Prefs
	PrefsPath      string
	PerPage        int
	SearchDebounce time.Duration
}

// mode is what the keyboard is currently driving.
type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
	modeConfirmDelete
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	sync      Syncer
	store     *state.Store
	logger    *zap.Logger
	prefsPath string
	perPage   int
	debounce  time.Duration

	// UI state
	theme     Theme
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	paginator paginator.Model
	input     textinput.Model
	width     int
	height    int
	showHelp  bool
	mode      mode
	notice    string

	// Data state
	snapshot state.Snapshot

	// List state
	filter  todo.Filter
	sortBy  todo.SortOption
	query   coordinator.Query
	page    int
	cursor  int // row within the current page
	editing todo.Todo
	target  todo.Todo // pending delete

	searchGen int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = todo.DefaultPerPage
	}

	debounce := opts.SearchDebounce
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}

	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Defaults()
	}
	theme := GetTheme(p.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.PerPage = perPage

	in := textinput.New()
	in.CharLimit = 256
	in.Prompt = ""

	store := opts.Sync.Store()
	m := Model{
		ctx:       ctx,
		sync:      opts.Sync,
		store:     store,
		logger:    logger.Named("ui"),
		prefsPath: prefsPath,
		perPage:   perPage,
		debounce:  debounce,
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		paginator: pg,
		input:     in,
		snapshot:  store.Snapshot(),
		filter:    p.FilterOption(),
		sortBy:    p.SortOption(),
		query: coordinator.Query{
			SortField:     p.SortField,
			SortDirection: p.SortDirection,
		},
		page: 1,
	}
	m.applyThemeStyles()
	m.clamp()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForChange(m.ctx, m.store),
		m.fetchCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-16, 10)
		return m, nil

	case stateChangedMsg:
		m.snapshot = state.Snapshot(msg)
		m.clamp()
		return m, waitForChange(m.ctx, m.store)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case searchTickMsg:
		return m.handleSearchTick(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.inputActive() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.snapshot = m.store.Snapshot()
	m.clamp()

	switch {
	case msg.err == nil:
		m.logger.Debug("operation finished", zap.String("op", msg.op))
	case errors.Is(msg.err, coordinator.ErrStale), errors.Is(msg.err, context.Canceled):
		// a newer fetch owns the list
	case errors.Is(msg.err, todo.ErrEmptyTitle),
		errors.Is(msg.err, coordinator.ErrPending),
		errors.Is(msg.err, coordinator.ErrNotFound):
		m.notice = msg.err.Error()
	default:
		// already surfaced through the store's error message
		m.logger.Debug("operation failed", zap.String("op", msg.op), zap.Error(msg.err))
	}
	return m, nil
}

func (m Model) handleSearchTick(msg searchTickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.searchGen {
		return m, nil
	}
	if msg.term == m.query.Search {
		return m, nil
	}
	m.query.Search = msg.term
	m.page = 1
	m.cursor = 0
	return m, m.fetchCmd()
}

func (m Model) inputActive() bool {
	switch m.mode {
	case modeAdd, modeEdit, modeSearch:
		return true
	}
	return false
}

// visible returns the filtered and sorted list.
func (m Model) visible() []todo.Todo {
	return todo.View(m.snapshot.Todos, m.filter, m.sortBy)
}

func (m Model) currentPage() todo.Page {
	return todo.Paginate(m.visible(), m.page, m.perPage)
}

func (m Model) selected() (todo.Todo, bool) {
	p := m.currentPage()
	if m.cursor < 0 || m.cursor >= len(p.Items) {
		return todo.Todo{}, false
	}
	return p.Items[m.cursor], true
}

// clamp brings page and cursor back in range after the list changed.
func (m *Model) clamp() {
	p := m.currentPage()
	m.page = p.Number
	if m.cursor >= len(p.Items) {
		m.cursor = len(p.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.paginator.PerPage = m.perPage
	m.paginator.TotalPages = max(p.TotalPages, 1)
	m.paginator.Page = p.Number - 1
}

func (m *Model) applyThemeStyles() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.AccentText
	m.paginator.ActiveDot = styles.AccentText.Render("•")
	m.paginator.InactiveDot = styles.FaintText.Render("•")
	m.input.TextStyle = styles.Text
	m.input.PlaceholderStyle = styles.FaintText
	m.input.Cursor.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.Text
	m.help.Styles.FullSeparator = styles.FaintText
}

func (m Model) currentPrefs() prefs.Prefs {
	return prefs.Prefs{
		Theme:         m.theme.Name,
		Filter:        string(m.filter),
		Sort:          string(m.sortBy),
		SortField:     m.query.SortField,
		SortDirection: m.query.SortDirection,
	}
}

func (m Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.currentPrefs()); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

// Messages

type stateChangedMsg state.Snapshot

type opDoneMsg struct {
	op  string
	err error
}

type searchTickMsg struct {
	gen  int
	term string
}

// Commands

func waitForChange(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-store.Changes():
			return stateChangedMsg(store.Snapshot())
		}
	}
}

func searchTickCmd(d time.Duration, gen int, term string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchTickMsg{gen: gen, term: term}
	})
}

func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) fetchCmd() tea.Cmd {
	sync, query := m.sync, m.query
	return m.run("fetch", func(ctx context.Context) error {
		return sync.Fetch(ctx, query)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
