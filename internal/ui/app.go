package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/logtail"
	"github.com/five82/aula/internal/remote"
	"github.com/five82/aula/internal/selection"
	"github.com/five82/aula/internal/session"
	"github.com/five82/aula/internal/state"
	"github.com/five82/aula/internal/storage"
)

// View represents the current active view.
type View int

const (
	ViewDashboard View = iota
	ViewCourses
	ViewModules
	ViewLessons
	ViewLesson
	ViewProgress
	ViewAchievements
	ViewLogs
	viewCount
)

const (
	defaultSnapshotTick = time.Second
	logTailLines        = 300
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Session   *session.Manager
	Selection *selection.Context
	Remote    *remote.Adapters
	Syncer    *remote.Syncer
	Storage   storage.Storage
	Logger    zerolog.Logger

	BaseURL string
	LogPath string
	// RefreshEvery is shown in the header; the poller itself runs in app.
	RefreshEvery time.Duration
	// SnapshotTick is how often the view re-reads the store. Zero means 1s.
	SnapshotTick time.Duration
	// ThemeName overrides the stored preference.
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	session   *session.Manager
	selection *selection.Context
	remote    *remote.Adapters
	syncer    *remote.Syncer
	storage   storage.Storage
	logger    zerolog.Logger

	baseURL      string
	logPath      string
	refreshEvery time.Duration
	snapshotTick time.Duration

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	cursor      [viewCount]int

	// Data state
	snap        state.State
	health      state.SyncHealth
	lastUpdated time.Time

	inflight int
	spinner  spinner.Model

	detailViewport viewport.Model
	logViewport    viewport.Model
	logLines       []logtail.Line

	showHelp bool
	modal    Modal

	// err ends the program; Run returns it.
	err error
}

// New creates the model. When nobody is signed in it opens on the login
// form.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.SnapshotTick
	if tick <= 0 {
		tick = defaultSnapshotTick
	}

	m := Model{
		ctx:          ctx,
		store:        opts.Store,
		session:      opts.Session,
		selection:    opts.Selection,
		remote:       opts.Remote,
		syncer:       opts.Syncer,
		storage:      opts.Storage,
		logger:       opts.Logger.With().Str("component", "ui").Logger(),
		baseURL:      opts.BaseURL,
		logPath:      opts.LogPath,
		refreshEvery: opts.RefreshEvery,
		snapshotTick: tick,
		keys:         DefaultKeyMap(),
		currentView:  ViewDashboard,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.theme = GetTheme(m.storedTheme(opts.ThemeName))
	m.refreshSnapshot()
	if !m.snap.Session.LoggedIn && m.session != nil {
		m.modal = m.newLogin()
	}
	return m
}

func (m Model) storedTheme(override string) string {
	if override != "" {
		return override
	}
	if m.storage == nil {
		return DefaultThemeName
	}
	name, err := m.storage.Get(m.ctx, storage.KeyTheme)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("read theme preference")
		}
		return DefaultThemeName
	}
	return name
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.snapshotTick),
		m.spinner.Tick,
	}
	if m.modal != nil {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewports()
		m.ready = true
		m.syncViewports()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(msg.state, msg.health)
		return m, nil

	case taskMsg:
		m.inflight = max(m.inflight-1, 0)
		if err := m.syncer.Apply(msg.res); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.refreshSnapshot()
		return m, nil

	case loginResultMsg:
		m.refreshSnapshot()
		if msg.err == nil {
			m.currentView = ViewDashboard
			cmds = append(cmds, m.viewTasks(ViewDashboard), m.viewTasks(ViewCourses))
		}

	case logoutMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.refreshSnapshot()
		m.currentView = ViewDashboard
		m.modal = m.newLogin()
		return m, textinput.Blink

	case logLinesMsg:
		m.logLines = msg.lines
		m.syncViewports()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.modal == nil {
			return m.handleKey(msg)
		}
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		m.modal = modal
		if done {
			m.modal = nil
			m.refreshSnapshot()
			if !m.snap.Session.LoggedIn && m.currentView == ViewDashboard {
				cmds = append(cmds, m.viewTasks(ViewCourses))
			}
		}
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input outside modals.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, k.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, k.Login):
		if m.snap.Session.LoggedIn || m.session == nil {
			return m, nil
		}
		m.modal = m.newLogin()
		return m, textinput.Blink
	case key.Matches(msg, k.Logout):
		if !m.snap.Session.LoggedIn {
			return m, nil
		}
		return m, m.logoutCmd()
	case key.Matches(msg, k.Refresh):
		return m, m.viewTasks(m.currentView)
	case key.Matches(msg, k.ViewDashboard):
		return m.switchView(ViewDashboard)
	case key.Matches(msg, k.ViewCourses):
		return m.switchView(ViewCourses)
	case key.Matches(msg, k.ViewProgress):
		return m.switchView(ViewProgress)
	case key.Matches(msg, k.ViewAchievements):
		return m.switchView(ViewAchievements)
	case key.Matches(msg, k.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, k.Back):
		return m.back()
	}
	return m.handleViewKey(msg)
}

// switchView activates v and issues the fetches it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.dismissAlert()
	m.currentView = v
	m.syncViewports()
	return m, m.viewTasks(v)
}

// back walks up the drill-down. A visible alert is dismissed first.
func (m Model) back() (tea.Model, tea.Cmd) {
	if m.snap.Alert.Display {
		m.dismissAlert()
		return m, nil
	}
	switch m.currentView {
	case ViewLesson:
		m.currentView = ViewLessons
	case ViewLessons:
		m.currentView = ViewModules
	case ViewModules:
		m.currentView = ViewCourses
	default:
		m.currentView = ViewDashboard
	}
	return m, nil
}

// handleViewKey processes navigation inside the current view.
func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys

	switch m.currentView {
	case ViewLesson, ViewLogs:
		if m.currentView == ViewLesson && key.Matches(msg, k.Complete) {
			return m.completeLesson()
		}
		vp := &m.detailViewport
		if m.currentView == ViewLogs {
			vp = &m.logViewport
		}
		switch {
		case key.Matches(msg, k.Top):
			vp.GotoTop()
		case key.Matches(msg, k.Bottom):
			vp.GotoBottom()
		default:
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	n := m.listLen(m.currentView)
	if n == 0 {
		return m, nil
	}
	cur := &m.cursor[m.currentView]
	switch {
	case key.Matches(msg, k.Down):
		if *cur < n-1 {
			*cur++
		}
	case key.Matches(msg, k.Up):
		if *cur > 0 {
			*cur--
		}
	case key.Matches(msg, k.Top):
		*cur = 0
	case key.Matches(msg, k.Bottom):
		*cur = n - 1
	case key.Matches(msg, k.Open):
		return m.open()
	}
	return m, nil
}

// open drills into the entity under the cursor.
func (m Model) open() (tea.Model, tea.Cmd) {
	i := m.cursor[m.currentView]
	var entity any
	var next View

	switch m.currentView {
	case ViewCourses:
		entity, next = m.courseList()[i], ViewModules
	case ViewModules:
		entity, next = m.snap.Modules[i], ViewLessons
	case ViewLessons:
		entity, next = m.snap.Lessons[i], ViewLesson
	default:
		return m, nil
	}

	if err := m.selection.Select(entity); err != nil {
		m.err = err
		return m, tea.Quit
	}
	m.refreshSnapshot()
	m.cursor[next] = 0
	if next == ViewLesson {
		m.detailViewport.GotoTop()
	}
	return m.switchView(next)
}

func (m Model) completeLesson() (tea.Model, tea.Cmd) {
	lesson := m.snap.Selection.Lesson
	if lesson.IsZero() || !m.snap.Session.LoggedIn {
		return m, nil
	}
	return m, m.run(m.remote.CompleteLesson(lesson.ID))
}

// viewTasks returns the fetches that back view v.
func (m *Model) viewTasks(v View) tea.Cmd {
	if m.remote == nil {
		return nil
	}
	sel := m.snap.Selection
	switch v {
	case ViewDashboard:
		return m.run(m.remote.Progress(), m.remote.Achievements())
	case ViewCourses:
		if m.snap.Session.LoggedIn {
			return m.run(m.remote.Courses())
		}
		return m.run(m.remote.PublicCourses())
	case ViewModules:
		if !sel.Course.IsZero() {
			return m.run(m.remote.Modules(sel.Course.ID))
		}
	case ViewLessons:
		if !sel.Module.IsZero() {
			return m.run(m.remote.Lessons(sel.Module.ID))
		}
	case ViewLesson:
		if !sel.Lesson.IsZero() {
			return m.run(m.remote.Resources(sel.Lesson.ID), m.remote.Progress())
		}
	case ViewProgress:
		return m.run(m.remote.Progress())
	case ViewAchievements:
		return m.run(m.remote.Achievements())
	case ViewLogs:
		return readLogsCmd(m.logPath)
	}
	return nil
}

// run wraps tasks as commands. Their results come back as taskMsg and are
// dispatched in Update.
func (m *Model) run(tasks ...remote.Task) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(tasks))
	for _, task := range tasks {
		m.inflight++
		cmds = append(cmds, taskCmd(m.ctx, task))
	}
	return tea.Batch(cmds...)
}

func (m *Model) dismissAlert() {
	if !m.snap.Alert.Display || m.store == nil {
		return
	}
	if err := m.store.Dispatch(state.ClearAlert()); err != nil {
		m.logger.Error().Err(err).Msg("clear alert")
	}
	m.refreshSnapshot()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.storage == nil {
		return
	}
	if err := m.storage.Set(m.ctx, storage.KeyTheme, m.theme.Name); err != nil {
		m.logger.Warn().Err(err).Msg("save theme preference")
	}
}

func (m Model) newLogin() *loginModal {
	return newLoginModal(m.snap.Session.CurrentUser.Email, m.loginCmd)
}

func (m Model) loginCmd(creds lms.Credentials) tea.Cmd {
	ctx, mgr, store := m.ctx, m.session, m.store
	return func() tea.Msg {
		_, err := mgr.Login(ctx, creds)
		res := loginResultMsg{err: err}
		if err != nil {
			res.notice = store.Snapshot().Alert.Text
		}
		return res
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.session
	return func() tea.Msg {
		return logoutMsg{err: mgr.Logout(ctx)}
	}
}

// handleTick re-reads the store so background refreshes show up.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.snapshotTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refreshSnapshot() {
	if m.store == nil {
		m.snap = state.Initial()
		return
	}
	m.applySnapshot(m.store.Snapshot(), m.store.Health())
}

func (m *Model) applySnapshot(snap state.State, health state.SyncHealth) {
	m.snap = snap
	m.health = health
	m.lastUpdated = time.Now()
	for v := range viewCount {
		n := m.listLen(v)
		if m.cursor[v] >= n {
			m.cursor[v] = max(n-1, 0)
		}
	}
	m.syncViewports()
}

func (m *Model) resizeViewports() {
	w, h := max(m.width-4, 1), max(m.contentHeight()-2, 1)
	if !m.ready {
		m.detailViewport = viewport.New(w, h)
		m.logViewport = viewport.New(w, h)
		return
	}
	m.detailViewport.Width, m.detailViewport.Height = w, h
	m.logViewport.Width, m.logViewport.Height = w, h
}

func (m *Model) syncViewports() {
	if !m.ready {
		return
	}
	m.detailViewport.SetContent(m.lessonBody(m.detailViewport.Width))
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(m.logBody())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

// contentHeight is the space left under the header, command bar and alert.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	state  state.State
	health state.SyncHealth
}

type taskMsg struct{ res remote.Result }

type logoutMsg struct{ err error }

type logLinesMsg struct{ lines []logtail.Line }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{state: store.Snapshot(), health: store.Health()}
	}
}

func taskCmd(ctx context.Context, task remote.Task) tea.Cmd {
	return func() tea.Msg {
		return taskMsg{res: task(ctx)}
	}
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Tail(path, logTailLines, zerolog.TraceLevel)
		if err != nil {
			lines = []logtail.Line{{Raw: "read log: " + err.Error()}}
		}
		return logLinesMsg{lines: lines}
	}
}

// Run starts the Bubble Tea program and returns when the user quits.
func Run(opts Options) error {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
			return nil
		}
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
