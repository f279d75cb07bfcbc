package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/remote"
	"github.com/five82/aula/internal/selection"
	"github.com/five82/aula/internal/session"
	"github.com/five82/aula/internal/state"
	"github.com/five82/aula/internal/storage"
)

// fakeLMS serves a one-course catalog and records progress posts.
type fakeLMS struct {
	mu          sync.Mutex
	progress    []map[string]any
	failProgress bool
}

func (f *fakeLMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	write := func(v any) { _ = json.NewEncoder(w).Encode(v) }

	switch {
	case r.URL.Path == "/api/login":
		var creds lms.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			write(map[string]any{"message": "Bad username or password"})
			return
		}
		write(map[string]any{
			"access_token": "tok",
			"results": map[string]any{
				"user_id": 7, "first_name": "Ana", "email": creds.Email,
				"role": "student", "current_points": 15,
			},
		})
	case r.URL.Path == "/api/courses-private", r.URL.Path == "/api/courses-public":
		write([]map[string]any{{"course_id": 1, "title": "Signs 101", "points": 20, "is_active": true}})
	case r.URL.Path == "/api/courses/1/modules":
		write(map[string]any{"results": []map[string]any{{"module_id": 10, "title": "Greetings", "order": 1, "course_id": 1}}})
	case r.URL.Path == "/api/modules/10/lessons":
		write([]map[string]any{{"lesson_id": 100, "title": "Hello", "order": 1, "module_id": 10, "content": "Wave your hand", "learning_objective": "Say hi"}})
	case r.URL.Path == "/api/lessons/100/resources":
		write([]map[string]any{{"resource_id": 1000, "lesson_id": 100, "type": "video", "url": "https://cdn.example/hello.mp4", "duration_seconds": 30}})
	case r.URL.Path == "/api/achievements":
		write(map[string]any{"achievements": []map[string]any{
			{"achievement_id": 1, "name": "First Step", "required_points": 10},
			{"achievement_id": 2, "name": "Fluent", "required_points": 500},
		}})
	case r.URL.Path == "/api/progress":
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failProgress {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Method == http.MethodPost {
			var upd lms.ProgressUpdate
			_ = json.NewDecoder(r.Body).Decode(&upd)
			f.progress = append(f.progress, map[string]any{
				"progress_id": len(f.progress) + 1, "lesson_id": upd.LessonID,
				"lesson_title": "Hello", "completed": upd.Completed,
			})
			write(map[string]any{"message": "ok"})
			return
		}
		write(map[string]any{"progress": f.progress})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	store   *state.Store
	storage storage.Storage
	api     *fakeLMS
	opts    Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeLMS{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := lms.NewClient(srv.URL)
	require.NoError(t, err)
	st, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	store := state.NewStore()
	logger := zerolog.Nop()
	return &harness{
		store:   store,
		storage: st,
		api:     api,
		opts: Options{
			Context:   context.Background(),
			Store:     store,
			Session:   session.NewManager(client, store, st, logger),
			Selection: selection.New(store),
			Remote:    remote.New(client, store, logger),
			Syncer:    remote.NewSyncer(store, logger),
			Storage:   st,
			Logger:    logger,
			BaseURL:   srv.URL,
		},
	}
}

// signedIn seeds a session so New skips the login form.
func (h *harness) signedIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.Dispatch(
		state.SetToken{Token: "tok"},
		state.SetUser{User: lms.UserSummary{ID: 7, FirstName: "Ana", CurrentPoints: 15}},
		state.SetLoggedIn{LoggedIn: true},
	))
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m, _ := update(New(h.opts), tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = update(m, keyMsg(k))
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// drain runs cmd and feeds back the messages that carry results. Timers,
// blinks and other UI chatter are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case taskMsg, logoutMsg, logLinesMsg:
			var next tea.Cmd
			m, next = update(m, msg)
			queue = append(queue, next)
		case loginResultMsg:
			var next tea.Cmd
			m, next = update(m, msg)
			if msg.err == nil {
				queue = append(queue, next)
			}
		}
	}
	return m
}

func TestNewOpensLoginWhenSignedOut(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "Log in")
}

func TestLoginFlowLoadsDashboard(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = typeText(m, "ana@example.com")
	m, _ = press(m, "tab")
	m = typeText(m, "secret")
	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	assert.Nil(t, m.modal)
	snap := h.store.Snapshot()
	assert.True(t, snap.Session.LoggedIn)
	assert.Equal(t, "tok", snap.Session.Token)
	assert.Len(t, snap.Achievements, 2)
	assert.Len(t, snap.Courses, 1)
	assert.Zero(t, m.inflight)

	tok, err := h.storage.Get(context.Background(), storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	view := m.View()
	assert.Contains(t, view, "Welcome, Ana")
	assert.Contains(t, view, "1 of 2 unlocked")
}

func TestLoginFailureKeepsForm(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = typeText(m, "ana@example.com")
	m, _ = press(m, "tab")
	m = typeText(m, "wrong")
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	require.NotNil(t, m.modal)
	snap := h.store.Snapshot()
	assert.False(t, snap.Session.LoggedIn)
	assert.Empty(t, snap.Session.Token)
	assert.True(t, snap.Alert.Display)
	assert.Contains(t, m.View(), "Bad username or password")
}

func TestEscBrowsesPublicCatalog(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m, cmd := press(m, "esc")
	assert.Nil(t, m.modal)
	m = drain(t, m, cmd)
	assert.Len(t, h.store.Snapshot().PublicCourses, 1)

	m, cmd = press(m, "c")
	m = drain(t, m, cmd)
	assert.Equal(t, ViewCourses, m.currentView)
	view := m.View()
	assert.Contains(t, view, "Public courses")
	assert.Contains(t, view, "Signs 101")
}

func TestDrillDownKeepsEachSelectionLevel(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	m := h.model(t)
	require.Nil(t, m.modal)

	m, cmd := press(m, "c")
	m = drain(t, m, cmd)
	m, cmd = press(m, "enter")
	m = drain(t, m, cmd)
	assert.Equal(t, ViewModules, m.currentView)

	m, cmd = press(m, "enter")
	m = drain(t, m, cmd)
	assert.Equal(t, ViewLessons, m.currentView)
	assert.Equal(t, int64(1), h.store.Snapshot().Selection.Course.ID, "selecting a module keeps the course")

	m, cmd = press(m, "enter")
	m = drain(t, m, cmd)
	assert.Equal(t, ViewLesson, m.currentView)

	sel := h.store.Snapshot().Selection
	assert.Equal(t, int64(1), sel.Course.ID)
	assert.Equal(t, int64(10), sel.Module.ID)
	assert.Equal(t, int64(100), sel.Lesson.ID)

	view := m.View()
	assert.Contains(t, view, "Say hi")
	assert.Contains(t, view, "hello.mp4")

	m, _ = press(m, "esc")
	assert.Equal(t, ViewLessons, m.currentView)
	m, _ = press(m, "esc")
	assert.Equal(t, ViewModules, m.currentView)
	m, _ = press(m, "esc")
	assert.Equal(t, ViewCourses, m.currentView)
}

func TestCompleteLessonRefreshesProgress(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	require.NoError(t, h.store.Dispatch(state.SelectLesson{Lesson: lms.Lesson{ID: 100, Title: "Hello"}}))
	m := h.model(t)
	m.currentView = ViewLesson

	m, cmd := press(m, "m")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	progress := h.store.Snapshot().Progress
	require.Len(t, progress, 1)
	assert.True(t, progress[0].Completed)
	assert.Equal(t, int64(100), progress[0].LessonID)
	assert.Contains(t, m.lessonBody(80), "completed")
}

func TestFailedFetchShowsEmptyList(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	require.NoError(t, h.store.Dispatch(state.SetProgress{Items: []lms.ProgressRecord{{ID: 1, Completed: true}}}))
	h.api.failProgress = true
	m := h.model(t)

	m, cmd := press(m, "p")
	m = drain(t, m, cmd)

	assert.Equal(t, ViewProgress, m.currentView)
	assert.Empty(t, h.store.Snapshot().Progress)
	assert.Nil(t, m.err)
	assert.Contains(t, m.View(), "Nothing here yet")
}

func TestEscDismissesAlertFirst(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	m := h.model(t)
	m.currentView = ViewProgress
	require.NoError(t, h.store.Dispatch(state.Notify(state.AlertSuccess, "Saved")))
	m.refreshSnapshot()
	assert.Contains(t, m.View(), "Saved")

	m, _ = press(m, "esc")
	assert.False(t, h.store.Snapshot().Alert.Display)
	assert.Equal(t, ViewProgress, m.currentView)

	m, _ = press(m, "esc")
	assert.Equal(t, ViewDashboard, m.currentView)
}

func TestLogoutReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	require.NoError(t, h.storage.Set(context.Background(), storage.KeyToken, "tok"))
	m := h.model(t)

	m, cmd := press(m, "X")
	m = drain(t, m, cmd)

	assert.NotNil(t, m.modal)
	snap := h.store.Snapshot()
	assert.False(t, snap.Session.LoggedIn)
	assert.Empty(t, snap.Session.Token)
	assert.True(t, snap.Session.CurrentUser.IsZero())

	_, err := h.storage.Get(context.Background(), storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCycleThemePersists(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	m := h.model(t)
	assert.Equal(t, DefaultThemeName, m.theme.Name)

	m, _ = press(m, "T")
	assert.Equal(t, "Kanagawa", m.theme.Name)

	stored, err := h.storage.Get(context.Background(), storage.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", stored)
	assert.Equal(t, "Kanagawa", h.model(t).theme.Name)
}

func TestLogsViewTailsClientLog(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	path := filepath.Join(t.TempDir(), "aula.log")
	line := `{"level":"warn","component":"remote","task":"progress","error":"connection refused","time":"2025-10-08T21:01:05Z","message":"fetch failed"}`
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	h.opts.LogPath = path
	m := h.model(t)

	m, cmd := press(m, "l")
	m = drain(t, m, cmd)

	assert.Equal(t, ViewLogs, m.currentView)
	view := m.View()
	assert.Contains(t, view, "fetch failed")
	assert.Contains(t, view, "WARN [remote] progress")
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	m := h.model(t)

	m, _ = press(m, "?")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m, _ = press(m, "c")
	assert.False(t, m.showHelp)
	assert.Equal(t, ViewDashboard, m.currentView)
}

func TestCursorStaysInBounds(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	require.NoError(t, h.store.Dispatch(state.SetAchievements{Items: []lms.Achievement{{ID: 1}, {ID: 2}, {ID: 3}}}))
	m := h.model(t)
	m.currentView = ViewAchievements

	m, _ = press(m, "j", "j", "j", "j")
	assert.Equal(t, 2, m.cursor[ViewAchievements])
	m, _ = press(m, "g")
	assert.Equal(t, 0, m.cursor[ViewAchievements])

	require.NoError(t, h.store.Dispatch(state.SetAchievements{Items: []lms.Achievement{{ID: 1}}}))
	m, _ = press(m, "G")
	m.refreshSnapshot()
	assert.Equal(t, 0, m.cursor[ViewAchievements])
}
