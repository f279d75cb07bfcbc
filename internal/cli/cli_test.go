package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/aula/internal/app"
	"github.com/five82/aula/internal/config"
	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/session"
)

type fakeAPI struct {
	token string

	mu        sync.Mutex
	completed []int64
	modules   []map[string]any
	deleted   []string
}

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "ana@example.com",
		"user_id": 7,
		"role":    "student",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	api := &fakeAPI{token: token, modules: []map[string]any{
		{"module_id": 10, "title": "Greetings", "order": 1, "points": 5, "course_id": 1},
	}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) authed(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	write := func(status int, v any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	denied := map[string]any{"msg": "Missing Authorization Header"}

	switch r.URL.Path {
	case "/api/login":
		var creds lms.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			write(http.StatusUnauthorized, map[string]any{"message": "Bad username or password"})
			return
		}
		write(http.StatusOK, map[string]any{
			"access_token": f.token,
			"results":      map[string]any{"user_id": 7, "first_name": "Ana", "email": creds.Email, "role": "student", "current_points": 15},
		})
	case "/api/protected":
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		write(http.StatusOK, map[string]any{"message": "ok"})
	case "/api/users":
		if r.Method == http.MethodPost {
			write(http.StatusCreated, map[string]any{"message": "created"})
			return
		}
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		write(http.StatusOK, map[string]any{"results": []map[string]any{
			{"user_id": 1, "email": "admin@example.com", "first_name": "Root", "is_admin": true},
			{"user_id": 3, "email": "leo@example.com", "role": "student"},
		}})
	case "/api/users/3":
		if !f.authed(r) || r.Method != http.MethodDelete {
			write(http.StatusUnauthorized, denied)
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, "3")
		f.mu.Unlock()
		write(http.StatusOK, map[string]any{"message": "Usuario 3 eliminado"})
	case "/api/modules-private":
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		var mod lms.NewModule
		_ = json.NewDecoder(r.Body).Decode(&mod)
		f.mu.Lock()
		created := map[string]any{"module_id": 11, "title": mod.Title, "order": mod.Order, "points": mod.Points, "course_id": mod.CourseID}
		f.modules = append(f.modules, created)
		f.mu.Unlock()
		write(http.StatusCreated, map[string]any{"results": created})
	case "/api/courses-public":
		write(http.StatusOK, []map[string]any{{"course_id": 1, "title": "Signs 101", "points": 20, "is_active": true}})
	case "/api/courses-private":
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		write(http.StatusOK, map[string]any{"courses": []map[string]any{
			{"course_id": 1, "title": "Signs 101", "points": 20, "is_active": true},
			{"course_id": 2, "title": "Fingerspelling", "points": 35, "is_active": false},
		}})
	case "/api/courses/1/modules":
		f.mu.Lock()
		defer f.mu.Unlock()
		write(http.StatusOK, f.modules)
	case "/api/modules/10/lessons":
		write(http.StatusOK, []map[string]any{
			{"lesson_id": 100, "title": "Hello", "order": 1},
			{"lesson_id": 101, "title": "Goodbye", "order": 2},
		})
	case "/api/lessons/100/resources":
		write(http.StatusOK, []map[string]any{{"resource_id": 1000, "type": "video", "url": "https://cdn.example/hello.mp4", "duration_seconds": 90}})
	case "/api/achievements":
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		write(http.StatusOK, []map[string]any{{"achievement_id": 1, "name": "First Step", "required_points": 0}})
	case "/api/progress":
		if !f.authed(r) {
			write(http.StatusUnauthorized, denied)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			var upd lms.ProgressUpdate
			_ = json.NewDecoder(r.Body).Decode(&upd)
			f.completed = append(f.completed, upd.LessonID)
			write(http.StatusOK, map[string]any{"message": "saved"})
			return
		}
		records := make([]map[string]any, 0, len(f.completed))
		for i, id := range f.completed {
			records = append(records, map[string]any{"progress_id": i + 1, "lesson_id": id, "lesson_title": "Hello", "completed": true})
		}
		write(http.StatusOK, map[string]any{"progress": records})
	default:
		write(http.StatusNotFound, map[string]any{"message": "not found"})
	}
}

// testConfig writes a config pointing at srv with sqlite storage and a log
// file in a temp dir.
func testConfig(t *testing.T, baseURL string) (configPath, logPath string) {
	t.Helper()
	for _, key := range []string{config.EnvAPIURL, config.EnvStorage, config.EnvLogLevel} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.toml")
	logPath = filepath.Join(dir, "aula.log")
	body := fmt.Sprintf(`
[api]
base_url = %q
timeout = "2s"

[storage]
backend = "sqlite"
path = %q

[log]
level = "debug"
file = %q
`, baseURL, filepath.Join(dir, "aula.db"), logPath)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return configPath, logPath
}

func execute(deps Deps, args ...string) (string, error) {
	root := NewRootCmd(deps)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginPersistsSessionAcrossCommands(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	out, err := execute(Deps{}, "--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ana")

	out, err = execute(Deps{}, "--config", cfgPath, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "student")

	out, err = execute(Deps{}, "--config", cfgPath, "courses")
	require.NoError(t, err)
	assert.Contains(t, out, "Fingerspelling")
	assert.Contains(t, out, "ACTIVE")

	_, err = execute(Deps{}, "--config", cfgPath, "logout")
	require.NoError(t, err)

	_, err = execute(Deps{}, "--config", cfgPath, "whoami")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	_, err := execute(Deps{}, "--config", cfgPath, "login", "--email", "ana@example.com", "--password", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "Bad username or password")

	_, err = execute(Deps{}, "--config", cfgPath, "whoami")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestLoginNeedsFlagsWhenNotInteractive(t *testing.T) {
	_, err := execute(Deps{}, "login", "--email", "ana@example.com")
	assert.ErrorIs(t, err, errMissingCredentials)
}

func TestCoursesWhenSignedOutListsPublicCatalog(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	out, err := execute(Deps{}, "--config", cfgPath, "courses")
	require.NoError(t, err)
	assert.Contains(t, out, "Signs 101")
	assert.NotContains(t, out, "Fingerspelling")
}

func TestPrivateListsNeedSession(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	for _, args := range [][]string{{"progress"}, {"achievements"}, {"complete", "100"}} {
		_, err := execute(Deps{}, append([]string{"--config", cfgPath}, args...)...)
		assert.ErrorIs(t, err, session.ErrNotLoggedIn, "%v", args)
	}
}

func TestDrillDownCommands(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	out, err := execute(Deps{}, "--config", cfgPath, "modules", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Greetings")

	out, err = execute(Deps{}, "--config", cfgPath, "lessons", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "Goodbye")

	out, err = execute(Deps{}, "--config", cfgPath, "resources", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "hello.mp4")
	assert.Contains(t, out, "1m30s")

	_, err = execute(Deps{}, "--config", cfgPath, "modules", "abc")
	assert.ErrorContains(t, err, `invalid course id "abc"`)
}

func TestCompleteLessonShowsInProgress(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	_, err := execute(Deps{}, "--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(Deps{}, "--config", cfgPath, "complete", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Lesson 100 completed")

	out, err = execute(Deps{}, "--config", cfgPath, "progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "100%")

	out, err = execute(Deps{}, "--config", cfgPath, "lessons", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = execute(Deps{}, "--config", cfgPath, "achievements")
	require.NoError(t, err)
	assert.Contains(t, out, "First Step")
	assert.Contains(t, out, "unlocked")
}

func TestModulesCreate(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	_, err := execute(Deps{}, "--config", cfgPath, "modules", "create", "--course", "1", "--title", "Numbers")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)

	_, err = execute(Deps{}, "--config", cfgPath, "modules", "create", "--title", "Numbers")
	assert.ErrorContains(t, err, "--course and --title are required")

	_, err = execute(Deps{}, "--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(Deps{}, "--config", cfgPath, "modules", "create", "--course", "1", "--title", "Numbers", "--order", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Created module "Numbers" in course 1`)
	assert.Contains(t, out, "Greetings")
	assert.Contains(t, out, "Numbers")
}

func TestUsersListAndDelete(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	_, err := execute(Deps{}, "--config", cfgPath, "users", "list")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)

	_, err = execute(Deps{}, "--config", cfgPath, "login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(Deps{}, "--config", cfgPath, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com")
	assert.Contains(t, out, "leo@example.com")

	_, err = execute(Deps{}, "--config", cfgPath, "users", "delete", "3")
	assert.ErrorContains(t, err, "without --yes")

	out, err = execute(Deps{}, "--config", cfgPath, "users", "delete", "3", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "User 3 deleted")

	out, err = execute(Deps{}, "--config", cfgPath, "whoami")
	require.NoError(t, err, "deleting someone else keeps the session")
	assert.Contains(t, out, "ana@example.com")
}

func TestRegister(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, _ := testConfig(t, srv.URL)

	out, err := execute(Deps{}, "--config", cfgPath, "register",
		"--email", "new@example.com", "--password", "secret1", "--first-name", "Nia")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created")

	_, err = execute(Deps{}, "--config", cfgPath, "register",
		"--email", "not-an-email", "--password", "secret1", "--first-name", "Nia")
	assert.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestLogsFiltersByLevel(t *testing.T) {
	srv := newFakeAPI(t)
	cfgPath, logPath := testConfig(t, srv.URL)
	lines := strings.Join([]string{
		`{"level":"debug","message":"dispatched"}`,
		`{"level":"warn","component":"remote","message":"fetch failed"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(logPath, []byte(lines+"\n"), 0o600))

	out, err := execute(Deps{}, "--config", cfgPath, "logs", "--level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "fetch failed")
	assert.NotContains(t, out, "dispatched")

	_, err = execute(Deps{}, "--config", cfgPath, "logs", "--level", "loud")
	assert.Error(t, err)
}

func TestRootRunsTUIWithFlags(t *testing.T) {
	var got app.Options
	deps := Deps{RunTUI: func(_ context.Context, opts app.Options) error {
		got = opts
		return nil
	}}

	_, err := execute(deps, "--config", "/tmp/aula.toml", "--api", "http://lms.test")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/aula.toml", got.ConfigPath)
	assert.Equal(t, "http://lms.test", got.APIURL)
	assert.Nil(t, got.Console)

	_, err = execute(deps, "tui", "-v")
	require.NoError(t, err)
	assert.NotNil(t, got.Console)
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"ID", "TITLE"}, [][]string{{"1", "Signs 101"}, {"22", "Hi"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[0], "TITLE"), strings.Index(lines[2], "Signs 101"))
	assert.Equal(t, strings.Index(lines[2], "Signs 101"), strings.Index(lines[3], "Hi"))
}
