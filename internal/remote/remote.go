// Package remote fetches server collections and turns each fetch into a
// single state action. A Task never touches the store; the caller (Syncer,
// the TUI update loop, or a CLI command) dispatches what it returns.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/state"
)

// Client is the subset of the API the adapters read from.
type Client interface {
	ListCourses(ctx context.Context, token string) ([]lms.Course, error)
	ListPublicCourses(ctx context.Context) ([]lms.Course, error)
	ListModules(ctx context.Context, courseID int64) ([]lms.Module, error)
	ListLessons(ctx context.Context, moduleID int64) ([]lms.Lesson, error)
	ListResources(ctx context.Context, lessonID int64) ([]lms.Resource, error)
	ListProgress(ctx context.Context, token string) ([]lms.ProgressRecord, error)
	ListAchievements(ctx context.Context, token string) ([]lms.Achievement, error)
	MarkLesson(ctx context.Context, token string, update lms.ProgressUpdate) error
	CreateModule(ctx context.Context, token string, mod lms.NewModule) (lms.Module, error)
}

// SessionSource reports the current session. *state.Store satisfies it
// through Snapshot.
type SessionSource interface {
	Snapshot() state.State
}

// Result is the outcome of one Task.
//
// On success Action replaces the target list. On failure Err is set and
// Action still replaces the list, with an empty one. When the task needs a
// session and there is none, Skipped is set and Action is nil.
type Result struct {
	Name    string
	Action  state.Action
	Err     error
	Skipped bool
}

// Task performs one fetch.
type Task func(ctx context.Context) Result

// Adapters builds Tasks bound to a client and a session source.
type Adapters struct {
	client  Client
	session SessionSource
	logger  zerolog.Logger
}

// New returns Adapters reading the session from src.
func New(client Client, src SessionSource, logger zerolog.Logger) *Adapters {
	return &Adapters{
		client:  client,
		session: src,
		logger:  logger.With().Str("component", "remote").Logger(),
	}
}

// Courses fetches the signed-in user's course catalog.
func (a *Adapters) Courses() Task {
	return authed(a, "courses", a.client.ListCourses, func(items []lms.Course) state.Action {
		return state.SetCourses{Items: items}
	})
}

// PublicCourses fetches the catalog shown before login.
func (a *Adapters) PublicCourses() Task {
	return public(a, "public_courses", a.client.ListPublicCourses, func(items []lms.Course) state.Action {
		return state.SetPublicCourses{Items: items}
	})
}

// Modules fetches the modules of a course.
func (a *Adapters) Modules(courseID int64) Task {
	fetch := func(ctx context.Context) ([]lms.Module, error) { return a.client.ListModules(ctx, courseID) }
	return public(a, "modules", fetch, func(items []lms.Module) state.Action {
		return state.SetModules{Items: items}
	})
}

// Lessons fetches the lessons of a module.
func (a *Adapters) Lessons(moduleID int64) Task {
	fetch := func(ctx context.Context) ([]lms.Lesson, error) { return a.client.ListLessons(ctx, moduleID) }
	return public(a, "lessons", fetch, func(items []lms.Lesson) state.Action {
		return state.SetLessons{Items: items}
	})
}

// Resources fetches the multimedia resources of a lesson.
func (a *Adapters) Resources(lessonID int64) Task {
	fetch := func(ctx context.Context) ([]lms.Resource, error) { return a.client.ListResources(ctx, lessonID) }
	return public(a, "resources", fetch, func(items []lms.Resource) state.Action {
		return state.SetResources{Items: items}
	})
}

// Progress fetches the user's lesson progress.
func (a *Adapters) Progress() Task {
	return authed(a, "progress", a.client.ListProgress, func(items []lms.ProgressRecord) state.Action {
		return state.SetProgress{Items: items}
	})
}

// Achievements fetches the user's achievements.
func (a *Adapters) Achievements() Task {
	return authed(a, "achievements", a.client.ListAchievements, func(items []lms.Achievement) state.Action {
		return state.SetAchievements{Items: items}
	})
}

// CompleteLesson marks a lesson completed and then refetches progress. If
// the update is rejected the result carries an alert instead of a list.
func (a *Adapters) CompleteLesson(lessonID int64) Task {
	refresh := a.Progress()
	return func(ctx context.Context) (res Result) {
		res.Name = "complete_lesson"
		defer recoverTask(a.logger, &res)

		sess := a.session.Snapshot().Session
		if !sess.LoggedIn {
			res.Skipped = true
			return res
		}
		err := a.client.MarkLesson(ctx, sess.Token, lms.ProgressUpdate{LessonID: lessonID, Completed: true})
		if err != nil {
			a.logger.Error().Err(err).Int64("lesson_id", lessonID).Msg("mark lesson failed")
			res.Err = fmt.Errorf("complete lesson %d: %w", lessonID, err)
			res.Action = state.Notify(state.AlertDanger, "Could not save your progress")
			return res
		}
		out := refresh(ctx)
		out.Name = res.Name
		return out
	}
}

// CreateModule adds a module to a course and then refetches that course's
// modules. A rejected create carries an alert instead of a list.
func (a *Adapters) CreateModule(mod lms.NewModule) Task {
	refresh := a.Modules(mod.CourseID)
	return func(ctx context.Context) (res Result) {
		res.Name = "create_module"
		defer recoverTask(a.logger, &res)

		sess := a.session.Snapshot().Session
		if !sess.LoggedIn {
			res.Skipped = true
			return res
		}
		if strings.TrimSpace(mod.Title) == "" || mod.CourseID <= 0 {
			res.Err = fmt.Errorf("create module: title and course are required")
			res.Action = state.Notify(state.AlertWarning, "A module needs a title and a course")
			return res
		}
		created, err := a.client.CreateModule(ctx, sess.Token, mod)
		if err != nil {
			a.logger.Error().Err(err).Int64("course_id", mod.CourseID).Msg("create module failed")
			res.Err = fmt.Errorf("create module: %w", err)
			res.Action = state.Notify(state.AlertDanger, rejection(err, "Could not create the module"))
			return res
		}
		a.logger.Info().Int64("module_id", created.ID).Int64("course_id", mod.CourseID).Msg("module created")
		out := refresh(ctx)
		out.Name = res.Name
		return out
	}
}

// rejection returns the server's message for an API error, or fallback.
func rejection(err error, fallback string) string {
	var apiErr *lms.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func authed[T any](a *Adapters, name string, fetch func(context.Context, string) ([]T, error), wrap func([]T) state.Action) Task {
	return func(ctx context.Context) (res Result) {
		res.Name = name
		defer recoverTask(a.logger, &res)

		sess := a.session.Snapshot().Session
		if !sess.LoggedIn {
			a.logger.Debug().Str("task", name).Msg("skipped, not logged in")
			res.Skipped = true
			return res
		}
		items, err := fetch(ctx, sess.Token)
		return settle(a.logger, res, items, err, wrap)
	}
}

func public[T any](a *Adapters, name string, fetch func(context.Context) ([]T, error), wrap func([]T) state.Action) Task {
	return func(ctx context.Context) (res Result) {
		res.Name = name
		defer recoverTask(a.logger, &res)

		items, err := fetch(ctx)
		return settle(a.logger, res, items, err, wrap)
	}
}

func settle[T any](logger zerolog.Logger, res Result, items []T, err error, wrap func([]T) state.Action) Result {
	if err != nil {
		logger.Error().Err(err).Str("task", res.Name).Msg("fetch failed")
		res.Err = fmt.Errorf("fetch %s: %w", res.Name, err)
		res.Action = wrap([]T{})
		return res
	}
	if items == nil {
		items = []T{}
	}
	res.Action = wrap(items)
	return res
}

// recoverTask turns a panic inside a task into an error result.
func recoverTask(logger zerolog.Logger, res *Result) {
	if r := recover(); r != nil {
		logger.Error().Str("task", res.Name).Interface("panic", r).Msg("task panicked")
		res.Action = nil
		res.Skipped = false
		res.Err = fmt.Errorf("task %s panicked: %v", res.Name, r)
	}
}
