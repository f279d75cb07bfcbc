package state

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownAction is returned for any action Reduce does not recognize. It
// signals a programming error and is never recovered by the Store.
var ErrUnknownAction = errors.New("unknown action")

// Reduce returns the state that results from applying a to s. It never
// mutates s; untouched slices are shared with s and replaced slices are owned
// by the result.
func Reduce(s State, a Action) (State, error) {
	next := s
	switch act := a.(type) {
	case SetToken:
		next.Session.Token = act.Token
	case SetUser:
		next.Session.CurrentUser = act.User
	case SetLoggedIn:
		next.Session.LoggedIn = act.LoggedIn
	case SetAlert:
		next.Alert = act.Alert
	case SelectCourse:
		next.Selection.Course = act.Course
	case SelectModule:
		next.Selection.Module = act.Module
	case SelectLesson:
		next.Selection.Lesson = act.Lesson
	case SetProgress:
		next.Progress = own(act.Items)
	case SetAchievements:
		next.Achievements = own(act.Items)
	case SetCourses:
		next.Courses = own(act.Items)
	case SetPublicCourses:
		next.PublicCourses = own(act.Items)
	case SetModules:
		next.Modules = own(act.Items)
	case SetLessons:
		next.Lessons = own(act.Items)
	case SetResources:
		next.Resources = own(act.Items)
	case nil:
		return s, fmt.Errorf("reduce nil action: %w", ErrUnknownAction)
	default:
		// Kind is not called here: a typed nil pointer would panic on it.
		return s, fmt.Errorf("reduce %T: %w", a, ErrUnknownAction)
	}
	return next, nil
}

// own copies items so the state never aliases a caller's slice, and coerces
// nil to an empty list.
func own[T any](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}
	return slices.Clone(items)
}
