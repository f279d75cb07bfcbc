// Package selection records which course, module, and lesson the user has
// drilled into. Each level is set on its own; nothing is cleared unless the
// caller asks for it with Cascade.
package selection

import (
	"fmt"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/state"
)

// Mode controls whether selecting a level resets the levels beneath it.
type Mode int

const (
	// Keep leaves lower levels as they are.
	Keep Mode = iota
	// Cascade resets lower levels and their cached lists in the same dispatch.
	Cascade
)

// Dispatcher is satisfied by *state.Store.
type Dispatcher interface {
	Dispatch(actions ...state.Action) error
}

// Context selects entities against a store.
type Context struct {
	store Dispatcher
}

// New returns a Context writing to store.
func New(store Dispatcher) *Context {
	return &Context{store: store}
}

// Select dispatches the details action for entity, which must be an
// lms.Course, lms.Module, or lms.Lesson. It validates nothing and clears
// nothing.
func (c *Context) Select(entity any) error {
	var a state.Action
	switch e := entity.(type) {
	case lms.Course:
		a = state.SelectCourse{Course: e}
	case lms.Module:
		a = state.SelectModule{Module: e}
	case lms.Lesson:
		a = state.SelectLesson{Lesson: e}
	default:
		return fmt.Errorf("select %T: %w", entity, state.ErrUnknownAction)
	}
	return c.store.Dispatch(a)
}

// SelectCourse selects course. With Cascade the module and lesson selections
// and the module, lesson, and resource lists are reset too.
func (c *Context) SelectCourse(course lms.Course, mode Mode) error {
	actions := []state.Action{state.SelectCourse{Course: course}}
	if mode == Cascade {
		actions = append(actions,
			state.SelectModule{},
			state.SelectLesson{},
			state.SetModules{},
			state.SetLessons{},
			state.SetResources{},
		)
	}
	return c.store.Dispatch(actions...)
}

// SelectModule selects module. With Cascade the lesson selection and the
// lesson and resource lists are reset too.
func (c *Context) SelectModule(module lms.Module, mode Mode) error {
	actions := []state.Action{state.SelectModule{Module: module}}
	if mode == Cascade {
		actions = append(actions,
			state.SelectLesson{},
			state.SetLessons{},
			state.SetResources{},
		)
	}
	return c.store.Dispatch(actions...)
}

// SelectLesson selects lesson. With Cascade the resource list is reset.
func (c *Context) SelectLesson(lesson lms.Lesson, mode Mode) error {
	actions := []state.Action{state.SelectLesson{Lesson: lesson}}
	if mode == Cascade {
		actions = append(actions, state.SetResources{})
	}
	return c.store.Dispatch(actions...)
}

// Clear resets every level.
func (c *Context) Clear() error {
	return c.store.Dispatch(state.SelectCourse{}, state.SelectModule{}, state.SelectLesson{})
}
