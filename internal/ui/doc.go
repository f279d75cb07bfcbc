// Package ui provides the terminal user interface for aula.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds a snapshot of the state store
// and never mutates state directly: every change goes through the session
// manager, the selection context, or a remote adapter task.
//
// Remote fetches run as tea.Cmds. Each finished task comes back as a
// taskMsg and is dispatched through the Syncer inside Update, so the store
// only changes on the Bubble Tea goroutine. Background refreshes from the
// poller are picked up by a periodic snapshot tick.
//
// # Package Structure
//
//   - app.go: Model, Update, key handling, commands, and Run
//   - views.go: list and detail rendering for each view
//   - header.go: status header, command bar, and alert line
//   - modal.go: the login form
//   - help.go: keyboard shortcut overlay
//   - keys.go: key bindings
//   - theme.go, style_helpers.go: palettes and background-aware rendering
//
// # Views
//
//   - Dashboard: user summary, lesson and achievement counts
//   - Courses → Modules → Lessons → Lesson: the drill-down; opening an entry
//     records it in the selection context
//   - Progress and Achievements: the signed-in user's lists
//   - Logs: a tail of the client's own JSON log file
//
// Signed-out users see public courses only. The login form opens on start
// when no session was resumed; esc dismisses it.
//
// # Keyboard Navigation
//
//	d/c/p/a/l  Switch view
//	j/k, g/G   Move or scroll
//	enter      Open
//	esc        Dismiss alert, then go back
//	m          Mark lesson completed
//	r          Refresh the current view
//	L / X      Log in / log out
//	T          Cycle theme (persisted)
//	?          Help
//	q          Quit
package ui
