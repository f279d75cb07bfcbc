// Package state holds the client-side state container for aula.
//
// # Overview
//
// All server-derived data the views render, together with the session and
// the drill-down selection, lives in one State value. State changes only
// through Reduce, a pure function from (State, Action) to State. The Store
// wraps Reduce with a mutex so the UI, the refresh poller, and in-flight
// fetch tasks can dispatch concurrently.
//
//	Producers:                       Store:                 Consumers:
//	┌──────────────────┐            ┌──────────────┐        ┌──────────────┐
//	│ session.Manager  │──Dispatch─→│ Reduce(s, a) │        │              │
//	│ remote tasks     │──Dispatch─→│   (mutex)    │─Snap──→│ ui / cli     │
//	│ selection        │──Dispatch─→│              │        │              │
//	└──────────────────┘            └──────────────┘        └──────────────┘
//
// # Actions
//
// Each action kind is its own Go type implementing Action. Kind() returns the
// wire name ("handle_token", "set_my_progress", ...), which is what Decode
// accepts and what logs record. Reduce rejects anything it does not know with
// ErrUnknownAction; the Store propagates that error and commits nothing.
//
// # Update Semantics
//
//   - Scalar and record slices (token, user, logged-in flag, alert, each
//     selection level) are replaced wholesale.
//   - List slices are replaced wholesale and never merged. A nil list is
//     stored as an empty one so views can always range over it.
//   - Selection levels are independent. Selecting a module keeps the course;
//     selecting a course keeps a stale module. Callers that want a clean
//     hierarchy reset descendants explicitly (see package selection).
//
// # Batches
//
// Dispatch takes several actions and commits them as one update, so login
// (token, user, logged-in) and logout are never observed half applied.
//
// # Ordering
//
// There is no sequence guard. When two fetches for the same list resolve out
// of order, the last one dispatched wins. Each fetch replaces its list
// entirely, so the state is always internally consistent, just possibly
// older than the newest request.
//
// # Sync Health
//
// RecordSync and Health track background refresh outcomes (last error,
// consecutive failures). They sit outside State because they depend on
// wall-clock time and Reduce must not.
package state
