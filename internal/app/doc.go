// Package app is the composition root for aula.
//
// # Overview
//
// Open builds an Env: configuration, the zerolog logger, durable storage,
// the LMS client, the state store and the three components that write to
// it (session manager, selection context, remote adapters with their
// syncer). Both the TUI and the one-shot CLI commands start from an Env.
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()        file, env, --api
//	       ├─────> logging.New()        JSON file (+ console under --verbose)
//	       ├─────> storage.Open()       token and theme
//	       ├─────> lms.NewClient()      HTTP client
//	       ├─────> state.NewStore()     single store, passed down
//	       └─────> session / selection / remote
//
//	Run():
//	  optional Session.Resume()  (session.resume = true)
//	  Refresh()                  populate before the first frame
//	  StartPoller()              background Refresh with backoff
//	  ui.Run()                   blocks until quit
//
// # Refresh and Polling
//
// Refresh syncs progress, achievements and both course catalogs
// concurrently. Tasks that need a session skip themselves while logged out,
// so a signed-out Refresh only touches the public catalog. The outcome is
// recorded with Store.RecordSync for the status bar.
//
// The poller waits one interval, refreshes, and repeats. Consecutive
// failures double the wait up to five minutes; the first success resets it.
// It exits when its context is cancelled and Run waits for it before
// returning.
//
// # Errors
//
// Open fails on an invalid config, an unopenable log file or storage, and a
// malformed base URL. Everything after that is recoverable: refresh failures
// are logged and surface as empty lists and a degraded status bar.
package app
