// Package app is the composition root for bindery.
//
// # Overview
//
// Open turns a config.Config into the wired object graph: a slog logger on
// the configured log file, the queueapi client, the status store that
// sequences snapshot fetches, the action dispatcher and the shared
// state.Store. Both the TUI and the one-shot CLI commands start from it.
//
// # Data Flow
//
//	config.Config
//	     │
//	     ├─> logging.New()        JSON log file
//	     ├─> queueapi.NewClient() request API transport
//	     ├─> status.NewStore()    seq-tagged snapshot fetches
//	     ├─> dispatch.New()       enqueue / cancel / clear + refresh
//	     └─> state.Store{}        last applied view
//
//	RunTUI:  prefs.Load() -> ui.Run()   (blocks until quit)
//	Refresh: Sync() + FetchActiveCount() -> state.Store.Apply()
//
// # Refresh Behavior
//
// There is no background poller. The view is refreshed on startup, on the
// refresh key and after every dispatched action. Results carry a sequence
// number and the state store drops any result older than the one it
// already shows.
//
// # Error Handling
//
// Startup errors (log file, client construction) are returned from Open.
// Fetch and action failures after startup are logged and surface in the
// view; they never stop the program.
package app
