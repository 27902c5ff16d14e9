// Package state provides the thread-safe owner of the todo reducer state.
//
// # Overview
//
// Store holds the current todo.State and is the only place it changes. Every
// change goes through Dispatch (or one of the Capture helpers), which applies
// the pure reducer todo.Apply under a single lock. Readers get deep copies via
// Snapshot and never see a partially applied action.
//
// # Architecture
//
//	Sync coordinator:              UI:
//	┌────────────────────┐        ┌────────────────────┐
//	│ Capture / Dispatch │        │ <-store.Changes()  │
//	│   (optimistic)     │        │ store.Snapshot()   │
//	│ HTTP request       │───────→│ render             │
//	│ Dispatch (result)  │ (mutex)│                    │
//	└────────────────────┘        └────────────────────┘
//
// # Capture
//
// An optimistic write must remember the value it is about to overwrite so it
// can revert on failure. Reading with Snapshot and then dispatching leaves a
// window in which another dispatch can slip in, so Capture and CaptureList
// read the pre-mutation value and apply the derived action under one lock.
// Capture also returns the todo's position so a revert can put it back there:
//
//	original, index, ok := store.Capture(id, func(t todo.Todo) todo.Action {
//		return todo.CompleteTodo{ID: t.ID}
//	})
//
// # Change notification
//
// Changes returns a channel with a buffer of one. Dispatches signal it without
// blocking, so bursts of actions collapse into a single wake-up and the reader
// always renders the latest snapshot.
//
// # Health
//
// Snapshot.ConsecutiveFailures counts fetch failures (SetLoadError without
// Write) since the last LoadTodos; IsOffline reports two or more in a row.
// Failed writes set the error message but leave the count alone.
package state
