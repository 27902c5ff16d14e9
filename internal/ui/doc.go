// Package ui implements kiwi's Bubble Tea TUI.
//
// The Model never touches todos directly. Every operation runs as a tea.Cmd
// against the Syncer (the coordinator), and the list is redrawn from store
// snapshots delivered by waiting on state.Store.Changes.
//
// Search is debounced: each keystroke bumps a generation counter and
// schedules a tick; a tick whose generation is no longer current is
// ignored, so only the last keystroke of a burst fetches.
package ui
