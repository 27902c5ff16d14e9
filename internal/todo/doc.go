// Package todo defines the todo item, the reducer that owns the list state,
// and the derived view used for display.
//
// # Reducer
//
// Apply is a pure function from (State, Action) to State. Actions form a
// closed set of small structs; unknown actions leave the state unchanged.
// The reducer never mutates its input, so callers can keep the previous
// state for comparison or revert.
//
// Reverts restore a captured todo. If the todo is still in the list it is
// replaced in place; if an optimistic removal took it out, it goes back at the
// position it was captured from.
//
// # View
//
// View filters and sorts a list without touching it, and Paginate cuts the
// result into fixed-size pages. Titles are ordered with a Unicode collator.
package todo
