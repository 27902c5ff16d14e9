// Package coordinator keeps the local todo list in step with the remote
// record store.
//
// Each operation issues one request. Update, Complete and Delete apply their
// change to the store first and revert it if the request fails; Add waits for
// the store unless OptimisticAdd is set, in which case a provisional todo with
// a temporary id is shown and dropped again on failure. Fetches are sequenced
// and a response that arrives after a newer fetch started is discarded with
// ErrStale.
package coordinator
