// Package logtail reads the tail of kiwi's log file and renders its JSON
// entries for the terminal.
//
// Read keeps a ring buffer of maxLines so only the tail of a large file is
// held in memory. A missing file is not an error: it yields no lines.
//
// Format turns zap JSON lines into
//
//	2026-10-19 14:32:15 INFO [sync] fetched todos count=12
//
// filtering by minimum level. Lines that do not decode pass through as-is.
package logtail
