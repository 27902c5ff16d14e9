// Package app is kiwi's composition root.
//
// Bootstrap loads the configuration, opens the log file and wires the
// record store client, the state store and the sync coordinator. Run does
// the same and then hands them to the TUI, optionally starting a poller
// that repeats the last fetch every refresh_every.
//
// The poller never refreshes while a write is in flight, and backs off
// exponentially (capped at 30s) while loads keep failing:
//
//	Run()
//	 ├─> Bootstrap()   config, logging, airtable client, state, coordinator
//	 ├─> StartPoller() optional background Refresh
//	 └─> ui.Run()      blocks until quit
package app
