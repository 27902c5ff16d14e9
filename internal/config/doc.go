// Package config handles loading kiwi's configuration file.
//
// # Overview
//
// kiwi needs to know which table of the record store holds the todos and how
// to authenticate. Those settings live in a TOML file, can be overridden from
// the environment (handy for the token), and are validated before any request
// is made.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/kiwi/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. Apply KIWI_BASE_URL, KIWI_BASE_ID, KIWI_TABLE, KIWI_TOKEN, KIWI_DEBUG
//
// Load never fails on missing required values; Validate does. That keeps
// commands that do not talk to the store (kiwi logs) usable without a token.
//
// # TOML Format
//
//	base_url = "https://api.airtable.com/v0"
//	base_id = "appXXXXXXXXXXXXXX"
//	table = "Todos"
//	token = "patXXXXXXXX"        # or KIWI_TOKEN
//	page_size = 100              # records per list request, 0 = store default
//	per_page = 15                # todos per page in the list view
//	search_debounce = "500ms"
//	refresh_every = "0s"         # background refresh, 0 disables
//	optimistic_add = false
//	log_file = "~/.local/share/kiwi/kiwi.log"
//	debug = false
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute.
package config
