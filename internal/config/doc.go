// Package config loads aula's TOML configuration.
//
// # Resolution
//
//  1. Defaults (Default)
//  2. The file at the given path, or ~/.config/aula/config.toml
//  3. Environment: AULA_API_URL, AULA_STORAGE, AULA_LOG_LEVEL
//
// Command-line flags are applied by cmd/aula on top of the result. A missing
// file is not an error. Empty or whitespace-only values keep the default.
//
// # Format
//
//	[api]
//	base_url = "http://127.0.0.1:3001"
//	login_path = "/api/login"
//	timeout = "10s"
//
//	[storage]
//	backend = "file"   # or "sqlite"
//	path = ""          # backend default when empty
//
//	[session]
//	resume = false
//
//	[ui]
//	refresh_interval = "30s"   # "0s" disables background refresh
//
//	[log]
//	level = "info"
//	file = "~/.local/share/aula/aula.log"
//
// Paths support a leading ~ and are made absolute. Durations use Go syntax.
package config
