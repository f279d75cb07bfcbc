// Package logtail reads the tail of the client log for `aula logs` and the
// TUI log view.
//
// Tail filters by level while scanning and keeps only the newest matches in
// a fixed window, so memory stays bounded however large the file grows.
// Parse and Format turn the JSON lines the logger writes back into a
// one-line header with indented details:
//
//	2025-10-08 21:01:05 ERROR [remote] progress – fetch failed
//	    - error: execute request: connection refused
//
// A missing log file is not an error; it simply has no lines.
package logtail
