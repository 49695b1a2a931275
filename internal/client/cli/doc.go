// Package cli provides a headless, interactive preview host.
//
// It wires configuration, the descriptor backend client, the preview engines
// and a lifecycle controller around an in-memory mount, then runs a REPL:
//
//	open <id> [type] [name] [download-url]   preview a resource
//	state                                    print the current view state
//	html                                     print the mount's markup
//	close                                    close the preview
//	exit | quit                              leave
//
// A background watcher probes backend health and reports online/offline
// transitions in the prompt.
package cli
