// Package editor drives third-party, token-authenticated document editors.
//
// The vendor runtime is abstracted behind Engine and Session. It is loaded
// once per process through a shared Loader, sessions are bound to a mount
// and owned by a SessionHandle, and readiness is inferred by racing a
// structural heuristic against a timeout because the vendor's own "ready"
// signal cannot be relied on.
package editor

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/surface"
)

// Event names a session notification.
type Event string

const (
	// EventError is raised by the vendor when the session failed.
	EventError Event = "error"
	// EventReady is the vendor's own readiness signal. It is informational
	// only; readiness is decided by the heuristics in this package.
	EventReady Event = "ready"
)

// EventPayload is delivered to session listeners.
type EventPayload struct {
	Event   Event
	Message string
}

// SessionOptions describe what a new session should display.
type SessionOptions struct {
	ResourceID   string
	ResourceType string
	PreviewURL   string
}

// Engine is the vendor runtime.
type Engine interface {
	// Load makes the runtime available. Callers go through a Loader so
	// Load runs at most once per process at a time.
	Load(ctx context.Context) error
	// CreateSession binds a new session to mount.
	CreateSession(ctx context.Context, mount surface.Mount, opts SessionOptions) (Session, error)
}

// Session is one live vendor session.
type Session interface {
	// SetToken applies an access token. A zero expiry means unknown.
	SetToken(token string, expiry time.Time) error
	// On registers fn for event and returns a function that removes it.
	On(event Event, fn func(EventPayload)) (unsubscribe func())
	// Destroy tears the vendor session down.
	Destroy() error
}
