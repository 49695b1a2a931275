package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
)

// SessionHandle owns everything a started session holds: the vendor session,
// its event subscriptions, the readiness race and the mount it renders into.
type SessionHandle struct {
	session Session
	mount   surface.Mount
	logger  logging.Logger

	mu         sync.Mutex
	subs       []func()
	cancelRace context.CancelFunc
	settled    bool
	released   bool
}

func newSessionHandle(session Session, mount surface.Mount, logger logging.Logger) *SessionHandle {
	return &SessionHandle{session: session, mount: mount, logger: logger}
}

func (h *SessionHandle) track(unsubscribe func()) {
	if unsubscribe == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, unsubscribe)
}

func (h *SessionHandle) settle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settled = true
}

// Settled reports whether the readiness race has finished.
func (h *SessionHandle) Settled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settled
}

// Released reports whether Release has run.
func (h *SessionHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release stops the readiness race, drops every subscription and destroys the
// vendor session. Errors and panics from the vendor are logged, not returned.
// Safe to call more than once.
func (h *SessionHandle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	cancel := h.cancelRace
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, unsubscribe := range subs {
		unsubscribe()
	}
	if err := h.destroy(); err != nil {
		h.logger.Warn(context.Background(), "editor session destroy failed", "error", err)
	}
	if h.mount != nil {
		h.mount.Clear()
	}
}

func (h *SessionHandle) destroy() (err error) {
	if h.session == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("destroy panicked: %v", p)
		}
	}()
	return h.session.Destroy()
}
