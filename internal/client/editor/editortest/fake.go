// Package editortest provides an in-memory editor.Engine for tests.
package editortest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
)

// Engine is a scriptable editor.Engine. The zero value loads and creates
// sessions successfully.
type Engine struct {
	mu sync.Mutex

	// LoadErr, when set, is returned by the next Load call and then cleared.
	LoadErr error
	// LoadGate, when set, blocks Load until closed.
	LoadGate chan struct{}
	// CreateErr is returned by CreateSession.
	CreateErr error
	// CreatePanic makes CreateSession panic with this value.
	CreatePanic any
	// OnCreate runs after a session is created, with the session and mount.
	OnCreate func(*Session, surface.Mount)

	loads    int
	sessions []*Session
}

func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loads++
	gate := e.LoadGate
	err := e.LoadErr
	e.LoadErr = nil
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (e *Engine) CreateSession(_ context.Context, mount surface.Mount, opts editor.SessionOptions) (editor.Session, error) {
	e.mu.Lock()
	if e.CreatePanic != nil {
		p := e.CreatePanic
		e.mu.Unlock()
		panic(p)
	}
	if e.CreateErr != nil {
		err := e.CreateErr
		e.mu.Unlock()
		return nil, err
	}
	s := &Session{Options: opts, listeners: make(map[editor.Event]map[int]func(editor.EventPayload))}
	e.sessions = append(e.sessions, s)
	hook := e.OnCreate
	e.mu.Unlock()

	if hook != nil {
		hook(s, mount)
	}
	return s, nil
}

// Loads returns how many times Load ran.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Sessions returns every session created so far.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

// Last returns the most recent session or nil.
func (e *Engine) Last() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

// Session is a scriptable editor.Session.
type Session struct {
	Options editor.SessionOptions

	// DestroyErr is returned by Destroy.
	DestroyErr error
	// DestroyPanic makes Destroy panic.
	DestroyPanic bool

	mu        sync.Mutex
	token     string
	expiry    time.Time
	listeners map[editor.Event]map[int]func(editor.EventPayload)
	nextID    int
	destroyed int
}

func (s *Session) SetToken(token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed > 0 {
		return errors.New("session destroyed")
	}
	s.token, s.expiry = token, expiry
	return nil
}

func (s *Session) On(event editor.Event, fn func(editor.EventPayload)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]func(editor.EventPayload))
	}
	id := s.nextID
	s.nextID++
	s.listeners[event][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[event], id)
	}
}

func (s *Session) Destroy() error {
	s.mu.Lock()
	s.destroyed++
	p, err := s.DestroyPanic, s.DestroyErr
	s.mu.Unlock()
	if p {
		panic("vendor destroy blew up")
	}
	return err
}

// Emit delivers event to every current listener.
func (s *Session) Emit(event editor.Event, message string) {
	s.mu.Lock()
	fns := make([]func(editor.EventPayload), 0, len(s.listeners[event]))
	for _, fn := range s.listeners[event] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(editor.EventPayload{Event: event, Message: message})
	}
}

// Token returns the last applied token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Listeners returns the number of registered listeners across events.
func (s *Session) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.listeners {
		n += len(m)
	}
	return n
}

// Destroyed returns how many times Destroy was called.
func (s *Session) Destroyed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// RenderWhenObserved appends els to node one at a time once something
// observes it, mimicking a vendor editor painting into its mount.
func RenderWhenObserved(node *surface.Node, els ...surface.Element) {
	WhenObserved(node, func() {
		for _, el := range els {
			node.Append(el)
		}
	})
}

// WhenObserved runs fn once node has an observer.
func WhenObserved(node *surface.Node, fn func()) {
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for node.Observers() == 0 {
			if time.Now().After(deadline) {
				return
			}
			time.Sleep(time.Millisecond)
		}
		fn()
	}()
}
