package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/gorilla/websocket"
)

// Stream message types.
const (
	MessageRender = "render"
	MessageClear  = "clear"
	MessageError  = "error"
	MessageReady  = "ready"
	MessageToken  = "token"
)

// Message is one frame on the session stream.
type Message struct {
	Type      string     `json:"type"`
	HTML      string     `json:"html,omitempty"`
	Message   string     `json:"message,omitempty"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

const closeWait = 2 * time.Second

type session struct {
	id     string
	conn   *websocket.Conn
	mount  surface.Mount
	logger logging.Logger
	remove func() error

	writeMu sync.Mutex

	mu        sync.Mutex
	listeners map[editor.Event]map[int]func(editor.EventPayload)
	nextID    int
	closing   bool

	done    chan struct{}
	destroy sync.Once
	err     error
}

func newSession(id string, conn *websocket.Conn, mount surface.Mount, logger logging.Logger, remove func() error) *session {
	return &session{
		id:        id,
		conn:      conn,
		mount:     mount,
		logger:    logger,
		remove:    remove,
		listeners: make(map[editor.Event]map[int]func(editor.EventPayload)),
		done:      make(chan struct{}),
	}
}

func (s *session) SetToken(token string, expiry time.Time) error {
	msg := Message{Type: MessageToken, Token: token}
	if !expiry.IsZero() {
		msg.ExpiresAt = &expiry
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send token: %w", err)
	}
	return nil
}

func (s *session) On(event editor.Event, fn func(editor.EventPayload)) func() {
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

func (s *session) emit(event editor.Event, message string) {
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

func (s *session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *session) readLoop() {
	defer close(s.done)

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.isClosing() {
				s.emit(editor.EventError, fmt.Sprintf("editor connection lost: %v", err))
			}
			return
		}

		switch msg.Type {
		case MessageRender:
			s.mount.Append(surface.Fragment(msg.HTML))
		case MessageClear:
			s.mount.Clear()
		case MessageError:
			s.emit(editor.EventError, msg.Message)
		case MessageReady:
			s.emit(editor.EventReady, "")
		default:
			s.logger.Debug(context.Background(), "unknown editor message", "type", msg.Type)
		}
	}
}

func (s *session) streamEnded() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Destroy closes the stream and deletes the session on the service.
func (s *session) Destroy() error {
	s.destroy.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		s.writeMu.Lock()
		closeErr := s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		if errors.Is(closeErr, websocket.ErrCloseSent) || s.streamEnded() {
			closeErr = nil
		}

		select {
		case <-s.done:
		case <-time.After(closeWait):
		}
		_ = s.conn.Close()
		<-s.done

		s.err = errors.Join(closeErr, s.remove())
	})
	return s.err
}
