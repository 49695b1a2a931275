package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
)

const (
	DefaultMinConfirmations = 3
	DefaultReadinessTimeout = 10 * time.Second
)

// Config tunes the readiness heuristics.
type Config struct {
	MinConfirmations int
	ReadinessTimeout time.Duration
}

// DefaultConfig returns the production readiness settings.
func DefaultConfig() Config {
	return Config{
		MinConfirmations: DefaultMinConfirmations,
		ReadinessTimeout: DefaultReadinessTimeout,
	}
}

// StartRequest carries what a session needs from the preview descriptor.
type StartRequest struct {
	ResourceID   string
	ResourceType string
	PreviewURL   string
	Token        string
	TokenExpiry  time.Time
}

// Readiness describes how a started session became ready.
type Readiness struct {
	ByTimeout bool
}

// Manager starts vendor editor sessions.
type Manager struct {
	engine Engine
	config Config
	logger logging.Logger
}

func NewManager(engine Engine, config Config, logger logging.Logger) *Manager {
	if config.MinConfirmations <= 0 {
		config.MinConfirmations = DefaultMinConfirmations
	}
	if config.ReadinessTimeout <= 0 {
		config.ReadinessTimeout = DefaultReadinessTimeout
	}
	return &Manager{engine: engine, config: config, logger: logger.With("module", "editor")}
}

// Start loads the vendor runtime, opens a session on mount and blocks until
// the session is ready or has failed. On failure every resource acquired so
// far is released before returning. Cancelling ctx aborts the start.
func (m *Manager) Start(ctx context.Context, mount surface.Mount, req StartRequest) (*SessionHandle, Readiness, error) {
	if err := LoaderFor(m.engine).Ensure(ctx); err != nil {
		return nil, Readiness{}, err
	}

	// Watch before the session exists: engines may render their first
	// frames while CreateSession is still returning.
	watch := WatchStructure(mount, m.config.MinConfirmations)
	defer watch.Stop()

	session, err := m.createSession(ctx, mount, req)
	if err != nil {
		return nil, Readiness{}, err
	}

	handle := newSessionHandle(session, mount, m.logger)

	failures := make(chan string, 1)
	handle.track(session.On(EventError, func(p EventPayload) {
		if handle.Settled() {
			m.logger.Warn(ctx, "editor error after readiness ignored",
				"resource", req.ResourceID, "message", p.Message)
			return
		}
		select {
		case failures <- p.Message:
		default:
		}
	}))
	handle.track(session.On(EventReady, func(EventPayload) {
		m.logger.Debug(ctx, "editor reported ready", "resource", req.ResourceID)
	}))

	if req.Token == "" {
		m.logger.Warn(ctx, "no access token for editor session, continuing without it",
			"resource", req.ResourceID)
	} else if err := session.SetToken(req.Token, req.TokenExpiry); err != nil {
		m.logger.Warn(ctx, "applying editor access token failed",
			"resource", req.ResourceID, "error", err)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	handle.mu.Lock()
	handle.cancelRace = cancel
	handle.mu.Unlock()

	outcome := FirstSettled(raceCtx,
		func(ctx context.Context) Outcome {
			return watch.Wait(ctx)
		},
		func(ctx context.Context) Outcome {
			return AwaitTimeout(ctx, m.config.ReadinessTimeout)
		},
		func(ctx context.Context) Outcome {
			select {
			case msg := <-failures:
				return Outcome{Err: fmt.Errorf("%w: %s", common.ErrSessionFailed, msg)}
			case <-ctx.Done():
				return Outcome{Err: ctx.Err()}
			}
		},
	)
	handle.settle()

	// The parent context may have ended while a heuristic was settling.
	if outcome.Err == nil && ctx.Err() != nil {
		outcome = Outcome{Err: ctx.Err()}
	}
	if outcome.Err != nil {
		handle.Release()
		return nil, Readiness{}, outcome.Err
	}

	if outcome.ByTimeout {
		m.logger.Info(ctx, "editor ready by timeout", "resource", req.ResourceID,
			"timeout", m.config.ReadinessTimeout)
	}
	return handle, Readiness{ByTimeout: outcome.ByTimeout}, nil
}

func (m *Manager) createSession(ctx context.Context, mount surface.Mount, req StartRequest) (s Session, err error) {
	defer func() {
		if p := recover(); p != nil {
			s, err = nil, fmt.Errorf("%w: %v", common.ErrSessionCreate, p)
		}
	}()

	s, err = m.engine.CreateSession(ctx, mount, SessionOptions{
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		PreviewURL:   req.PreviewURL,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrSessionCreate, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: engine returned no session", common.ErrSessionCreate)
	}
	return s, nil
}
