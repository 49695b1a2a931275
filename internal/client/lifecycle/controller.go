// Package lifecycle owns a preview from open to close: it resolves a
// strategy, runs exactly one engine against the mount, publishes ViewState
// transitions and tears everything down before the next preview starts.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/convert"
	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/embed"
	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/strategy"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
)

// DescriptorSource fetches the backend's preview descriptor for a resource.
type DescriptorSource interface {
	Descriptor(ctx context.Context, ref models.ResourceRef) (*models.PreviewDescriptor, error)
}

// EditorStarter starts external editor sessions.
type EditorStarter interface {
	Start(ctx context.Context, mount surface.Mount, req editor.StartRequest) (*editor.SessionHandle, editor.Readiness, error)
}

// Converter renders office documents to sanitized HTML.
type Converter interface {
	Convert(ctx context.Context, src convert.Source) (string, error)
}

// Embedder shows natively renderable resources.
type Embedder interface {
	Show(ctx context.Context, mount surface.Mount, t embed.Target) error
}

// Engines are the collaborators a Controller dispatches to. Any of them may
// be nil; a strategy whose engine is missing ends in an error state.
type Engines struct {
	Source    DescriptorSource
	Editor    EditorStarter
	Converter Converter
	Embedder  Embedder
}

// Option configures a Controller.
type Option func(*Controller)

// WithErrorCallback registers fn to receive the raw error behind every
// error state.
func WithErrorCallback(fn func(ref models.ResourceRef, err error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithMetrics reports outcomes to m.
func WithMetrics(m *metrics.Preview) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides time.Now, used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives previews on a single mount. Open, Present and Close are
// serialized; engine callbacks only touch state through the generation
// check so results of a superseded preview are dropped.
//
// Subscribers are called from engine goroutines and must not call Open,
// Present or Close synchronously.
type Controller struct {
	mount   surface.Mount
	engines Engines
	logger  logging.Logger
	metrics *metrics.Preview
	onError func(models.ResourceRef, error)
	now     func() time.Time

	opMu sync.Mutex

	mu      sync.Mutex
	state   models.ViewState
	seq     uint64
	gen     uint64
	active  *activation
	subs    map[int]func(models.ViewState)
	nextSub int

	notifyMu  sync.Mutex
	delivered uint64
}

func New(mount surface.Mount, engines Engines, logger logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		mount:   mount,
		engines: engines,
		logger:  logger.With("module", "lifecycle"),
		now:     time.Now,
		state:   models.Idle(),
		subs:    make(map[int]func(models.ViewState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current view state.
func (c *Controller) State() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for state changes and returns a function that
// removes it. States are delivered in order; a subscriber may miss an
// intermediate state but never sees an older one after a newer one.
func (c *Controller) Subscribe(fn func(models.ViewState)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Open previews ref: it tears down the current preview, enters loading,
// fetches the descriptor, resolves a strategy and runs its engine. Open
// returns once the preview settles, is superseded, or ctx ends; ctx only
// bounds the wait, the preview keeps running until Close or the next Open.
func (c *Controller) Open(ctx context.Context, ref models.ResourceRef) models.ViewState {
	c.opMu.Lock()
	c.teardown()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.commit(gen, models.ViewState{Phase: models.PhaseLoading, ResourceID: ref.ID})
	act := c.launch(ctx, gen, ref, nil, true)
	c.opMu.Unlock()

	return c.wait(ctx, act)
}

// Present previews ref with a descriptor the caller already holds.
// A download-only resource goes straight to ready without a loading phase.
func (c *Controller) Present(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor) models.ViewState {
	c.opMu.Lock()
	c.teardown()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	decision := strategy.ResolveRef(ref, d)
	if decision.Strategy == models.StrategyDownloadOnly {
		c.showDownload(ctx, gen, ref, d, time.Now())
		c.opMu.Unlock()
		return c.State()
	}

	c.commit(gen, models.ViewState{Phase: models.PhaseLoading, ResourceID: ref.ID, Strategy: decision.Strategy})
	act := c.launch(ctx, gen, ref, d, false)
	c.opMu.Unlock()

	return c.wait(ctx, act)
}

// Close tears down the current preview, clears the mount and returns to
// idle. Closing an idle controller does nothing.
func (c *Controller) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.teardown()

	c.mu.Lock()
	gen := c.gen
	idle := c.state.Phase == models.PhaseIdle
	c.mu.Unlock()

	if !idle {
		c.commit(gen, models.Idle())
	}
}

func (c *Controller) wait(ctx context.Context, act *activation) models.ViewState {
	select {
	case <-act.done:
	case <-ctx.Done():
	}
	return c.State()
}

// teardown invalidates the current generation, stops the active engine and
// empties the mount. It returns after the engine has released everything it
// held. The mount belongs to the host until a preview has run, so an idle
// controller leaves it alone. Callers hold opMu.
func (c *Controller) teardown() {
	c.mu.Lock()
	c.gen++
	act := c.active
	c.active = nil
	owned := act != nil || c.state.Phase != models.PhaseIdle
	c.mu.Unlock()

	if act != nil {
		act.stop()
	}
	if owned {
		c.mount.Clear()
	}
}

// commit replaces the state if gen is still current and notifies
// subscribers. It reports whether the state was applied.
func (c *Controller) commit(gen uint64, s models.ViewState) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.state = s
	c.seq++
	seq := c.seq
	subs := make([]func(models.ViewState), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return true
	}
	c.delivered = seq
	for _, fn := range subs {
		fn(s)
	}
	return true
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}
