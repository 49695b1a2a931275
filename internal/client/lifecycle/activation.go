package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/convert"
	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/embed"
	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/strategy"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/common"
)

var (
	errEngineMissing = errors.New("preview engine not configured")
	errNoDownload    = errors.New("no download url")
)

// activation is one running engine. done closes when the activation
// goroutine returns; release frees whatever a successful engine still holds.
type activation struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	release func()
	once    sync.Once
}

func (a *activation) hold(release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release = release
}

// stop cancels the activation, waits for it to return and releases it.
func (a *activation) stop() {
	a.cancel()
	<-a.done
	a.once.Do(func() {
		a.mu.Lock()
		release := a.release
		a.release = nil
		a.mu.Unlock()
		if release != nil {
			release()
		}
	})
}

// launch starts the engine goroutine for gen. Callers hold opMu.
func (c *Controller) launch(ctx context.Context, gen uint64, ref models.ResourceRef, d *models.PreviewDescriptor, fetch bool) *activation {
	actCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	act := &activation{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.active = act
	c.mu.Unlock()

	go c.run(actCtx, gen, act, ref, d, fetch)
	return act
}

func (c *Controller) run(ctx context.Context, gen uint64, act *activation, ref models.ResourceRef, d *models.PreviewDescriptor, fetch bool) {
	defer close(act.done)
	started := time.Now()

	if fetch {
		d = c.fetchDescriptor(ctx, ref)
		if ctx.Err() != nil {
			return
		}
	}

	decision := strategy.ResolveRef(ref, d)
	c.logger.Info(ctx, "preview strategy resolved", "resource", ref.ID, "strategy", decision.String())

	if decision.Strategy == models.StrategyDownloadOnly {
		c.showDownload(ctx, gen, ref, d, started)
		return
	}
	if fetch {
		c.commit(gen, models.ViewState{Phase: models.PhaseLoading, ResourceID: ref.ID, Strategy: decision.Strategy})
	}

	release, byTimeout, err := c.activate(ctx, ref, d, decision)
	if release != nil {
		c.metrics.EngineStarted()
		inner := release
		release = func() {
			inner()
			c.metrics.EngineReleased()
		}
	}

	if ctx.Err() != nil {
		if release != nil {
			release()
		}
		return
	}
	if err != nil {
		c.fail(ctx, gen, ref, d, decision.Strategy, err, started)
		return
	}

	act.hold(release)
	ready := models.ViewState{
		Phase:          models.PhaseReady,
		ResourceID:     ref.ID,
		Strategy:       decision.Strategy,
		ReadyByTimeout: byTimeout,
		DownloadURL:    d.DownloadSource(ref),
	}
	if c.commit(gen, ready) {
		outcome := "ready"
		if byTimeout {
			outcome = "ready_timeout"
		}
		c.metrics.ObserveOutcome(string(decision.Strategy), outcome, time.Since(started))
	}
}

func (c *Controller) fetchDescriptor(ctx context.Context, ref models.ResourceRef) *models.PreviewDescriptor {
	if c.engines.Source == nil {
		return nil
	}
	d, err := c.engines.Source.Descriptor(ctx, ref)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn(ctx, "preview descriptor unavailable, continuing without it",
				"resource", ref.ID, "error", err)
		}
		return nil
	}
	return d
}

func (c *Controller) activate(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor, decision models.Decision) (func(), bool, error) {
	switch decision.Strategy {
	case models.StrategyExternalEditor:
		return c.startEditor(ctx, ref, d)
	case models.StrategyClientSideConversion:
		return c.convert(ctx, ref, d)
	case models.StrategyNativeEmbed, models.StrategyLinkRedirect:
		return c.embed(ctx, ref, d, decision.Variant)
	}
	return nil, false, fmt.Errorf("%w: strategy %q", common.ErrUnsupportedFormat, decision.Strategy)
}

// token returns the access token if it is still valid. An expired token is
// treated as absent.
func (c *Controller) token(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor) (string, time.Time) {
	if d.TokenValid(c.now()) {
		var expiry time.Time
		if d.TokenExpiry != nil {
			expiry = *d.TokenExpiry
		}
		return d.AccessToken, expiry
	}
	if d.Token() != "" {
		c.logger.Warn(ctx, "preview access token expired, continuing without it", "resource", ref.ID)
	}
	return "", time.Time{}
}

func resourceType(ref models.ResourceRef, d *models.PreviewDescriptor) string {
	if d != nil && d.ResourceType != "" {
		return d.ResourceType
	}
	return ref.DeclaredType
}

func (c *Controller) startEditor(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor) (func(), bool, error) {
	if c.engines.Editor == nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrEngineLoad, errEngineMissing)
	}
	token, expiry := c.token(ctx, ref, d)

	handle, readiness, err := c.engines.Editor.Start(ctx, c.mount, editor.StartRequest{
		ResourceID:   ref.ID,
		ResourceType: resourceType(ref, d),
		PreviewURL:   d.PreviewSource(ref),
		Token:        token,
		TokenExpiry:  expiry,
	})
	if err != nil {
		return nil, false, err
	}
	return handle.Release, readiness.ByTimeout, nil
}

func (c *Controller) convert(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor) (func(), bool, error) {
	if c.engines.Converter == nil || c.engines.Embedder == nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrConversion, errEngineMissing)
	}
	token, _ := c.token(ctx, ref, d)

	html, err := c.engines.Converter.Convert(ctx, convert.Source{
		URL:          d.PreviewSource(ref),
		Token:        token,
		DeclaredType: ref.DeclaredType,
		Name:         ref.Name,
	})
	if err != nil {
		return nil, false, err
	}
	if err := c.engines.Embedder.Show(ctx, c.mount, embed.Target{Markup: html, Title: ref.Name}); err != nil {
		return nil, false, err
	}
	return func() {}, false, nil
}

func (c *Controller) embed(ctx context.Context, ref models.ResourceRef, d *models.PreviewDescriptor, variant models.Variant) (func(), bool, error) {
	if c.engines.Embedder == nil {
		return nil, false, &embed.LoadError{Variant: variant, Message: embed.FailureMessage(variant), Err: errEngineMissing}
	}
	if err := c.engines.Embedder.Show(ctx, c.mount, embed.Target{
		Variant: variant,
		URL:     d.PreviewSource(ref),
		Title:   ref.Name,
	}); err != nil {
		return nil, false, err
	}
	return func() {}, false, nil
}

func (c *Controller) showDownload(ctx context.Context, gen uint64, ref models.ResourceRef, d *models.PreviewDescriptor, started time.Time) {
	url := d.DownloadSource(ref)
	if url == "" {
		c.fail(ctx, gen, ref, d, models.StrategyDownloadOnly, fmt.Errorf("%w: %w", common.ErrUnsupportedFormat, errNoDownload), started)
		return
	}

	c.mount.Replace(
		surface.Message(MessageNoPreview),
		surface.Download(url, downloadLabel(ref)),
	)
	if c.commit(gen, models.ViewState{
		Phase:       models.PhaseReady,
		ResourceID:  ref.ID,
		Strategy:    models.StrategyDownloadOnly,
		DownloadURL: url,
	}) {
		c.metrics.ObserveOutcome(string(models.StrategyDownloadOnly), "ready", time.Since(started))
	}
}

func downloadLabel(ref models.ResourceRef) string {
	if ref.Name != "" {
		return "Download " + ref.Name
	}
	return "Download"
}

// fail publishes an error state. The raw error goes to logs and the error
// callback; the consumer only sees the mapped message.
func (c *Controller) fail(ctx context.Context, gen uint64, ref models.ResourceRef, d *models.PreviewDescriptor, s models.Strategy, err error, started time.Time) {
	msg := Message(err)
	fallback := d.DownloadSource(ref)

	els := []surface.Element{surface.Message(msg)}
	if fallback != "" {
		els = append(els, surface.Download(fallback, downloadLabel(ref)))
	}
	c.mount.Replace(els...)

	applied := c.commit(gen, models.ViewState{
		Phase:      models.PhaseError,
		ResourceID: ref.ID,
		Strategy:   s,
		Error:      &models.ViewError{Message: msg, FallbackDownloadURL: fallback},
	})
	if !applied {
		return
	}

	c.logger.Error(ctx, "preview failed", "resource", ref.ID, "strategy", s, "error", err)
	c.metrics.ObserveOutcome(string(s), "error", time.Since(started))
	if c.onError != nil {
		c.onError(ref, err)
	}
}
