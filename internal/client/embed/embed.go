// Package embed shows resources the host can render natively: PDFs and web
// pages in frames, images, videos and sanitized markup.
package embed

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/microcosm-cc/bluemonday"
)

// Target is what to embed.
type Target struct {
	Variant models.Variant
	URL     string
	Title   string
	// Markup is used instead of URL when set; it is sanitized before display.
	Markup string
}

// Loader reports whether a native element loaded. It blocks until the
// element fires load (nil) or error (non-nil), or ctx ends.
type Loader interface {
	Load(ctx context.Context, el surface.Element) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, el surface.Element) error

func (f LoaderFunc) Load(ctx context.Context, el surface.Element) error { return f(ctx, el) }

// LoadError is a normalized element failure. Message is fit for end users.
type LoadError struct {
	Variant models.Variant
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() []error { return []error{common.ErrNativeLoad, e.Err} }

// FailureMessage is the user-facing text for a failed element of variant v.
func FailureMessage(v models.Variant) string {
	switch v {
	case models.VariantPDF:
		return "The PDF could not be displayed."
	case models.VariantImage:
		return "The image could not be loaded."
	case models.VariantVideo:
		return "The video could not be played."
	default:
		return "The content could not be loaded."
	}
}

// Element builds the surface element for t.
func Element(t Target) surface.Element {
	switch t.Variant {
	case models.VariantImage:
		return surface.Image(t.URL, t.Title)
	case models.VariantVideo:
		return surface.Video(t.URL)
	default:
		return surface.Frame(t.URL, t.Title)
	}
}

// Embedder attaches native elements to a mount.
type Embedder struct {
	loader Loader
	policy *bluemonday.Policy
	logger logging.Logger
}

func New(loader Loader, logger logging.Logger) *Embedder {
	return &Embedder{
		loader: loader,
		policy: bluemonday.UGCPolicy(),
		logger: logger.With("module", "embed"),
	}
}

// Show renders t into mount and waits for the element to load. On failure
// the mount is cleared and a *LoadError is returned.
func (e *Embedder) Show(ctx context.Context, mount surface.Mount, t Target) error {
	if t.Markup != "" {
		mount.Replace(surface.Markup(e.policy.Sanitize(t.Markup)))
		return nil
	}
	if t.URL == "" {
		return &LoadError{Variant: t.Variant, Message: FailureMessage(t.Variant), Err: errors.New("no source url")}
	}

	el := Element(t)
	mount.Replace(el)

	if e.loader == nil {
		return nil
	}
	if err := e.loader.Load(ctx, el); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		mount.Clear()
		e.logger.Warn(ctx, "native element failed", "kind", el.Kind, "src", el.Src, "error", err)
		return &LoadError{Variant: t.Variant, Message: FailureMessage(t.Variant), Err: err}
	}
	return nil
}
