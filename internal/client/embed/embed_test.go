package embed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_Show(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		kind   surface.Kind
	}{
		{"pdf", Target{Variant: models.VariantPDF, URL: "https://s.example/a.pdf"}, surface.KindFrame},
		{"image", Target{Variant: models.VariantImage, URL: "https://s.example/a.png", Title: "a.png"}, surface.KindImage},
		{"video", Target{Variant: models.VariantVideo, URL: "https://s.example/a.mp4"}, surface.KindVideo},
		{"link", Target{Variant: models.VariantFrame, URL: "https://example.org"}, surface.KindFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loaded surface.Element
			e := New(LoaderFunc(func(_ context.Context, el surface.Element) error {
				loaded = el
				return nil
			}), logging.Nop())

			node := surface.NewNode()
			require.NoError(t, e.Show(context.Background(), node, tt.target))

			children := node.Children()
			require.Len(t, children, 1)
			assert.Equal(t, tt.kind, children[0].Kind)
			assert.Equal(t, tt.target.URL, children[0].Src)
			assert.Equal(t, children[0], loaded)
		})
	}
}

func TestEmbedder_ShowFailureIsNormalized(t *testing.T) {
	e := New(LoaderFunc(func(context.Context, surface.Element) error {
		return errors.New("net::ERR_BLOCKED_BY_RESPONSE")
	}), logging.Nop())
	node := surface.NewNode()

	err := e.Show(context.Background(), node, Target{Variant: models.VariantImage, URL: "https://s.example/x.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNativeLoad)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "The image could not be loaded.", le.Message)
	assert.Equal(t, 0, node.Len())
}

func TestEmbedder_ShowWithoutURL(t *testing.T) {
	e := New(nil, logging.Nop())
	err := e.Show(context.Background(), surface.NewNode(), Target{Variant: models.VariantPDF})
	assert.ErrorIs(t, err, common.ErrNativeLoad)
}

func TestEmbedder_ShowMarkupIsSanitized(t *testing.T) {
	e := New(LoaderFunc(func(context.Context, surface.Element) error {
		t.Fatal("markup needs no loading")
		return nil
	}), logging.Nop())
	node := surface.NewNode()

	require.NoError(t, e.Show(context.Background(), node, Target{Markup: `<p onclick="x()">hi</p><script>alert(1)</script>`}))

	html := node.HTML()
	assert.Contains(t, html, "<p>hi</p>")
	assert.NotContains(t, html, "script")
	assert.NotContains(t, html, "onclick")
}

func TestEmbedder_ShowCancelled(t *testing.T) {
	e := New(LoaderFunc(func(ctx context.Context, _ surface.Element) error {
		<-ctx.Done()
		return ctx.Err()
	}), logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Show(ctx, surface.NewNode(), Target{Variant: models.VariantPDF, URL: "https://s.example/a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrNativeLoad)
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
		switch r.URL.Path {
		case "/a.png":
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte{0x89})
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>"))
		case "/blob":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{0})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.Client())
	ctx := context.Background()

	assert.NoError(t, l.Load(ctx, surface.Image(srv.URL+"/a.png", "")))
	assert.NoError(t, l.Load(ctx, surface.Frame(srv.URL+"/page.html", "")))
	assert.NoError(t, l.Load(ctx, surface.Video(srv.URL+"/blob")))
	assert.Error(t, l.Load(ctx, surface.Image(srv.URL+"/page.html", "")))
	assert.Error(t, l.Load(ctx, surface.Frame(srv.URL+"/missing", "")))
	assert.NoError(t, l.Load(ctx, surface.Markup("<p>x</p>")), "markup is not probed")
}
