package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophview/internal/client/surface"
)

// HTTPLoader stands in for a native element by probing its source: it
// requests the first byte and checks the status and the media family.
type HTTPLoader struct {
	client *http.Client
}

func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) Load(ctx context.Context, el surface.Element) error {
	switch el.Kind {
	case surface.KindFrame, surface.KindImage, surface.KindVideo:
	default:
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, el.Src, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("source responded %s", resp.Status)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return nil
	}
	switch el.Kind {
	case surface.KindImage:
		if !strings.HasPrefix(ct, "image/") {
			return fmt.Errorf("unexpected content type %q for image", ct)
		}
	case surface.KindVideo:
		if !strings.HasPrefix(ct, "video/") {
			return fmt.Errorf("unexpected content type %q for video", ct)
		}
	}
	return nil
}
