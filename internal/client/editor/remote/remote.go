// Package remote implements editor.Engine against a hosted editor service.
//
// The service publishes an SDK manifest, creates sessions over HTTP and
// streams rendering and lifecycle events over a websocket:
//
//	GET    {base}/sdk/manifest.json
//	POST   {base}/sessions              -> {"id": "...", "streamUrl": "..."}
//	GET    {streamUrl}                   (websocket)
//	DELETE {base}/sessions/{id}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/gorilla/websocket"
)

// Manifest describes the SDK the service serves.
type Manifest struct {
	Version  string   `json:"version"`
	Features []string `json:"features,omitempty"`
}

type createSessionRequest struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
	PreviewURL   string `json:"previewUrl"`
}

type createSessionResponse struct {
	ID        string `json:"id"`
	StreamURL string `json:"streamUrl"`
}

// Engine talks to one editor service.
type Engine struct {
	base   *url.URL
	client *http.Client
	dialer *websocket.Dialer
	logger logging.Logger

	manifest Manifest
}

func New(baseURL string, client *http.Client, logger logging.Logger) (*Engine, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse editor base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("editor base url must be http(s): %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Engine{
		base:   u,
		client: client,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: logger.With("module", "editor-remote"),
	}, nil
}

// Manifest returns the manifest fetched by the last successful Load.
func (e *Engine) Manifest() Manifest { return e.manifest }

func (e *Engine) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint("sdk", "manifest.json"), nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch sdk manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch sdk manifest: %s; body: %s", resp.Status, string(body))
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return fmt.Errorf("decode sdk manifest: %w", err)
	}
	if m.Version == "" {
		return fmt.Errorf("sdk manifest has no version")
	}
	e.manifest = m
	e.logger.Info(ctx, "editor sdk loaded", "version", m.Version)
	return nil
}

func (e *Engine) CreateSession(ctx context.Context, mount surface.Mount, opts editor.SessionOptions) (editor.Session, error) {
	body, err := json.Marshal(createSessionRequest{
		ResourceID:   opts.ResourceID,
		ResourceType: opts.ResourceType,
		PreviewURL:   opts.PreviewURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint("sessions"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("create session: %s; body: %s", resp.Status, string(msg))
	}

	var created createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create session: empty session id")
	}

	streamURL, err := e.streamURL(created)
	if err != nil {
		e.deleteSession(created.ID)
		return nil, err
	}

	conn, _, err := e.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		e.deleteSession(created.ID)
		return nil, fmt.Errorf("open session stream: %w", err)
	}

	s := newSession(created.ID, conn, mount, e.logger.With("session", created.ID), func() error {
		return e.deleteSession(created.ID)
	})
	go s.readLoop()
	return s, nil
}

func (e *Engine) endpoint(parts ...string) string {
	return e.base.JoinPath(parts...).String()
}

// streamURL resolves the stream location against the base URL and switches
// it to the websocket scheme.
func (e *Engine) streamURL(created createSessionResponse) (string, error) {
	raw := created.StreamURL
	if raw == "" {
		raw = e.base.JoinPath("sessions", created.ID, "stream").String()
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	u := e.base.ResolveReference(ref)
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

func (e *Engine) deleteSession(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, e.endpoint("sessions", id), nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete session: %s", resp.Status)
	}
	return nil
}
