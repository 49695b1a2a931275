// Package catalog is the client for the descriptor backend. It fetches
// preview descriptors, caches them while their tokens and presigned URLs are
// fresh and exchanges refresh tokens when an access token has expired.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = time.Minute
)

type entry struct {
	descriptor *models.PreviewDescriptor
	expires    time.Time
}

// Client talks to the descriptor backend over HTTP.
type Client struct {
	base   *url.URL
	http   *http.Client
	cache  *lru.Cache[string, entry]
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

func New(baseURL string, httpClient *http.Client, cacheSize int, ttl time.Duration, logger logging.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, err := lru.New[string, entry](cacheSize)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:   u,
		http:   httpClient,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("module", "catalog"),
	}, nil
}

// Descriptor returns the preview descriptor for ref. A cached descriptor
// whose access token expired is refreshed when its refresh token allows it.
func (c *Client) Descriptor(ctx context.Context, ref models.ResourceRef) (*models.PreviewDescriptor, error) {
	now := c.now()

	if e, ok := c.cache.Get(ref.ID); ok {
		if now.Before(e.expires) {
			return clone(e.descriptor), nil
		}
		if e.descriptor.AccessToken != "" && !e.descriptor.TokenValid(now) && e.descriptor.CanRefresh(now) {
			d, err := c.refreshDescriptor(ctx, ref.ID, e.descriptor)
			if err == nil {
				return d, nil
			}
			c.logger.Warn(ctx, "descriptor token refresh failed, refetching", "resource", ref.ID, "error", err)
		}
		c.cache.Remove(ref.ID)
	}

	d, err := c.fetch(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	c.store(ref.ID, d)
	return clone(d), nil
}

// Invalidate drops the cached descriptor for id.
func (c *Client) Invalidate(id string) {
	c.cache.Remove(id)
}

func (c *Client) store(id string, d *models.PreviewDescriptor) {
	expires := c.now().Add(c.ttl)
	if d.TokenExpiry != nil && d.TokenExpiry.Before(expires) {
		expires = *d.TokenExpiry
	}
	c.cache.Add(id, entry{descriptor: clone(d), expires: expires})
}

func (c *Client) fetch(ctx context.Context, id string) (*models.PreviewDescriptor, error) {
	endpoint := c.base.JoinPath("api", "resources", id, "preview").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var d models.PreviewDescriptor
	if err := c.do(req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// TokenPair is the backend's response to a refresh.
type TokenPair struct {
	AccessToken   string     `json:"accessToken"`
	TokenExpiry   *time.Time `json:"tokenExpiry,omitempty"`
	RefreshToken  string     `json:"refreshToken"`
	RefreshExpiry *time.Time `json:"refreshExpiry,omitempty"`
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}
	endpoint := c.base.JoinPath("api", "tokens", "refresh").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var pair TokenPair
	if err := c.do(req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) refreshDescriptor(ctx context.Context, id string, d *models.PreviewDescriptor) (*models.PreviewDescriptor, error) {
	pair, err := c.Refresh(ctx, d.RefreshToken)
	if err != nil {
		return nil, err
	}
	fresh := clone(d)
	fresh.AccessToken = pair.AccessToken
	fresh.TokenExpiry = pair.TokenExpiry
	fresh.RefreshToken = pair.RefreshToken
	fresh.RefreshExpiry = pair.RefreshExpiry
	c.store(id, fresh)
	return clone(fresh), nil
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDescriptor, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode: %v", common.ErrDescriptor, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", common.ErrDescriptor, common.ErrorNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", common.ErrDescriptor, readAPIError(resp.Body, common.ErrorUnauthorized))
	default:
		return fmt.Errorf("%w: %s", common.ErrDescriptor, resp.Status)
	}
}

// readAPIError maps a backend error body onto a sentinel when it names one.
func readAPIError(r io.Reader, fallback error) error {
	var body apiError
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil {
		return fallback
	}
	for _, known := range []error{common.ErrRefreshTokenExpired, common.ErrTokenExpired, common.ErrInvalidToken} {
		if body.Error == known.Error() {
			return known
		}
	}
	return errors.Join(fallback, errors.New(body.Error))
}

func clone(d *models.PreviewDescriptor) *models.PreviewDescriptor {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}
