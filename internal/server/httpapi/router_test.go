package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/catalog"
	clientmodels "github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
	"github.com/dmitrijs2005/gophview/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreviews struct {
	descriptor  *models.PreviewDescriptor
	describeErr error
	registerErr error
	pair        *models.TokenPair
	refreshErr  error
	registered  *models.Resource
	panicOn     string
}

func (f *fakePreviews) Register(_ context.Context, r *models.Resource) (*models.Resource, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	r.ID = "new-id"
	r.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.registered = r
	return r, nil
}

func (f *fakePreviews) Describe(_ context.Context, id string) (*models.PreviewDescriptor, error) {
	if id == f.panicOn {
		panic("boom")
	}
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.descriptor, nil
}

func (f *fakePreviews) RefreshToken(_ context.Context, token string) (*models.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func newTestRouter(t *testing.T, p Previews) (*gin.Engine, *metrics.HTTP, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.MustNewHTTP(reg)
	return NewRouter(p, m, reg, logging.Nop()), m, reg
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetPreview(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &fakePreviews{descriptor: &models.PreviewDescriptor{
		PreviewURL:   "https://s3/p",
		DownloadURL:  "https://s3/d",
		StrategyHint: models.HintExternalEditor,
		ResourceType: "word",
		AccessToken:  "jwt",
		TokenExpiry:  &expiry,
	}}
	r, _, reg := newTestRouter(t, p)

	w := do(r, http.MethodGet, "/api/resources/r1/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"previewUrl": "https://s3/p",
		"downloadUrl": "https://s3/d",
		"strategyHint": "external-editor",
		"resourceType": "word",
		"accessToken": "jwt",
		"tokenExpiry": "2030-01-01T00:00:00Z"
	}`, w.Body.String())

	n, err := testutil.GatherAndCount(reg, "gophview_api_descriptors_issued_total", "gophview_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetPreview_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{describeErr: common.ErrorNotFound})
		w := do(r, http.MethodGet, "/api/resources/x/preview", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	})

	t.Run("internal", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{describeErr: errors.New("db down")})
		w := do(r, http.MethodGet, "/api/resources/x/preview", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})

	t.Run("panic", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{panicOn: "x"})
		w := do(r, http.MethodGet, "/api/resources/x/preview", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	})
}

func TestCreateResource(t *testing.T) {
	p := &fakePreviews{}
	r, _, _ := newTestRouter(t, p)

	w := do(r, http.MethodPost, "/api/resources", `{"name":"a.pdf","declaredType":"pdf","storageKey":"k/a.pdf"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"new-id","name":"a.pdf","declaredType":"pdf","createdAt":"2024-01-02T03:04:05Z"}`, w.Body.String())
	assert.Equal(t, "k/a.pdf", p.registered.StorageKey)
}

func TestCreateResource_Errors(t *testing.T) {
	t.Run("invalid argument", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{registerErr: common.ErrorInvalidArgument})
		w := do(r, http.MethodPost, "/api/resources", `{"name":"a.pdf"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{})
		w := do(r, http.MethodPost, "/api/resources", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{})
		req := httptest.NewRequest(http.MethodPost, "/api/resources", strings.NewReader("name=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("internal", func(t *testing.T) {
		r, _, _ := newTestRouter(t, &fakePreviews{registerErr: errors.New("db down")})
		w := do(r, http.MethodPost, "/api/resources", `{"name":"a.pdf"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	r, _, _ := newTestRouter(t, &fakePreviews{pair: &models.TokenPair{
		AccessToken: "a2", TokenExpiry: exp, RefreshToken: "r2", RefreshExpiry: exp,
	}})

	w := do(r, http.MethodPost, "/api/tokens/refresh", `{"refreshToken":"r1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accessToken":"a2","tokenExpiry":"2030-01-01T00:00:00Z","refreshToken":"r2","refreshExpiry":"2030-01-01T00:00:00Z"}`, w.Body.String())
}

func TestRefreshToken_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		code int
	}{
		{"missing token", nil, `{}`, http.StatusBadRequest},
		{"invalid", common.ErrInvalidToken, `{"refreshToken":"x"}`, http.StatusUnauthorized},
		{"expired", common.ErrRefreshTokenExpired, `{"refreshToken":"x"}`, http.StatusUnauthorized},
		{"internal", errors.New("db"), `{"refreshToken":"x"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(t, &fakePreviews{refreshErr: tt.err})
			w := do(r, http.MethodPost, "/api/tokens/refresh", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t, &fakePreviews{describeErr: common.ErrorNotFound})

	do(r, http.MethodGet, "/api/resources/x/preview", "")
	do(r, http.MethodGet, "/nowhere", "")

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `gophview_api_requests_total{code="404",route="/api/resources/:id/preview"} 1`)
	assert.Contains(t, body, `gophview_api_requests_total{code="404",route="unmatched"} 1`)
}

// The catalog client consumes the same endpoints, so its view of a
// descriptor and of refresh errors must match what the router emits.
func TestCatalogClientRoundTrip(t *testing.T) {
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	p := &fakePreviews{descriptor: &models.PreviewDescriptor{
		PreviewURL:   "https://s3/p",
		DownloadURL:  "https://s3/d",
		StrategyHint: models.HintPDF,
		ResourceType: "pdf",
		AccessToken:  "jwt",
		TokenExpiry:  &expiry,
	}, refreshErr: common.ErrRefreshTokenExpired}
	r, _, _ := newTestRouter(t, p)

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, err := catalog.New(srv.URL, srv.Client(), 4, time.Minute, logging.Nop())
	require.NoError(t, err)

	d, err := c.Descriptor(context.Background(), clientmodels.ResourceRef{ID: "r1", DeclaredType: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, clientmodels.HintPDF, d.StrategyHint)
	assert.Equal(t, "https://s3/p", d.PreviewURL)
	require.NotNil(t, d.TokenExpiry)
	assert.True(t, expiry.Equal(*d.TokenExpiry))

	_, err = c.Refresh(context.Background(), "r1")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}
