// Package httpapi exposes the preview backend over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
	"github.com/dmitrijs2005/gophview/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Previews is the service behind the API.
type Previews interface {
	Register(ctx context.Context, r *models.Resource) (*models.Resource, error)
	Describe(ctx context.Context, id string) (*models.PreviewDescriptor, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

type handler struct {
	previews Previews
	metrics  *metrics.HTTP
	logger   logging.Logger
}

// NewRouter builds the gin engine serving the preview API and, when gatherer
// is not nil, /metrics.
func NewRouter(previews Previews, m *metrics.HTTP, gatherer prometheus.Gatherer, logger logging.Logger) *gin.Engine {
	h := &handler{previews: previews, metrics: m, logger: logger.With("module", "httpapi")}

	r := gin.New()
	r.Use(h.recovery(), h.observe())

	api := r.Group("/api", jsonOnly())
	api.GET("/resources/:id/preview", h.getPreview)
	api.POST("/resources", h.createResource)
	api.POST("/tokens/refresh", h.refreshToken)

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// observe records per-route request metrics and logs each request.
func (h *handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		h.metrics.ObserveRequest(route, strconv.Itoa(status), elapsed)
		h.logger.Debug(c.Request.Context(), "request handled",
			"method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed)
	}
}

func (h *handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		h.logger.Error(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	})
}

// jsonOnly rejects request bodies that are not JSON.
func jsonOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if ct := c.ContentType(); ct != "" && ct != gin.MIMEJSON {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, errorBody{Error: "Content-Type must be application/json"})
				return
			}
		}
		c.Next()
	}
}
