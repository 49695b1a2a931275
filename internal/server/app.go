// Package server wires the preview backend: PostgreSQL storage, the
// descriptor service, the gin HTTP API with /metrics, and the gRPC health
// service. Run blocks until a signal or a component failure.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
	"github.com/dmitrijs2005/gophview/internal/server/config"
	"github.com/dmitrijs2005/gophview/internal/server/httpapi"
	"github.com/dmitrijs2005/gophview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophview/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophview/internal/server/grpc"
)

// TokenPurgeInterval is how often expired refresh tokens are deleted.
const TokenPurgeInterval = time.Hour

// openDB is a seam for tests.
var openDB = repomanager.OpenPostgres

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	previews *services.PreviewService
	registry *prometheus.Registry
	metrics  *metrics.HTTP
}

// NewApp connects to the database, applies migrations and builds the
// services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		previews: services.NewPreviewService(db, rm, services.NewS3Signer(c), c),
		registry: registry,
		metrics:  metrics.MustNewHTTP(registry),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC and purges expired tokens until ctx is cancelled,
// a signal arrives, or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}()

	router := httpapi.NewRouter(app.previews, app.metrics, app.registry, app.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger).Run(ctx)
	})
	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger).Run(ctx)
	})
	g.Go(func() error {
		purgeExpiredTokens(ctx, app.previews, TokenPurgeInterval, app.logger)
		return nil
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}
	return err
}

func purgeExpiredTokens(ctx context.Context, p tokenPurger, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Warn(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired refresh tokens purged", "count", n)
			}
		}
	}
}
