package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/catalog"
	"github.com/dmitrijs2005/gophview/internal/client/config"
	"github.com/dmitrijs2005/gophview/internal/client/convert"
	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/editor/remote"
	"github.com/dmitrijs2005/gophview/internal/client/embed"
	"github.com/dmitrijs2005/gophview/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// previewer is the part of the lifecycle controller the CLI drives.
type previewer interface {
	Open(ctx context.Context, ref models.ResourceRef) models.ViewState
	Close()
	State() models.ViewState
}

type App struct {
	config     *config.Config
	controller previewer
	mount      surface.Mount
	health     *catalog.Health
	metrics    prometheus.Gatherer
	logger     logging.Logger
	in         *bufio.Reader
	out        io.Writer
	Mode       Mode
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	source, err := catalog.New(c.BackendURL, httpClient, c.CacheSize, c.CacheTTL, logger)
	if err != nil {
		return nil, err
	}

	health, err := catalog.NewHealth(c.HealthAddr)
	if err != nil {
		return nil, err
	}

	engines := lifecycle.Engines{
		Source:    source,
		Converter: convert.New(httpClient, c.MaxDownloadBytes, logger),
		Embedder:  embed.New(embed.NewHTTPLoader(httpClient), logger),
	}
	if c.EditorURL != "" {
		eng, err := remote.New(c.EditorURL, httpClient, logger)
		if err != nil {
			return nil, err
		}
		engines.Editor = editor.NewManager(eng, editor.Config{
			MinConfirmations: c.MinConfirmations,
			ReadinessTimeout: c.ReadinessTimeout,
		}, logger)
	}

	registry := prometheus.NewRegistry()
	mount := surface.NewNode()
	controller := lifecycle.New(mount, engines, logger,
		lifecycle.WithMetrics(metrics.MustNewPreview(registry)),
		lifecycle.WithErrorCallback(func(ref models.ResourceRef, err error) {
			logger.Debug(context.Background(), "preview error detail", "resource", ref.ID, "error", err)
		}),
	)

	return &App{
		config:     c,
		controller: controller,
		mount:      mount,
		health:     health,
		metrics:    registry,
		logger:     logger,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "backend mode changed", "mode", mode)
	}
}

func (a *App) getStatus() string {
	s := a.controller.State()
	status := string(s.Phase)
	if s.ResourceID != "" {
		status = s.ResourceID + " " + status
	}
	if a.Mode != "" {
		status += " " + string(a.Mode)
	}
	return status
}

// Run starts the health watcher and the REPL on stdin. It blocks until the
// user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.health.Close()
	defer a.controller.Close()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn("gophview preview host (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.in)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			online := a.health.Online(pctx)
			cancel()

			if online {
				a.setMode(ModeOnline)
			} else {
				a.setMode(ModeOffline)
			}

		case <-ctx.Done():
			return
		}
	}
}

// Open previews the resource described by args: id, then optional declared
// type, file name and download URL. With no args it prompts for an id.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) == 0 {
		id, err := GetSimpleText(a.in, "Resource id", a.out)
		if err != nil {
			return err
		}
		args = []string{id}
	}
	ref := models.ResourceRef{ID: args[0]}
	if len(args) > 1 {
		ref.DeclaredType = args[1]
	}
	if len(args) > 2 {
		ref.Name = args[2]
	}
	if len(args) > 3 {
		ref.DownloadURL = args[3]
	}
	if ref.ID == "" {
		printlnFn("Usage: open <id> [type] [name] [download-url]")
		return nil
	}

	s := a.controller.Open(ctx, ref)
	printlnFn(describe(s))
	return nil
}

func (a *App) Close(context.Context) error {
	a.controller.Close()
	printlnFn(describe(a.controller.State()))
	return nil
}

func (a *App) State(context.Context) error {
	b, err := json.MarshalIndent(a.controller.State(), "", "  ")
	if err != nil {
		return err
	}
	printlnFn(string(b))
	return nil
}

func (a *App) HTML(context.Context) error {
	printlnFn(a.mount.HTML())
	return nil
}

// Metrics prints the client's preview metrics in the Prometheus text format.
func (a *App) Metrics(context.Context) error {
	families, err := a.metrics.Gather()
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return err
		}
	}
	printlnFn(strings.TrimSuffix(b.String(), "\n"))
	return nil
}

func describe(s models.ViewState) string {
	var b strings.Builder
	b.WriteString(string(s.Phase))
	if s.Strategy != models.StrategyNone {
		fmt.Fprintf(&b, " via %s", s.Strategy)
	}
	if s.ReadyByTimeout {
		b.WriteString(" (ready by timeout)")
	}
	if msg := s.ErrorMessage(); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	if u := s.FallbackDownloadURL(); u != "" {
		fmt.Fprintf(&b, " [download: %s]", u)
	} else if s.DownloadURL != "" {
		fmt.Fprintf(&b, " [download: %s]", s.DownloadURL)
	}
	return b.String()
}
