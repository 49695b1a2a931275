package cli

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreviewer struct {
	opened []models.ResourceRef
	state  models.ViewState
	closed int
}

func (f *fakePreviewer) Open(_ context.Context, ref models.ResourceRef) models.ViewState {
	f.opened = append(f.opened, ref)
	f.state = models.ViewState{Phase: models.PhaseReady, ResourceID: ref.ID, Strategy: models.StrategyNativeEmbed}
	return f.state
}

func (f *fakePreviewer) Close() {
	f.closed++
	f.state = models.Idle()
}

func (f *fakePreviewer) State() models.ViewState { return f.state }

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := &App{logger: logging.NewJSONLogger(&buf, slog.LevelInfo)}

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.Mode)
	assert.Contains(t, buf.String(), `"mode":"online"`)

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String(), "no log when mode does not change")

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.Mode)
	assert.Contains(t, buf.String(), `"mode":"offline"`)
}

func TestApp_OpenCloseStateHTML(t *testing.T) {
	lines := capturePrints(t)

	p := &fakePreviewer{state: models.Idle()}
	node := surface.NewNode()
	app := &App{controller: p, mount: node, logger: logging.Nop()}
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, []string{"r1", "pdf", "a.pdf", "https://f/a.pdf"}))
	require.Len(t, p.opened, 1)
	assert.Equal(t, models.ResourceRef{ID: "r1", DeclaredType: "pdf", Name: "a.pdf", DownloadURL: "https://f/a.pdf"}, p.opened[0])
	assert.Contains(t, *lines, "ready via native-embed")

	assert.Equal(t, "r1 ready", app.getStatus())

	require.NoError(t, app.State(ctx))
	assert.Contains(t, strings.Join(*lines, "\n"), `"phase": "ready"`)

	node.Append(surface.Frame("https://f/a.pdf", "a.pdf"))
	require.NoError(t, app.HTML(ctx))
	assert.Contains(t, *lines, `<iframe src="https://f/a.pdf" title="a.pdf"></iframe>`)

	require.NoError(t, app.Close(ctx))
	assert.Equal(t, 1, p.closed)
	assert.Equal(t, "idle", app.getStatus())
}

func TestApp_OpenPromptSharesREPLInput(t *testing.T) {
	capturePrints(t)

	var out bytes.Buffer
	p := &fakePreviewer{state: models.Idle()}
	app := &App{
		controller: p,
		mount:      surface.NewNode(),
		logger:     logging.Nop(),
		in:         bufio.NewReader(strings.NewReader("open\nr9\nopen r10\nexit\n")),
		out:        &out,
	}

	runREPL(context.Background(), app, app.getStatus, app.in)

	require.Len(t, p.opened, 2)
	assert.Equal(t, "r9", p.opened[0].ID)
	assert.Equal(t, "r10", p.opened[1].ID)
	assert.Contains(t, out.String(), "Resource id")
}

func TestApp_Metrics(t *testing.T) {
	lines := capturePrints(t)

	reg := prometheus.NewRegistry()
	m := metrics.MustNewPreview(reg)
	m.ObserveOutcome("native-embed", "ready", 0)

	app := &App{metrics: reg, logger: logging.Nop()}
	require.NoError(t, app.Metrics(context.Background()))

	text := strings.Join(*lines, "\n")
	assert.Contains(t, text, `gophview_preview_outcomes_total{outcome="ready",strategy="native-embed"} 1`)
	assert.Contains(t, text, "# TYPE gophview_preview_engines_active gauge")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		state models.ViewState
		want  string
	}{
		{models.Idle(), "idle"},
		{models.ViewState{Phase: models.PhaseLoading, Strategy: models.StrategyExternalEditor}, "loading via external-editor"},
		{models.ViewState{Phase: models.PhaseReady, Strategy: models.StrategyExternalEditor, ReadyByTimeout: true}, "ready via external-editor (ready by timeout)"},
		{models.ViewState{Phase: models.PhaseReady, Strategy: models.StrategyDownloadOnly, DownloadURL: "https://f/z"}, "ready via download-only [download: https://f/z]"},
		{
			models.ViewState{Phase: models.PhaseError, Strategy: models.StrategyClientSideConversion,
				Error: &models.ViewError{Message: "nope", FallbackDownloadURL: "https://f/d"}},
			"error via client-side-conversion: nope [download: https://f/d]",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describe(tt.state))
	}
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  res-7  \n")), "Resource id", &out)
	require.NoError(t, err)
	assert.Equal(t, "res-7", got)
	assert.Equal(t, "Resource id\n> ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "x", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "x", &out)
	assert.Error(t, err)
}
