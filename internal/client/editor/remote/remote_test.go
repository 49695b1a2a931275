package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/editor/remote"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	manifestStatus int
	onToken        func(conn *websocket.Conn)

	mu      sync.Mutex
	created []map[string]string
	tokens  []remote.Message
	deleted []string
}

func (f *fakeService) start(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /sdk/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		if f.manifestStatus != 0 {
			http.Error(w, "unavailable", f.manifestStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(remote.Manifest{Version: "7.5", Features: []string{"view"}})
	})

	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s-1","streamUrl":"/sessions/s-1/stream"}`))
	})

	mux.HandleFunc("GET /sessions/{id}/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg remote.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == remote.MessageToken {
				f.mu.Lock()
				f.tokens = append(f.tokens, msg)
				f.mu.Unlock()
				if f.onToken != nil {
					f.onToken(conn)
				}
			}
		}
	})

	mux.HandleFunc("DELETE /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeService) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func render(conn *websocket.Conn, fragments ...string) {
	for _, html := range fragments {
		_ = conn.WriteJSON(remote.Message{Type: remote.MessageRender, HTML: html})
	}
}

func newEngine(t *testing.T, srv *httptest.Server) *remote.Engine {
	t.Helper()
	eng, err := remote.New(srv.URL, srv.Client(), logging.Nop())
	require.NoError(t, err)
	return eng
}

func TestNew_RejectsNonHTTPBase(t *testing.T) {
	_, err := remote.New("ftp://editor.example", nil, logging.Nop())
	assert.Error(t, err)
}

func TestEngine_Load(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := (&fakeService{}).start(t)
		eng := newEngine(t, srv)

		require.NoError(t, eng.Load(context.Background()))
		assert.Equal(t, "7.5", eng.Manifest().Version)
	})

	t.Run("service unavailable", func(t *testing.T) {
		srv := (&fakeService{manifestStatus: http.StatusServiceUnavailable}).start(t)
		eng := newEngine(t, srv)

		err := eng.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestEngine_SessionRendersIntoMount(t *testing.T) {
	svc := &fakeService{onToken: func(conn *websocket.Conn) {
		render(conn, "<div>a</div>", "<div>b</div>", "<div>c</div>")
	}}
	srv := svc.start(t)
	eng := newEngine(t, srv)
	node := surface.NewNode()

	s, err := eng.CreateSession(context.Background(), node, editor.SessionOptions{
		ResourceID: "res-9", ResourceType: "docx", PreviewURL: "https://storage.example/9",
	})
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, s.SetToken("tok-9", expiry))

	require.Eventually(t, func() bool { return node.Len() == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, node.HTML(), "<div>b</div>")

	svc.mu.Lock()
	require.Len(t, svc.created, 1)
	assert.Equal(t, "res-9", svc.created[0]["resourceId"])
	assert.Equal(t, "https://storage.example/9", svc.created[0]["previewUrl"])
	require.Len(t, svc.tokens, 1)
	assert.Equal(t, "tok-9", svc.tokens[0].Token)
	require.NotNil(t, svc.tokens[0].ExpiresAt)
	assert.True(t, expiry.Equal(*svc.tokens[0].ExpiresAt))
	svc.mu.Unlock()

	require.NoError(t, s.Destroy())
	require.NoError(t, s.Destroy())
	assert.Equal(t, []string{"s-1"}, svc.deletedIDs())
}

func TestEngine_ErrorMessageRaisesEvent(t *testing.T) {
	svc := &fakeService{onToken: func(conn *websocket.Conn) {
		_ = conn.WriteJSON(remote.Message{Type: remote.MessageError, Message: "corrupt package"})
	}}
	srv := svc.start(t)
	eng := newEngine(t, srv)

	s, err := eng.CreateSession(context.Background(), surface.NewNode(), editor.SessionOptions{ResourceID: "r"})
	require.NoError(t, err)
	defer s.Destroy()

	got := make(chan string, 1)
	s.On(editor.EventError, func(p editor.EventPayload) { got <- p.Message })
	require.NoError(t, s.SetToken("tok", time.Time{}))

	select {
	case msg := <-got:
		assert.Equal(t, "corrupt package", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
}

func TestEngine_ConnectionLossRaisesEvent(t *testing.T) {
	svc := &fakeService{onToken: func(conn *websocket.Conn) { _ = conn.Close() }}
	srv := svc.start(t)
	eng := newEngine(t, srv)

	s, err := eng.CreateSession(context.Background(), surface.NewNode(), editor.SessionOptions{ResourceID: "r"})
	require.NoError(t, err)

	got := make(chan string, 1)
	unsubscribe := s.On(editor.EventError, func(p editor.EventPayload) { got <- p.Message })
	defer unsubscribe()
	require.NoError(t, s.SetToken("tok", time.Time{}))

	select {
	case msg := <-got:
		assert.Contains(t, msg, "editor connection lost")
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
	assert.NoError(t, s.Destroy())
}

func TestEngine_WithManager(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	svc := &fakeService{onToken: func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
		render(conn,
			`<div class="chrome"></div>`,
			`<iframe src="https://editor.example/view/s-1"></iframe>`,
			`<div class="pages"></div>`,
		)
	}}
	srv := svc.start(t)
	eng := newEngine(t, srv)
	node := surface.NewNode()

	mgr := editor.NewManager(eng, editor.Config{MinConfirmations: 3, ReadinessTimeout: 5 * time.Second}, logging.Nop())
	handle, readiness, err := mgr.Start(context.Background(), node, editor.StartRequest{
		ResourceID: "res-1", ResourceType: "docx", Token: "tok",
	})
	require.NoError(t, err)
	assert.False(t, readiness.ByTimeout)

	handle.Release()
	assert.Equal(t, 0, node.Len())
	require.Eventually(t, func() bool { return len(svc.deletedIDs()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestEngine_CreateSessionFailureMapsThroughManager(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sdk/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1"}`))
	})
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "license exhausted", http.StatusPaymentRequired)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv)
	mgr := editor.NewManager(eng, editor.DefaultConfig(), logging.Nop())

	_, _, err := mgr.Start(context.Background(), surface.NewNode(), editor.StartRequest{ResourceID: "r"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSessionCreate)
	assert.Contains(t, err.Error(), "license exhausted")
}
