package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/shared"
	"github.com/gorilla/websocket"
)

type fakeEngine struct {
	mu      sync.Mutex
	updates []engine.ConfigUpdate
	err     error
	snap    engine.Snapshot
}

func (f *fakeEngine) Update(u engine.ConfigUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakeEngine) Status(ctx context.Context) (engine.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeEngine) Updates() []engine.ConfigUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.ConfigUpdate(nil), f.updates...)
}

func newTestServer(t *testing.T, eng Engine, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(eng, hub, shared.NewLogger(io.Discard)))
	t.Cleanup(srv.Close)
	return srv
}

func TestBasicRouter(t *testing.T) {
	t.Run("rejects other methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("lists routes", func(t *testing.T) {
		r := New(&fakeEngine{}, NewHub(), shared.NewLogger(io.Discard))
		got := strings.Join(r.Routes(), ",")
		if got != "POST /config,GET /status,/ws" {
			t.Errorf("unexpected routes %s", got)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("recovers from panics", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recover(shared.NewLogger(io.Discard)))
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestConfigHandler(t *testing.T) {
	t.Run("accepts partial config", func(t *testing.T) {
		eng := &fakeEngine{}
		srv := newTestServer(t, eng, nil)

		resp, err := http.Post(srv.URL+"/config", "application/json", strings.NewReader(`{"quality":"720p"}`))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()

		var reply Reply
		json.NewDecoder(resp.Body).Decode(&reply)
		if resp.StatusCode != http.StatusOK || reply.Status != "ok" {
			t.Fatalf("unexpected response %d %+v", resp.StatusCode, reply)
		}

		updates := eng.Updates()
		if len(updates) != 1 || updates[0].Quality == nil || *updates[0].Quality != "720p" || updates[0].Enabled != nil {
			t.Errorf("unexpected updates %+v", updates)
		}
	})

	t.Run("rejects unknown quality", func(t *testing.T) {
		eng := &fakeEngine{}
		srv := newTestServer(t, eng, nil)

		resp, err := http.Post(srv.URL+"/config", "application/json", strings.NewReader(`{"quality":"8k"}`))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
		if len(eng.Updates()) != 0 {
			t.Error("engine must not be updated")
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		srv := newTestServer(t, &fakeEngine{}, nil)

		resp, err := http.Post(srv.URL+"/config", "application/json", strings.NewReader(`{`))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("engine not running", func(t *testing.T) {
		srv := newTestServer(t, &fakeEngine{err: shared.ErrEngineNotRunning}, nil)

		resp, err := http.Post(srv.URL+"/config", "application/json", strings.NewReader(`{"enabled":false}`))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", resp.StatusCode)
		}
	})
}

func TestStatusHandler(t *testing.T) {
	eng := &fakeEngine{snap: engine.Snapshot{Enabled: true, Quality: "1080p", VideoID: "V1", State: "settled"}}
	srv := newTestServer(t, eng, nil)

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var snap engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.VideoID != "V1" || snap.State != "settled" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func TestWSHandler(t *testing.T) {
	t.Run("init message is acknowledged", func(t *testing.T) {
		eng := &fakeEngine{}
		conn := dialWS(t, newTestServer(t, eng, nil))

		msg := `{"action":"init","config":{"enabled":true,"quality":"1440p","debug":false}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}

		var reply Reply
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		if reply.Status != "ok" {
			t.Fatalf("unexpected reply %+v", reply)
		}

		updates := eng.Updates()
		if len(updates) != 1 || *updates[0].Quality != "1440p" || *updates[0].Debug {
			t.Errorf("unexpected updates %+v", updates)
		}
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		eng := &fakeEngine{}
		conn := dialWS(t, newTestServer(t, eng, nil))

		conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"reload"}`))

		var reply Reply
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		if reply.Status != "error" {
			t.Errorf("expected error reply, got %+v", reply)
		}
		if len(eng.Updates()) != 0 {
			t.Error("engine must not be updated")
		}
	})

	t.Run("streams engine events", func(t *testing.T) {
		hub := NewHub()
		conn := dialWS(t, newTestServer(t, &fakeEngine{}, hub))

		deadline := time.Now().Add(2 * time.Second)
		for hub.Len() == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		hub.Broadcast(engine.Event{Phase: engine.PhaseSettled, VideoID: "V1", Quality: "hd1080"})

		var msg struct {
			Event struct {
				Phase   string `json:"phase"`
				VideoID string `json:"videoId"`
			} `json:"event"`
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Event.Phase != "settled" || msg.Event.VideoID != "V1" {
			t.Errorf("unexpected event %+v", msg)
		}
	})
}

func TestHub(t *testing.T) {
	hub := NewHub()
	events, leave := hub.Subscribe()

	hub.Broadcast(engine.Event{Phase: engine.PhaseConfig})
	if ev := <-events; ev.Phase != engine.PhaseConfig {
		t.Errorf("unexpected event %+v", ev)
	}

	for range 100 {
		hub.Broadcast(engine.Event{})
	}

	leave()
	leave()
	if hub.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", hub.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	src := make(chan engine.Event)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, src)
		close(done)
	}()
	cancel()
	<-done
}
