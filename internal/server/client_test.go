package server

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/shared"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Push delivers partial updates", func(t *testing.T) {
		eng := &fakeEngine{}
		srv := newTestServer(t, eng, NewHub())

		q := "720p"
		if err := NewClient(srv.URL, nil).Push(ctx, engine.ConfigUpdate{Quality: &q}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}

		updates := eng.Updates()
		if len(updates) != 1 || updates[0].Quality == nil || *updates[0].Quality != "720p" || updates[0].Enabled != nil {
			t.Errorf("unexpected updates %+v", updates)
		}
	})

	t.Run("Push surfaces rejections", func(t *testing.T) {
		srv := newTestServer(t, &fakeEngine{}, NewHub())

		q := "999p"
		err := NewClient(srv.URL, nil).Push(ctx, engine.ConfigUpdate{Quality: &q})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Status decodes snapshot", func(t *testing.T) {
		eng := &fakeEngine{snap: engine.Snapshot{Quality: "1440p", State: "settled", VideoID: "V1"}}
		srv := newTestServer(t, eng, NewHub())

		snap, err := NewClient(srv.URL, nil).Status(ctx)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if snap.Quality != "1440p" || snap.VideoID != "V1" || snap.State != "settled" {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("Status of stopped engine", func(t *testing.T) {
		srv := newTestServer(t, &fakeEngine{err: shared.ErrEngineNotRunning}, NewHub())

		if _, err := NewClient(srv.URL, nil).Status(ctx); !errors.Is(err, shared.ErrEngineNotRunning) {
			t.Errorf("expected ErrEngineNotRunning, got %v", err)
		}
	})

	t.Run("unreachable daemon", func(t *testing.T) {
		srv := newTestServer(t, &fakeEngine{}, NewHub())
		addr := srv.Listener.Addr().String()
		srv.Close()

		if err := NewClient(addr, nil).Push(ctx, engine.ConfigUpdate{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("NewClient normalizes address", func(t *testing.T) {
		if c := NewClient("127.0.0.1:7923/", nil); c.baseURL != "http://127.0.0.1:7923" {
			t.Errorf("unexpected base URL %s", c.baseURL)
		}
		if c := NewClient("https://x", nil); c.baseURL != "https://x" {
			t.Errorf("unexpected base URL %s", c.baseURL)
		}
	})
}
