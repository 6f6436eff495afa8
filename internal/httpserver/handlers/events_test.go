package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marklet/marklet/internal/feed"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
)

func dialEvents(t *testing.T, hub *feed.Hub) *websocket.Conn {
	t.Helper()

	d := deps.Deps{Logger: logger.NewNop(), Hub: hub}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Events(d)(w, withIdentity(r, testIdent, "jti1"))
	}))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("failed to dial events endpoint: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestEventsStreamsOwnerChanges(t *testing.T) {
	hub := feed.NewHub(logger.NewNop())
	defer hub.Close()

	conn := dialEvents(t, hub)

	// The subscription registers asynchronously with the upgrade.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(testIdent.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("events handler never subscribed to the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Dispatch(feed.Event{Table: "bookmarks", OwnerID: testIdent.ID, Op: feed.OpInsert})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev feed.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if ev.OwnerID != testIdent.ID || ev.Op != feed.OpInsert {
		t.Errorf("event = %+v, want the dispatched insert", ev)
	}
}

func TestEventsDoesNotLeakForeignChanges(t *testing.T) {
	hub := feed.NewHub(logger.NewNop())
	defer hub.Close()

	conn := dialEvents(t, hub)

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(testIdent.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("events handler never subscribed to the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Dispatch(feed.Event{Table: "bookmarks", OwnerID: "someone-else", Op: feed.OpInsert})

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev feed.Event
	if err := conn.ReadJSON(&ev); err == nil {
		t.Fatalf("received a foreign owner's event: %+v", ev)
	}
}

func TestEventsRequiresIdentity(t *testing.T) {
	d := deps.Deps{Logger: logger.NewNop(), Hub: feed.NewHub(logger.NewNop())}

	rec := httptest.NewRecorder()
	Events(d)(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
