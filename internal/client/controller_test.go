package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
)

func newTestController(t *testing.T, api *fakeAPI) (*Controller, *feedServer) {
	t.Helper()

	fs := newFeedServer(t)
	log := logger.NewNop()
	session := NewSession(api, log)
	mirror := NewMirror(api, log)
	listener := NewListener(fs.url(), log)

	c := NewController(session, mirror, listener, log, time.Hour)
	t.Cleanup(func() {
		c.Stop()
		listener.Unsubscribe()
	})
	return c, fs
}

// waitFor drains renders until the predicate holds or the test times out.
func waitFor(t *testing.T, renders chan AppState, desc string, pred func(AppState) bool) AppState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-renders:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", desc)
			return AppState{}
		}
	}
}

func TestControllerStartWithNoBookmarks(t *testing.T) {
	api := newFakeAPI(identA)
	c, fs := newTestController(t, api)

	ident, ok := c.Start(context.Background())
	if !ok || ident.ID != identA.ID {
		t.Fatalf("Start() = %v, %v, want %v, true", ident, ok, identA)
	}
	fs.accept(t)

	s := c.State()
	if !s.LoggedIn {
		t.Error("State().LoggedIn = false, want true")
	}
	if len(s.Rows) != 0 {
		t.Errorf("State().Rows = %v, want empty", s.Rows)
	}
}

func TestControllerStartUnauthenticated(t *testing.T) {
	api := newFakeAPI(identA)
	api.meFunc = func(context.Context) (domain.Identity, error) {
		return domain.Identity{}, ErrUnauthenticated
	}
	c, _ := newTestController(t, api)

	if _, ok := c.Start(context.Background()); ok {
		t.Fatal("Start() ok = true without a session, want false")
	}
	if s := c.State(); s.LoggedIn {
		t.Error("State().LoggedIn = true, want false")
	}
}

func TestControllerInsertRoundTrip(t *testing.T) {
	api := newFakeAPI(identA)
	c, fs := newTestController(t, api)

	renders := make(chan AppState, 32)
	c.OnRender(func(s AppState) { renders <- s })

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	conn := fs.accept(t)

	go c.Run(context.Background())

	c.SetForm("Example", "https://example.com")
	c.AddBookmark(context.Background())

	// The form clears on success, but the row only appears once the
	// change notification has round-tripped into a resync.
	s := c.State()
	if s.Title != "" || s.URL != "" {
		t.Errorf("form after successful insert = (%q, %q), want cleared", s.Title, s.URL)
	}

	fs.push(t, conn)
	s = waitFor(t, renders, "inserted row", func(s AppState) bool { return len(s.Rows) == 1 })
	if s.Rows[0].Title != "Example" || s.Rows[0].URL != "https://example.com" {
		t.Errorf("Rows[0] = %+v, want the inserted bookmark", s.Rows[0])
	}
}

func TestControllerNewestFirstOrdering(t *testing.T) {
	api := newFakeAPI(identA)
	c, fs := newTestController(t, api)

	renders := make(chan AppState, 32)
	c.OnRender(func(s AppState) { renders <- s })

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	fs.accept(t)
	go c.Run(context.Background())

	c.SetForm("A", "https://example.com/a")
	c.AddBookmark(context.Background())
	c.SetForm("B", "https://example.com/b")
	c.AddBookmark(context.Background())

	c.TriggerResync()
	s := waitFor(t, renders, "both rows", func(s AppState) bool { return len(s.Rows) == 2 })
	if s.Rows[0].Title != "B" || s.Rows[1].Title != "A" {
		t.Errorf("Rows order = [%s, %s], want [B, A]", s.Rows[0].Title, s.Rows[1].Title)
	}
}

func TestControllerDeleteRoundTrip(t *testing.T) {
	api := newFakeAPI(identA, bm("b1", "First"))
	c, fs := newTestController(t, api)

	renders := make(chan AppState, 32)
	c.OnRender(func(s AppState) { renders <- s })

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	conn := fs.accept(t)
	go c.Run(context.Background())

	if s := c.State(); len(s.Rows) != 1 {
		t.Fatalf("State().Rows = %v, want the seeded row", s.Rows)
	}

	c.DeleteBookmark(context.Background(), "b1")
	fs.push(t, conn)

	waitFor(t, renders, "row removal", func(s AppState) bool { return len(s.Rows) == 0 })
}

func TestControllerInsertFailureRetainsForm(t *testing.T) {
	api := newFakeAPI(identA)
	api.insertFunc = func(context.Context, domain.Draft) (domain.Bookmark, error) {
		return domain.Bookmark{}, fmt.Errorf("network down")
	}
	c, fs := newTestController(t, api)

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	fs.accept(t)

	c.SetForm("Example", "https://example.com")
	c.AddBookmark(context.Background())

	s := c.State()
	if s.Title != "Example" || s.URL != "https://example.com" {
		t.Errorf("form after failed insert = (%q, %q), want retained", s.Title, s.URL)
	}
	if len(s.Rows) != 0 {
		t.Errorf("Rows after failed insert = %v, want unchanged", s.Rows)
	}
}

func TestControllerAddIsNoopWithoutIdentityOrFields(t *testing.T) {
	api := newFakeAPI(identA)
	inserts := 0
	api.insertFunc = func(context.Context, domain.Draft) (domain.Bookmark, error) {
		inserts++
		return domain.Bookmark{}, nil
	}
	c, fs := newTestController(t, api)

	// Not logged in yet.
	c.SetForm("Example", "https://example.com")
	c.AddBookmark(context.Background())

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	fs.accept(t)

	// Logged in, but a blank field.
	c.SetForm("Example", "")
	c.AddBookmark(context.Background())
	c.SetForm("", "https://example.com")
	c.AddBookmark(context.Background())

	if inserts != 0 {
		t.Errorf("insert requests = %d, want 0", inserts)
	}
}

func TestControllerLogoutClearsEverything(t *testing.T) {
	api := newFakeAPI(identA, bm("b1", "First"))
	api.logoutErr = fmt.Errorf("revocation failed")
	c, fs := newTestController(t, api)

	if _, ok := c.Start(context.Background()); !ok {
		t.Fatal("Start() failed")
	}
	fs.accept(t)

	c.Logout(context.Background())

	s := c.State()
	if s.LoggedIn || len(s.Rows) != 0 || s.Title != "" || s.URL != "" {
		t.Errorf("State() after logout = %+v, want zero", s)
	}
	if got := c.mirror.Len(); got != 0 {
		t.Errorf("mirror rows after logout = %d, want 0", got)
	}
	if got := c.listener.State(); got != StateUnsubscribed {
		t.Errorf("listener state after logout = %v, want unsubscribed", got)
	}
}
