package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/store/sqlite"
)

type fakeBookmarks struct {
	mu   sync.Mutex
	rows map[string]domain.Bookmark // id -> row
	fail error
}

func newFakeBookmarks() *fakeBookmarks {
	return &fakeBookmarks{rows: make(map[string]domain.Bookmark)}
}

func (f *fakeBookmarks) ListBookmarks(_ context.Context, ownerID string) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var out []domain.Bookmark
	for _, row := range f.rows {
		if row.OwnerID == ownerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeBookmarks) InsertBookmark(_ context.Context, ownerID string, draft domain.Draft) (domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return domain.Bookmark{}, f.fail
	}
	row := domain.Bookmark{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		URL:       draft.URL,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeBookmarks) DeleteBookmark(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	row, ok := f.rows[id]
	if !ok || row.OwnerID != ownerID {
		return sqlite.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeUsers struct {
	ident domain.Identity
}

func (f *fakeUsers) UpsertUser(_ context.Context, provider, subject, email string) (domain.Identity, error) {
	f.ident = domain.Identity{ID: provider + ":" + subject, Email: email}
	return f.ident, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (domain.Identity, error) {
	if f.ident.ID != id {
		return domain.Identity{}, sqlite.ErrNotFound
	}
	return f.ident, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	active   map[string]string // jti -> userID
	states   map[string]string // state -> provider
	saveErr  error
	stateErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		active: make(map[string]string),
		states: make(map[string]string),
	}
}

func (f *fakeSessions) SaveSession(_ context.Context, jti, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.active[jti] = userID
	return nil
}

func (f *fakeSessions) IsActive(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[jti]
	return ok, nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, jti)
	return nil
}

func (f *fakeSessions) SaveState(_ context.Context, state, provider string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return f.stateErr
	}
	f.states[state] = provider
	return nil
}

func (f *fakeSessions) TakeState(_ context.Context, state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider, ok := f.states[state]
	if !ok {
		return "", fmt.Errorf("unknown or expired state")
	}
	delete(f.states, state)
	return provider, nil
}

type publishedChange struct {
	ownerID string
	op      string
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []publishedChange
	fail    error
}

func (f *fakePublisher) BookmarksChanged(_ context.Context, ownerID, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.changes = append(f.changes, publishedChange{ownerID: ownerID, op: op})
	return nil
}

func (f *fakePublisher) published() []publishedChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedChange, len(f.changes))
	copy(out, f.changes)
	return out
}

// withIdentity injects an authenticated session, standing in for the
// bearer-token middleware.
func withIdentity(r *http.Request, ident domain.Identity, jti string) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), ident, jti))
}
