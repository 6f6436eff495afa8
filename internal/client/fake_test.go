package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marklet/marklet/internal/domain"
)

// fakeAPI emulates a marklet server: a rows slice kept newest-first, with
// overridable func fields for failure injection.
type fakeAPI struct {
	mu   sync.Mutex
	rows []domain.Bookmark

	meFunc     func(ctx context.Context) (domain.Identity, error)
	listFunc   func(ctx context.Context) ([]domain.Bookmark, error)
	insertFunc func(ctx context.Context, draft domain.Draft) (domain.Bookmark, error)
	deleteFunc func(ctx context.Context, id string) error
	logoutErr  error

	logoutCalls int
}

func newFakeAPI(ident domain.Identity, rows ...domain.Bookmark) *fakeAPI {
	f := &fakeAPI{rows: rows}
	f.meFunc = func(context.Context) (domain.Identity, error) {
		return ident, nil
	}
	return f
}

func (f *fakeAPI) Me(ctx context.Context) (domain.Identity, error) {
	return f.meFunc(ctx)
}

func (f *fakeAPI) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]domain.Bookmark, len(f.rows))
	copy(rows, f.rows)
	return rows, nil
}

func (f *fakeAPI) InsertBookmark(ctx context.Context, draft domain.Draft) (domain.Bookmark, error) {
	if f.insertFunc != nil {
		return f.insertFunc(ctx, draft)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := domain.Bookmark{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		URL:       draft.URL,
		OwnerID:   "u1",
		CreatedAt: time.Now().UTC(),
	}
	// Newest first, matching the server's list ordering.
	f.rows = append([]domain.Bookmark{row}, f.rows...)
	return row, nil
}

func (f *fakeAPI) DeleteBookmark(ctx context.Context, id string) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bookmark %s not found", id)
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}
