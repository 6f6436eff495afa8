package client

import (
	"context"
	"errors"
	"sync"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
)

// ErrStale marks a resync result that arrived after a newer result was
// applied, or after the identity it was issued for stopped being current.
// Stale results are discarded without touching the mirror.
var ErrStale = errors.New("stale resync result discarded")

// ErrNoIdentity is returned by mirror operations issued without a bound
// identity.
var ErrNoIdentity = errors.New("no identity bound")

// Mirror caches the remote bookmark collection for one identity, ordered
// newest first. It is not authoritative: contents reflect the last
// successful resync, and every change notification triggers a full
// replace-all refresh rather than an incremental patch.
//
// Overlapping resyncs are fenced by a per-call sequence number so that an
// out-of-order response can never overwrite a newer one, and every result
// is checked against the currently bound identity before it is applied.
type Mirror struct {
	mu       sync.RWMutex
	api      API
	logger   logger.Logger
	identity domain.Identity
	bound    bool
	rows     []domain.Bookmark
	seq      uint64 // last sequence handed out
	applied  uint64 // highest sequence applied so far
}

// NewMirror creates an empty mirror over the given API.
func NewMirror(api API, log logger.Logger) *Mirror {
	return &Mirror{
		api:    api,
		logger: log,
	}
}

// Bind scopes the mirror to an identity. Any resync still in flight for a
// previous identity is fenced off and will be discarded on completion.
func (m *Mirror) Bind(ident domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = ident
	m.bound = true
	m.rows = nil
	m.applied = m.seq
}

// Resync fetches all rows for the bound identity and replaces the mirror's
// contents. Safe to call concurrently with itself: the highest-sequenced
// response to complete wins, and earlier responses return ErrStale. On a
// fetch failure the mirror is left unchanged.
func (m *Mirror) Resync(ctx context.Context) error {
	m.mu.Lock()
	if !m.bound {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	ident := m.identity
	m.seq++
	n := m.seq
	m.mu.Unlock()

	rows, err := m.api.ListBookmarks(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bound || m.identity.ID != ident.ID {
		return ErrStale
	}
	if n <= m.applied {
		return ErrStale
	}
	m.applied = n
	m.rows = rows
	return nil
}

// Insert sends a create request for the draft. The mirror itself is not
// touched: the new row arrives through the change feed (or a later resync).
func (m *Mirror) Insert(ctx context.Context, draft domain.Draft) error {
	if _, ok := m.boundIdentity(); !ok {
		return ErrNoIdentity
	}
	if _, err := m.api.InsertBookmark(ctx, draft); err != nil {
		return err
	}
	return nil
}

// Remove sends a delete request for the given id, without locally removing
// the row. Same refresh path as Insert.
func (m *Mirror) Remove(ctx context.Context, id string) error {
	if _, ok := m.boundIdentity(); !ok {
		return ErrNoIdentity
	}
	return m.api.DeleteBookmark(ctx, id)
}

// Clear empties the mirror and unbinds the identity. In-flight resyncs are
// fenced off so their completion cannot repopulate a logged-out view.
func (m *Mirror) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = nil
	m.identity = domain.Identity{}
	m.bound = false
	m.applied = m.seq
}

// Rows returns a copy of the mirror's current contents.
func (m *Mirror) Rows() []domain.Bookmark {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]domain.Bookmark, len(m.rows))
	copy(rows, m.rows)
	return rows
}

// Len returns the number of cached rows.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Mirror) boundIdentity() (domain.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.bound
}
