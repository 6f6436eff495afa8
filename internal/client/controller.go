package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
)

// AppState is the whole user-visible state: who is logged in, the form
// fields, and the rows last rendered from the mirror. Transitions are pure
// functions so they can be unit-tested without any rendering surface.
type AppState struct {
	Identity domain.Identity
	LoggedIn bool
	Title    string
	URL      string
	Rows     []domain.Bookmark
}

func withIdentity(s AppState, ident domain.Identity) AppState {
	s.Identity = ident
	s.LoggedIn = true
	return s
}

func withRows(s AppState, rows []domain.Bookmark) AppState {
	s.Rows = rows
	return s
}

func withForm(s AppState, title, url string) AppState {
	s.Title = title
	s.URL = url
	return s
}

func formCleared(s AppState) AppState {
	s.Title = ""
	s.URL = ""
	return s
}

func loggedOut(AppState) AppState {
	return AppState{}
}

// Controller orchestrates the session, mirror and listener, and owns the
// event loop that turns change notifications into resyncs. Rapid
// notifications coalesce into one pending invalidation; a periodic resync
// covers the window where the feed connection silently failed.
type Controller struct {
	session     *Session
	mirror      *Mirror
	listener    *Listener
	logger      logger.Logger
	resyncEvery time.Duration

	invalidate chan struct{}
	trigger    chan struct{}
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu     sync.RWMutex
	state  AppState
	render func(AppState)
}

// NewController wires the core components together. resyncEvery bounds how
// stale the view can get when no notifications arrive.
func NewController(session *Session, mirror *Mirror, listener *Listener, log logger.Logger, resyncEvery time.Duration) *Controller {
	return &Controller{
		session:     session,
		mirror:      mirror,
		listener:    listener,
		logger:      log,
		resyncEvery: resyncEvery,
		invalidate:  make(chan struct{}, 1),
		trigger:     make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

// OnRender registers a callback invoked whenever the visible state changes.
func (c *Controller) OnRender(fn func(AppState)) {
	c.mu.Lock()
	c.render = fn
	c.mu.Unlock()
}

// Start acquires the identity and brings the mirror and listener up for it.
// A missing or failed identity leaves the controller in the logged-out
// state; a subscription failure is swallowed and the periodic resync keeps
// the view from freezing entirely.
func (c *Controller) Start(ctx context.Context) (domain.Identity, bool) {
	ident, ok := c.session.Current(ctx)
	if !ok {
		return domain.Identity{}, false
	}

	c.apply(func(s AppState) AppState { return withIdentity(s, ident) })

	c.mirror.Bind(ident)
	if err := c.mirror.Resync(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.logger.Warn("initial resync failed",
			logger.Error(err))
	}
	c.apply(func(s AppState) AppState { return withRows(s, c.mirror.Rows()) })

	if err := c.listener.Subscribe(ctx, ident, c.notify); err != nil {
		c.logger.Warn("change feed subscription failed, relying on periodic resync",
			logger.Error(err))
	}

	return ident, true
}

// Run processes invalidation events until Stop is called or the context
// ends. Each event triggers one full resync and re-render.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.resyncEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.invalidate:
			c.resyncAndRender(ctx)
		case <-c.trigger:
			c.logger.Debug("manual resync triggered")
			c.resyncAndRender(ctx)
		case <-ticker.C:
			if _, ok := c.session.Identity(); ok {
				c.resyncAndRender(ctx)
			}
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends the event loop. Safe to call more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// TriggerResync requests an immediate refresh outside the notification path.
func (c *Controller) TriggerResync() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// notify is the listener callback: coalesce into one pending invalidation.
func (c *Controller) notify() {
	select {
	case c.invalidate <- struct{}{}:
	default:
	}
}

func (c *Controller) resyncAndRender(ctx context.Context) {
	if err := c.mirror.Resync(ctx); err != nil {
		if !errors.Is(err, ErrStale) && !errors.Is(err, ErrNoIdentity) {
			c.logger.Warn("resync failed, keeping last known rows",
				logger.Error(err))
		}
		return
	}
	c.apply(func(s AppState) AppState { return withRows(s, c.mirror.Rows()) })
}

// SetForm records the pending input fields.
func (c *Controller) SetForm(title, url string) {
	c.apply(func(s AppState) AppState { return withForm(s, title, url) })
}

// AddBookmark submits the form. A blank field or a missing identity makes
// it a no-op; a write failure keeps the form contents so the user can retry.
func (c *Controller) AddBookmark(ctx context.Context) {
	c.mu.RLock()
	s := c.state
	c.mu.RUnlock()

	if !s.LoggedIn || s.Title == "" || s.URL == "" {
		return
	}

	draft := domain.Draft{Title: s.Title, URL: s.URL}
	if err := c.mirror.Insert(ctx, draft); err != nil {
		c.logger.Warn("bookmark insert failed, form retained",
			logger.Error(err))
		return
	}
	c.apply(formCleared)
}

// DeleteBookmark requests removal of one row. The row disappears from the
// view only once the change notification round-trips; a failure leaves it
// in place with no further handling.
func (c *Controller) DeleteBookmark(ctx context.Context, id string) {
	if _, ok := c.session.Identity(); !ok {
		return
	}
	if err := c.mirror.Remove(ctx, id); err != nil {
		c.logger.Warn("bookmark delete failed",
			logger.String("id", id),
			logger.Error(err))
	}
}

// Logout tears the subscription down, revokes the session and empties all
// local state. Always succeeds from the caller's point of view.
func (c *Controller) Logout(ctx context.Context) {
	c.listener.Unsubscribe()
	c.session.Logout(ctx)
	c.mirror.Clear()
	c.apply(loggedOut)
}

// State returns a snapshot of the visible state.
func (c *Controller) State() AppState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	s.Rows = make([]domain.Bookmark, len(c.state.Rows))
	copy(s.Rows, c.state.Rows)
	return s
}

func (c *Controller) apply(fn func(AppState) AppState) {
	c.mu.Lock()
	c.state = fn(c.state)
	s := c.state
	render := c.render
	c.mu.Unlock()

	if render != nil {
		render(s)
	}
}
