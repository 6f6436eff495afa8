package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/utils"
)

// State is the listener's position in its subscription lifecycle.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateActive
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	default:
		return "unsubscribed"
	}
}

// Listener holds at most one change-feed subscription, scoped to one
// identity. Each received event invokes the onChange callback with no
// payload; the callback's only job is to trigger a resync.
type Listener struct {
	mu       sync.Mutex
	dialer   *websocket.Dialer
	url      string
	logger   logger.Logger
	state    State
	identity domain.Identity
	conn     *websocket.Conn
	done     chan struct{}
}

// NewListener creates an unsubscribed listener for the given events URL.
func NewListener(url string, log logger.Logger) *Listener {
	return &Listener{
		dialer: websocket.DefaultDialer,
		url:    url,
		logger: log,
	}
}

// Subscribe connects the change feed for the given identity. Any prior
// subscription is torn down first; the listener never holds two
// registrations at once.
func (l *Listener) Subscribe(ctx context.Context, ident domain.Identity, onChange func()) error {
	l.Unsubscribe()

	l.mu.Lock()
	l.state = StateSubscribing
	l.mu.Unlock()

	conn, resp, err := l.dialer.DialContext(ctx, l.url, nil)
	if resp != nil && resp.Body != nil {
		utils.Close(resp.Body)
	}
	if err != nil {
		l.mu.Lock()
		l.state = StateUnsubscribed
		l.mu.Unlock()
		return err
	}

	done := make(chan struct{})

	l.mu.Lock()
	l.state = StateActive
	l.identity = ident
	l.conn = conn
	l.done = done
	l.mu.Unlock()

	l.logger.Debug("change feed subscribed",
		logger.String("identity", ident.ID))

	go l.readLoop(conn, done, onChange)
	return nil
}

// readLoop drains the connection until it closes. Event payloads are
// ignored: any message means "something changed for this owner".
func (l *Listener) readLoop(conn *websocket.Conn, done chan struct{}, onChange func()) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			l.detach(conn, err)
			return
		}
		select {
		case <-done:
			return
		default:
			onChange()
		}
	}
}

// detach records an unexpected connection loss. A loss is not retried here;
// the controller's periodic resync covers the gap until resubscription.
func (l *Listener) detach(conn *websocket.Conn, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != conn {
		// Already replaced or torn down by Unsubscribe.
		return
	}
	l.logger.Warn("change feed connection lost",
		logger.Error(err))
	_ = conn.Close()
	l.conn = nil
	l.identity = domain.Identity{}
	l.state = StateUnsubscribed
}

// Unsubscribe releases the subscription. Idempotent: calling it while
// already unsubscribed is a no-op.
func (l *Listener) Unsubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		close(l.done)
		deadline := time.Now().Add(time.Second)
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = l.conn.Close()
		l.conn = nil
		l.done = nil
	}
	l.identity = domain.Identity{}
	l.state = StateUnsubscribed
}

// State reports the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ActiveIdentity returns the identity the listener is subscribed for, when
// active.
func (l *Listener) ActiveIdentity() (domain.Identity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identity, l.state == StateActive
}
