package client

import (
	"context"
	"errors"
	"sync"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
)

// Session tracks the authenticated identity for the lifetime of the process.
// An identity failure is indistinguishable from "not logged in": callers only
// ever see presence or absence.
type Session struct {
	mu       sync.RWMutex
	api      API
	logger   logger.Logger
	identity domain.Identity
	active   bool
}

// NewSession creates a session holder over the given API.
func NewSession(api API, log logger.Logger) *Session {
	return &Session{
		api:    api,
		logger: log,
	}
}

// Current queries the remote identity once and caches the answer. A failed or
// empty lookup means unauthenticated; no error state is surfaced.
func (s *Session) Current(ctx context.Context) (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return s.identity, true
	}

	ident, err := s.api.Me(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			s.logger.Warn("identity lookup failed",
				logger.Error(err))
		}
		return domain.Identity{}, false
	}
	if !ident.Valid() {
		return domain.Identity{}, false
	}

	s.identity = ident
	s.active = true
	return ident, true
}

// Identity returns the cached identity without touching the network.
func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.active
}

// Logout asks the server to revoke the session, then clears local identity
// state unconditionally. A failed remote revocation still logs the user out
// locally.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("remote logout failed, clearing local session anyway",
			logger.Error(err))
	}

	s.mu.Lock()
	s.identity = domain.Identity{}
	s.active = false
	s.mu.Unlock()
}
