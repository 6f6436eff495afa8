package auth

import (
	"context"

	"github.com/marklet/marklet/internal/domain"
)

type contextKey int

const (
	identityKey contextKey = iota
	sessionKey
)

// WithSession stores the authenticated identity and its session id on
// the context.
func WithSession(ctx context.Context, ident domain.Identity, jti string) context.Context {
	ctx = context.WithValue(ctx, identityKey, ident)
	return context.WithValue(ctx, sessionKey, jti)
}

// IdentityFrom extracts the authenticated identity from the context.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(domain.Identity)
	return ident, ok && ident.Valid()
}

// SessionFrom extracts the session id (jti) from the context.
func SessionFrom(ctx context.Context) (string, bool) {
	jti, ok := ctx.Value(sessionKey).(string)
	return jti, ok && jti != ""
}
