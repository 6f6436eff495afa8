package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/marklet/marklet/internal/logger"
)

// SessionChecker reports whether a session id is still active. Logout
// revokes sessions server-side, so a syntactically valid token is not
// enough on its own.
type SessionChecker interface {
	IsActive(ctx context.Context, jti string) (bool, error)
}

// Require returns a middleware that rejects requests without a valid,
// unrevoked bearer token and otherwise attaches the identity to the
// request context.
func Require(tokens *Tokens, sessions SessionChecker, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				log.Debug("rejected token", logger.Error(err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			active, err := sessions.IsActive(r.Context(), claims.ID)
			if err != nil {
				log.Error("session lookup failed", logger.Error(err))
				http.Error(w, "session lookup failed", http.StatusInternalServerError)
				return
			}
			if !active {
				http.Error(w, "session revoked", http.StatusUnauthorized)
				return
			}

			ctx := WithSession(r.Context(), claims.Identity(), claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header, or
// from the access_token query parameter as a fallback for websocket
// clients that cannot set headers.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}
