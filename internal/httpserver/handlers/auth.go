package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
)

// stateTTL bounds how long an OAuth round-trip may take before the
// state value expires.
const stateTTL = 10 * time.Minute

type sessionResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Identity    domain.Identity `json:"identity"`
}

// Login redirects the caller to the chosen OAuth provider.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("provider")
		provider, ok := d.Providers.Get(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown provider")
			return
		}

		state := uuid.New().String()
		if err := d.Sessions.SaveState(r.Context(), state, provider.Name, stateTTL); err != nil {
			d.Logger.Error("saving oauth state failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not start login")
			return
		}

		http.Redirect(w, r, provider.OAuth.AuthCodeURL(state), http.StatusFound)
	}
}

// Callback completes the OAuth flow: code exchange, userinfo fetch,
// user upsert, session mint. The session token is returned as JSON so
// terminal clients can copy it.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		if state == "" || code == "" {
			writeError(w, http.StatusBadRequest, "missing state or code")
			return
		}

		providerName, err := d.Sessions.TakeState(r.Context(), state)
		if err != nil {
			d.Logger.Warn("oauth state rejected", logger.Error(err))
			writeError(w, http.StatusBadRequest, "invalid oauth state")
			return
		}
		provider, ok := d.Providers.Get(providerName)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown provider")
			return
		}

		oauthToken, err := provider.OAuth.Exchange(r.Context(), code)
		if err != nil {
			d.Logger.Warn("oauth code exchange failed",
				logger.String("provider", providerName),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, "code exchange failed")
			return
		}

		info, err := provider.FetchUserinfo(r.Context(), oauthToken)
		if err != nil {
			d.Logger.Warn("userinfo fetch failed",
				logger.String("provider", providerName),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, "userinfo fetch failed")
			return
		}

		ident, err := d.Users.UpsertUser(r.Context(), providerName, info.Subject(), info.Email)
		if err != nil {
			d.Logger.Error("user upsert failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		token, jti, expires, err := d.Tokens.Mint(ident)
		if err != nil {
			d.Logger.Error("minting session token failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		if err := d.Sessions.SaveSession(r.Context(), jti, ident.ID, d.SessionTTL); err != nil {
			d.Logger.Error("saving session failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		d.Logger.Info("user logged in",
			logger.String("provider", providerName),
			logger.String("user_id", ident.ID))

		writeJSON(w, http.StatusOK, sessionResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expires,
			Identity:    ident,
		})
	}
}

// Me reports the identity behind the bearer token.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no identity")
			return
		}
		writeJSON(w, http.StatusOK, ident)
	}
}

// Logout revokes the caller's session. Idempotent: logging out an
// already revoked session succeeds.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jti, ok := auth.SessionFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}
		if err := d.Sessions.DeleteSession(r.Context(), jti); err != nil {
			d.Logger.Error("revoking session failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
