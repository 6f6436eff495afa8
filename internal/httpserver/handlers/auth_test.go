package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/sources/providers"
)

// fakeProvider runs an OAuth provider: a token endpoint handing out a
// bearer token and a userinfo endpoint describing one user.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"provider-token","token_type":"bearer"}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sub":"sub-42","email":"alice@example.com"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func authDeps(t *testing.T, provider *httptest.Server) (deps.Deps, *fakeSessions, *fakeUsers) {
	t.Helper()

	t.Setenv("HANDLERTEST_CLIENT_ID", "client-id")
	t.Setenv("HANDLERTEST_CLIENT_SECRET", "client-secret")

	registry, err := providers.Map(providers.Config{
		Providers: []providers.ProviderEntry{{
			Name:            "testprov",
			AuthURL:         provider.URL + "/authorize",
			TokenURL:        provider.URL + "/token",
			UserinfoURL:     provider.URL + "/userinfo",
			Scopes:          []string{"email"},
			ClientIDEnv:     "HANDLERTEST_CLIENT_ID",
			ClientSecretEnv: "HANDLERTEST_CLIENT_SECRET",
		}},
	}, "https://marklet.example.com")
	if err != nil {
		t.Fatalf("failed to build provider registry: %v", err)
	}

	sessions := newFakeSessions()
	users := &fakeUsers{}
	d := deps.Deps{
		Logger:     logger.NewNop(),
		Sessions:   sessions,
		Users:      users,
		Providers:  registry,
		Tokens:     auth.NewTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour),
		SessionTTL: time.Hour,
	}
	return d, sessions, users
}

func TestLoginRedirectsToProvider(t *testing.T) {
	provider := fakeProvider(t)
	d, sessions, _ := authDeps(t, provider)

	rec := httptest.NewRecorder()
	Login(d)(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login?provider=testprov", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	if !strings.HasPrefix(loc.String(), provider.URL+"/authorize") {
		t.Errorf("redirect = %s, want the provider's authorize URL", loc)
	}

	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("redirect carries no state parameter")
	}
	if got := sessions.states[state]; got != "testprov" {
		t.Errorf("stored state maps to %q, want testprov", got)
	}
}

func TestLoginUnknownProvider(t *testing.T) {
	d, _, _ := authDeps(t, fakeProvider(t))

	rec := httptest.NewRecorder()
	Login(d)(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login?provider=nope", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCallbackCompletesLogin(t *testing.T) {
	provider := fakeProvider(t)
	d, sessions, _ := authDeps(t, provider)

	sessions.states["state-1"] = "testprov"

	rec := httptest.NewRecorder()
	Callback(d)(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?state=state-1&code=code-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp struct {
		AccessToken string          `json:"access_token"`
		TokenType   string          `json:"token_type"`
		Identity    domain.Identity `json:"identity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" {
		t.Errorf("token response = %+v, want a Bearer token", resp)
	}
	if resp.Identity.Email != "alice@example.com" {
		t.Errorf("identity = %+v, want the provider's user", resp.Identity)
	}

	// The minted token must resolve to an active session.
	claims, err := d.Tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if active, _ := sessions.IsActive(context.Background(), claims.ID); !active {
		t.Error("session for the minted token is not active")
	}

	// State is single-use.
	rec = httptest.NewRecorder()
	Callback(d)(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?state=state-1&code=code-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed state status = %d, want 400", rec.Code)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	d, _, _ := authDeps(t, fakeProvider(t))

	rec := httptest.NewRecorder()
	Callback(d)(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?state=forged&code=c", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMe(t *testing.T) {
	d, _, _ := authDeps(t, fakeProvider(t))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/me", nil), testIdent, "jti1")
	rec := httptest.NewRecorder()
	Me(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ident domain.Identity
	if err := json.NewDecoder(rec.Body).Decode(&ident); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if ident.ID != testIdent.ID || ident.Email != testIdent.Email {
		t.Errorf("identity = %+v, want %+v", ident, testIdent)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	d, sessions, _ := authDeps(t, fakeProvider(t))
	sessions.active["jti1"] = testIdent.ID

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), testIdent, "jti1")
	rec := httptest.NewRecorder()
	Logout(d)(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if active, _ := sessions.IsActive(context.Background(), "jti1"); active {
		t.Error("session still active after logout")
	}

	// Revoking again is fine.
	rec = httptest.NewRecorder()
	Logout(d)(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), testIdent, "jti1"))
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeated logout status = %d, want 204", rec.Code)
	}
}
