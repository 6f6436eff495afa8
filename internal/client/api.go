package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/utils"
)

// ErrUnauthenticated is returned when the server rejects the bearer token.
var ErrUnauthenticated = errors.New("not authenticated")

// API is the remote contract the core components depend on. The concrete
// implementation talks to a marklet server; tests substitute fakes.
type API interface {
	Me(ctx context.Context) (domain.Identity, error)
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)
	InsertBookmark(ctx context.Context, draft domain.Draft) (domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

// HTTPAPI implements API against a marklet server over HTTP.
type HTTPAPI struct {
	endpoint string // base URL, no trailing slash
	token    string
	client   *http.Client
}

// NewHTTPAPI creates an API client for the given server endpoint. The token
// may be empty; unauthenticated calls will fail with ErrUnauthenticated.
func NewHTTPAPI(endpoint, token string) *HTTPAPI {
	return &HTTPAPI{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// LoginURL returns the browser entry point for the OAuth flow. The redirect
// itself happens outside this process.
func (a *HTTPAPI) LoginURL(provider string) string {
	return a.endpoint + "/api/auth/login?provider=" + url.QueryEscape(provider)
}

// EventsURL returns the websocket endpoint for the change feed, with the
// bearer token carried as a query parameter (websocket clients cannot
// reliably set headers through every intermediary).
func (a *HTTPAPI) EventsURL() string {
	wsBase := a.endpoint
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}
	return wsBase + "/api/events?access_token=" + url.QueryEscape(a.token)
}

func (a *HTTPAPI) Me(ctx context.Context) (domain.Identity, error) {
	var ident domain.Identity
	if err := a.do(ctx, http.MethodGet, "/api/me", nil, &ident); err != nil {
		return domain.Identity{}, err
	}
	return ident, nil
}

func (a *HTTPAPI) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	var rows []domain.Bookmark
	if err := a.do(ctx, http.MethodGet, "/api/bookmarks", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (a *HTTPAPI) InsertBookmark(ctx context.Context, draft domain.Draft) (domain.Bookmark, error) {
	var row domain.Bookmark
	if err := a.do(ctx, http.MethodPost, "/api/bookmarks", draft, &row); err != nil {
		return domain.Bookmark{}, err
	}
	return row, nil
}

func (a *HTTPAPI) DeleteBookmark(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/bookmarks/"+url.PathEscape(id), nil, nil)
}

func (a *HTTPAPI) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil and the server returned a body).
func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: %s", method, path, serverError(resp.Body, resp.StatusCode))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// serverError extracts the {"error": ...} message the server writes, falling
// back to the status code.
func serverError(body io.Reader, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(status)
}
