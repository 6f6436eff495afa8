package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/httpserver/handlers"
	"github.com/marklet/marklet/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	requireAuth := auth.Require(d.Tokens, d.Sessions, d.Logger)
	writeLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.WriteBurst,
		RefillPerMin: d.WriteRefillPerMin,
		TrustProxy:   d.TrustProxy,
	})

	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), requireAuth).Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.With(writeLimit).Post("/", handlers.CreateBookmark(d))
		r.With(writeLimit).Delete("/{id}", handlers.DeleteBookmark(d))
	})
}
