package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/httpserver/handlers"
	"github.com/marklet/marklet/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	requireAuth := auth.Require(d.Tokens, d.Sessions, d.Logger)
	enforceHost := mw.EnforceHost(d.AllowedHosts, d.Logger)

	r.With(enforceHost).Route("/api/auth", func(r chi.Router) {
		r.Get("/login", handlers.Login(d))
		r.Get("/callback", handlers.Callback(d))
		r.With(requireAuth).Post("/logout", handlers.Logout(d))
	})
	r.With(enforceHost, requireAuth).Get("/api/me", handlers.Me(d))
}
