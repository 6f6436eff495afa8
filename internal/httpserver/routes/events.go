package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/httpserver/handlers"
	"github.com/marklet/marklet/internal/httpserver/mw"
)

func init() { Register(registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	requireAuth := auth.Require(d.Tokens, d.Sessions, d.Logger)
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), requireAuth).Get("/api/events", handlers.Events(d))
}
