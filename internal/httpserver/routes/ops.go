package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/httpserver/handlers"
	"github.com/marklet/marklet/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	onlyOps := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)

	r.With(onlyOps).Get("/healthz", handlers.Healthz(d))
	r.With(onlyOps).Get("/readyz", handlers.Readyz(d))
	r.With(onlyOps, mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/infra", handlers.Infra(d))
}
