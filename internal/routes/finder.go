package routes

import (
	"net/http"

	"github.com/dukerupert/cepfinder/internal/handler"
	"github.com/dukerupert/cepfinder/internal/router"
)

// RegisterFinderRoutes registers the finder page and its JSON API.
func RegisterFinderRoutes(r *router.Router, deps FinderDeps) {
	r.Get("/{$}", deps.Handler.Page)

	api := r.Group(deps.APIMiddleware...)
	api.Get("/api/cep/state", deps.Handler.State)
	api.Post("/api/cep/input", deps.Handler.Input)
	api.Post("/api/cep/search", deps.Handler.Search)
	api.Post("/api/cep/sync", deps.Handler.Sync)
	api.Post("/api/cep/clear", deps.Handler.Clear)
	api.Post("/api/cep/status", deps.Handler.Status)

	r.Handle("", "/", http.HandlerFunc(handler.NotFoundResponse))
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health)
	if deps.Metrics != nil {
		r.Handle("GET", "/metrics", deps.Metrics)
	}
}
