package routes

import (
	"net/http"

	"github.com/dukerupert/cepfinder/internal/handler/finder"
	"github.com/dukerupert/cepfinder/internal/router"
)

// FinderDeps contains dependencies for the finder page and API routes
type FinderDeps struct {
	Handler *finder.Handler

	// APIMiddleware wraps every /api/cep route (rate limiting, body limits).
	APIMiddleware []router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	// Health reports liveness.
	Health http.HandlerFunc

	// Metrics serves the Prometheus exposition. Nil leaves /metrics unregistered.
	Metrics http.Handler
}
