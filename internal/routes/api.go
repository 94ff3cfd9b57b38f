package routes

import (
	"github.com/dukerupert/lojas/internal/handler/api"
	"github.com/dukerupert/lojas/internal/router"
)

// RegisterAPIRoutes registers the store API plus the operational endpoints.
// Anything left unmatched answers with a JSON 404.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Health check and metrics (no auth; protect /metrics at the edge)
	r.Get("/health", api.Health)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler().ServeHTTP)
	}

	deps.StoreHandler.RegisterRoutes(r)

	r.NotFound(api.NotFound)
}
