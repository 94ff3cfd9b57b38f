package routes

import (
	"github.com/dukerupert/lojas/internal/handler/api"
	"github.com/dukerupert/lojas/internal/middleware"
)

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	StoreHandler *api.StoreHandler

	// Metrics exposes /metrics when set
	Metrics *middleware.Metrics
}
