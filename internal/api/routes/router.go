package routes

import (
	"net/http"

	"github.com/zatekoja/restaurantfinder/backend/internal/api/handlers"
	"github.com/zatekoja/restaurantfinder/backend/internal/api/middleware"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	restaurantHandler *handlers.RestaurantHandler
	analysisHandler   *handlers.AnalysisHandler
	systemHandler     *handlers.SystemHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	restaurantHandler *handlers.RestaurantHandler,
	analysisHandler *handlers.AnalysisHandler,
	systemHandler *handlers.SystemHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		restaurantHandler: restaurantHandler,
		analysisHandler:   analysisHandler,
		systemHandler:     systemHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.systemHandler.Health)
	r.mux.HandleFunc("GET /api/config", r.systemHandler.Config)

	// Restaurant endpoints
	r.mux.HandleFunc("GET /api/restaurants/nearby", r.restaurantHandler.SearchNearby)
	r.mux.HandleFunc("GET /api/restaurants/search", r.restaurantHandler.SearchLocation)
	r.mux.HandleFunc("GET /api/restaurants/{id}", r.restaurantHandler.GetRestaurant)
	r.mux.HandleFunc("GET /api/restaurants/{id}/reviews", r.restaurantHandler.GetReviews)

	// Analysis endpoints
	r.mux.HandleFunc("POST /api/restaurants/{id}/analysis", r.analysisHandler.AnalyzeRestaurant)
	r.mux.HandleFunc("GET /api/restaurants/{id}/analysis/stream", r.analysisHandler.StreamAnalysis)

	// State endpoints
	r.mux.HandleFunc("GET /api/cache/{kind}/{id}", r.systemHandler.CacheLookup)
	r.mux.HandleFunc("GET /api/usage", r.systemHandler.Usage)
	r.mux.HandleFunc("GET /api/debug", r.systemHandler.Debug)

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability sits directly on the mux so it can read the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
