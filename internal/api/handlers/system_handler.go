package handlers

import (
	"net/http"
	"time"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

// UsageReporter exposes the external API usage counters
type UsageReporter interface {
	Snapshot() entities.UsageCounters
}

// AppInfo is the startup configuration exposed to the UI
type AppInfo struct {
	Title         string
	Environment   string
	DefaultCenter entities.LatLng
	DefaultRadius int
	APITimeoutMs  int
	MapsEnabled   bool
}

// IsDevelopment reports whether the app runs in development mode
func (a AppInfo) IsDevelopment() bool {
	return a.Environment == "development"
}

// Cache kinds accepted by CacheLookup
const (
	CacheKindDetails  = "details"
	CacheKindAnalysis = "analysis"
)

// SystemHandler serves health, config, usage, cache and debug endpoints
type SystemHandler struct {
	info     AppInfo
	search   RestaurantSearcher
	analyzer Analyzer
	usage    UsageReporter
	started  time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(info AppInfo, search RestaurantSearcher, analyzer Analyzer, usage UsageReporter) *SystemHandler {
	return &SystemHandler{
		info:     info,
		search:   search,
		analyzer: analyzer,
		usage:    usage,
		started:  time.Now(),
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

// Config handles GET /api/config
func (h *SystemHandler) Config(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"app_title":      h.info.Title,
		"default_center": h.info.DefaultCenter,
		"default_radius": h.info.DefaultRadius,
		"is_development": h.info.IsDevelopment(),
		"api_timeout_ms": h.info.APITimeoutMs,
		"features": map[string]bool{
			"maps":        h.info.MapsEnabled,
			"ai_analysis": h.analyzer.GeneratorReady(),
		},
	})
}

// Usage handles GET /api/usage
func (h *SystemHandler) Usage(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.usage.Snapshot())
}

// CacheLookup handles GET /api/cache/{kind}/{id}. It never triggers a fetch.
func (h *SystemHandler) CacheLookup(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	var (
		value interface{}
		found bool
	)
	switch kind {
	case CacheKindDetails:
		value, found = h.search.CachedDetails(r.Context(), placeID)
	case CacheKindAnalysis:
		value, found = h.analyzer.CachedAnalysis(r.Context(), placeID)
	default:
		respondWithError(w, http.StatusBadRequest, "cache kind must be details or analysis")
		return
	}

	if !found {
		respondWithError(w, http.StatusNotFound, "no cached "+kind+" for place")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"kind":     kind,
		"place_id": placeID,
		"value":    value,
	})
}

// Debug handles GET /api/debug
func (h *SystemHandler) Debug(w http.ResponseWriter, r *http.Request) {
	state := h.search.State()
	state.AnalysisCacheSize = h.analyzer.CacheSize()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"environment":  h.info.Environment,
		"maps_enabled": h.info.MapsEnabled,
		"gemini_ready": h.analyzer.GeneratorReady(),
		"usage":        h.usage.Snapshot(),
		"result_count": len(state.RestaurantResults),
		"last_search":  state.LastSearchLocation,
		"last_query":   state.LastSearchQuery,
		"search":       state,
	})
}
