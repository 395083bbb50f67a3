package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

// Analyzer runs the review analysis pipeline
type Analyzer interface {
	AnalyzePlace(ctx context.Context, placeID string) (*entities.Place, *entities.AnalysisResult, error)
	StreamAnalysis(ctx context.Context, placeID string) (iter.Seq2[string, error], error)
	CachedAnalysis(ctx context.Context, placeID string) (*entities.AnalysisResult, bool)
	CacheSize() int
	GeneratorReady() bool
}

// AnalysisHandler handles AI review analysis requests
type AnalysisHandler struct {
	analyzer Analyzer
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeRestaurant handles POST /api/restaurants/{id}/analysis
func (h *AnalysisHandler) AnalyzeRestaurant(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	place, analysis, err := h.analyzer.AnalyzePlace(r.Context(), placeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if analysis == nil {
		respondWithError(w, http.StatusUnprocessableEntity, "place has no reviews to analyze")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"place_id":         placeID,
		"name":             place.Name,
		"review_count":     len(place.Reviews),
		"analysis":         analysis,
		"confidence_level": analysis.ConfidenceLevel(),
	})
}

// StreamAnalysis handles GET /api/restaurants/{id}/analysis/stream.
// Each model chunk is sent as a "chunk" event, followed by "done" or "error".
func (h *AnalysisHandler) StreamAnalysis(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	chunks, err := h.analyzer.StreamAnalysis(r.Context(), placeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := observability.LoggerFromContext(r.Context())
	count := 0
	for chunk, err := range chunks {
		if err != nil {
			logger.Error().Err(err).Str("place_id", placeID).Msg("analysis stream failed")
			sendEvent(w, "error", map[string]string{
				"error": err.Error(),
				"kind":  string(apperrors.TypeOf(err)),
			})
			flusher.Flush()
			return
		}
		count++
		sendEvent(w, "chunk", map[string]string{"text": chunk})
		flusher.Flush()
	}

	sendEvent(w, "done", map[string]interface{}{"place_id": placeID, "chunks": count})
	flusher.Flush()
}

// sendEvent writes one SSE event
func sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
