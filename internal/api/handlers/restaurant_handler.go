package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

// RestaurantSearcher is the place lookup facade used by the handlers
type RestaurantSearcher interface {
	SearchNearby(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error)
	SearchLocation(ctx context.Context, query string, radiusMeters int) (*entities.GeocodedLocation, []entities.PlaceSummary, error)
	GetDetails(ctx context.Context, placeID string) (*entities.Place, error)
	GetReviews(ctx context.Context, placeID string) (*entities.Place, error)
	CachedDetails(ctx context.Context, placeID string) (*entities.Place, bool)
	State() entities.SearchState
	DefaultRadius() int
}

// RestaurantHandler handles restaurant search and details requests
type RestaurantHandler struct {
	search        RestaurantSearcher
	defaultCenter entities.LatLng
}

// NewRestaurantHandler creates a new restaurant handler. defaultCenter is
// used when a search omits coordinates.
func NewRestaurantHandler(search RestaurantSearcher, defaultCenter entities.LatLng) *RestaurantHandler {
	return &RestaurantHandler{
		search:        search,
		defaultCenter: defaultCenter,
	}
}

// restaurantSummaryResponse adds display fields to a search result
type restaurantSummaryResponse struct {
	entities.PlaceSummary
	StatusLabel string `json:"status_label"`
}

// SearchNearby handles GET /api/restaurants/nearby?lat=&lng=&radius=
func (h *RestaurantHandler) SearchNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	center := h.defaultCenter

	if raw := query.Get("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid latitude parameter")
			return
		}
		center.Lat = lat
	}
	if raw := query.Get("lng"); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid longitude parameter")
			return
		}
		center.Lng = lng
	}

	radius, ok := parseRadius(w, r)
	if !ok {
		return
	}

	results, err := h.search.SearchNearby(r.Context(), center, radius)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	restaurants := summaryResponses(results)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": restaurants,
		"count":       len(restaurants),
		"center":      center,
		"radius":      h.search.State().CurrentRadiusMeters,
	})
}

// SearchLocation handles GET /api/restaurants/search?q=&radius=
func (h *RestaurantHandler) SearchLocation(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	radius, ok := parseRadius(w, r)
	if !ok {
		return
	}

	location, results, err := h.search.SearchLocation(r.Context(), query, radius)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	restaurants := summaryResponses(results)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"location":    location,
		"restaurants": restaurants,
		"count":       len(restaurants),
		"center":      location.Location,
		"radius":      h.search.State().CurrentRadiusMeters,
	})
}

// parseRadius reads the optional radius parameter; zero means default.
func parseRadius(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("radius")
	if raw == "" {
		return 0, true
	}
	radius, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid radius parameter")
		return 0, false
	}
	return radius, true
}

func summaryResponses(results []entities.PlaceSummary) []restaurantSummaryResponse {
	restaurants := make([]restaurantSummaryResponse, len(results))
	for i := range results {
		restaurants[i] = restaurantSummaryResponse{
			PlaceSummary: results[i],
			StatusLabel:  results[i].StatusLabel(),
		}
	}
	return restaurants
}

// GetRestaurant handles GET /api/restaurants/{id}
func (h *RestaurantHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	place, err := h.search.GetDetails(r.Context(), placeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, place)
}

// GetReviews handles GET /api/restaurants/{id}/reviews
func (h *RestaurantHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	place, err := h.search.GetReviews(r.Context(), placeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	reviews := place.Reviews
	if reviews == nil {
		reviews = []entities.Review{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"place_id":           placeID,
		"name":               place.Name,
		"rating":             place.Rating,
		"user_ratings_total": place.UserRatingsTotal,
		"reviews":            reviews,
		"count":              len(reviews),
	})
}
