package entities

import "time"

// UsageCategory identifies an external API family
type UsageCategory string

const (
	UsageNearbySearch UsageCategory = "nearbySearch"
	UsagePlaceDetails UsageCategory = "placeDetails"
	UsageAIAnalysis   UsageCategory = "aiAnalysis"
)

// UsageWindow is the rolling period after which counters reset
const UsageWindow = 24 * time.Hour

// UsageCounters counts external API calls in the current window
type UsageCounters struct {
	NearbySearchCount  int   `json:"nearby_search_count"`
	PlaceDetailsCount  int   `json:"place_details_count"`
	GeminiRequestCount int   `json:"gemini_request_count"`
	ResetAtEpochMillis int64 `json:"reset_at_epoch_millis"`
}

// SearchState is a snapshot of the nearby-search state
type SearchState struct {
	IsSearching         bool           `json:"is_searching"`
	LastSearchLocation  *LatLng        `json:"last_search_location,omitempty"`
	LastSearchQuery     string         `json:"last_search_query,omitempty"`
	CurrentRadiusMeters int            `json:"current_radius_meters"`
	RestaurantResults   []PlaceSummary `json:"restaurant_results"`
	DetailsCacheSize    int            `json:"details_cache_size"`
	AnalysisCacheSize   int            `json:"analysis_cache_size"`
}
