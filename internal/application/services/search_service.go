package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Radius bounds accepted by the places nearby search
const (
	MinSearchRadiusMeters     = 1
	MaxSearchRadiusMeters     = 50000
	DefaultSearchRadiusMeters = 1000
)

// SearchService is the place lookup facade. It owns the nearby-search
// state, caches details lookups, and counts every places call.
type SearchService struct {
	places        providers.PlaceLookup
	usage         providers.UsageRecorder
	details       providers.ResponseCache[*entities.Place]
	defaultRadius int
	metrics       *observability.Metrics

	mu           sync.Mutex
	isSearching  bool
	lastLocation *entities.LatLng
	lastQuery    string
	radius       int
	results      []entities.PlaceSummary
}

// NewSearchService creates a new search service
func NewSearchService(
	places providers.PlaceLookup,
	usage providers.UsageRecorder,
	details providers.ResponseCache[*entities.Place],
	defaultRadius int,
) *SearchService {
	if defaultRadius < MinSearchRadiusMeters || defaultRadius > MaxSearchRadiusMeters {
		defaultRadius = DefaultSearchRadiusMeters
	}
	return &SearchService{
		places:        places,
		usage:         usage,
		details:       details,
		defaultRadius: defaultRadius,
		radius:        defaultRadius,
	}
}

// SetMetrics enables cache hit/miss metrics
func (s *SearchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SearchNearby finds restaurants around center. A radius of zero uses the
// default. A search started while another is running fails with CONFLICT
// instead of waiting.
func (s *SearchService) SearchNearby(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error) {
	if s.places == nil {
		return nil, apperrors.NewFeatureDisabledError("place lookup")
	}
	if center.Lat < -90 || center.Lat > 90 || center.Lng < -180 || center.Lng > 180 {
		return nil, apperrors.NewValidationError("coordinates out of range")
	}
	radiusMeters, err := s.resolveRadius(radiusMeters)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.isSearching {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("a restaurant search is already in progress")
	}
	s.isSearching = true
	s.radius = radiusMeters
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSearching = false
		s.mu.Unlock()
	}()

	ctx, span := observability.StartSpan(ctx, "search.SearchNearby")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Float64("search.lat", center.Lat),
		attribute.Float64("search.lng", center.Lng),
		attribute.Int("search.radius", radiusMeters),
	)

	logger := observability.LoggerFromContext(ctx)
	s.record(entities.UsageNearbySearch)

	results, err := s.places.NearbySearch(ctx, center, radiusMeters)
	if err != nil {
		logger.Error().Err(err).Int("radius", radiusMeters).Msg("restaurant search failed")
		return nil, err
	}

	s.mu.Lock()
	loc := center
	s.lastLocation = &loc
	s.results = slices.Clone(results)
	s.mu.Unlock()

	logger.Info().Int("results", len(results)).Int("radius", radiusMeters).Msg("restaurant search complete")
	return results, nil
}

// SearchLocation geocodes a free-text address and runs a nearby search
// centered on the match. Geocoding failures are returned unchanged.
func (s *SearchService) SearchLocation(ctx context.Context, query string, radiusMeters int) (*entities.GeocodedLocation, []entities.PlaceSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, apperrors.NewValidationError("search query is required")
	}
	if s.places == nil {
		return nil, nil, apperrors.NewFeatureDisabledError("place lookup")
	}
	if _, err := s.resolveRadius(radiusMeters); err != nil {
		return nil, nil, err
	}

	geoCtx, span := observability.StartSpan(ctx, "search.Geocode")
	observability.SetSpanAttributes(span, attribute.String("search.query", query))
	location, err := s.places.Geocode(geoCtx, query)
	span.End()
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("location not found")
		return nil, nil, err
	}

	s.mu.Lock()
	s.lastQuery = query
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("query", query).
		Float64("lat", location.Location.Lat).
		Float64("lng", location.Location.Lng).
		Msg("location resolved")

	results, err := s.SearchNearby(ctx, location.Location, radiusMeters)
	if err != nil {
		return location, nil, err
	}
	return location, results, nil
}

// GetDetails returns the details record for placeID, fetching it only on
// a cache miss.
func (s *SearchService) GetDetails(ctx context.Context, placeID string) (*entities.Place, error) {
	if placeID == "" {
		return nil, apperrors.NewValidationError("place ID is required")
	}
	if cached, ok := s.details.Get(ctx, placeID); ok {
		s.recordCache(ctx, true)
		return cached.Clone(), nil
	}
	s.recordCache(ctx, false)

	if s.places == nil {
		return nil, apperrors.NewFeatureDisabledError("place lookup")
	}

	ctx, span := observability.StartSpan(ctx, "search.GetDetails")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("place.id", placeID))

	s.record(entities.UsagePlaceDetails)
	place, err := s.places.GetDetails(ctx, placeID, entities.DetailsFields)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("place_id", placeID).Msg("place details lookup failed")
		return nil, err
	}

	s.details.Put(ctx, placeID, place)
	return place.Clone(), nil
}

// GetReviews fetches the review field set of placeID. Reviews are not cached.
func (s *SearchService) GetReviews(ctx context.Context, placeID string) (*entities.Place, error) {
	if placeID == "" {
		return nil, apperrors.NewValidationError("place ID is required")
	}
	if s.places == nil {
		return nil, apperrors.NewFeatureDisabledError("place lookup")
	}

	ctx, span := observability.StartSpan(ctx, "search.GetReviews")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("place.id", placeID))

	s.record(entities.UsagePlaceDetails)
	place, err := s.places.GetDetails(ctx, placeID, entities.ReviewFields)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("place_id", placeID).Msg("review lookup failed")
		return nil, err
	}
	observability.LoggerFromContext(ctx).Debug().Str("place_id", placeID).Int("reviews", len(place.Reviews)).Msg("reviews fetched")
	return place, nil
}

// CachedDetails returns the cached details of placeID without fetching
func (s *SearchService) CachedDetails(ctx context.Context, placeID string) (*entities.Place, bool) {
	cached, ok := s.details.Get(ctx, placeID)
	if !ok {
		return nil, false
	}
	return cached.Clone(), true
}

// State returns a snapshot of the search state. AnalysisCacheSize is left
// for the caller to fill.
func (s *SearchService) State() entities.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := entities.SearchState{
		IsSearching:         s.isSearching,
		CurrentRadiusMeters: s.radius,
		LastSearchQuery:     s.lastQuery,
		RestaurantResults:   slices.Clone(s.results),
		DetailsCacheSize:    s.details.Len(),
	}
	if s.lastLocation != nil {
		loc := *s.lastLocation
		state.LastSearchLocation = &loc
	}
	if state.RestaurantResults == nil {
		state.RestaurantResults = []entities.PlaceSummary{}
	}
	return state
}

// DefaultRadius returns the radius used when a search omits one
func (s *SearchService) DefaultRadius() int {
	return s.defaultRadius
}

// resolveRadius applies the default to zero and checks the allowed range
func (s *SearchService) resolveRadius(radiusMeters int) (int, error) {
	if radiusMeters == 0 {
		radiusMeters = s.defaultRadius
	}
	if radiusMeters < MinSearchRadiusMeters || radiusMeters > MaxSearchRadiusMeters {
		return 0, apperrors.NewValidationError("radius must be between 1 and 50000 meters")
	}
	return radiusMeters, nil
}

func (s *SearchService) record(category entities.UsageCategory) {
	if s.usage != nil {
		s.usage.Record(category)
	}
}

func (s *SearchService) recordCache(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		observability.RecordCacheHit(ctx, s.metrics, "details")
	} else {
		observability.RecordCacheMiss(ctx, s.metrics, "details")
	}
}
