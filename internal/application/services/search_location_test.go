package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/providers/places"
	"github.com/zatekoja/restaurantfinder/backend/internal/application/services"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

var shibuya = &entities.GeocodedLocation{
	Query:            "Shibuya",
	FormattedAddress: "Shibuya City, Tokyo",
	Location:         entities.LatLng{Lat: 35.658, Lng: 139.7016},
}

func TestSearchLocation_GeocodesThenSearchesNearby(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	summaries := []entities.PlaceSummary{{PlaceID: "p1", Name: "Sakura"}}
	lookup.On("Geocode", mock.Anything, "Shibuya").Return(shibuya, nil).Once()
	lookup.On("NearbySearch", mock.Anything, shibuya.Location, 800).Return(summaries, nil).Once()

	location, results, err := svc.SearchLocation(context.Background(), "  Shibuya ", 800)

	require.NoError(t, err)
	assert.Equal(t, shibuya, location)
	assert.Equal(t, summaries, results)
	assert.Equal(t, 1, usage.Snapshot().NearbySearchCount)

	state := svc.State()
	assert.Equal(t, "Shibuya", state.LastSearchQuery)
	require.NotNil(t, state.LastSearchLocation)
	assert.Equal(t, shibuya.Location, *state.LastSearchLocation)
	assert.Equal(t, 800, state.CurrentRadiusMeters)
	lookup.AssertExpectations(t)
}

func TestSearchLocation_GeocodeFailureSkipsSearch(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	notFound := apperrors.NewPlaceLookupError("geocode", "ZERO_RESULTS", nil)
	lookup.On("Geocode", mock.Anything, "Atlantis").Return(nil, notFound).Once()

	location, results, err := svc.SearchLocation(context.Background(), "Atlantis", 0)

	assert.ErrorIs(t, err, notFound)
	assert.Nil(t, location)
	assert.Nil(t, results)
	assert.Empty(t, svc.State().LastSearchQuery)
	assert.Equal(t, 0, usage.Snapshot().NearbySearchCount)
	lookup.AssertNotCalled(t, "NearbySearch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchLocation_Validation(t *testing.T) {
	svc, lookup, _ := newSearchFixture(t)

	_, _, err := svc.SearchLocation(context.Background(), "   ", 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
	_, _, err = svc.SearchLocation(context.Background(), "Shibuya", 60000)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
	lookup.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)

	details, err := cache.NewLRUStore[*entities.Place](10)
	require.NoError(t, err)
	disabled := services.NewSearchService(nil, nil, details, 0)
	_, _, err = disabled.SearchLocation(context.Background(), "Shibuya", 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFeatureDisabled))
}

func TestSearchLocation_WithGooglePlacesAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /geocode/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tokyo Station", r.URL.Query().Get("address"))
		_, _ = w.Write([]byte(`{"status": "OK", "results": [
			{"formatted_address": "Tokyo Station, Chiyoda City", "geometry": {"location": {"lat": 35.6812, "lng": 139.7671}}}
		]}`))
	})
	mux.HandleFunc("GET /nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.681200,139.767100", r.URL.Query().Get("location"))
		assert.Equal(t, "1000", r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"status": "OK", "results": [
			{"place_id": "p1", "name": "Sakura", "rating": 4.2, "geometry": {"location": {"lat": 35.682, "lng": 139.768}}}
		]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	usage := services.NewUsageTracker(time.Now)
	details, err := cache.NewLRUStore[*entities.Place](10)
	require.NoError(t, err)
	provider := places.NewGoogleProviderWithOptions("test-key", server.URL, server.Client())
	svc := services.NewSearchService(provider, usage, details, 1000)

	location, results, err := svc.SearchLocation(context.Background(), "Tokyo Station", 0)

	require.NoError(t, err)
	assert.Equal(t, "Tokyo Station, Chiyoda City", location.FormattedAddress)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].PlaceID)
	assert.Equal(t, entities.RatingTierHigh, results[0].RatingTier)
	assert.Equal(t, 1, usage.Snapshot().NearbySearchCount)
}
