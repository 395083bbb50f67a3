package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantfinder/backend/internal/application/services"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

type mockPlaceLookup struct {
	mock.Mock
}

func (m *mockPlaceLookup) NearbySearch(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error) {
	args := m.Called(ctx, center, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PlaceSummary), args.Error(1)
}

func (m *mockPlaceLookup) GetDetails(ctx context.Context, placeID string, fields []entities.PlaceField) (*entities.Place, error) {
	args := m.Called(ctx, placeID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *mockPlaceLookup) Geocode(ctx context.Context, address string) (*entities.GeocodedLocation, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GeocodedLocation), args.Error(1)
}

func newSearchFixture(t *testing.T) (*services.SearchService, *mockPlaceLookup, *services.UsageTracker) {
	t.Helper()
	lookup := new(mockPlaceLookup)
	usage := services.NewUsageTracker(newFakeClock().Now)
	details, err := cache.NewLRUStore[*entities.Place](10)
	require.NoError(t, err)
	return services.NewSearchService(lookup, usage, details, 1000), lookup, usage
}

var tokyoStation = entities.LatLng{Lat: 35.6812, Lng: 139.7671}

func TestSearchNearby_UpdatesStateAndUsage(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	summaries := []entities.PlaceSummary{{PlaceID: "p1", Name: "Sakura"}}
	lookup.On("NearbySearch", mock.Anything, tokyoStation, 1000).Return(summaries, nil).Once()

	results, err := svc.SearchNearby(context.Background(), tokyoStation, 0)

	require.NoError(t, err)
	assert.Equal(t, summaries, results)
	assert.Equal(t, 1, usage.Snapshot().NearbySearchCount)

	state := svc.State()
	assert.False(t, state.IsSearching)
	assert.Equal(t, 1000, state.CurrentRadiusMeters)
	require.NotNil(t, state.LastSearchLocation)
	assert.Equal(t, tokyoStation, *state.LastSearchLocation)
	assert.Equal(t, summaries, state.RestaurantResults)
	lookup.AssertExpectations(t)
}

func TestSearchNearby_RejectsConcurrentSearch(t *testing.T) {
	svc, lookup, _ := newSearchFixture(t)
	release := make(chan struct{})
	started := make(chan struct{})
	lookup.On("NearbySearch", mock.Anything, tokyoStation, 500).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]entities.PlaceSummary{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := svc.SearchNearby(context.Background(), tokyoStation, 500)
		done <- err
	}()

	<-started
	assert.True(t, svc.State().IsSearching)
	_, err := svc.SearchNearby(context.Background(), tokyoStation, 500)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first search did not finish")
	}
	assert.False(t, svc.State().IsSearching)
	lookup.AssertNumberOfCalls(t, "NearbySearch", 1)
}

func TestSearchNearby_ClearsFlagOnFailure(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	lookupErr := apperrors.NewPlaceLookupError("nearby search", "REQUEST_DENIED", nil)
	lookup.On("NearbySearch", mock.Anything, tokyoStation, 1000).Return(nil, lookupErr).Once()

	_, err := svc.SearchNearby(context.Background(), tokyoStation, 1000)

	assert.ErrorIs(t, err, lookupErr)
	assert.False(t, svc.State().IsSearching)
	assert.Equal(t, 1, usage.Snapshot().NearbySearchCount)
}

func TestSearchNearby_Validation(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)

	for _, radius := range []int{-5, 50001} {
		_, err := svc.SearchNearby(context.Background(), tokyoStation, radius)
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation), "radius %d", radius)
	}
	_, err := svc.SearchNearby(context.Background(), entities.LatLng{Lat: 91}, 1000)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	lookup.AssertNotCalled(t, "NearbySearch", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, usage.Snapshot().NearbySearchCount)
}

func TestGetDetails_CachesByPlaceID(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	place := &entities.Place{PlaceID: "p1", Name: "Sakura", WeekdayHours: []string{"Monday: 11-22"}}
	lookup.On("GetDetails", mock.Anything, "p1", entities.DetailsFields).Return(place, nil).Once()

	first, err := svc.GetDetails(context.Background(), "p1")
	require.NoError(t, err)
	second, err := svc.GetDetails(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, usage.Snapshot().PlaceDetailsCount)
	assert.Equal(t, 1, svc.State().DetailsCacheSize)

	cached, ok := svc.CachedDetails(context.Background(), "p1")
	assert.True(t, ok)
	assert.Equal(t, "Sakura", cached.Name)
	_, ok = svc.CachedDetails(context.Background(), "p2")
	assert.False(t, ok)
	lookup.AssertExpectations(t)
}

func TestGetReviews_UsesReviewFieldsUncached(t *testing.T) {
	svc, lookup, usage := newSearchFixture(t)
	place := &entities.Place{PlaceID: "p1", Name: "Sakura", Reviews: greatFoodReviews()}
	lookup.On("GetDetails", mock.Anything, "p1", entities.ReviewFields).Return(place, nil).Twice()

	for i := 0; i < 2; i++ {
		got, err := svc.GetReviews(context.Background(), "p1")
		require.NoError(t, err)
		assert.Len(t, got.Reviews, 1)
	}

	assert.Equal(t, 2, usage.Snapshot().PlaceDetailsCount)
	assert.Equal(t, 0, svc.State().DetailsCacheSize)
	lookup.AssertExpectations(t)
}

func TestSearchService_WithoutPlaces(t *testing.T) {
	details, err := cache.NewLRUStore[*entities.Place](10)
	require.NoError(t, err)
	svc := services.NewSearchService(nil, nil, details, 0)

	_, err = svc.SearchNearby(context.Background(), tokyoStation, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFeatureDisabled))
	_, err = svc.GetDetails(context.Background(), "p1")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFeatureDisabled))
	assert.Equal(t, services.DefaultSearchRadiusMeters, svc.DefaultRadius())
	assert.Equal(t, []entities.PlaceSummary{}, svc.State().RestaurantResults)
}
