package handlers_test

import (
	"context"
	"iter"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

type stubSearcher struct {
	results    []entities.PlaceSummary
	place      *entities.Place
	err        error
	lastCenter entities.LatLng
	lastRadius int
	lastQuery  string
	location   *entities.GeocodedLocation
	cached     map[string]*entities.Place
	state      entities.SearchState
}

func (s *stubSearcher) SearchNearby(_ context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error) {
	s.lastCenter = center
	s.lastRadius = radiusMeters
	if s.err != nil {
		return nil, s.err
	}
	s.state.CurrentRadiusMeters = radiusMeters
	s.state.RestaurantResults = s.results
	return s.results, nil
}

func (s *stubSearcher) SearchLocation(_ context.Context, query string, radiusMeters int) (*entities.GeocodedLocation, []entities.PlaceSummary, error) {
	s.lastQuery = query
	s.lastRadius = radiusMeters
	if s.err != nil {
		return nil, nil, s.err
	}
	s.state.CurrentRadiusMeters = radiusMeters
	s.state.RestaurantResults = s.results
	return s.location, s.results, nil
}

func (s *stubSearcher) GetDetails(_ context.Context, placeID string) (*entities.Place, error) {
	return s.place, s.err
}

func (s *stubSearcher) GetReviews(_ context.Context, placeID string) (*entities.Place, error) {
	return s.place, s.err
}

func (s *stubSearcher) CachedDetails(_ context.Context, placeID string) (*entities.Place, bool) {
	place, ok := s.cached[placeID]
	return place, ok
}

func (s *stubSearcher) State() entities.SearchState {
	return s.state
}

func (s *stubSearcher) DefaultRadius() int {
	return 1000
}

type stubAnalyzer struct {
	place    *entities.Place
	analysis *entities.AnalysisResult
	err      error
	chunks   []string
	chunkErr error
	cached   map[string]*entities.AnalysisResult
	ready    bool
}

func (s *stubAnalyzer) AnalyzePlace(_ context.Context, placeID string) (*entities.Place, *entities.AnalysisResult, error) {
	return s.place, s.analysis, s.err
}

func (s *stubAnalyzer) StreamAnalysis(_ context.Context, placeID string) (iter.Seq2[string, error], error) {
	if s.err != nil {
		return nil, s.err
	}
	return func(yield func(string, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if s.chunkErr != nil {
			yield("", s.chunkErr)
		}
	}, nil
}

func (s *stubAnalyzer) CachedAnalysis(_ context.Context, placeID string) (*entities.AnalysisResult, bool) {
	result, ok := s.cached[placeID]
	return result, ok
}

func (s *stubAnalyzer) CacheSize() int {
	return len(s.cached)
}

func (s *stubAnalyzer) GeneratorReady() bool {
	return s.ready
}

type stubUsage struct {
	counters entities.UsageCounters
}

func (s *stubUsage) Snapshot() entities.UsageCounters {
	return s.counters
}
