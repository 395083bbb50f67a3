package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"sync"
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

const wellFormedAnalysis = `{"sentimentScore":0.95,"satisfactionScore":95,"strengths":["food"],"improvements":[],"recommendation":"Great","targetAudience":"everyone","confidence":0.9}`

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Ready() bool {
	return m.Called().Bool(0)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	args := m.Called(ctx, prompt)
	return args.Get(0).(iter.Seq2[string, error])
}

type stubReviewSource struct {
	place *entities.Place
	err   error
}

func (s *stubReviewSource) GetReviews(_ context.Context, placeID string) (*entities.Place, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.place, nil
}

func newAnalysisCache(t *testing.T) *cache.LRUStore[*entities.AnalysisResult] {
	t.Helper()
	store, err := cache.NewLRUStore[*entities.AnalysisResult](10)
	require.NoError(t, err)
	return store
}

func greatFoodReviews() []entities.Review {
	return []entities.Review{{Rating: 5, Text: "Great food", AuthorName: "A", PostedAtEpochSeconds: 1000}}
}

func readyGenerator() *mockGenerator {
	gen := new(mockGenerator)
	gen.On("Ready").Return(true).Maybe()
	return gen
}

func TestAnalyze_WellFormedResponseIsReturnedAndCached(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Review 1 (rating: 5/5): Great food")
	})).Return(wellFormedAnalysis, nil).Once()
	store := newAnalysisCache(t)
	svc := services.NewAnalysisService(gen, nil, store)

	result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())

	require.NoError(t, err)
	want := &entities.AnalysisResult{
		SentimentScore:    0.95,
		SatisfactionScore: 95,
		Strengths:         []string{"food"},
		Improvements:      []string{},
		Recommendation:    "Great",
		TargetAudience:    "everyone",
		Confidence:        0.9,
	}
	assert.Equal(t, want, result)

	cached, ok := store.Get(context.Background(), "place-1")
	require.True(t, ok)
	assert.Equal(t, want, cached)
	gen.AssertExpectations(t)
}

func TestAnalyze_EmptyImprovementsSerializeAsEmptyList(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).Return(wellFormedAnalysis, nil).Once()
	svc := services.NewAnalysisService(gen, nil, newAnalysisCache(t))

	fresh, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
	require.NoError(t, err)
	cached, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
	require.NoError(t, err)

	for _, result := range []*entities.AnalysisResult{fresh, cached} {
		require.NotNil(t, result.Improvements)
		body, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"improvements":[]`)
		assert.Contains(t, string(body), `"strengths":["food"]`)
	}
	gen.AssertExpectations(t)
}

func TestAnalyze_EmptyReviewsIsAbsent(t *testing.T) {
	gen := new(mockGenerator)
	store := newAnalysisCache(t)
	svc := services.NewAnalysisService(gen, nil, store)

	result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", nil)

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, store.Len())
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAnalyze_CacheHitSkipsGenerator(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).Return(wellFormedAnalysis, nil).Once()
	svc := services.NewAnalysisService(gen, nil, newAnalysisCache(t))

	first, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	gen.AssertNumberOfCalls(t, "Generate", 1)

	// Returned values do not alias the cached entry.
	second.Strengths[0] = "mutated"
	third, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
	require.NoError(t, err)
	assert.Equal(t, []string{"food"}, third.Strengths)
}

func TestAnalyze_ProviderFailureReturnsUncachedFallback(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("", apperrors.New(apperrors.ErrorTypeRateLimited, "slow down", nil)).Once()
	store := newAnalysisCache(t)
	svc := services.NewAnalysisService(gen, nil, store)

	result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())

	require.NoError(t, err)
	assert.Equal(t, entities.FallbackAnalysis(), result)
	assert.Equal(t, 50, result.SatisfactionScore)
	assert.Equal(t, 0.1, result.Confidence)
	_, ok := store.Get(context.Background(), "place-1")
	assert.False(t, ok)
}

func TestAnalyze_UnparsableResponseReturnsFallback(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).Return("I cannot answer that.", nil).Once()
	store := newAnalysisCache(t)
	svc := services.NewAnalysisService(gen, nil, store)

	result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())

	require.NoError(t, err)
	assert.Equal(t, entities.FallbackAnalysis(), result)
	assert.Equal(t, 0, store.Len())
}

func TestAnalyze_NotInitialized(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Ready").Return(false)
	svc := services.NewAnalysisService(gen, nil, newAnalysisCache(t))

	result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())

	assert.Nil(t, result)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotInitialized))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAnalyze_ConcurrentCallsShareOneGeneration(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startOnce sync.Once

	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			startOnce.Do(func() { close(started) })
			<-release
		}).
		Return(wellFormedAnalysis, nil)
	svc := services.NewAnalysisService(gen, nil, newAnalysisCache(t))

	const callers = 5
	results := make([]*entities.AnalysisResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Analyze(context.Background(), "place-1", "Sushi Bar", greatFoodReviews())
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	gen.AssertNumberOfCalls(t, "Generate", 1)
	for _, result := range results {
		assert.Equal(t, 95, result.SatisfactionScore)
	}
}

func TestAnalyzePlace_FetchesReviews(t *testing.T) {
	gen := readyGenerator()
	gen.On("Generate", mock.Anything, mock.Anything).Return(wellFormedAnalysis, nil).Once()
	source := &stubReviewSource{place: &entities.Place{PlaceID: "place-1", Name: "Sushi Bar", Reviews: greatFoodReviews()}}
	svc := services.NewAnalysisService(gen, source, newAnalysisCache(t))

	place, analysis, err := svc.AnalyzePlace(context.Background(), "place-1")

	require.NoError(t, err)
	assert.Equal(t, "Sushi Bar", place.Name)
	require.NotNil(t, analysis)
	assert.Equal(t, "Great", analysis.Recommendation)

	cached, ok := svc.CachedAnalysis(context.Background(), "place-1")
	assert.True(t, ok)
	assert.Equal(t, analysis, cached)
	assert.Equal(t, 1, svc.CacheSize())
}

func TestAnalyzePlace_Errors(t *testing.T) {
	svc := services.NewAnalysisService(readyGenerator(), nil, newAnalysisCache(t))

	_, _, err := svc.AnalyzePlace(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	_, _, err = svc.AnalyzePlace(context.Background(), "place-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFeatureDisabled))

	lookupErr := apperrors.NewPlaceLookupError("place details", "NOT_FOUND", nil)
	svc = services.NewAnalysisService(readyGenerator(), &stubReviewSource{err: lookupErr}, newAnalysisCache(t))
	_, _, err = svc.AnalyzePlace(context.Background(), "place-1")
	assert.True(t, errors.Is(err, lookupErr))
}

func TestStreamAnalysis(t *testing.T) {
	chunks := func(yield func(string, error) bool) {
		for _, chunk := range []string{"{\"sentimentScore\":", "0.9}"} {
			if !yield(chunk, nil) {
				return
			}
		}
	}
	gen := readyGenerator()
	gen.On("GenerateStream", mock.Anything, mock.Anything).Return(iter.Seq2[string, error](chunks)).Once()
	source := &stubReviewSource{place: &entities.Place{PlaceID: "place-1", Name: "Sushi Bar", Reviews: greatFoodReviews()}}
	store := newAnalysisCache(t)
	svc := services.NewAnalysisService(gen, source, store)

	seq, err := svc.StreamAnalysis(context.Background(), "place-1")
	require.NoError(t, err)

	var sb strings.Builder
	for chunk, err := range seq {
		require.NoError(t, err)
		sb.WriteString(chunk)
	}
	assert.Equal(t, `{"sentimentScore":0.9}`, sb.String())
	assert.Equal(t, 0, store.Len())

	empty := &stubReviewSource{place: &entities.Place{PlaceID: "place-2", Name: "Quiet Cafe"}}
	svc = services.NewAnalysisService(gen, empty, store)
	_, err = svc.StreamAnalysis(context.Background(), "place-2")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}
