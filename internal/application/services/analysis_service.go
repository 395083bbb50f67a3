package services

import (
	"context"
	"iter"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// ReviewSource supplies the reviews of a place
type ReviewSource interface {
	GetReviews(ctx context.Context, placeID string) (*entities.Place, error)
}

// AnalysisService turns a place's reviews into a validated AnalysisResult.
// Successful results are cached by place ID; failures degrade to a fixed
// low-confidence fallback that is not cached.
type AnalysisService struct {
	generator providers.TextGenerator
	reviews   ReviewSource
	cache     providers.ResponseCache[*entities.AnalysisResult]
	metrics   *observability.Metrics
	inflight  singleflight.Group
}

// NewAnalysisService creates a new analysis service. reviews may be nil
// when only Analyze is used.
func NewAnalysisService(
	generator providers.TextGenerator,
	reviews ReviewSource,
	cache providers.ResponseCache[*entities.AnalysisResult],
) *AnalysisService {
	return &AnalysisService{
		generator: generator,
		reviews:   reviews,
		cache:     cache,
	}
}

// SetMetrics enables cache hit/miss metrics
func (s *AnalysisService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Analyze returns the analysis for placeID. It returns (nil, nil) when
// reviews is empty. The only error surfaced is NOT_INITIALIZED; provider
// and parsing failures produce entities.FallbackAnalysis.
// Concurrent calls for the same placeID share one model call.
func (s *AnalysisService) Analyze(ctx context.Context, placeID, restaurantName string, reviews []entities.Review) (*entities.AnalysisResult, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	ctx, span := observability.StartSpan(ctx, "analysis.Analyze")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("place.id", placeID),
		attribute.Int("reviews.count", len(reviews)),
	)

	if cached, ok := s.cache.Get(ctx, placeID); ok {
		s.recordCache(ctx, true)
		observability.LoggerFromContext(ctx).Debug().Str("place_id", placeID).Msg("analysis served from cache")
		return cached.Clone(), nil
	}
	s.recordCache(ctx, false)

	if s.generator == nil || !s.generator.Ready() {
		return nil, apperrors.NewNotInitializedError()
	}

	shared, err, _ := s.inflight.Do(placeID, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), placeID, restaurantName, reviews), nil
	})
	if err != nil {
		return nil, err
	}
	return shared.(*entities.AnalysisResult).Clone(), nil
}

// generate runs prompt -> model -> extract -> validate -> cache.
func (s *AnalysisService) generate(ctx context.Context, placeID, restaurantName string, reviews []entities.Review) *entities.AnalysisResult {
	logger := observability.LoggerFromContext(ctx).With().
		Str("place_id", placeID).
		Int("reviews", len(reviews)).
		Logger()

	if cached, ok := s.cache.Get(ctx, placeID); ok {
		return cached
	}

	prompt, err := RenderAnalysisPrompt(restaurantName, reviews)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render analysis prompt")
		return entities.FallbackAnalysis()
	}

	logger.Info().Str("restaurant", restaurantName).Msg("starting AI analysis")
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", string(apperrors.TypeOf(err))).Msg("AI analysis failed, returning fallback")
		return entities.FallbackAnalysis()
	}

	payload, err := extractAnalysisPayload(text)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", string(apperrors.TypeOf(err))).Msg("AI response could not be parsed, returning fallback")
		logger.Debug().Str("response", text).Msg("unparsable AI response")
		return entities.FallbackAnalysis()
	}

	result := validateAnalysis(payload)
	s.cache.Put(ctx, placeID, result)

	logger.Info().
		Int("satisfaction_score", result.SatisfactionScore).
		Float64("confidence", result.Confidence).
		Msg("AI analysis complete")
	return result
}

// AnalyzePlace fetches the reviews of placeID and analyzes them. The
// returned analysis is nil when the place has no reviews.
func (s *AnalysisService) AnalyzePlace(ctx context.Context, placeID string) (*entities.Place, *entities.AnalysisResult, error) {
	place, err := s.lookupReviews(ctx, placeID)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := s.Analyze(ctx, placeID, place.Name, place.Reviews)
	if err != nil {
		return place, nil, err
	}
	return place, analysis, nil
}

// StreamAnalysis streams the raw model text for placeID's review prompt.
// Streamed output is neither validated nor cached.
func (s *AnalysisService) StreamAnalysis(ctx context.Context, placeID string) (iter.Seq2[string, error], error) {
	place, err := s.lookupReviews(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if len(place.Reviews) == 0 {
		return nil, apperrors.NewValidationError("place has no reviews to analyze")
	}
	if s.generator == nil || !s.generator.Ready() {
		return nil, apperrors.NewNotInitializedError()
	}

	prompt, err := RenderAnalysisPrompt(place.Name, place.Reviews)
	if err != nil {
		return nil, err
	}
	return s.generator.GenerateStream(ctx, prompt), nil
}

// CachedAnalysis returns the cached analysis for placeID without generating one
func (s *AnalysisService) CachedAnalysis(ctx context.Context, placeID string) (*entities.AnalysisResult, bool) {
	cached, ok := s.cache.Get(ctx, placeID)
	if !ok {
		return nil, false
	}
	return cached.Clone(), true
}

// CacheSize returns the number of cached analyses
func (s *AnalysisService) CacheSize() int {
	return s.cache.Len()
}

// GeneratorReady reports whether AI analysis is available
func (s *AnalysisService) GeneratorReady() bool {
	return s.generator != nil && s.generator.Ready()
}

func (s *AnalysisService) lookupReviews(ctx context.Context, placeID string) (*entities.Place, error) {
	if placeID == "" {
		return nil, apperrors.NewValidationError("place ID is required")
	}
	if s.reviews == nil {
		return nil, apperrors.NewFeatureDisabledError("place lookup")
	}
	return s.reviews.GetReviews(ctx, placeID)
}

func (s *AnalysisService) recordCache(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		observability.RecordCacheHit(ctx, s.metrics, "analysis")
	} else {
		observability.RecordCacheMiss(ctx, s.metrics, "analysis")
	}
}
