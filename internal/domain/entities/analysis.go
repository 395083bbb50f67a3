package entities

import "slices"

// Bounds applied to every AnalysisResult
const (
	MaxAnalysisListItems      = 3
	MaxRecommendationLength   = 100
	MaxTargetAudienceLength   = 50
	MaxSatisfactionScore      = 100
	DefaultSentimentScore     = 0.5
	DefaultSatisfactionScore  = 50
	DefaultConfidence         = 0.7
	FallbackConfidence        = 0.1
	DefaultRecommendation     = "Analysis generated by Gemini"
	DefaultTargetAudience     = "everyone"
	DefaultStrength           = "no analysis data"
	DefaultImprovement        = "insufficient data"
	FallbackStrength          = "data unavailable"
	FallbackImprovement       = "AI analysis failed"
	FallbackRecommendation    = "please review manually"
	highConfidenceThreshold   = 0.7
	mediumConfidenceThreshold = 0.5
)

// AnalysisResult is the validated AI summary of a place's reviews.
// Values are bounded by the validation step before construction and
// never mutated afterwards.
type AnalysisResult struct {
	SentimentScore    float64  `json:"sentiment_score"`
	SatisfactionScore int      `json:"satisfaction_score"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	Recommendation    string   `json:"recommendation"`
	TargetAudience    string   `json:"target_audience"`
	Confidence        float64  `json:"confidence"`
}

// FallbackAnalysis is returned when the AI call or its parsing fails.
// It is never cached.
func FallbackAnalysis() *AnalysisResult {
	return &AnalysisResult{
		SentimentScore:    DefaultSentimentScore,
		SatisfactionScore: DefaultSatisfactionScore,
		Strengths:         []string{FallbackStrength},
		Improvements:      []string{FallbackImprovement},
		Recommendation:    FallbackRecommendation,
		TargetAudience:    DefaultTargetAudience,
		Confidence:        FallbackConfidence,
	}
}

// ConfidenceLevel buckets Confidence as high, medium or low
func (a *AnalysisResult) ConfidenceLevel() string {
	switch {
	case a.Confidence > highConfidenceThreshold:
		return "high"
	case a.Confidence > mediumConfidenceThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Clone returns a deep copy so callers cannot alias cached slices
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	c.Strengths = slices.Clone(a.Strengths)
	c.Improvements = slices.Clone(a.Improvements)
	return &c
}
