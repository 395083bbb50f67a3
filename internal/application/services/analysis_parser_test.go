package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

func TestExtractAnalysisPayload_FencedWithProse(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"sentimentScore\":0.9,\"strengths\":[\"service\"]}\n```\nThanks!"

	payload, err := extractAnalysisPayload(raw)

	require.NoError(t, err)
	assert.Equal(t, 0.9, payload["sentimentScore"])
	assert.Equal(t, []any{"service"}, payload["strengths"])
}

func TestExtractAnalysisPayload_PlainObject(t *testing.T) {
	payload, err := extractAnalysisPayload(`{"confidence":0.4}`)

	require.NoError(t, err)
	assert.Equal(t, 0.4, payload["confidence"])
}

func TestExtractAnalysisPayload_RepairsFromBalancedSubstring(t *testing.T) {
	// The outermost-brace cut spans two objects and does not parse.
	raw := `noise {"sentimentScore":0.3,"recommendation":"try {the} soup"} trailing } junk`

	payload, err := extractAnalysisPayload(raw)

	require.NoError(t, err)
	assert.Equal(t, 0.3, payload["sentimentScore"])
	assert.Equal(t, "try {the} soup", payload["recommendation"])
}

func TestExtractAnalysisPayload_SkipsUnparsableCandidates(t *testing.T) {
	raw := `{not json} then {"confidence":0.8}`

	payload, err := extractAnalysisPayload(raw)

	require.NoError(t, err)
	assert.Equal(t, 0.8, payload["confidence"])
}

func TestExtractAnalysisPayload_Malformed(t *testing.T) {
	for _, raw := range []string{"", "no braces at all", "{\"sentimentScore\": 0.9", "[1,2,3]", "null"} {
		t.Run(raw, func(t *testing.T) {
			_, err := extractAnalysisPayload(raw)
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeMalformedAnalysisJSON))
		})
	}
}

func TestValidateAnalysis_InBoundsIsVerbatim(t *testing.T) {
	payload, err := extractAnalysisPayload(`{"sentimentScore":0.95,"satisfactionScore":95,"strengths":["food"],"improvements":[],"recommendation":"Great","targetAudience":"everyone","confidence":0.9}`)
	require.NoError(t, err)

	result := validateAnalysis(payload)

	assert.Equal(t, &entities.AnalysisResult{
		SentimentScore:    0.95,
		SatisfactionScore: 95,
		Strengths:         []string{"food"},
		Improvements:      []string{},
		Recommendation:    "Great",
		TargetAudience:    "everyone",
		Confidence:        0.9,
	}, result)
}

func TestValidateAnalysis_ClampsAdversarialValues(t *testing.T) {
	result := validateAnalysis(analysisPayload{
		"sentimentScore":    7.5,
		"satisfactionScore": -40.0,
		"strengths":         []any{"a", "b", "c", "d", "e"},
		"improvements":      []any{"  ", 12.0, "slow service"},
		"recommendation":    strings.Repeat("r", 250),
		"targetAudience":    strings.Repeat("t", 80),
		"confidence":        -0.2,
	})

	assert.Equal(t, 1.0, result.SentimentScore)
	assert.Equal(t, 0, result.SatisfactionScore)
	assert.Equal(t, []string{"a", "b", "c"}, result.Strengths)
	assert.Equal(t, []string{"slow service"}, result.Improvements)
	assert.Len(t, result.Recommendation, entities.MaxRecommendationLength)
	assert.Len(t, result.TargetAudience, entities.MaxTargetAudienceLength)
	assert.Equal(t, 0.0, result.Confidence)

	high := validateAnalysis(analysisPayload{"satisfactionScore": 1e9})
	assert.Equal(t, 100, high.SatisfactionScore)
}

func TestValidateAnalysis_DefaultsForMissingOrWrongTypes(t *testing.T) {
	result := validateAnalysis(analysisPayload{
		"sentimentScore":    "very positive",
		"satisfactionScore": true,
		"strengths":         "good food",
		"recommendation":    42.0,
		"targetAudience":    "",
	})

	assert.Equal(t, entities.DefaultSentimentScore, result.SentimentScore)
	assert.Equal(t, entities.DefaultSatisfactionScore, result.SatisfactionScore)
	assert.Equal(t, []string{entities.DefaultStrength}, result.Strengths)
	assert.Equal(t, []string{entities.DefaultImprovement}, result.Improvements)
	assert.Equal(t, entities.DefaultRecommendation, result.Recommendation)
	assert.Equal(t, entities.DefaultTargetAudience, result.TargetAudience)
	assert.Equal(t, entities.DefaultConfidence, result.Confidence)
}

func TestValidateAnalysis_NumericStringsAndZero(t *testing.T) {
	result := validateAnalysis(analysisPayload{
		"sentimentScore":    "0.8 (positive)",
		"satisfactionScore": "87.9",
		"confidence":        0.0,
	})

	assert.Equal(t, 0.8, result.SentimentScore)
	assert.Equal(t, 87, result.SatisfactionScore)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestValidateAnalysis_TruncatesByRune(t *testing.T) {
	result := validateAnalysis(analysisPayload{
		"recommendation": strings.Repeat("美", 120),
		"targetAudience": strings.Repeat("家", 60),
	})

	assert.Equal(t, strings.Repeat("美", 100), result.Recommendation)
	assert.Equal(t, strings.Repeat("家", 50), result.TargetAudience)
}

func TestMatchingBrace_IgnoresBracesInStrings(t *testing.T) {
	text := `{"a":"}{","b":{"c":1}}`
	assert.Equal(t, len(text)-1, matchingBrace(text, 0))
	assert.Equal(t, -1, matchingBrace(`{"open":`, 0))
}
