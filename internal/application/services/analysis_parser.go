package services

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

var (
	fenceMarkers  = regexp.MustCompile("```(?:json)?\\n?")
	leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// analysisPayload is the model output before validation. Field values are
// whatever the model produced.
type analysisPayload map[string]any

// extractAnalysisPayload recovers a JSON object from free model text.
// It first strips code fences and any prose outside the outermost braces;
// if that does not parse it tries each balanced {...} substring of the raw
// text in order.
func extractAnalysisPayload(raw string) (analysisPayload, error) {
	cleaned := fenceMarkers.ReplaceAllString(raw, "")
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}
	cleaned = strings.TrimSpace(cleaned)

	if payload, err := decodeObject(cleaned); err == nil {
		return payload, nil
	}

	for start := strings.Index(raw, "{"); start >= 0; {
		if end := matchingBrace(raw, start); end > start {
			if payload, err := decodeObject(raw[start : end+1]); err == nil {
				return payload, nil
			}
		}
		next := strings.Index(raw[start+1:], "{")
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, apperrors.New(apperrors.ErrorTypeMalformedAnalysisJSON, "no JSON object found in model response", nil)
}

func decodeObject(text string) (analysisPayload, error) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, apperrors.New(apperrors.ErrorTypeMalformedAnalysisJSON, "model response is not a JSON object", nil)
	}
	return payload, nil
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// validateAnalysis coerces every field into its documented bounds,
// substituting defaults for missing or unusable values.
func validateAnalysis(p analysisPayload) *entities.AnalysisResult {
	result := &entities.AnalysisResult{
		SentimentScore:    entities.DefaultSentimentScore,
		SatisfactionScore: entities.DefaultSatisfactionScore,
		Recommendation:    entities.DefaultRecommendation,
		TargetAudience:    entities.DefaultTargetAudience,
		Confidence:        entities.DefaultConfidence,
	}

	if v, ok := numberField(p["sentimentScore"]); ok {
		result.SentimentScore = clamp(v, 0, 1)
	}
	if v, ok := numberField(p["satisfactionScore"]); ok {
		result.SatisfactionScore = int(clamp(math.Trunc(v), 0, entities.MaxSatisfactionScore))
	}
	result.Strengths = listField(p["strengths"], entities.DefaultStrength)
	result.Improvements = listField(p["improvements"], entities.DefaultImprovement)
	if s, ok := p["recommendation"].(string); ok && s != "" {
		result.Recommendation = truncateRunes(s, entities.MaxRecommendationLength)
	}
	if s, ok := p["targetAudience"].(string); ok && s != "" {
		result.TargetAudience = truncateRunes(s, entities.MaxTargetAudienceLength)
	}
	if v, ok := numberField(p["confidence"]); ok {
		result.Confidence = clamp(v, 0, 1)
	}

	return result
}

// numberField accepts JSON numbers and strings with a numeric prefix.
func numberField(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		prefix := leadingNumber.FindString(strings.TrimSpace(v))
		if prefix == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// listField keeps the first few entries of an array, then drops blank and
// non-string items. A non-array yields the single default entry.
func listField(value any, fallback string) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{fallback}
	}
	if len(items) > entities.MaxAnalysisListItems {
		items = items[:entities.MaxAnalysisListItems]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
